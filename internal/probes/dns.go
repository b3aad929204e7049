package probes

import (
	"context"
	"log"
	"time"

	"github.com/miekg/dns"
)

// RetryPolicy is owned per probe; there is no shared global retry state.
type RetryPolicy struct {
	MaxRetries  int
	BackoffBase time.Duration
	Timeout     time.Duration
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	// 0.5s, 1s, 2s... for the default base
	return p.BackoffBase * (1 << attempt)
}

// DNSResult carries the four DNS-derived features plus a diagnostic flag
// that is never exposed to the model.
type DNSResult struct {
	IPsResolved      int
	MXServers        int
	Nameservers      int
	TTL              uint32
	ResolutionFailed bool
}

// DNSProbe queries A, MX and NS records against an ordered resolver chain.
// Resolvers are tried sequentially, never fanned out, so no single DNS
// infrastructure gets hammered by our retries.
type DNSProbe struct {
	Resolvers []string // "addr:port", tried in order
	Policy    RetryPolicy
}

// DefaultResolvers is the system resolver followed by two public ones.
func DefaultResolvers() []string {
	resolvers := []string{}
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		resolvers = append(resolvers, conf.Servers[0]+":"+conf.Port)
	}
	return append(resolvers, "8.8.8.8:53", "1.1.1.1:53")
}

func NewDNSProbe(timeout time.Duration) *DNSProbe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DNSProbe{
		Resolvers: DefaultResolvers(),
		Policy:    RetryPolicy{MaxRetries: 2, BackoffBase: 500 * time.Millisecond, Timeout: timeout},
	}
}

func (p *DNSProbe) Lookup(ctx context.Context, host string) DNSResult {
	var res DNSResult

	answers, ok := p.resolve(ctx, host, dns.TypeA)
	if ok {
		for _, rr := range answers {
			if _, isA := rr.(*dns.A); isA {
				res.IPsResolved++
				res.TTL = rr.Header().Ttl
			}
		}
	}
	if res.IPsResolved == 0 {
		res.ResolutionFailed = true
	}

	// MX and NS proceed even when A resolution failed; the record types
	// are independent.
	if answers, ok := p.resolve(ctx, host, dns.TypeMX); ok {
		for _, rr := range answers {
			if _, isMX := rr.(*dns.MX); isMX {
				res.MXServers++
			}
		}
	}
	if answers, ok := p.resolve(ctx, host, dns.TypeNS); ok {
		for _, rr := range answers {
			if _, isNS := rr.(*dns.NS); isNS {
				res.Nameservers++
			}
		}
	}

	return res
}

// LookupTXT returns the TXT record strings for a name. Shared with the
// SPF probe and the DNSBL checker.
func (p *DNSProbe) LookupTXT(ctx context.Context, name string) []string {
	answers, ok := p.resolve(ctx, name, dns.TypeTXT)
	if !ok {
		return nil
	}
	var records []string
	for _, rr := range answers {
		if txt, isTXT := rr.(*dns.TXT); isTXT {
			for _, s := range txt.Txt {
				records = append(records, s)
			}
		}
	}
	return records
}

// LookupA returns resolved A-record addresses, used by the DNSBL checker
// where a crafted hostname's mere resolvability is the signal.
func (p *DNSProbe) LookupA(ctx context.Context, name string) []string {
	answers, ok := p.resolve(ctx, name, dns.TypeA)
	if !ok {
		return nil
	}
	var addrs []string
	for _, rr := range answers {
		if a, isA := rr.(*dns.A); isA {
			addrs = append(addrs, a.A.String())
		}
	}
	return addrs
}

// resolve walks the resolver chain with per-resolver retries and
// exponential backoff. NXDOMAIN and NoAnswer are definitive negatives:
// retrying the same resolver cannot change them.
func (p *DNSProbe) resolve(ctx context.Context, name string, qtype uint16) ([]dns.RR, bool) {
	client := &dns.Client{Timeout: p.Policy.Timeout}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)

	for _, resolver := range p.Resolvers {
	attempts:
		for attempt := 0; attempt <= p.Policy.MaxRetries; attempt++ {
			if ctx.Err() != nil {
				return nil, false
			}

			in, _, err := client.ExchangeContext(ctx, msg, resolver)
			if err != nil {
				if attempt < p.Policy.MaxRetries {
					select {
					case <-time.After(p.Policy.backoff(attempt)):
					case <-ctx.Done():
						return nil, false
					}
				}
				continue
			}

			switch in.Rcode {
			case dns.RcodeSuccess:
				if len(in.Answer) == 0 {
					// NoAnswer: the name exists but has no records of
					// this type. Retrying this resolver won't change it.
					break attempts
				}
				return in.Answer, true
			case dns.RcodeNameError:
				// NXDOMAIN is a definitive negative for this resolver.
				log.Printf("[dns] NXDOMAIN for %s (%s) via %s", name, dns.TypeToString[qtype], resolver)
				break attempts
			default:
				// SERVFAIL etc: this resolver is unhealthy, move on
				// without burning retries on it.
				break attempts
			}
		}
	}

	return nil, false
}
