package intel

import (
	"context"
	"log"
	"strings"

	"phishguard/internal/probes"
)

// Domain-based reputation lists, queried as <domain>.<rbl>.
var domainRBLs = []string{
	"multi.surbl.org",
	"uribl.spameatingmonkey.net",
	"dbl.spamhaus.org",
}

// IP-based lists, queried as <reversed-ip>.<rbl>.
var ipRBLs = []string{
	"zen.spamhaus.org",
	"bl.spamcop.net",
	"b.barracudacentral.org",
	"psbl.surriel.com",
}

// RBLHit records one positive listing.
type RBLHit struct {
	Zone  string
	Query string
}

// DNSBLChecker probes public realtime blocklists over DNS. A lookup
// failure means "not listed"; only 127.0.0.x answers count as hits,
// anything else is a wildcarding resolver lying to us.
type DNSBLChecker struct {
	DomainRBLs []string
	IPRBLs     []string

	lookupFn func(ctx context.Context, name string) []string
}

func NewDNSBLChecker(dns *probes.DNSProbe) *DNSBLChecker {
	return &DNSBLChecker{
		DomainRBLs: domainRBLs,
		IPRBLs:     ipRBLs,
		lookupFn:   dns.LookupA,
	}
}

// Check queries the domain lists for the domain itself and the IP lists
// for each of its resolved addresses.
func (c *DNSBLChecker) Check(ctx context.Context, domain string, ips []string) []RBLHit {
	var hits []RBLHit

	for _, rbl := range c.DomainRBLs {
		query := domain + "." + rbl
		if c.listed(ctx, query) {
			log.Printf("[rbl] domain listed on %s", rbl)
			hits = append(hits, RBLHit{Zone: rbl, Query: query})
		}
	}

	for _, ip := range ips {
		rev := reverseIP(ip)
		if rev == "" {
			continue
		}
		for _, rbl := range c.IPRBLs {
			query := rev + "." + rbl
			if c.listed(ctx, query) {
				log.Printf("[rbl] ip %s listed on %s", ip, rbl)
				hits = append(hits, RBLHit{Zone: rbl, Query: query})
			}
		}
	}

	return hits
}

func (c *DNSBLChecker) listed(ctx context.Context, query string) bool {
	addrs := c.lookupFn(ctx, query)
	for _, addr := range addrs {
		if strings.HasPrefix(addr, "127.0.0.") {
			return true
		}
	}
	return false
}

// reverseIP flips an IPv4 address for DNSBL zone queries. Returns ""
// for anything that is not dotted-quad.
func reverseIP(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ""
	}
	return parts[3] + "." + parts[2] + "." + parts[1] + "." + parts[0]
}
