// Package probes collects the network-derived half of the feature vector.
// Each probe owns its timeout and fallback chain; a slow or failing probe
// never blocks or fails the others, and every output has a 0 default.
package probes

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"phishguard/internal/urlinfo"
)

// indexedAgeThreshold is the domain-age proxy for search indexing: a
// domain registered more than 180 days ago is assumed indexed when the
// search API can't be consulted. Deliberately coarse.
const indexedAgeThreshold = 180

const defaultWorkers = 4

// Collector fans the probes out over a bounded worker pool. The function
// fields exist so tests can substitute deterministic stubs; NewCollector
// wires the real probes.
type Collector struct {
	Workers int

	dnsFn   func(ctx context.Context, host string) DNSResult
	tlsFn   func(ctx context.Context, host string) int
	whoisFn func(ctx context.Context, domain string) WhoisResult
	httpFn  func(ctx context.Context, rawURL string) HTTPResult
	indexFn func(ctx context.Context, rawURL, domain string) IndexResult
	spfFn   func(ctx context.Context, domain string) int
	asnFn   func(ctx context.Context, domain string) float64
}

// A positive timeout overrides every probe's built-in default.
func NewCollector(index *IndexProbe, timeout time.Duration) *Collector {
	dnsProbe := NewDNSProbe(timeout)
	tlsProbe := NewTLSProbe(timeout)
	whoisProbe := NewWhoisProbe(timeout)
	httpProbe := NewHTTPProbe(timeout)
	spfProbe := &SPFProbe{DNS: dnsProbe}
	asnProbe := NewASNProbe(timeout)
	if index != nil && timeout > 0 {
		index.Timeout = timeout
	}

	return &Collector{
		Workers: defaultWorkers,
		dnsFn:   dnsProbe.Lookup,
		tlsFn:   tlsProbe.Check,
		whoisFn: whoisProbe.Lookup,
		httpFn:  httpProbe.Fetch,
		indexFn: index.Check,
		spfFn:   spfProbe.Check,
		asnFn:   asnProbe.Lookup,
	}
}

// Collect runs all probes against one URL and returns their merged partial
// feature map. Keys are disjoint from the lexical computer's by
// construction, so merge order never matters.
func (c *Collector) Collect(ctx context.Context, u *urlinfo.URL) map[string]float64 {
	host := u.Host()

	var (
		dnsRes   DNSResult
		tlsRes   int
		whoisRes WhoisResult
		httpRes  HTTPResult
		indexRes IndexResult
		spfRes   int
		asnRes   float64
	)

	workers := c.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// Each goroutine writes only its own result variable, so the barrier
	// is the only synchronization needed.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	g.Go(func() error { dnsRes = c.dnsFn(gctx, host); return nil })
	g.Go(func() error { tlsRes = c.tlsFn(gctx, host); return nil })
	g.Go(func() error { whoisRes = c.whoisFn(gctx, host); return nil })
	g.Go(func() error { httpRes = c.httpFn(gctx, u.Raw); return nil })
	g.Go(func() error { indexRes = c.indexFn(gctx, u.Raw, host); return nil })
	g.Go(func() error { spfRes = c.spfFn(gctx, host); return nil })
	g.Go(func() error { asnRes = c.asnFn(gctx, host); return nil })

	_ = g.Wait()

	// Cross-probe fallbacks, applied after the barrier so no probe ever
	// waits on another.

	// A domain with live A records should have nameservers; when NS
	// resolution came back empty, the WHOIS record is a second source.
	if dnsRes.Nameservers == 0 && dnsRes.IPsResolved > 0 && len(whoisRes.Nameservers) > 0 {
		dnsRes.Nameservers = uniqueCount(whoisRes.Nameservers)
		log.Printf("[collect] %s: %d nameservers recovered via WHOIS", host, dnsRes.Nameservers)
	}

	// Search API unavailable: use domain age as the indexing proxy.
	if !indexRes.Resolved && whoisRes.Known && whoisRes.ActivationDays > indexedAgeThreshold {
		indexRes.DomainIndexed = 1
		indexRes.URLIndexed = 1
	}

	if dnsRes.ResolutionFailed {
		log.Printf("[collect] %s: A-record resolution failed, DNS features defaulted", host)
	}

	out := map[string]float64{
		"qty_ip_resolved":     float64(dnsRes.IPsResolved),
		"qty_mx_servers":      float64(dnsRes.MXServers),
		"qty_nameservers":     float64(dnsRes.Nameservers),
		"ttl_hostname":        float64(dnsRes.TTL),
		"tls_ssl_certificate": float64(tlsRes),
		"time_response":       httpRes.ResponseSeconds,
		"qty_redirects":       float64(httpRes.Redirects),
		"domain_google_index": float64(indexRes.DomainIndexed),
		"url_google_index":    float64(indexRes.URLIndexed),
		"domain_spf":          float64(spfRes),
		"asn_ip":              asnRes,
	}

	// The WHOIS sentinel: unknown collapses to 0/0 for schema
	// compatibility. The scorer treats that exact pair specially.
	if whoisRes.Known {
		out["time_domain_activation"] = float64(whoisRes.ActivationDays)
		out["time_domain_expiration"] = float64(whoisRes.ExpirationDays)
	} else {
		out["time_domain_activation"] = 0
		out["time_domain_expiration"] = 0
	}

	return out
}

func uniqueCount(names []string) int {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	return len(seen)
}
