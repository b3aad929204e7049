package probes

import (
	"context"
	"strings"
)

// SPFProbe reuses the DNS probe's TXT resolution. The match is a plain
// case-insensitive substring, mirroring how the feature was collected for
// training; a strict v=spf1 prefix check would shift the distribution.
type SPFProbe struct {
	DNS *DNSProbe
}

func (p *SPFProbe) Check(ctx context.Context, domain string) int {
	for _, record := range p.DNS.LookupTXT(ctx, domain) {
		if strings.Contains(strings.ToLower(record), "spf") {
			return 1
		}
	}
	return 0
}
