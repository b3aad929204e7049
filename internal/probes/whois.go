package probes

import (
	"context"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// Registrars format dates every which way; this list covers the common
// shapes. RFC3339 first since most gTLD servers emit it.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// WhoisResult keeps the "lookup worked" bit explicit. Both day counts are
// only meaningful when Known is true; at assembly they collapse to the 0
// sentinel the trained schema expects.
type WhoisResult struct {
	ActivationDays int // days since registration
	ExpirationDays int // days until expiration; negative once expired
	Known          bool
	Nameservers    []string
}

type WhoisProbe struct {
	Timeout time.Duration
}

func NewWhoisProbe(timeout time.Duration) *WhoisProbe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhoisProbe{Timeout: timeout}
}

func (p *WhoisProbe) Lookup(ctx context.Context, domain string) WhoisResult {
	return p.lookup(ctx, domain, 0)
}

// lookup retries on the registrable parent when the record for a
// subdomain doesn't parse; most WHOIS servers only answer for the
// registered name.
func (p *WhoisProbe) lookup(ctx context.Context, domain string, depth int) WhoisResult {
	if ctx.Err() != nil {
		return WhoisResult{}
	}

	client := whois.NewClient()
	client.SetTimeout(p.Timeout)

	raw, err := client.Whois(domain)
	if err != nil {
		return WhoisResult{}
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil || parsed.Domain == nil {
		parts := strings.Split(domain, ".")
		if len(parts) > 2 && depth < 3 {
			return p.lookup(ctx, strings.Join(parts[1:], "."), depth+1)
		}
		return WhoisResult{}
	}

	res := WhoisResult{}
	for _, ns := range parsed.Domain.NameServers {
		res.Nameservers = append(res.Nameservers, strings.ToLower(ns))
	}

	created, createdOK := parseWhoisDate(parsed.Domain.CreatedDate)
	expires, expiresOK := parseWhoisDate(parsed.Domain.ExpirationDate)

	if !createdOK && !expiresOK {
		return res
	}

	res.Known = true
	if createdOK {
		res.ActivationDays = int(time.Since(created).Hours() / 24)
	}
	if expiresOK {
		res.ExpirationDays = int(time.Until(expires).Hours() / 24)
	}
	return res
}

func parseWhoisDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	// Some TLDs return several dates; the first is the authoritative one.
	if i := strings.IndexAny(value, ",;"); i > 0 {
		value = strings.TrimSpace(value[:i])
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
