package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultASNEndpoint = "http://ip-api.com/json"

// Offline fallback for well-known providers when the geo API is
// unreachable. Values are the providers' primary AS numbers.
var knownProviderASNs = map[string]int{
	"google.com":    15169,
	"youtube.com":   15169,
	"microsoft.com": 8075,
	"apple.com":     714,
	"amazon.com":    16509,
	"facebook.com":  32934,
	"github.com":    36459,
	"openai.com":    13335,
}

// ASNProbe is best effort: resolve the host, ask ip-api.com for the AS
// number, fall back to the curated map, otherwise 0.
type ASNProbe struct {
	Endpoint string
	Timeout  time.Duration
}

func NewASNProbe(timeout time.Duration) *ASNProbe {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &ASNProbe{Endpoint: defaultASNEndpoint, Timeout: timeout}
}

func (p *ASNProbe) Lookup(ctx context.Context, domain string) float64 {
	if asn := p.lookupAPI(ctx, domain); asn > 0 {
		return float64(asn)
	}
	for suffix, asn := range knownProviderASNs {
		if domain == suffix || strings.HasSuffix(domain, "."+suffix) {
			return float64(asn)
		}
	}
	return 0
}

func (p *ASNProbe) lookupAPI(ctx context.Context, domain string) int {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", domain)
	if err != nil || len(ips) == 0 {
		return 0
	}

	endpoint := fmt.Sprintf("%s/%s?fields=as", p.Endpoint, ips[0].String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0
	}

	client := &http.Client{Timeout: p.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	var body struct {
		AS string `json:"as"` // "AS15169 Google LLC"
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0
	}

	fields := strings.Fields(body.AS)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "AS") {
		return 0
	}
	asn, err := strconv.Atoi(strings.TrimPrefix(fields[0], "AS"))
	if err != nil {
		return 0
	}
	return asn
}
