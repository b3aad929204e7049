package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// IndexResult reports search-engine visibility. Resolved is false when the
// API could not be consulted at all; the collector then falls back to the
// domain-age proxy.
type IndexResult struct {
	DomainIndexed int
	URLIndexed    int
	Resolved      bool
}

// IndexProbe asks the Custom Search API whether the domain (site:) and the
// exact URL (inurl:) appear in the index. The URL query is only spent when
// the domain is indexed; an un-indexed domain cannot have indexed pages.
type IndexProbe struct {
	APIKey   string
	EngineID string
	Endpoint string
	Timeout  time.Duration
}

func NewIndexProbe(apiKey, engineID string) *IndexProbe {
	return &IndexProbe{
		APIKey:   apiKey,
		EngineID: engineID,
		Endpoint: defaultSearchEndpoint,
		Timeout:  5 * time.Second,
	}
}

func (p *IndexProbe) Check(ctx context.Context, rawURL, domain string) IndexResult {
	if p.APIKey == "" || p.EngineID == "" {
		return IndexResult{}
	}

	domainHits, err := p.query(ctx, "site:"+domain)
	if err != nil {
		return IndexResult{}
	}

	res := IndexResult{Resolved: true}
	if domainHits > 0 {
		res.DomainIndexed = 1
		if urlHits, err := p.query(ctx, "inurl:"+rawURL); err == nil && urlHits > 0 {
			res.URLIndexed = 1
		}
	}
	return res
}

func (p *IndexProbe) query(ctx context.Context, q string) (int, error) {
	endpoint := fmt.Sprintf("%s?key=%s&cx=%s&q=%s",
		p.Endpoint, url.QueryEscape(p.APIKey), url.QueryEscape(p.EngineID), url.QueryEscape(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	client := &http.Client{Timeout: p.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("search api status %d", resp.StatusCode)
	}

	// totalResults arrives as a JSON string, not a number.
	var body struct {
		SearchInformation struct {
			TotalResults string `json:"totalResults"`
		} `json:"searchInformation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}

	total, err := strconv.Atoi(body.SearchInformation.TotalResults)
	if err != nil {
		return 0, nil
	}
	return total, nil
}
