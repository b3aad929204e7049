package probes

import (
	"context"
	"net/http"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPResult holds the response-time and redirect features. Both default
// to 0 on any failure.
type HTTPResult struct {
	ResponseSeconds float64
	Redirects       int
}

// HTTPProbe issues a HEAD request with browser spoofing and follows
// redirects, recording how many hops it took.
type HTTPProbe struct {
	Timeout time.Duration
}

func NewHTTPProbe(timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProbe{Timeout: timeout}
}

func (p *HTTPProbe) Fetch(ctx context.Context, rawURL string) HTTPResult {
	redirects := 0
	client := &http.Client{
		Timeout: p.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			redirects = len(via)
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return HTTPResult{}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return HTTPResult{}
	}
	resp.Body.Close()

	return HTTPResult{
		ResponseSeconds: time.Since(start).Seconds(),
		Redirects:       redirects,
	}
}
