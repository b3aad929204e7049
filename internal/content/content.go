package content

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxBodyBytes = 10 * 1024 * 1024
	fetchTimeout = 10 * time.Second

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	reEval     = regexp.MustCompile(`eval\s*\(`)
	reUnescape = regexp.MustCompile(`unescape\s*\(`)
	reDocWrite = regexp.MustCompile(`document\.write`)
	reLoc      = regexp.MustCompile(`window\.location`)
)

var urgencyKeywords = []string{"verify", "account", "suspended", "confirm", "security", "urgent", "password", "expire"}

// PageSignals summarizes what the rendered HTML looks like. These feed
// verdict explanations and a small score adjustment on top of the
// URL-level features.
type PageSignals struct {
	PasswordInputs     int
	HiddenInputs       int
	Iframes            int
	Forms              int
	ExternalFormAction bool
	UrgencyKeywords    int
	ObfuscatedScript   int
	HasTitle           bool
}

// RiskDelta converts the signals into a score adjustment. A password
// form on a page full of urgency language is the classic credential
// harvest layout.
func (s *PageSignals) RiskDelta() float64 {
	if s == nil {
		return 0
	}
	delta := 0.0
	if s.PasswordInputs > 0 {
		delta += 10
		if s.UrgencyKeywords >= 3 {
			delta += 10
		}
		if s.ExternalFormAction {
			delta += 15
		}
	}
	if s.HiddenInputs > 5 {
		delta += 5
	}
	if s.Iframes > 2 {
		delta += 5
	}
	if s.ObfuscatedScript > 3 {
		delta += 5
	}
	if !s.HasTitle {
		delta += 2
	}
	return delta
}

// Inspector downloads and analyzes page content. Phishing kits often
// sit behind broken or self-signed certs, so verification is off; the
// TLS feature itself is probed elsewhere against the real chain.
type Inspector struct {
	client *http.Client
}

func NewInspector() *Inspector {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &Inspector{
		client: &http.Client{Timeout: fetchTimeout, Transport: tr},
	}
}

// Inspect fetches the page and returns its signals. Unreachable pages
// return an error; callers degrade to URL-only analysis.
func (in *Inspector) Inspect(ctx context.Context, rawURL string) (*PageSignals, error) {
	body, err := in.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return Analyze(body, rawURL)
}

func (in *Inspector) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	// Look like a real browser; kits serve empty pages to obvious bots.
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := in.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", rawURL, err)
	}
	return string(bodyBytes), nil
}

// Analyze extracts signals from raw HTML. pageURL anchors the external
// form-action check.
func Analyze(htmlContent, pageURL string) (*PageSignals, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	pageHost := strings.ToLower(parsed.Hostname())

	s := &PageSignals{
		PasswordInputs: doc.Find("input[type=password]").Length(),
		HiddenInputs:   doc.Find("input[type=hidden]").Length(),
		Iframes:        doc.Find("iframe").Length(),
		Forms:          doc.Find("form").Length(),
		HasTitle:       doc.Find("title").Length() > 0,
	}

	doc.Find("form[action]").Each(func(i int, sel *goquery.Selection) {
		action, _ := sel.Attr("action")
		target, err := url.Parse(action)
		if err != nil || target.Hostname() == "" {
			return
		}
		if !strings.EqualFold(target.Hostname(), pageHost) {
			s.ExternalFormAction = true
		}
	})

	var scriptContent strings.Builder
	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		scriptContent.WriteString(sel.Text())
	})
	script := scriptContent.String()
	s.ObfuscatedScript = len(reEval.FindAllString(script, -1)) +
		len(reUnescape.FindAllString(script, -1)) +
		len(reDocWrite.FindAllString(script, -1)) +
		len(reLoc.FindAllString(script, -1))

	lowerText := strings.ToLower(doc.Text())
	for _, kw := range urgencyKeywords {
		s.UrgencyKeywords += strings.Count(lowerText, kw)
	}

	return s, nil
}
