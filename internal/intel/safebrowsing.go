package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultSafeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

// SafeBrowsingResult reports whether an external threat list knows the URL.
// Resolved is false when the lookup could not be completed, so callers can
// tell "clean" apart from "unknown".
type SafeBrowsingResult struct {
	Flagged    bool
	ThreatType string
	Resolved   bool
}

// SafeBrowsingClient queries the Safe Browsing v4 lookup API.
type SafeBrowsingClient struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

func NewSafeBrowsingClient(apiKey string) *SafeBrowsingClient {
	return &SafeBrowsingClient{
		APIKey:   apiKey,
		Endpoint: defaultSafeBrowsingEndpoint,
		Timeout:  6 * time.Second,
	}
}

type threatEntry struct {
	URL string `json:"url"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type lookupRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type lookupResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// Check asks the API whether rawURL matches any known threat entry.
func (c *SafeBrowsingClient) Check(ctx context.Context, rawURL string) SafeBrowsingResult {
	if c == nil || c.APIKey == "" {
		return SafeBrowsingResult{}
	}

	var payload lookupRequest
	payload.Client.ClientID = "phishguard"
	payload.Client.ClientVersion = "1.0"
	payload.ThreatInfo = threatInfo{
		ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"},
		PlatformTypes:    []string{"ANY_PLATFORM"},
		ThreatEntryTypes: []string{"URL"},
		ThreatEntries:    []threatEntry{{URL: rawURL}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SafeBrowsingResult{}
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultSafeBrowsingEndpoint
	}
	reqURL := fmt.Sprintf("%s?key=%s", endpoint, c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return SafeBrowsingResult{}
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: c.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return SafeBrowsingResult{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SafeBrowsingResult{}
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SafeBrowsingResult{}
	}

	out := SafeBrowsingResult{Resolved: true}
	if len(result.Matches) > 0 {
		out.Flagged = true
		out.ThreatType = result.Matches[0].ThreatType
	}
	return out
}
