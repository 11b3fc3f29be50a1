package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultSafeBrowsingEndpoint is the Google Safe Browsing v4 lookup API.
	DefaultSafeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

	userAgent = "trusted-shortener/1.0"
	clientID  = "trusted-shortener"
)

var (
	threatTypes = []string{
		"THREAT_TYPE_UNSPECIFIED",
		"MALWARE",
		"SOCIAL_ENGINEERING",
		"UNWANTED_SOFTWARE",
		"POTENTIALLY_HARMFUL_APPLICATION",
	}
	platformTypes    = []string{"ALL_PLATFORMS"}
	threatEntryTypes = []string{"URL"}
)

type findRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type findResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// SafeBrowsing checks URLs against the Google Safe Browsing lookup API.
// A response without matches means safe.
type SafeBrowsing struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// SafeBrowsingOption customizes a SafeBrowsing checker.
type SafeBrowsingOption func(*SafeBrowsing)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		s.endpoint = endpoint
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) SafeBrowsingOption {
	return func(s *SafeBrowsing) {
		s.client = client
	}
}

// NewSafeBrowsing creates a new Safe Browsing checker for apiKey.
func NewSafeBrowsing(apiKey string, timeout time.Duration, opts ...SafeBrowsingOption) *SafeBrowsing {
	s := &SafeBrowsing{
		client:   &http.Client{Timeout: timeout},
		endpoint: DefaultSafeBrowsingEndpoint,
		apiKey:   apiKey,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// IsSafe reports whether target has no known threat matches. API failures are
// returned as errors and never read as a verdict.
func (s *SafeBrowsing) IsSafe(ctx context.Context, target string) (bool, error) {
	body, err := json.Marshal(findRequest{
		Client: clientInfo{ClientID: clientID, ClientVersion: "1.0"},
		ThreatInfo: threatInfo{
			ThreatTypes:      threatTypes,
			PlatformTypes:    platformTypes,
			ThreatEntryTypes: threatEntryTypes,
			ThreatEntries:    []threatEntry{{URL: target}},
		},
	})
	if err != nil {
		return false, err
	}

	endpoint := s.endpoint + "?key=" + url.QueryEscape(s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("safe browsing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return false, fmt.Errorf("safe browsing returned status %d", resp.StatusCode)
	}

	var result findResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode safe browsing response: %w", err)
	}

	return len(result.Matches) == 0, nil
}

// StaticSafety returns a fixed verdict. It stands in for the reputation
// service when no API key is configured.
type StaticSafety struct {
	Safe bool
}

func (s StaticSafety) IsSafe(context.Context, string) (bool, error) {
	return s.Safe, nil
}
