package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.ip2proxy.com/v2/"

// ip2proxyResponse mirrors the fields of the IP2Proxy v2 JSON payload that
// the policy consumes.
type ip2proxyResponse struct {
	IsProxy     string `json:"is_proxy"`
	ProxyType   string `json:"proxy_type"`
	CountryCode string `json:"country_code"`
	ThreatLevel string `json:"threat_level"`
}

// IP2ProxyClient queries the IP2Proxy web service. A zero API key disables
// lookups entirely and every call returns the neutral classification.
type IP2ProxyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an IP2ProxyClient.
type Option func(*IP2ProxyClient)

// WithBaseURL overrides the service endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *IP2ProxyClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *IP2ProxyClient) {
		c.httpClient = client
	}
}

// NewIP2ProxyClient creates a classifier backed by the IP2Proxy web service
// with a bounded request timeout.
func NewIP2ProxyClient(apiKey string, timeout time.Duration, logger *slog.Logger, opts ...Option) *IP2ProxyClient {
	c := &IP2ProxyClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify looks up the reputation of an IP address. Any failure (missing
// key, transport error, non-2xx status, malformed body) degrades to the
// neutral classification; it never propagates as an error.
func (c *IP2ProxyClient) Classify(ctx context.Context, ip string) Classification {
	if c.apiKey == "" {
		c.logger.Warn("ip2proxy api key not configured, skipping reputation lookup")
		return Neutral()
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("ip", ip)
	query.Set("format", "json")
	requestURL := fmt.Sprintf("%s?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		c.logger.Error("failed to build ip2proxy request", slog.Any("error", err))
		return Neutral()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ip2proxy request failed", slog.Any("error", err))
		return Neutral()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ip2proxy returned non-success status", slog.Int("status", resp.StatusCode))
		return Neutral()
	}

	var body ip2proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Error("failed to decode ip2proxy response", slog.Any("error", err))
		return Neutral()
	}

	return classificationFromResponse(body)
}

func classificationFromResponse(body ip2proxyResponse) Classification {
	isProxy := body.IsProxy == "Yes"
	isVPN := isProxy &&
		(body.ProxyType == "VPN" || body.ProxyType == "Proxy" || body.ProxyType == "Tor")
	isThreat := body.ThreatLevel == "High" || body.ThreatLevel == "Medium"

	country := body.CountryCode
	if country == "" {
		country = "UNKNOWN"
	}

	return Classification{
		IsVPN:       isVPN,
		CountryCode: country,
		Proxy:       isProxy,
		Threat:      isThreat,
	}
}
