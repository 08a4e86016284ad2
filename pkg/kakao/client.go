// Package kakao provides address geocoding via the Kakao local
// address-search API.
package kakao

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://dapi.kakao.com/v2/local/search/address.json"

// Result holds the geocoding output for an address. Matched distinguishes an
// explicit no-match from a valid coordinate pair; callers must never read
// Lon/Lat when Matched is false.
type Result struct {
	Lon     float64
	Lat     float64
	Address string // address_name echoed by the API, when present
	Matched bool
}

// Client geocodes free-text addresses. One HTTP call per Geocode; failures
// are wrapped errors the caller degrades on, never panics.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout bounds each geocode call. The upstream dashboard had no
// timeout at all; a server context needs one.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		// Burst must stay >= 1 or Wait can never admit a request.
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a Client with the given REST API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the JSON envelope of the address-search endpoint. The
// coordinates arrive as numeric strings; x is longitude, y is latitude.
type searchResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		Address     *struct {
			X string `json:"x"`
			Y string `json:"y"`
		} `json:"address"`
	} `json:"documents"`
}

// Geocode resolves a free-text address to a coordinate pair. An empty result
// set is a no-match Result, not an error; transport and parse failures are
// errors.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, eris.New("kakao: empty address")
	}
	if c.apiKey == "" {
		return nil, eris.New("kakao: api key not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "kakao: rate limit")
	}

	params := url.Values{"query": {address}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "kakao: build request")
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "kakao: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("kakao: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "kakao: read body")
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, eris.Wrap(err, "kakao: parse response")
	}

	if len(search.Documents) == 0 {
		return &Result{Matched: false}, nil
	}

	doc := search.Documents[0]
	if doc.Address == nil {
		// Road-address-only match carries no lot coordinates.
		return &Result{Matched: false, Address: doc.AddressName}, nil
	}

	lon, err := strconv.ParseFloat(doc.Address.X, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "kakao: parse x %q", doc.Address.X)
	}
	lat, err := strconv.ParseFloat(doc.Address.Y, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "kakao: parse y %q", doc.Address.Y)
	}

	return &Result{Lon: lon, Lat: lat, Address: doc.AddressName, Matched: true}, nil
}
