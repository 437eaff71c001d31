package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultWallapopURL is the public Wallapop API host.
const DefaultWallapopURL = "https://api.wallapop.com"

const maxErrorBody = 512

// WallapopClient queries the Wallapop v3 search endpoint.
type WallapopClient struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
}

// Option is a functional option for configuring WallapopClient.
type Option func(*WallapopClient)

// WithBaseURL points the client at a different host.
func WithBaseURL(baseURL string) Option {
	return func(c *WallapopClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *WallapopClient) {
		c.httpClient = client
	}
}

// NewWallapopClient creates a Wallapop search client.
func NewWallapopClient(opts ...Option) *WallapopClient {
	c := &WallapopClient{
		baseURL:  DefaultWallapopURL,
		deviceID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type wallapopResponse struct {
	Data struct {
		Section struct {
			Payload struct {
				Items []Listing `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data"`
}

// Search returns listings in the backend's relevance order. An empty result
// set is not an error.
func (c *WallapopClient) Search(ctx context.Context, query string, latitude, longitude float64) ([]Listing, error) {
	params := url.Values{}
	params.Set("source", "search_box")
	params.Set("keywords", query)
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result wallapopResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	items := result.Data.Section.Payload.Items
	if items == nil {
		items = []Listing{}
	}
	return items, nil
}

// The API rejects requests that do not look like they come from the web app.
func (c *WallapopClient) setHeaders(req *http.Request) {
	h := req.Header
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "es,en-US;q=0.7,en;q=0.6")
	h.Set("Cache-Control", "no-cache")
	h.Set("DeviceOS", "0")
	h.Set("Origin", "https://es.wallapop.com")
	h.Set("Pragma", "no-cache")
	h.Set("Referer", "https://es.wallapop.com/")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-site")
	h.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36")
	h.Set("X-AppVersion", "84230")
	h.Set("X-DeviceID", c.deviceID)
	h.Set("X-DeviceOS", "0")
}
