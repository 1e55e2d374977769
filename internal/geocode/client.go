package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a Nominatim-compatible reverse-geocoding endpoint.
// Nominatim allows at most 1 request per second; the Resolver paces every
// call through its shared rate limiter, so use the Resolver rather than
// calling Reverse directly.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a Nominatim reverse-geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Reverse fetches the place payload for a coordinate pair.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Payload, error) {
	params := url.Values{
		"format":         {"json"},
		"lat":            {fmt.Sprintf("%f", lat)},
		"lon":            {fmt.Sprintf("%f", lng)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &payload, nil
}

// Nominatim API response types.

type Payload struct {
	Error       string  `json:"error"`
	Type        string  `json:"type"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

type Address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Road2         string `json:"road2"`
	Ref           string `json:"ref"`
	Pedestrian    string `json:"pedestrian"`
	Path          string `json:"path"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	County        string `json:"county"`
	StateDistrict string `json:"state_district"`
	Region        string `json:"region"`
	State         string `json:"state"`
	Province      string `json:"province"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}
