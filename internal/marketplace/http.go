package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// HTTPClient talks to a marketplace gateway speaking the simple JSON
// protocol served by tools/mock-marketplace. Real platform integrations
// sit behind the same shape of gateway in deployment.
type HTTPClient struct {
	baseURL  string
	apiKey   string
	platform domain.Platform
	http     *http.Client
}

// NewHTTPClient builds a client for one platform against the given base URL.
func NewHTTPClient(baseURL, apiKey string, platform domain.Platform) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		platform: platform,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type marketDataResponse struct {
	CompetitorPrices []float64         `json:"competitor_prices"`
	BuyBoxPrice      *float64          `json:"buy_box_price,omitempty"`
	Sales            *domain.SalesData `json:"sales,omitempty"`
}

type applyPriceRequest struct {
	Price float64 `json:"price"`
}

// GetMarketData fetches a fresh competitor snapshot for the listing.
func (c *HTTPClient) GetMarketData(ctx context.Context, listing *domain.Listing) (*domain.MarketData, error) {
	u := fmt.Sprintf("%s/api/listings/%s/market-data?platform=%s",
		c.baseURL, url.PathEscape(listing.ExternalID), url.QueryEscape(string(c.platform)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building market data request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching market data for %s: %w", listing.ExternalID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data for %s: %s", listing.ExternalID, readError(resp))
	}

	var body marketDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding market data for %s: %w", listing.ExternalID, err)
	}

	sort.Float64s(body.CompetitorPrices)
	md := &domain.MarketData{
		CompetitorPrices: body.CompetitorPrices,
		BuyBoxPrice:      body.BuyBoxPrice,
		Sales:            body.Sales,
		FetchedAt:        time.Now().UTC(),
	}
	return md, nil
}

// ApplyPrice pushes the accepted price to the gateway.
func (c *HTTPClient) ApplyPrice(ctx context.Context, listing *domain.Listing, newPrice float64) error {
	u := fmt.Sprintf("%s/api/listings/%s/price?platform=%s",
		c.baseURL, url.PathEscape(listing.ExternalID), url.QueryEscape(string(c.platform)))

	payload, err := json.Marshal(applyPriceRequest{Price: newPrice})
	if err != nil {
		return fmt.Errorf("encoding price update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building price update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("applying price for %s: %w", listing.ExternalID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("applying price for %s: %s", listing.ExternalID, readError(resp))
	}
	return nil
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func readError(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(b) == 0 {
		return resp.Status
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Sprintf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Sprintf("%s: %s", resp.Status, string(b))
}
