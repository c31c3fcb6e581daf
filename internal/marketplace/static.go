package marketplace

import (
	"context"
	"sync"
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// StaticClient serves canned market data from memory and records applied
// prices. It backs local development without a gateway and the test suite.
type StaticClient struct {
	mu       sync.Mutex
	data     map[string]*domain.MarketData // keyed by listing external ID
	applied  map[string][]float64
	applyErr error
	dataErr  error
}

// NewStaticClient creates an empty static client.
func NewStaticClient() *StaticClient {
	return &StaticClient{
		data:    make(map[string]*domain.MarketData),
		applied: make(map[string][]float64),
	}
}

// SetMarketData installs the snapshot returned for an external listing ID.
func (c *StaticClient) SetMarketData(externalID string, md *domain.MarketData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[externalID] = md
}

// FailGetMarketData makes every GetMarketData call return err.
func (c *StaticClient) FailGetMarketData(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataErr = err
}

// FailApplyPrice makes every ApplyPrice call return err.
func (c *StaticClient) FailApplyPrice(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyErr = err
}

// AppliedPrices returns the prices pushed for an external listing ID in order.
func (c *StaticClient) AppliedPrices(externalID string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.applied[externalID]))
	copy(out, c.applied[externalID])
	return out
}

func (c *StaticClient) GetMarketData(_ context.Context, listing *domain.Listing) (*domain.MarketData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dataErr != nil {
		return nil, c.dataErr
	}
	if md, ok := c.data[listing.ExternalID]; ok {
		cp := *md
		cp.FetchedAt = time.Now().UTC()
		return &cp, nil
	}
	return &domain.MarketData{FetchedAt: time.Now().UTC()}, nil
}

func (c *StaticClient) ApplyPrice(_ context.Context, listing *domain.Listing, newPrice float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.applyErr != nil {
		return c.applyErr
	}
	c.applied[listing.ExternalID] = append(c.applied[listing.ExternalID], newPrice)
	return nil
}
