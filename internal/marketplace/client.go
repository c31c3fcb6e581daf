// Package marketplace abstracts the per-platform marketplace integrations
// behind a narrow interface. The engine never talks to a marketplace API
// directly; it fetches market snapshots and pushes accepted prices through
// a Client resolved from the Registry.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ErrUnknownPlatform is returned when no client is registered for a platform.
var ErrUnknownPlatform = errors.New("no marketplace client for platform")

// Client is the narrow interface one marketplace integration implements.
type Client interface {
	// GetMarketData builds a fresh market snapshot for the listing. Results
	// must never be cached across cycles.
	GetMarketData(ctx context.Context, listing *domain.Listing) (*domain.MarketData, error)

	// ApplyPrice pushes an accepted price to the remote platform.
	ApplyPrice(ctx context.Context, listing *domain.Listing, newPrice float64) error
}

// Registry resolves clients by platform and funnels every call through a
// shared rate limiter when one is configured.
type Registry struct {
	mu      sync.RWMutex
	clients map[domain.Platform]Client
	limiter *RateLimiter
}

// NewRegistry creates an empty registry. A nil limiter disables rate limiting.
func NewRegistry(limiter *RateLimiter) *Registry {
	return &Registry{
		clients: make(map[domain.Platform]Client),
		limiter: limiter,
	}
}

// Register installs the client for a platform, replacing any previous one.
func (r *Registry) Register(p domain.Platform, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[p] = c
}

// Platforms returns the platforms with a registered client.
func (r *Registry) Platforms() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Platform, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	return out
}

// GetMarketData resolves the listing's platform client and fetches a
// snapshot, honoring the shared rate limit.
func (r *Registry) GetMarketData(ctx context.Context, listing *domain.Listing) (*domain.MarketData, error) {
	c, err := r.forPlatform(listing.Platform)
	if err != nil {
		return nil, err
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return c.GetMarketData(ctx, listing)
}

// ApplyPrice resolves the listing's platform client and pushes the price,
// honoring the shared rate limit.
func (r *Registry) ApplyPrice(ctx context.Context, listing *domain.Listing, newPrice float64) error {
	c, err := r.forPlatform(listing.Platform)
	if err != nil {
		return err
	}
	if err := r.wait(ctx); err != nil {
		return err
	}
	return c.ApplyPrice(ctx, listing, newPrice)
}

func (r *Registry) forPlatform(p domain.Platform) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
	}
	return c, nil
}

func (r *Registry) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
