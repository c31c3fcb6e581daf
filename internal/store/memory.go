package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// MemoryStore is an in-memory Store for tests and datastore-less local runs.
// It mirrors the Postgres implementation's semantics, including rule
// ordering and lock behavior, but persists nothing.
type MemoryStore struct {
	mu sync.Mutex

	rules        map[string]*domain.RepricingRule
	crossRules   map[string]*domain.CrossPlatformRule
	observations map[string][]domain.PricePoint // platform|sku
	configs      map[string]*domain.DaemonConfig
	listings     map[string]*domain.Listing
	history      []domain.HistoryRecord
	cycleRuns    map[string]*domain.CycleRun
	locks        map[string]memoryLock
	now          func() time.Time
}

type memoryLock struct {
	holder    string
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:        make(map[string]*domain.RepricingRule),
		crossRules:   make(map[string]*domain.CrossPlatformRule),
		observations: make(map[string][]domain.PricePoint),
		configs:      make(map[string]*domain.DaemonConfig),
		listings:     make(map[string]*domain.Listing),
		cycleRuns:    make(map[string]*domain.CycleRun),
		locks:        make(map[string]memoryLock),
		now:          time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (m *MemoryStore) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func obsKey(platform domain.Platform, sku string) string {
	return string(platform) + "|" + sku
}

// Rules.

func (m *MemoryStore) CreateRule(_ context.Context, r *domain.RepricingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.rules[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRule(_ context.Context, id string) (*domain.RepricingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) ListRules(_ context.Context, enabledOnly bool) ([]domain.RepricingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.RepricingRule, 0, len(m.rules))
	for _, r := range m.rules {
		if enabledOnly && !r.Enabled {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) UpdateRule(_ context.Context, r *domain.RepricingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.rules[r.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *r
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = m.now()
	m.rules[r.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *MemoryStore) SetRuleEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[id]
	if !ok {
		return ErrNotFound
	}
	r.Enabled = enabled
	r.UpdatedAt = m.now()
	return nil
}

// Cross-platform rules.

func (m *MemoryStore) CreateCrossPlatformRule(_ context.Context, r *domain.CrossPlatformRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	cp := *r
	m.crossRules[r.ID] = &cp
	return nil
}

func (m *MemoryStore) ListCrossPlatformRules(_ context.Context, enabledOnly bool) ([]domain.CrossPlatformRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.CrossPlatformRule, 0, len(m.crossRules))
	for _, r := range m.crossRules {
		if enabledOnly && !r.Enabled {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteCrossPlatformRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.crossRules[id]; !ok {
		return ErrNotFound
	}
	delete(m.crossRules, id)
	return nil
}

// Price observations.

func (m *MemoryStore) RecordPriceObservation(_ context.Context, platform domain.Platform, sku string, price float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := obsKey(platform, sku)
	m.observations[key] = append(m.observations[key], domain.PricePoint{Price: price, ObservedAt: at})
	return nil
}

func (m *MemoryStore) ListPriceObservations(_ context.Context, platform domain.Platform, sku string, limit int) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.observations[obsKey(platform, sku)]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.PricePoint, len(all))
	copy(out, all)
	return out, nil
}

// Configs.

func (m *MemoryStore) CreateConfig(_ context.Context, c *domain.DaemonConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.configs[c.ID] = &cp
	return nil
}

func (m *MemoryStore) GetConfig(_ context.Context, id string) (*domain.DaemonConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.configs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) ListConfigs(_ context.Context, enabledOnly bool) ([]domain.DaemonConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.DaemonConfig, 0, len(m.configs))
	for _, c := range m.configs {
		if enabledOnly && !c.Enabled {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) UpdateConfig(_ context.Context, c *domain.DaemonConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.configs[c.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *c
	cp.CreatedAt = old.CreatedAt
	cp.TotalCycles = old.TotalCycles
	cp.TotalChanges = old.TotalChanges
	cp.UpdatedAt = m.now()
	m.configs[c.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteConfig(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.configs[id]; !ok {
		return ErrNotFound
	}
	delete(m.configs, id)
	return nil
}

func (m *MemoryStore) SetConfigEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.configs[id]
	if !ok {
		return ErrNotFound
	}
	c.Enabled = enabled
	c.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) IncrementConfigTotals(_ context.Context, id string, cycles, changes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.configs[id]
	if !ok {
		return ErrNotFound
	}
	c.TotalCycles += cycles
	c.TotalChanges += changes
	c.UpdatedAt = m.now()
	return nil
}

// Listings.

func (m *MemoryStore) UpsertListing(_ context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	l.UpdatedAt = m.now()
	cp := *l
	m.listings[l.ID] = &cp
	return nil
}

func (m *MemoryStore) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryStore) ListEligibleListings(_ context.Context, q *ListingQuery) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	platforms := make(map[domain.Platform]bool, len(q.Platforms))
	for _, p := range q.Platforms {
		platforms[p] = true
	}

	out := make([]domain.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		if q.ActiveOnly && !l.Active {
			continue
		}
		if len(platforms) > 0 && !platforms[l.Platform] {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SKU < out[j].SKU
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateListingPrice(_ context.Context, id string, price float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.CurrentPrice = price
	l.LastRepricedAt = &at
	l.UpdatedAt = at
	return nil
}

// History.

func (m *MemoryStore) AppendHistory(_ context.Context, r *domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.history = append(m.history, *r)
	return nil
}

func (m *MemoryStore) ListHistory(_ context.Context, q *HistoryQuery) ([]domain.HistoryRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]domain.HistoryRecord, 0, len(m.history))
	for i := range m.history {
		r := &m.history[i]
		if q.ListingID != nil && r.ListingID != *q.ListingID {
			continue
		}
		if q.ConfigID != nil && (r.ConfigID == nil || *r.ConfigID != *q.ConfigID) {
			continue
		}
		if q.RuleID != nil && (r.RuleID == nil || *r.RuleID != *q.RuleID) {
			continue
		}
		if q.RuleName != nil && !strings.EqualFold(r.RuleName, *q.RuleName) {
			continue
		}
		if q.Since != nil && r.CreatedAt.Before(*q.Since) {
			continue
		}
		if q.Until != nil && !r.CreatedAt.Before(*q.Until) {
			continue
		}
		if q.DryRun != nil && r.DryRun != *q.DryRun {
			continue
		}
		matched = append(matched, *r)
	}

	// Newest first, like the SQL implementation.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) GetRepriceStats(_ context.Context, configID *string, since *time.Time) (*domain.RepriceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &domain.RepriceStats{ByStrategy: make(map[string]int)}
	var pctSum float64
	days := make(map[string]int)

	for i := range m.history {
		r := &m.history[i]
		if configID != nil && (r.ConfigID == nil || *r.ConfigID != *configID) {
			continue
		}
		if since != nil && r.CreatedAt.Before(*since) {
			continue
		}
		stats.TotalChanges++
		pctSum += r.ChangePct()
		name := r.RuleName
		if name == "" {
			name = "unknown"
		}
		stats.ByStrategy[name]++
		days[r.CreatedAt.UTC().Format("2006-01-02")]++
	}

	if stats.TotalChanges > 0 {
		stats.AvgChangePct = pctSum / float64(stats.TotalChanges)
	}
	for day, count := range days {
		stats.ByDay = append(stats.ByDay, domain.DayCount{Day: day, Count: count})
	}
	sort.Slice(stats.ByDay, func(i, j int) bool {
		return stats.ByDay[i].Day < stats.ByDay[j].Day
	})
	return stats, nil
}

// Cycle runs.

func (m *MemoryStore) InsertCycleRun(_ context.Context, configID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.cycleRuns[id] = &domain.CycleRun{
		ID:        id,
		ConfigID:  configID,
		StartedAt: m.now(),
		Status:    domain.CycleStatusRunning,
	}
	return id, nil
}

func (m *MemoryStore) CompleteCycleRun(_ context.Context, id string, status string, errText string, run *domain.CycleRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.cycleRuns[id]
	if !ok {
		return ErrNotFound
	}
	now := m.now()
	r.CompletedAt = &now
	r.Status = status
	r.ErrorText = errText
	r.Processed = run.Processed
	r.Changed = run.Changed
	r.Blocked = run.Blocked
	r.Failed = run.Failed
	return nil
}

func (m *MemoryStore) ListCycleRuns(_ context.Context, configID string, limit int) ([]domain.CycleRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.CycleRun, 0, len(m.cycleRuns))
	for _, r := range m.cycleRuns {
		if configID != "" && r.ConfigID != configID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) RecoverStaleCycleRuns(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	var n int
	for _, r := range m.cycleRuns {
		if r.Status == domain.CycleStatusRunning && r.StartedAt.Before(cutoff) {
			now := m.now()
			r.Status = domain.CycleStatusCrashed
			r.CompletedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) DeleteOldCycleRuns(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	var n int
	for id, r := range m.cycleRuns {
		if r.Status != domain.CycleStatusRunning && r.StartedAt.Before(cutoff) {
			delete(m.cycleRuns, id)
			n++
		}
	}
	return n, nil
}

// Cycle locks.

func (m *MemoryStore) AcquireCycleLock(_ context.Context, configID string, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if l, ok := m.locks[configID]; ok && l.expiresAt.After(now) && l.holder != holder {
		return false, nil
	}
	m.locks[configID] = memoryLock{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *MemoryStore) ReleaseCycleLock(_ context.Context, configID string, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.locks[configID]; ok && l.holder == holder {
		delete(m.locks, configID)
	}
	return nil
}

// Aggregates.

func (m *MemoryStore) GetSystemState(_ context.Context) (*domain.SystemState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := &domain.SystemState{}
	for _, r := range m.rules {
		state.RulesTotal++
		if r.Enabled {
			state.RulesEnabled++
		}
	}
	for _, c := range m.configs {
		state.ConfigsTotal++
		if c.Enabled {
			state.ConfigsEnabled++
		}
	}
	for _, l := range m.listings {
		state.ListingsTotal++
		if l.Active {
			state.ListingsActive++
		}
	}
	cutoff := m.now().Add(-24 * time.Hour)
	for i := range m.history {
		if m.history[i].CreatedAt.After(cutoff) {
			state.Changes24h++
		}
	}
	for _, r := range m.cycleRuns {
		if r.Status == domain.CycleStatusRunning {
			state.CyclesRunning++
		}
		if r.StartedAt.After(cutoff) {
			state.Blocked24h += r.Blocked
		}
	}
	return state, nil
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Ping(context.Context) error { return nil }
