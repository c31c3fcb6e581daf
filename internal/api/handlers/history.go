package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// HistoryHandler serves the reprice history ledger and its aggregates.
type HistoryHandler struct {
	store store.Store
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(s store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

// ListHistoryInput is the input for querying reprice history.
type ListHistoryInput struct {
	ListingID string    `query:"listing_id" doc:"Filter by listing UUID"`
	ConfigID  string    `query:"config_id" doc:"Filter by daemon config UUID"`
	RuleID    string    `query:"rule_id" doc:"Filter by rule UUID"`
	RuleName  string    `query:"rule_name" doc:"Filter by rule or strategy name, case-insensitive"`
	Since     time.Time `query:"since" doc:"Only records at or after this time (RFC 3339)"`
	Until     time.Time `query:"until" doc:"Only records before this time (RFC 3339)"`
	DryRun    *bool     `query:"dry_run" doc:"Filter by dry-run flag"`
	Limit     int       `query:"limit" doc:"Page size, default 50, max 500"`
	Offset    int       `query:"offset" doc:"Page offset"`
}

// HistoryPage is a single page of reprice history records.
type HistoryPage struct {
	Records []domain.HistoryRecord `json:"records"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ListHistoryOutput is the response for querying reprice history.
type ListHistoryOutput struct {
	Body HistoryPage
}

// GetStatsInput is the input for reprice stats.
type GetStatsInput struct {
	ConfigID string    `query:"config_id" doc:"Restrict stats to one daemon config"`
	Since    time.Time `query:"since" doc:"Only count records at or after this time (RFC 3339)"`
}

// GetStatsOutput is the response for reprice stats.
type GetStatsOutput struct {
	Body domain.RepriceStats
}

// ListHistory returns a page of reprice history records, newest first.
func (h *HistoryHandler) ListHistory(
	ctx context.Context,
	input *ListHistoryInput,
) (*ListHistoryOutput, error) {
	q := &store.HistoryQuery{
		DryRun: input.DryRun,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.ListingID != "" {
		q.ListingID = &input.ListingID
	}
	if input.ConfigID != "" {
		q.ConfigID = &input.ConfigID
	}
	if input.RuleID != "" {
		q.RuleID = &input.RuleID
	}
	if input.RuleName != "" {
		q.RuleName = &input.RuleName
	}
	if !input.Since.IsZero() {
		q.Since = &input.Since
	}
	if !input.Until.IsZero() {
		q.Until = &input.Until
	}

	records, total, err := h.store.ListHistory(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing history failed: " + err.Error())
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}

	// Echo the page bounds the query actually used.
	limit, offset := q.PageBounds()
	return &ListHistoryOutput{Body: HistoryPage{
		Records: records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}}, nil
}

// GetStats returns aggregate reprice statistics.
func (h *HistoryHandler) GetStats(
	ctx context.Context,
	input *GetStatsInput,
) (*GetStatsOutput, error) {
	var configID *string
	if input.ConfigID != "" {
		configID = &input.ConfigID
	}
	var since *time.Time
	if !input.Since.IsZero() {
		since = &input.Since
	}

	stats, err := h.store.GetRepriceStats(ctx, configID, since)
	if err != nil {
		return nil, huma.Error500InternalServerError("computing stats failed: " + err.Error())
	}
	if stats.ByStrategy == nil {
		stats.ByStrategy = map[string]int{}
	}
	if stats.ByDay == nil {
		stats.ByDay = []domain.DayCount{}
	}
	return &GetStatsOutput{Body: *stats}, nil
}

// RegisterHistoryRoutes registers history endpoints with the Huma API.
func RegisterHistoryRoutes(api huma.API, h *HistoryHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "Query reprice history",
		Description: "Returns price decisions newest first with the total match count for paging.",
		Tags:        []string{"history"},
	}, h.ListHistory)

	huma.Register(api, huma.Operation{
		OperationID: "get-reprice-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/stats",
		Summary:     "Aggregate reprice statistics",
		Tags:        []string{"history"},
	}, h.GetStats)
}
