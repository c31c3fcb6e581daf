package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// CyclesHandler serves the cycle run ledger.
type CyclesHandler struct {
	store store.Store
}

// NewCyclesHandler creates a new CyclesHandler.
func NewCyclesHandler(s store.Store) *CyclesHandler {
	return &CyclesHandler{store: s}
}

// ListCycleRunsInput is the input for listing cycle runs.
type ListCycleRunsInput struct {
	ConfigID string `query:"config_id" doc:"Filter by daemon config UUID"`
	Limit    int    `query:"limit" doc:"Maximum runs to return"`
}

// ListCycleRunsOutput is the response for listing cycle runs.
type ListCycleRunsOutput struct {
	Body []domain.CycleRun
}

// ListCycleRuns returns cycle runs newest first.
func (h *CyclesHandler) ListCycleRuns(
	ctx context.Context,
	input *ListCycleRunsInput,
) (*ListCycleRunsOutput, error) {
	runs, err := h.store.ListCycleRuns(ctx, input.ConfigID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing cycle runs failed: " + err.Error())
	}
	if runs == nil {
		runs = []domain.CycleRun{}
	}
	return &ListCycleRunsOutput{Body: runs}, nil
}

// RegisterCycleRoutes registers cycle run endpoints with the Huma API.
func RegisterCycleRoutes(api huma.API, h *CyclesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-cycle-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/cycles",
		Summary:     "List reprice cycle runs",
		Description: "Each run records the outcome of one cycle: scanned, changed, blocked, failed counts.",
		Tags:        []string{"daemon"},
	}, h.ListCycleRuns)
}
