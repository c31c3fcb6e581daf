package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// CrossPlatformHandler handles cross-platform rule operations.
type CrossPlatformHandler struct {
	store store.Store
}

// NewCrossPlatformHandler creates a new CrossPlatformHandler.
func NewCrossPlatformHandler(s store.Store) *CrossPlatformHandler {
	return &CrossPlatformHandler{store: s}
}

// ListCrossPlatformInput is the input for listing cross-platform rules.
type ListCrossPlatformInput struct {
	Enabled bool `query:"enabled" doc:"Only return enabled rules"`
}

// ListCrossPlatformOutput is the response for listing cross-platform rules.
type ListCrossPlatformOutput struct {
	Body []domain.CrossPlatformRule
}

// CreateCrossPlatformInput is the input for creating a cross-platform rule.
type CreateCrossPlatformInput struct {
	Body domain.CrossPlatformRule
}

// CreateCrossPlatformOutput is the response for creating a cross-platform rule.
type CreateCrossPlatformOutput struct {
	Body domain.CrossPlatformRule
}

// DeleteCrossPlatformInput is the input for deleting a cross-platform rule.
type DeleteCrossPlatformInput struct {
	ID string `path:"id" doc:"Rule UUID"`
}

// ListCrossPlatformRules returns cross-platform rules oldest first.
func (h *CrossPlatformHandler) ListCrossPlatformRules(
	ctx context.Context,
	input *ListCrossPlatformInput,
) (*ListCrossPlatformOutput, error) {
	rules, err := h.store.ListCrossPlatformRules(ctx, input.Enabled)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing cross-platform rules failed: " + err.Error())
	}
	if rules == nil {
		rules = []domain.CrossPlatformRule{}
	}
	return &ListCrossPlatformOutput{Body: rules}, nil
}

// CreateCrossPlatformRule validates and stores a new cross-platform rule.
func (h *CrossPlatformHandler) CreateCrossPlatformRule(
	ctx context.Context,
	input *CreateCrossPlatformInput,
) (*CreateCrossPlatformOutput, error) {
	r := input.Body
	if err := r.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid cross-platform rule: " + err.Error())
	}

	if err := h.store.CreateCrossPlatformRule(ctx, &r); err != nil {
		return nil, huma.Error500InternalServerError("creating cross-platform rule failed: " + err.Error())
	}
	return &CreateCrossPlatformOutput{Body: r}, nil
}

// DeleteCrossPlatformRule removes a cross-platform rule.
func (h *CrossPlatformHandler) DeleteCrossPlatformRule(
	ctx context.Context,
	input *DeleteCrossPlatformInput,
) (*struct{}, error) {
	if err := h.store.DeleteCrossPlatformRule(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("cross-platform rule not found")
		}
		return nil, huma.Error500InternalServerError("deleting cross-platform rule failed: " + err.Error())
	}
	return &struct{}{}, nil
}

// RegisterCrossPlatformRoutes registers cross-platform rule endpoints.
func RegisterCrossPlatformRoutes(api huma.API, h *CrossPlatformHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-cross-platform-rules",
		Method:      http.MethodGet,
		Path:        "/api/v1/cross-platform-rules",
		Summary:     "List cross-platform rules",
		Tags:        []string{"rules"},
	}, h.ListCrossPlatformRules)

	huma.Register(api, huma.Operation{
		OperationID:   "create-cross-platform-rule",
		Method:        http.MethodPost,
		Path:          "/api/v1/cross-platform-rules",
		Summary:       "Create a cross-platform rule",
		Description:   "Adjusts prices on one platform when watched prices move on another.",
		Tags:          []string{"rules"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.CreateCrossPlatformRule)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-cross-platform-rule",
		Method:        http.MethodDelete,
		Path:          "/api/v1/cross-platform-rules/{id}",
		Summary:       "Delete a cross-platform rule",
		Tags:          []string{"rules"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, h.DeleteCrossPlatformRule)
}
