package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// RulesHandler handles repricing rule CRUD operations.
type RulesHandler struct {
	store store.Store
}

// NewRulesHandler creates a new RulesHandler.
func NewRulesHandler(s store.Store) *RulesHandler {
	return &RulesHandler{store: s}
}

// ListRulesInput is the input for listing rules.
type ListRulesInput struct {
	Enabled bool `query:"enabled" doc:"Only return enabled rules"`
}

// ListRulesOutput is the response for listing rules.
type ListRulesOutput struct {
	Body []domain.RepricingRule
}

// GetRuleInput is the input for getting a single rule.
type GetRuleInput struct {
	ID string `path:"id" doc:"Rule UUID"`
}

// GetRuleOutput is the response for getting a single rule.
type GetRuleOutput struct {
	Body domain.RepricingRule
}

// CreateRuleInput is the input for creating a rule.
type CreateRuleInput struct {
	Body domain.RepricingRule
}

// CreateRuleOutput is the response for creating a rule.
type CreateRuleOutput struct {
	Body domain.RepricingRule
}

// UpdateRuleInput is the input for updating a rule.
type UpdateRuleInput struct {
	ID   string `path:"id" doc:"Rule UUID"`
	Body domain.RepricingRule
}

// UpdateRuleOutput is the response for updating a rule.
type UpdateRuleOutput struct {
	Body domain.RepricingRule
}

// SetRuleEnabledInput is the input for enabling or disabling a rule.
type SetRuleEnabledInput struct {
	ID   string `path:"id" doc:"Rule UUID"`
	Body struct {
		Enabled bool `json:"enabled" example:"true"`
	}
}

// SetRuleEnabledOutput is the response for enabling or disabling a rule.
type SetRuleEnabledOutput struct {
	Body StatusResponse
}

// DeleteRuleInput is the input for deleting a rule.
type DeleteRuleInput struct {
	ID string `path:"id" doc:"Rule UUID"`
}

// ListRules returns rules in evaluation order.
func (h *RulesHandler) ListRules(
	ctx context.Context,
	input *ListRulesInput,
) (*ListRulesOutput, error) {
	rules, err := h.store.ListRules(ctx, input.Enabled)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing rules failed: " + err.Error())
	}
	if rules == nil {
		rules = []domain.RepricingRule{}
	}
	return &ListRulesOutput{Body: rules}, nil
}

// GetRule returns a single rule by ID.
func (h *RulesHandler) GetRule(
	ctx context.Context,
	input *GetRuleInput,
) (*GetRuleOutput, error) {
	r, err := h.store.GetRule(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("rule not found")
	}
	return &GetRuleOutput{Body: *r}, nil
}

// CreateRule validates and stores a new rule.
func (h *RulesHandler) CreateRule(
	ctx context.Context,
	input *CreateRuleInput,
) (*CreateRuleOutput, error) {
	r := input.Body
	if err := r.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid rule: " + err.Error())
	}

	if err := h.store.CreateRule(ctx, &r); err != nil {
		return nil, huma.Error500InternalServerError("creating rule failed: " + err.Error())
	}
	return &CreateRuleOutput{Body: r}, nil
}

// UpdateRule validates and replaces an existing rule.
func (h *RulesHandler) UpdateRule(
	ctx context.Context,
	input *UpdateRuleInput,
) (*UpdateRuleOutput, error) {
	r := input.Body
	r.ID = input.ID
	if err := r.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid rule: " + err.Error())
	}

	if err := h.store.UpdateRule(ctx, &r); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("rule not found")
		}
		return nil, huma.Error500InternalServerError("updating rule failed: " + err.Error())
	}
	return &UpdateRuleOutput{Body: r}, nil
}

// SetRuleEnabled toggles a rule.
func (h *RulesHandler) SetRuleEnabled(
	ctx context.Context,
	input *SetRuleEnabledInput,
) (*SetRuleEnabledOutput, error) {
	if err := h.store.SetRuleEnabled(ctx, input.ID, input.Body.Enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("rule not found")
		}
		return nil, huma.Error500InternalServerError("setting rule enabled failed: " + err.Error())
	}
	return &SetRuleEnabledOutput{Body: StatusResponse{Status: "updated"}}, nil
}

// DeleteRule removes a rule.
func (h *RulesHandler) DeleteRule(
	ctx context.Context,
	input *DeleteRuleInput,
) (*struct{}, error) {
	if err := h.store.DeleteRule(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("rule not found")
		}
		return nil, huma.Error500InternalServerError("deleting rule failed: " + err.Error())
	}
	return &struct{}{}, nil
}

// RegisterRuleRoutes registers rule endpoints with the Huma API.
func RegisterRuleRoutes(api huma.API, h *RulesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules",
		Summary:     "List repricing rules",
		Description: "Returns rules sorted in evaluation order (priority descending).",
		Tags:        []string{"rules"},
	}, h.ListRules)

	huma.Register(api, huma.Operation{
		OperationID: "get-rule",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules/{id}",
		Summary:     "Get a rule by ID",
		Tags:        []string{"rules"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetRule)

	huma.Register(api, huma.Operation{
		OperationID:   "create-rule",
		Method:        http.MethodPost,
		Path:          "/api/v1/rules",
		Summary:       "Create a repricing rule",
		Description:   "Validates the rule's family parameters and time window before storing.",
		Tags:          []string{"rules"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.CreateRule)

	huma.Register(api, huma.Operation{
		OperationID: "update-rule",
		Method:      http.MethodPut,
		Path:        "/api/v1/rules/{id}",
		Summary:     "Update a repricing rule",
		Tags:        []string{"rules"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, h.UpdateRule)

	huma.Register(api, huma.Operation{
		OperationID: "set-rule-enabled",
		Method:      http.MethodPut,
		Path:        "/api/v1/rules/{id}/enabled",
		Summary:     "Enable or disable a rule",
		Tags:        []string{"rules"},
		Errors:      []int{http.StatusNotFound},
	}, h.SetRuleEnabled)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-rule",
		Method:        http.MethodDelete,
		Path:          "/api/v1/rules/{id}",
		Summary:       "Delete a rule",
		Tags:          []string{"rules"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, h.DeleteRule)
}
