package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/engine"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ConfigsHandler handles daemon config CRUD operations.
type ConfigsHandler struct {
	store store.Store
}

// NewConfigsHandler creates a new ConfigsHandler.
func NewConfigsHandler(s store.Store) *ConfigsHandler {
	return &ConfigsHandler{store: s}
}

// ListConfigsInput is the input for listing configs.
type ListConfigsInput struct {
	Enabled bool `query:"enabled" doc:"Only return enabled configs"`
}

// ListConfigsOutput is the response for listing configs.
type ListConfigsOutput struct {
	Body []domain.DaemonConfig
}

// GetConfigInput is the input for getting a single config.
type GetConfigInput struct {
	ID string `path:"id" doc:"Config UUID"`
}

// GetConfigOutput is the response for getting a single config.
type GetConfigOutput struct {
	Body domain.DaemonConfig
}

// CreateConfigInput is the input for creating a config.
type CreateConfigInput struct {
	Body domain.DaemonConfig
}

// CreateConfigOutput is the response for creating a config.
type CreateConfigOutput struct {
	Body domain.DaemonConfig
}

// UpdateConfigInput is the input for updating a config.
type UpdateConfigInput struct {
	ID   string `path:"id" doc:"Config UUID"`
	Body domain.DaemonConfig
}

// UpdateConfigOutput is the response for updating a config.
type UpdateConfigOutput struct {
	Body domain.DaemonConfig
}

// SetConfigEnabledInput is the input for enabling or disabling a config.
type SetConfigEnabledInput struct {
	ID   string `path:"id" doc:"Config UUID"`
	Body struct {
		Enabled bool `json:"enabled" example:"true"`
	}
}

// SetConfigEnabledOutput is the response for enabling or disabling a config.
type SetConfigEnabledOutput struct {
	Body StatusResponse
}

// DeleteConfigInput is the input for deleting a config.
type DeleteConfigInput struct {
	ID string `path:"id" doc:"Config UUID"`
}

func validateConfig(c *domain.DaemonConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	known := engine.StrategyNames()
	for _, s := range c.Strategies {
		if !slices.Contains(known, s) {
			return fmt.Errorf("unknown strategy %q (known: %v)", s, known)
		}
	}
	return nil
}

// ListConfigs returns daemon configs oldest first.
func (h *ConfigsHandler) ListConfigs(
	ctx context.Context,
	input *ListConfigsInput,
) (*ListConfigsOutput, error) {
	configs, err := h.store.ListConfigs(ctx, input.Enabled)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing configs failed: " + err.Error())
	}
	if configs == nil {
		configs = []domain.DaemonConfig{}
	}
	return &ListConfigsOutput{Body: configs}, nil
}

// GetConfig returns a single config by ID.
func (h *ConfigsHandler) GetConfig(
	ctx context.Context,
	input *GetConfigInput,
) (*GetConfigOutput, error) {
	c, err := h.store.GetConfig(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("config not found")
	}
	return &GetConfigOutput{Body: *c}, nil
}

// CreateConfig validates and stores a new daemon config.
func (h *ConfigsHandler) CreateConfig(
	ctx context.Context,
	input *CreateConfigInput,
) (*CreateConfigOutput, error) {
	c := input.Body
	if err := validateConfig(&c); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid config: " + err.Error())
	}

	if err := h.store.CreateConfig(ctx, &c); err != nil {
		return nil, huma.Error500InternalServerError("creating config failed: " + err.Error())
	}
	return &CreateConfigOutput{Body: c}, nil
}

// UpdateConfig validates and replaces an existing config. Running daemon
// loops pick the change up on their next tick.
func (h *ConfigsHandler) UpdateConfig(
	ctx context.Context,
	input *UpdateConfigInput,
) (*UpdateConfigOutput, error) {
	c := input.Body
	c.ID = input.ID
	if err := validateConfig(&c); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid config: " + err.Error())
	}

	if err := h.store.UpdateConfig(ctx, &c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("config not found")
		}
		return nil, huma.Error500InternalServerError("updating config failed: " + err.Error())
	}
	return &UpdateConfigOutput{Body: c}, nil
}

// SetConfigEnabled toggles a config.
func (h *ConfigsHandler) SetConfigEnabled(
	ctx context.Context,
	input *SetConfigEnabledInput,
) (*SetConfigEnabledOutput, error) {
	if err := h.store.SetConfigEnabled(ctx, input.ID, input.Body.Enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("config not found")
		}
		return nil, huma.Error500InternalServerError("setting config enabled failed: " + err.Error())
	}
	return &SetConfigEnabledOutput{Body: StatusResponse{Status: "updated"}}, nil
}

// DeleteConfig removes a config.
func (h *ConfigsHandler) DeleteConfig(
	ctx context.Context,
	input *DeleteConfigInput,
) (*struct{}, error) {
	if err := h.store.DeleteConfig(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("config not found")
		}
		return nil, huma.Error500InternalServerError("deleting config failed: " + err.Error())
	}
	return &struct{}{}, nil
}

// RegisterConfigRoutes registers daemon config endpoints with the Huma API.
func RegisterConfigRoutes(api huma.API, h *ConfigsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-configs",
		Method:      http.MethodGet,
		Path:        "/api/v1/configs",
		Summary:     "List daemon configs",
		Tags:        []string{"configs"},
	}, h.ListConfigs)

	huma.Register(api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/api/v1/configs/{id}",
		Summary:     "Get a daemon config by ID",
		Tags:        []string{"configs"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetConfig)

	huma.Register(api, huma.Operation{
		OperationID:   "create-config",
		Method:        http.MethodPost,
		Path:          "/api/v1/configs",
		Summary:       "Create a daemon config",
		Description:   "Defines one repricing loop: interval, strategies, guardrail bounds, platform filter.",
		Tags:          []string{"configs"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.CreateConfig)

	huma.Register(api, huma.Operation{
		OperationID: "update-config",
		Method:      http.MethodPut,
		Path:        "/api/v1/configs/{id}",
		Summary:     "Update a daemon config",
		Tags:        []string{"configs"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, h.UpdateConfig)

	huma.Register(api, huma.Operation{
		OperationID: "set-config-enabled",
		Method:      http.MethodPut,
		Path:        "/api/v1/configs/{id}/enabled",
		Summary:     "Enable or disable a daemon config",
		Tags:        []string{"configs"},
		Errors:      []int{http.StatusNotFound},
	}, h.SetConfigEnabled)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-config",
		Method:        http.MethodDelete,
		Path:          "/api/v1/configs/{id}",
		Summary:       "Delete a daemon config",
		Tags:          []string{"configs"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, h.DeleteConfig)
}
