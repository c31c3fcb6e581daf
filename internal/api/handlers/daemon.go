package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/engine"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// DaemonController is the subset of the repricing daemon the API needs.
type DaemonController interface {
	Running() bool
	ActiveConfigs() []string
	Start(ctx context.Context) error
	Stop() error
	RunNow(ctx context.Context, configID string, dryRun bool) (*domain.CycleRun, error)
}

// DaemonHandler exposes daemon lifecycle and manual cycle triggers.
type DaemonHandler struct {
	daemon DaemonController
}

// NewDaemonHandler creates a new DaemonHandler.
func NewDaemonHandler(d DaemonController) *DaemonHandler {
	return &DaemonHandler{daemon: d}
}

// DaemonStatus describes the daemon scheduler state.
type DaemonStatus struct {
	Running       bool     `json:"running"`
	ActiveConfigs []string `json:"active_configs"`
}

// GetDaemonStatusOutput is the response for the daemon status endpoint.
type GetDaemonStatusOutput struct {
	Body DaemonStatus
}

// StartDaemonOutput is the response for starting the daemon.
type StartDaemonOutput struct {
	Body StatusResponse
}

// StopDaemonOutput is the response for stopping the daemon.
type StopDaemonOutput struct {
	Body StatusResponse
}

// RunNowInput is the input for triggering an immediate cycle.
type RunNowInput struct {
	ConfigID string `path:"config_id" doc:"Daemon config UUID"`
	DryRun   bool   `query:"dry_run" doc:"Force a dry run regardless of the config setting"`
}

// RunNowOutput is the response for triggering an immediate cycle.
type RunNowOutput struct {
	Body domain.CycleRun
}

// GetDaemonStatus reports whether the scheduler is running and which
// configs have live loops.
func (h *DaemonHandler) GetDaemonStatus(
	_ context.Context,
	_ *struct{},
) (*GetDaemonStatusOutput, error) {
	active := h.daemon.ActiveConfigs()
	if active == nil {
		active = []string{}
	}
	return &GetDaemonStatusOutput{Body: DaemonStatus{
		Running:       h.daemon.Running(),
		ActiveConfigs: active,
	}}, nil
}

// StartDaemon starts the scheduler.
func (h *DaemonHandler) StartDaemon(
	ctx context.Context,
	_ *struct{},
) (*StartDaemonOutput, error) {
	if err := h.daemon.Start(ctx); err != nil {
		if errors.Is(err, engine.ErrDaemonRunning) {
			return nil, huma.Error409Conflict("daemon already running")
		}
		return nil, huma.Error500InternalServerError("starting daemon failed: " + err.Error())
	}
	return &StartDaemonOutput{Body: StatusResponse{Status: "started"}}, nil
}

// StopDaemon stops the scheduler. In-flight cycles finish before their
// loops exit.
func (h *DaemonHandler) StopDaemon(
	_ context.Context,
	_ *struct{},
) (*StopDaemonOutput, error) {
	if err := h.daemon.Stop(); err != nil {
		if errors.Is(err, engine.ErrDaemonNotRunning) {
			return nil, huma.Error409Conflict("daemon not running")
		}
		return nil, huma.Error500InternalServerError("stopping daemon failed: " + err.Error())
	}
	return &StopDaemonOutput{Body: StatusResponse{Status: "stopped"}}, nil
}

// RunNow triggers one reprice cycle for a config and waits for it.
func (h *DaemonHandler) RunNow(
	ctx context.Context,
	input *RunNowInput,
) (*RunNowOutput, error) {
	run, err := h.daemon.RunNow(ctx, input.ConfigID, input.DryRun)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, huma.Error404NotFound("config not found")
		case errors.Is(err, engine.ErrCycleInProgress):
			return nil, huma.Error409Conflict("cycle already in progress for config")
		default:
			return nil, huma.Error500InternalServerError("cycle failed: " + err.Error())
		}
	}
	return &RunNowOutput{Body: *run}, nil
}

// RegisterDaemonRoutes registers daemon control endpoints with the Huma API.
func RegisterDaemonRoutes(api huma.API, h *DaemonHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-daemon-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/daemon/status",
		Summary:     "Get daemon status",
		Tags:        []string{"daemon"},
	}, h.GetDaemonStatus)

	huma.Register(api, huma.Operation{
		OperationID:   "start-daemon",
		Method:        http.MethodPost,
		Path:          "/api/v1/daemon/start",
		Summary:       "Start the repricing daemon",
		Tags:          []string{"daemon"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusConflict},
	}, h.StartDaemon)

	huma.Register(api, huma.Operation{
		OperationID:   "stop-daemon",
		Method:        http.MethodPost,
		Path:          "/api/v1/daemon/stop",
		Summary:       "Stop the repricing daemon",
		Tags:          []string{"daemon"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusConflict},
	}, h.StopDaemon)

	huma.Register(api, huma.Operation{
		OperationID: "run-cycle-now",
		Method:      http.MethodPost,
		Path:        "/api/v1/daemon/run/{config_id}",
		Summary:     "Run one reprice cycle immediately",
		Description: "Blocks until the cycle completes. Set dry_run=true to preview without applying prices.",
		Tags:        []string{"daemon"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, h.RunNow)
}
