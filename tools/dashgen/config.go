package main

import "errors"

// KnownMetrics is the set of metric names exported by flip-god plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"fg_http_request_duration_seconds": true,
	"fg_http_requests_total":           true,

	// Health metrics.
	"fg_healthz_up": true,
	"fg_readyz_up":  true,

	// Cycle metrics.
	"fg_cycle_duration_seconds": true,
	"fg_cycle_listings_total":   true,
	"fg_cycle_changes_total":    true,
	"fg_cycle_errors_total":     true,

	// Rule evaluation metrics.
	"fg_rule_evaluations_total": true,
	"fg_guardrail_blocks_total": true,

	// Marketplace API metrics.
	"fg_marketplace_calls_total":            true,
	"fg_marketplace_errors_total":           true,
	"fg_marketplace_daily_usage":            true,
	"fg_marketplace_daily_limit_hits_total": true,

	// Daemon metrics.
	"fg_daemon_configs_running":      true,
	"fg_daemon_cycles_skipped_total": true,

	// Recording rules.
	"fg:http_requests:rate5m":     true,
	"fg:http_errors:rate5m":       true,
	"fg:cycle_listings:rate5m":    true,
	"fg:cycle_changes:rate5m":     true,
	"fg:cycle_errors:rate5m":      true,
	"fg:guardrail_blocks:rate5m":  true,
	"fg:marketplace_calls:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
