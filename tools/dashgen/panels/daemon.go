package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ConfigsRunning returns a stat panel showing the number of daemon configs
// with an active ticker loop.
func ConfigsRunning() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Configs Running").
		Description("Daemon configs with an active schedule").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`fg_daemon_configs_running{job="flip-god"}`, "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// CycleDurationP95 returns a timeseries panel showing the p95 reprice cycle
// duration.
func CycleDurationP95() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cycle Duration (p95)").
		Description("95th percentile reprice cycle duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(fg_cycle_duration_seconds_bucket{job="flip-god"}[5m])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CyclesSkipped returns a stat panel showing ticks skipped because the
// previous cycle was still running.
func CyclesSkipped() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Cycles Skipped (1h)").
		Description("Ticks skipped because the previous cycle was still running").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`increase(fg_daemon_cycles_skipped_total{job="flip-god"}[1h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
