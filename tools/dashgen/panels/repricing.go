package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ChangesRate returns a timeseries panel showing price changes per minute
// split by dry run.
func ChangesRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Price Changes / min").
		Description("Rate of price changes produced by reprice cycles per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(fg_cycle_changes_total{job="flip-god"}[5m])) by (dry_run) * 60`,
			"dry_run={{dry_run}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ListingsRate returns a timeseries panel showing listings examined per minute.
func ListingsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Listings / min").
		Description("Rate of listings examined by reprice cycles per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`fg:cycle_listings:rate5m * 60`, "listings/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CycleErrors returns a timeseries panel showing per-listing cycle errors
// per minute.
func CycleErrors() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Errors / min").
		Description("Rate of per-listing reprice errors per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`fg:cycle_errors:rate5m * 60`, "errors/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// GuardrailBlocks returns a timeseries panel showing guardrail blocks by
// reason.
func GuardrailBlocks() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Guardrail Blocks").
		Description("Candidate prices blocked by guardrails, by reason").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(fg_guardrail_blocks_total{job="flip-god"}[5m])) by (reason)`,
			"{{reason}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// RuleEvaluations returns a timeseries panel showing rule evaluations by
// family and outcome.
func RuleEvaluations() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Rule Evaluations").
		Description("Rule evaluations per second, by family and outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(fg_rule_evaluations_total{job="flip-god"}[5m])) by (family, outcome)`,
			"{{family}}/{{outcome}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
