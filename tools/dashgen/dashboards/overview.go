// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/alsk1992/Flip-God-sub007/tools/dashgen/panels"
)

// BuildOverview constructs the Flip-God Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Flip-God Overview").
		Uid("fg-overview").
		Tags([]string{"fg", "flip-god"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Daemon.
	b.WithRow(dashboard.NewRowBuilder("Daemon").
		WithPanel(panels.ConfigsRunning()).
		WithPanel(panels.CycleDurationP95()).
		WithPanel(panels.CyclesSkipped()))

	// Row 4: Repricing.
	b.WithRow(dashboard.NewRowBuilder("Repricing").
		WithPanel(panels.ChangesRate()).
		WithPanel(panels.ListingsRate()).
		WithPanel(panels.CycleErrors()).
		WithPanel(panels.GuardrailBlocks()).
		WithPanel(panels.RuleEvaluations()))

	// Row 5: Marketplace.
	b.WithRow(dashboard.NewRowBuilder("Marketplace").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()).
		WithPanel(panels.APIErrors()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
