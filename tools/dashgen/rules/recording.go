package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "fg-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "fg-recording",
					Rules: []Rule{
						{
							Record: "fg:http_requests:rate5m",
							Expr:   `sum(rate(fg_http_requests_total[5m]))`,
						},
						{
							Record: "fg:http_errors:rate5m",
							Expr:   `sum(rate(fg_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "fg:cycle_listings:rate5m",
							Expr:   `rate(fg_cycle_listings_total[5m])`,
						},
						{
							Record: "fg:cycle_changes:rate5m",
							Expr:   `sum(rate(fg_cycle_changes_total[5m]))`,
						},
						{
							Record: "fg:cycle_errors:rate5m",
							Expr:   `rate(fg_cycle_errors_total[5m])`,
						},
						{
							Record: "fg:guardrail_blocks:rate5m",
							Expr:   `sum(rate(fg_guardrail_blocks_total[5m]))`,
						},
						{
							Record: "fg:marketplace_calls:rate5m",
							Expr:   `sum(rate(fg_marketplace_calls_total[5m]))`,
						},
					},
				},
			},
		},
	}
}
