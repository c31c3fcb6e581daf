package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// flip-god operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "fg-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "fg-alerts",
					Rules: []Rule{
						{
							Alert: "FgDown",
							Expr:  `absent(up{job="flip-god"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Flip-God is down",
								"description": "The flip-god job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "FgReadinessDown",
							Expr:  `fg_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Flip-God readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "FgHighErrorRate",
							Expr:  `fg:http_errors:rate5m / fg:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on Flip-God",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "FgCycleErrors",
							Expr:  `fg:cycle_errors:rate5m > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Reprice cycle errors detected",
								"description": "Reprice cycles have been producing per-listing errors for more than 5 minutes.",
							},
						},
						{
							Alert: "FgCyclesSkipped",
							Expr:  `increase(fg_daemon_cycles_skipped_total[15m]) > 3`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Daemon cycles are overrunning their interval",
								"description": "More than 3 scheduled reprice ticks were skipped in 15 minutes because the previous cycle was still running.",
							},
						},
						{
							Alert: "FgMarketplaceQuotaHigh",
							Expr:  `fg_marketplace_daily_usage > 4000`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Marketplace API daily usage is above 80% of the quota",
								"description": "Daily marketplace API usage has exceeded 4000 calls (quota is 5000).",
							},
						},
						{
							Alert: "FgMarketplaceLimitReached",
							Expr:  `increase(fg_marketplace_daily_limit_hits_total[5m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Marketplace API daily quota has been reached",
								"description": "The marketplace API daily quota has been exhausted. Repricing is paused until the window rolls over.",
							},
						},
						{
							Alert: "FgMarketplaceErrors",
							Expr:  `sum(rate(fg_marketplace_errors_total[5m])) > 0.1`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Marketplace API error rate is elevated",
								"description": "Marketplace API calls are failing at more than 0.1/s for the last 5 minutes.",
							},
						},
					},
				},
			},
		},
	}
}
