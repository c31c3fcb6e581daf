// Package validate checks generated dashboards and rule expressions for
// PromQL syntax errors and references to metrics the service does not export.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings. Errors are syntax problems that make
// an expression unusable; Warnings flag references to unknown metrics.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Dashboard validates every Prometheus query expression in the dashboard
// against PromQL syntax and the known metric set.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	raw, err := json.Marshal(dash)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("marshal dashboard: %v", err))
		return res
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("unmarshal dashboard: %v", err))
		return res
	}

	res.merge(Exprs(collectExprs(doc), known))
	return res
}

// Exprs validates a list of PromQL expressions against syntax and the known
// metric set.
func Exprs(exprs []string, known map[string]bool) Result {
	var res Result
	for _, expr := range exprs {
		node, err := parser.ParseExpr(expr)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid PromQL %q: %v", expr, err))
			continue
		}
		for _, name := range metricNames(node) {
			if !knownMetric(name, known) {
				res.Warnings = append(res.Warnings, fmt.Sprintf("unknown metric %q in %q", name, expr))
			}
		}
	}
	return res
}

// collectExprs walks a decoded JSON document and gathers every string value
// stored under an "expr" key.
func collectExprs(doc any) []string {
	var exprs []string
	switch v := doc.(type) {
	case map[string]any:
		for key, val := range v {
			if key == "expr" {
				if s, ok := val.(string); ok && s != "" {
					exprs = append(exprs, s)
					continue
				}
			}
			exprs = append(exprs, collectExprs(val)...)
		}
	case []any:
		for _, item := range v {
			exprs = append(exprs, collectExprs(item)...)
		}
	}
	return exprs
}

// metricNames returns the distinct metric names referenced by vector
// selectors in the expression.
func metricNames(node parser.Expr) []string {
	seen := map[string]bool{}
	var names []string
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		if vs, ok := n.(*parser.VectorSelector); ok && vs.Name != "" && !seen[vs.Name] {
			seen[vs.Name] = true
			names = append(names, vs.Name)
		}
		return nil
	})
	return names
}

// knownMetric checks the name against the known set, treating histogram
// series suffixes as references to their base metric.
func knownMetric(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}
