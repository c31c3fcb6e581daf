// Command dashgen generates the Grafana dashboard and Prometheus rule
// artifacts for flip-god into the deploy directory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/alsk1992/Flip-God-sub007/tools/dashgen/dashboards"
	"github.com/alsk1992/Flip-God-sub007/tools/dashgen/rules"
	"github.com/alsk1992/Flip-God-sub007/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen; DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type artifact struct {
	path string
	data []byte
}

func run(cfg Config, validateOnly bool) error {
	var artifacts []artifact

	if cfg.DashboardEnabled {
		dash, err := dashboards.BuildOverview().Build()
		if err != nil {
			return fmt.Errorf("building overview dashboard: %w", err)
		}

		result := validate.Dashboard(dash, KnownMetrics)
		if err := report("fg-overview", result); err != nil {
			return err
		}

		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling overview dashboard: %w", err)
		}
		data = append(data, '\n')
		artifacts = append(artifacts, artifact{
			path: filepath.Join("grafana", "data", "fg-overview.json"),
			data: data,
		})
	}

	if cfg.RulesEnabled {
		for _, cr := range []rules.PrometheusRule{rules.RecordingRules(), rules.AlertRules()} {
			result := validate.Exprs(ruleExprs(cr), KnownMetrics)
			if err := report(cr.Metadata.Name, result); err != nil {
				return err
			}

			data, err := yaml.Marshal(cr)
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", cr.Metadata.Name, err)
			}
			artifacts = append(artifacts, artifact{
				path: filepath.Join("prometheus", cr.Metadata.Name+".yaml"),
				data: append([]byte(generatedHeader), data...),
			})
		}
	}

	if validateOnly {
		fmt.Println("validation passed")
		return nil
	}

	for _, a := range artifacts {
		path := filepath.Join(cfg.OutputDir, a.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(path, a.data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func report(name string, result validate.Result) error {
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", name, w)
	}
	if !result.Ok() {
		return fmt.Errorf("%s failed validation: %v", name, result.Errors)
	}
	return nil
}

func ruleExprs(cr rules.PrometheusRule) []string {
	var exprs []string
	for _, group := range cr.Spec.Groups {
		for _, rule := range group.Rules {
			exprs = append(exprs, rule.Expr)
		}
	}
	return exprs
}
