package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func configsCmd() *cobra.Command {
	configsRoot := &cobra.Command{
		Use:   "configs",
		Short: "Manage daemon configs",
		Long: "Manage repricing daemon configs. Each config defines one scheduled\n" +
			"loop: cycle interval, the strategies it runs, guardrail bounds, and\n" +
			"which platforms it covers.",
	}

	configsRoot.AddCommand(
		configsListCmd(),
		configsCreateCmd(),
		configsEnableCmd(),
		configsDisableCmd(),
		configsDeleteCmd(),
	)

	return configsRoot
}

func configsListCmd() *cobra.Command {
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List daemon configs",
		Example: `  fg configs list
  fg configs list --enabled --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			configs, err := c.ListConfigs(context.Background(), enabledOnly)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(configs)
			}
			if len(configs) == 0 {
				fmt.Println("No configs found.")
				return nil
			}
			return printConfigsTable(configs)
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only show enabled configs")

	return cmd
}

func configsCreateCmd() *cobra.Command {
	var (
		cfgName       string
		cfgInterval   time.Duration
		cfgStrategies []string
		cfgPlatforms  []string
		cfgDryRun     bool
		cfgMaxChange  float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a daemon config",
		Example: `  # Reprice eBay listings hourly with the beat_lowest strategy
  fg configs create --name hourly-ebay --interval 1h \
    --strategy beat_lowest --platform ebay

  # Dry-run config covering all platforms
  fg configs create --name preview --interval 30m \
    --strategy beat_lowest --strategy time_decay --dry-run`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cfgName == "" {
				return fmt.Errorf("--name is required")
			}

			platforms := make([]domain.Platform, 0, len(cfgPlatforms))
			for _, p := range cfgPlatforms {
				platforms = append(platforms, domain.Platform(strings.ToLower(p)))
			}

			cfg := &domain.DaemonConfig{
				Name:         cfgName,
				Enabled:      true,
				DryRun:       cfgDryRun,
				IntervalMs:   cfgInterval.Milliseconds(),
				Strategies:   cfgStrategies,
				Platforms:    platforms,
				MaxChangePct: cfgMaxChange,
			}

			c := newClient()
			created, err := c.CreateConfig(context.Background(), cfg)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(created)
			}
			fmt.Printf("Config created: %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgName, "name", "", "config name")
	cmd.Flags().DurationVar(&cfgInterval, "interval", time.Hour, "cycle interval")
	cmd.Flags().StringArrayVar(&cfgStrategies, "strategy", nil, "strategy to run (repeatable)")
	cmd.Flags().StringArrayVar(&cfgPlatforms, "platform", nil, "platform filter (repeatable)")
	cmd.Flags().BoolVar(&cfgDryRun, "dry-run", false, "record decisions without applying prices")
	cmd.Flags().Float64Var(&cfgMaxChange, "max-change-pct", 0, "max price change per cycle in percent")

	return cmd
}

func configsEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "enable <id>",
		Short:   "Enable a config",
		Example: `  fg configs enable abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigSetEnabled(args[0], true)
		},
	}
}

func configsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disable <id>",
		Short:   "Disable a config",
		Example: `  fg configs disable abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigSetEnabled(args[0], false)
		},
	}
}

func configsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a config",
		Example: `  fg configs delete abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.DeleteConfig(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Config %s deleted.\n", args[0])
			return nil
		},
	}
}

func runConfigSetEnabled(id string, enabled bool) error {
	c := newClient()
	if err := c.SetConfigEnabled(context.Background(), id, enabled); err != nil {
		return err
	}

	action := "enabled"
	if !enabled {
		action = "disabled"
	}
	fmt.Printf("Config %s %s.\n", id, action)
	return nil
}
