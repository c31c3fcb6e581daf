// Package cmd implements the CLI commands for the flip-god server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "flip-god",
	Short: "Marketplace repricing daemon",
	Long:  "A rule-driven repricing daemon that watches competitor prices across marketplaces, evaluates stored pricing rules and ad-hoc strategies against each listing, and applies guarded price changes on a schedule.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
