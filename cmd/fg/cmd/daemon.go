package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func daemonCmd() *cobra.Command {
	daemonRoot := &cobra.Command{
		Use:   "daemon",
		Short: "Control the repricing daemon",
		Long: "Control the server-side repricing scheduler: check its status,\n" +
			"start and stop it, trigger immediate cycles, and view recent\n" +
			"cycle runs.",
	}

	daemonRoot.AddCommand(
		daemonStatusCmd(),
		daemonStartCmd(),
		daemonStopCmd(),
		daemonRunCmd(),
		daemonCyclesCmd(),
	)

	return daemonRoot
}

func daemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Example: `  fg daemon status
  fg daemon status --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			status, err := c.GetDaemonStatus(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(status)
			}
			return printDaemonStatus(status)
		},
	}
}

func daemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Short:   "Start the daemon",
		Example: `  fg daemon start`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.StartDaemon(context.Background()); err != nil {
				return err
			}
			fmt.Println("Daemon started.")
			return nil
		},
	}
}

func daemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stop",
		Short:   "Stop the daemon",
		Example: `  fg daemon stop`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.StopDaemon(context.Background()); err != nil {
				return err
			}
			fmt.Println("Daemon stopped.")
			return nil
		},
	}
}

func daemonRunCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <config_id>",
		Short: "Run one cycle immediately",
		Long: "Trigger one reprice cycle for a config and wait for the result.\n" +
			"With --dry-run the cycle records decisions without applying prices,\n" +
			"even when the config itself is live.",
		Example: `  fg daemon run abc123
  fg daemon run abc123 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			run, err := c.RunNow(context.Background(), args[0], dryRun)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(run)
			}
			return printCycleRunDetail(run)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without applying prices")

	return cmd
}

func daemonCyclesCmd() *cobra.Command {
	var (
		configID string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List recent cycle runs",
		Example: `  fg daemon cycles
  fg daemon cycles --config abc123 --limit 10`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			runs, err := c.ListCycleRuns(context.Background(), configID, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println("No cycle runs found.")
				return nil
			}
			return printCycleRunsTable(runs)
		},
	}
	cmd.Flags().StringVar(&configID, "config", "", "filter by config ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to return")

	return cmd
}
