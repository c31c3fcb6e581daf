package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/alsk1992/Flip-God-sub007/internal/api/client"
)

func historyCmd() *cobra.Command {
	var (
		listingID string
		configID  string
		ruleName  string
		since     time.Duration
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query reprice history",
		Long: "Query the reprice history ledger. Every price decision is recorded\n" +
			"with the rule or strategy that made it, the old and new price, and\n" +
			"whether it was a dry run.",
		Example: `  fg history
  fg history --rule beat_lowest --since 24h
  fg history --listing abc123 --limit 100 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			filter := apiclient.HistoryFilter{
				ListingID: listingID,
				ConfigID:  configID,
				RuleName:  ruleName,
				Limit:     limit,
				Offset:    offset,
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			c := newClient()
			page, err := c.ListHistory(context.Background(), filter)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(page)
			}
			if len(page.Records) == 0 {
				fmt.Println("No history records found.")
				return nil
			}
			if err := printHistoryTable(page.Records); err != nil {
				return err
			}
			fmt.Printf("\nShowing %d of %d records.\n", len(page.Records), page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&listingID, "listing", "", "filter by listing ID")
	cmd.Flags().StringVar(&configID, "config", "", "filter by config ID")
	cmd.Flags().StringVar(&ruleName, "rule", "", "filter by rule or strategy name")
	cmd.Flags().DurationVar(&since, "since", 0, "only records newer than this age (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	return cmd
}

func statsCmd() *cobra.Command {
	var (
		configID string
		since    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate reprice statistics",
		Example: `  fg stats
  fg stats --config abc123 --since 168h`,
		RunE: func(_ *cobra.Command, _ []string) error {
			var sinceTime time.Time
			if since > 0 {
				sinceTime = time.Now().Add(-since)
			}

			c := newClient()
			stats, err := c.GetRepriceStats(context.Background(), configID, sinceTime)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(stats)
			}
			return printStats(stats)
		},
	}
	cmd.Flags().StringVar(&configID, "config", "", "restrict stats to one config")
	cmd.Flags().DurationVar(&since, "since", 0, "only count records newer than this age")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show aggregate system state",
		Example: `  fg status
  fg status --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			state, err := c.GetSystemState(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(state)
			}
			return printSystemState(state)
		},
	}
}
