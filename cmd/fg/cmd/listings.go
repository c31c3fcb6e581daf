package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "View tracked listings",
	}

	listingsRoot.AddCommand(
		listingsListCmd(),
		listingsGetCmd(),
		listingsObservationsCmd(),
	)

	return listingsRoot
}

func listingsListCmd() *cobra.Command {
	var (
		platform   string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked listings",
		Example: `  fg listings list
  fg listings list --platform ebay --active`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			listings, err := c.ListListings(context.Background(), platform, activeOnly)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(listings)
			}
			if len(listings) == 0 {
				fmt.Println("No listings found.")
				return nil
			}
			return printListingsTable(listings)
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "filter by platform")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only show active listings")

	return cmd
}

func listingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show listing details",
		Example: `  fg listings get abc123 --output json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			l, err := c.GetListing(context.Background(), args[0])
			if err != nil {
				return err
			}
			return outputJSON(l)
		},
	}
}

func listingsObservationsCmd() *cobra.Command {
	var (
		platform string
		sku      string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "observations",
		Short: "List competitor price observations",
		Example: `  fg listings observations --platform ebay --sku WIDGET-1
  fg listings observations --platform amazon --sku WIDGET-1 --limit 50`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if platform == "" || sku == "" {
				return fmt.Errorf("--platform and --sku are required")
			}
			c := newClient()
			points, err := c.ListObservations(context.Background(), platform, sku, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(points)
			}
			if len(points) == 0 {
				fmt.Println("No observations found.")
				return nil
			}
			tw := newTabWriter(os.Stdout)
			tw.writef("OBSERVED\tPRICE\n")
			for _, p := range points {
				tw.writef("%s\t$%.2f\n", p.ObservedAt.Format("2006-01-02 15:04:05"), p.Price)
			}
			return tw.finish()
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "marketplace platform")
	cmd.Flags().StringVar(&sku, "sku", "", "listing SKU")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum observations to return")

	return cmd
}
