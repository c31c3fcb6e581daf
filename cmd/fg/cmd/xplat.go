package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func xplatCmd() *cobra.Command {
	xplatRoot := &cobra.Command{
		Use:   "xplat",
		Short: "Manage cross-platform rules",
		Long: "Manage cross-platform rules. Each rule watches price movement on\n" +
			"one platform and adjusts the matching listing on another by a\n" +
			"percentage when the trigger fires.",
	}

	xplatRoot.AddCommand(
		xplatListCmd(),
		xplatCreateCmd(),
		xplatDeleteCmd(),
	)

	return xplatRoot
}

func xplatListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cross-platform rules",
		Example: `  fg xplat list
  fg xplat list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			rules, err := c.ListCrossPlatformRules(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(rules)
			}
			if len(rules) == 0 {
				fmt.Println("No cross-platform rules found.")
				return nil
			}
			return printXPlatTable(rules)
		},
	}
}

func xplatCreateCmd() *cobra.Command {
	var (
		name     string
		watched  string
		adjusted string
		trigger  string
		pct      float64
		minPrice float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a cross-platform rule",
		Example: `  fg xplat create --name mirror-drop --watched ebay --adjusted walmart \
    --trigger price_drop --pct 2.5`,
		RunE: func(_ *cobra.Command, _ []string) error {
			r := &domain.CrossPlatformRule{
				Name:             name,
				WatchedPlatform:  domain.Platform(watched),
				AdjustedPlatform: domain.Platform(adjusted),
				Trigger:          domain.TriggerKind(trigger),
				AdjustmentPct:    pct,
			}
			if minPrice > 0 {
				r.MinPrice = &minPrice
			}

			c := newClient()
			created, err := c.CreateCrossPlatformRule(context.Background(), r)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(created)
			}
			fmt.Printf("Cross-platform rule created: %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "rule name")
	cmd.Flags().StringVar(&watched, "watched", "", "platform to watch for price movement")
	cmd.Flags().StringVar(&adjusted, "adjusted", "", "platform whose listing gets adjusted")
	cmd.Flags().StringVar(&trigger, "trigger", "", "trigger kind (price_drop, price_increase, undercut)")
	cmd.Flags().Float64Var(&pct, "pct", 0, "adjustment percentage")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "price floor for adjustments")
	cobra.CheckErr(cmd.MarkFlagRequired("name"))
	cobra.CheckErr(cmd.MarkFlagRequired("watched"))
	cobra.CheckErr(cmd.MarkFlagRequired("adjusted"))
	cobra.CheckErr(cmd.MarkFlagRequired("trigger"))

	return cmd
}

func xplatDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a cross-platform rule",
		Example: `  fg xplat delete abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.DeleteCrossPlatformRule(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Cross-platform rule %s deleted.\n", args[0])
			return nil
		},
	}
}
