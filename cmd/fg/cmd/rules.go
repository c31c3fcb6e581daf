package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func rulesCmd() *cobra.Command {
	rulesRoot := &cobra.Command{
		Use:   "rules",
		Short: "Manage repricing rules",
		Long: "Manage stored repricing rules. Each rule belongs to a family\n" +
			"(beat_lowest, match_buybox, floor_ceiling, margin_target,\n" +
			"velocity_based, time_decay, expression) and carries the matching\n" +
			"parameter bundle as JSON.",
	}

	rulesRoot.AddCommand(
		rulesListCmd(),
		rulesGetCmd(),
		rulesCreateCmd(),
		rulesEnableCmd(),
		rulesDisableCmd(),
		rulesDeleteCmd(),
	)

	return rulesRoot
}

func rulesListCmd() *cobra.Command {
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List repricing rules",
		Example: `  fg rules list
  fg rules list --enabled --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			rules, err := c.ListRules(context.Background(), enabledOnly)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(rules)
			}
			if len(rules) == 0 {
				fmt.Println("No rules found.")
				return nil
			}
			return printRulesTable(rules)
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only show enabled rules")

	return cmd
}

func rulesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show rule details",
		Example: `  fg rules get abc123
  fg rules get abc123 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			r, err := c.GetRule(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(r)
			}
			return printRuleDetail(r)
		},
	}
}

func rulesCreateCmd() *cobra.Command {
	var ruleFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a rule from a JSON file",
		Long: "Create a repricing rule from a JSON definition. The file must carry\n" +
			"the rule name, platform, family, and the params variant matching the\n" +
			"family. Use \"-\" to read from stdin.",
		Example: `  fg rules create --file rule.json
  cat rule.json | fg rules create --file -`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if ruleFile == "" {
				return fmt.Errorf("--file is required")
			}

			var data []byte
			var err error
			if ruleFile == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(ruleFile) //nolint:gosec // path from CLI flag
			}
			if err != nil {
				return fmt.Errorf("reading rule file: %w", err)
			}

			var r domain.RepricingRule
			if err := json.Unmarshal(data, &r); err != nil {
				return fmt.Errorf("parsing rule JSON: %w", err)
			}

			c := newClient()
			created, err := c.CreateRule(context.Background(), &r)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(created)
			}
			fmt.Printf("Rule created: %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ruleFile, "file", "", "rule definition JSON file (\"-\" for stdin)")

	return cmd
}

func rulesEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "enable <id>",
		Short:   "Enable a rule",
		Example: `  fg rules enable abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRuleSetEnabled(args[0], true)
		},
	}
}

func rulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disable <id>",
		Short:   "Disable a rule",
		Example: `  fg rules disable abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRuleSetEnabled(args[0], false)
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a rule",
		Example: `  fg rules delete abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.DeleteRule(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Rule %s deleted.\n", args[0])
			return nil
		},
	}
}

func runRuleSetEnabled(id string, enabled bool) error {
	c := newClient()
	if err := c.SetRuleEnabled(context.Background(), id, enabled); err != nil {
		return err
	}

	action := "enabled"
	if !enabled {
		action = "disabled"
	}
	fmt.Printf("Rule %s %s.\n", id, action)
	return nil
}
