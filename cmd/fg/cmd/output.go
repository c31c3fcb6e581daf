package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apiclient "github.com/alsk1992/Flip-God-sub007/internal/api/client"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printRulesTable(rules []domain.RepricingRule) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tPLATFORM\tFAMILY\tPRIORITY\tENABLED\n")
	for i := range rules {
		tw.writef("%s\t%s\t%s\t%s\t%d\t%v\n",
			rules[i].ID,
			rules[i].Name,
			rules[i].Platform,
			rules[i].Family,
			rules[i].Priority,
			rules[i].Enabled,
		)
	}
	return tw.finish()
}

func printRuleDetail(r *domain.RepricingRule) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", r.ID)
	tw.writef("Name:\t%s\n", r.Name)
	tw.writef("Platform:\t%s\n", r.Platform)
	tw.writef("Family:\t%s\n", r.Family)
	tw.writef("Priority:\t%d\n", r.Priority)
	tw.writef("Enabled:\t%v\n", r.Enabled)
	if r.Category != "" {
		tw.writef("Category:\t%s\n", r.Category)
	}
	if r.SKUPattern != "" {
		tw.writef("SKU Pattern:\t%s\n", r.SKUPattern)
	}
	params, err := json.Marshal(r.Params)
	if err == nil {
		tw.writef("Params:\t%s\n", params)
	}
	return tw.finish()
}

func printXPlatTable(rules []domain.CrossPlatformRule) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tWATCHED\tADJUSTED\tTRIGGER\tADJ %%\tENABLED\n")
	for i := range rules {
		r := &rules[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%.1f\t%v\n",
			r.ID,
			r.Name,
			r.WatchedPlatform,
			r.AdjustedPlatform,
			r.Trigger,
			r.AdjustmentPct,
			r.Enabled,
		)
	}
	return tw.finish()
}

func printConfigsTable(configs []domain.DaemonConfig) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tINTERVAL\tSTRATEGIES\tPLATFORMS\tDRY RUN\tENABLED\n")
	for i := range configs {
		c := &configs[i]
		platforms := "all"
		if len(c.Platforms) > 0 {
			parts := make([]string, len(c.Platforms))
			for j, p := range c.Platforms {
				parts[j] = string(p)
			}
			platforms = strings.Join(parts, ",")
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%v\t%v\n",
			c.ID,
			c.Name,
			c.Interval(),
			strings.Join(c.Strategies, ","),
			platforms,
			c.DryRun,
			c.Enabled,
		)
	}
	return tw.finish()
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tSKU\tPLATFORM\tTITLE\tPRICE\tCOST\tACTIVE\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%s\t%s\t$%.2f\t$%.2f\t%v\n",
			l.ID,
			l.SKU,
			l.Platform,
			truncate(l.Title, 40),
			l.CurrentPrice,
			l.CostPrice,
			l.Active,
		)
	}
	return tw.finish()
}

func printHistoryTable(records []domain.HistoryRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("TIME\tLISTING\tRULE\tOLD\tNEW\tDRY\tREASON\n")
	for i := range records {
		r := &records[i]
		tw.writef("%s\t%s\t%s\t$%.2f\t$%.2f\t%v\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ListingID,
			r.RuleName,
			r.OldPrice,
			r.NewPrice,
			r.DryRun,
			truncate(r.Reason, 50),
		)
	}
	return tw.finish()
}

func printCycleRunsTable(runs []domain.CycleRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("CONFIG\tSTATUS\tSTARTED\tPROCESSED\tCHANGED\tBLOCKED\tFAILED\n")
	for i := range runs {
		r := &runs[i]
		tw.writef("%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ConfigID,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Processed,
			r.Changed,
			r.Blocked,
			r.Failed,
		)
	}
	return tw.finish()
}

func printCycleRunDetail(r *domain.CycleRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Run:\t%s\n", r.ID)
	tw.writef("Config:\t%s\n", r.ConfigID)
	tw.writef("Status:\t%s\n", r.Status)
	tw.writef("Processed:\t%d\n", r.Processed)
	tw.writef("Changed:\t%d\n", r.Changed)
	tw.writef("Blocked:\t%d\n", r.Blocked)
	tw.writef("Failed:\t%d\n", r.Failed)
	if r.ErrorText != "" {
		tw.writef("Error:\t%s\n", r.ErrorText)
	}
	return tw.finish()
}

func printStats(s *domain.RepriceStats) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Total changes:\t%d\n", s.TotalChanges)
	tw.writef("Avg change:\t%.2f%%\n", s.AvgChangePct)
	if err := tw.finish(); err != nil {
		return err
	}

	if len(s.ByStrategy) > 0 {
		fmt.Println("\nBy strategy:")
		tw = newTabWriter(os.Stdout)
		for name, count := range s.ByStrategy {
			tw.writef("  %s\t%d\n", name, count)
		}
		if err := tw.finish(); err != nil {
			return err
		}
	}

	if len(s.ByDay) > 0 {
		fmt.Println("\nBy day:")
		tw = newTabWriter(os.Stdout)
		for _, day := range s.ByDay {
			tw.writef("  %s\t%d\n", day.Day, day.Count)
		}
		return tw.finish()
	}
	return nil
}

func printDaemonStatus(s *apiclient.DaemonStatus) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Running:\t%v\n", s.Running)
	tw.writef("Active configs:\t%d\n", len(s.ActiveConfigs))
	for _, id := range s.ActiveConfigs {
		tw.writef("  %s\n", id)
	}
	return tw.finish()
}

func printSystemState(s *domain.SystemState) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Rules:\t%d (%d enabled)\n", s.RulesTotal, s.RulesEnabled)
	tw.writef("Configs:\t%d (%d enabled)\n", s.ConfigsTotal, s.ConfigsEnabled)
	tw.writef("Listings:\t%d (%d active)\n", s.ListingsTotal, s.ListingsActive)
	tw.writef("Changes (24h):\t%d\n", s.Changes24h)
	tw.writef("Blocked (24h):\t%d\n", s.Blocked24h)
	tw.writef("Cycles running:\t%d\n", s.CyclesRunning)
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
