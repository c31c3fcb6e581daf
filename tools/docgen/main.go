// Command docgen renders the fg command tree as markdown reference pages.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/alsk1992/Flip-God-sub007/cmd/fg/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	if err := run(*output); err != nil {
		fmt.Fprintln(os.Stderr, "docgen:", err)
		os.Exit(1)
	}
}

func run(output string) error {
	if err := os.MkdirAll(output, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// The auto-gen tag embeds a timestamp, which makes the output churn on
	// every run.
	root := cmd.Root()
	root.DisableAutoGenTag = true

	if err := doc.GenMarkdownTree(root, output); err != nil {
		return fmt.Errorf("generating docs: %w", err)
	}

	fmt.Printf("CLI docs generated in %s/\n", output)
	return nil
}
