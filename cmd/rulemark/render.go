package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rulemark/internal/adapters/storage/localfs"
	"rulemark/internal/bridge"
	"rulemark/internal/output"
)

// Flag variables for render.
var (
	flagLimit   int
	flagPersist bool
	flagOut     string
	flagStdout  bool
)

var renderCmd = &cobra.Command{
	Use:   "render <type>",
	Short: "Render a single entity type to Markdown",
	Long: `Render asks the engine for every record of the given entity type and writes
one Markdown document per record under <out>/rendered/<type>/.

Examples:
  rulemark render spell
  rulemark render monster --limit 3 --stdout
  rulemark render action --out ./dist`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().IntVar(&flagLimit, "limit", 0, "Render at most N records (0 = all)")
	renderCmd.Flags().BoolVar(&flagPersist, "save", false, "Ask the engine to persist its own copy as well")
	renderCmd.Flags().StringVar(&flagOut, "out", "dist", "Output directory")
	renderCmd.Flags().BoolVar(&flagStdout, "stdout", false, "Print markdown to stdout instead of writing files")
}

func runRender(cmd *cobra.Command, args []string) error {
	entityType := args[0]

	client, _, err := newBridge()
	if err != nil {
		return err
	}

	opts := bridge.RenderOpts{Persist: flagPersist}
	if flagLimit > 0 {
		opts.Limit = bridge.Limit(flagLimit)
	}

	ctx := context.Background()
	entries, err := client.RenderType(ctx, entityType, opts)
	if err != nil {
		return err
	}

	if flagStdout {
		for _, e := range entries {
			fmt.Fprintln(os.Stdout, e.Markdown)
		}
		return nil
	}

	writer := output.NewWriter(localfs.New(flagOut), "rendered", "")
	for _, e := range entries {
		if err := writer.WriteEntry(ctx, entityType, e); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "✓ %d entries written to %s/rendered/%s\n", len(entries), flagOut, entityType)
	return nil
}
