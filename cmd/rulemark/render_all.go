package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rulemark/internal/adapters/storage/localfs"
	"rulemark/internal/batch"
	"rulemark/internal/output"
)

var flagAllOut string

var renderAllCmd = &cobra.Command{
	Use:   "render-all",
	Short: "Render every entity type in the dataset",
	Long: `Render-all discovers the type list from the dataset summary and renders each
type in alphabetical order. A failing type is reported and skipped; the run
continues with the remaining types.`,
	Args: cobra.NoArgs,
	RunE: runRenderAll,
}

func init() {
	rootCmd.AddCommand(renderAllCmd)

	renderAllCmd.Flags().StringVar(&flagAllOut, "out", "dist", "Output directory")
}

func runRenderAll(cmd *cobra.Command, args []string) error {
	client, log, err := newBridge()
	if err != nil {
		return err
	}

	sink := output.NewWriter(localfs.New(flagAllOut), "rendered", "")
	orch := batch.New(client, sink, log)

	res, err := orch.RenderAll(context.Background())
	if err != nil {
		return err
	}

	printReport(res)
	if res.Errors > 0 {
		return fmt.Errorf("%d of %d types failed", res.Errors, len(res.Units))
	}
	return nil
}

func printReport(res *batch.Result) {
	for _, u := range res.Units {
		switch {
		case u.Error != "":
			fmt.Fprintf(os.Stderr, "  ✗ %s: %s\n", u.Unit, u.Error)
		case u.Skipped:
			fmt.Fprintf(os.Stdout, "  - %s: skipped (no entries)\n", u.Unit)
		default:
			fmt.Fprintf(os.Stdout, "  ✓ %s: %d entries (%dms)\n", u.Unit, u.Entries, u.ElapsedMS)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d entries, %d errors in %dms (%.1f entries/s)\n",
		res.Entries, res.Errors, res.ElapsedMS, res.Rate())
}
