package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"rulemark/internal/adapters/storage/localfs"
	"rulemark/internal/batch"
	"rulemark/internal/output"
)

var (
	flagCuratedOut  string
	flagCuratedGlob string
)

var renderCuratedCmd = &cobra.Command{
	Use:   "render-curated <dir-or-file>...",
	Short: "Render curated rule files",
	Long: `Render-curated renders hand-picked rule JSON files. A directory argument is
expanded to its filtered_*.json files. Files are processed in sorted order,
and each entry's metadata is written next to its markdown.

Examples:
  rulemark render-curated ./curated
  rulemark render-curated ./curated/filtered_spells.json --out ./dist`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRenderCurated,
}

func init() {
	rootCmd.AddCommand(renderCuratedCmd)

	renderCuratedCmd.Flags().StringVar(&flagCuratedOut, "out", "dist", "Output directory")
	renderCuratedCmd.Flags().StringVar(&flagCuratedGlob, "glob", "filtered_*.json", "Pattern for files inside a directory argument")
}

func runRenderCurated(cmd *cobra.Command, args []string) error {
	files, err := collectInputFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files matched %q", flagCuratedGlob)
	}

	client, log, err := newBridge()
	if err != nil {
		return err
	}

	sink := output.NewWriter(localfs.New(flagCuratedOut), "rendered", "metadata")
	orch := batch.New(client, sink, log)

	res, err := orch.RenderSet(context.Background(), files)
	if err != nil {
		return err
	}

	printReport(res)
	if res.Errors > 0 {
		return fmt.Errorf("%d of %d files failed", res.Errors, len(res.Units))
	}
	return nil
}

// collectInputFiles expands directory arguments to their matching files and
// passes file arguments through untouched.
func collectInputFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(arg, flagCuratedGlob))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
			continue
		}
		files = append(files, arg)
	}
	sort.Strings(files)
	return files, nil
}
