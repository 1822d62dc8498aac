package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-type record counts from the dataset",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	client, _, err := newBridge()
	if err != nil {
		return err
	}

	summary, err := client.Summary(context.Background())
	if err != nil {
		return err
	}

	types := make([]string, 0, len(summary))
	for t := range summary {
		types = append(types, t)
	}
	sort.Strings(types)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCOUNT")
	total := 0
	for _, t := range types {
		fmt.Fprintf(w, "%s\t%d\n", t, summary[t].Count)
		total += summary[t].Count
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	return w.Flush()
}
