package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent action log entries of a class",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("class", "", "class id")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	classID, err := requireFlag(cmd, "class")
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := b.logs.ListRecent(cmd.Context(), classID, limit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Items)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tID\tACTION\tACTOR\tTIME\tUNDO")
	for _, item := range result.Items {
		undo := "-"
		if item.Reversible {
			undo = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", item.Sequence, item.ID, item.Action, item.ActorID, item.Timestamp.Format(time.RFC3339), undo)
	}
	return w.Flush()
}
