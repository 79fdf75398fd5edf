package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo one action log entry with compensating writes",
	RunE:  runRollback,
}

func init() {
	rollbackCmd.Flags().String("class", "", "class id")
	rollbackCmd.Flags().String("log", "", "id of the entry to undo")
	rollbackCmd.Flags().String("actor", "jadwalctl", "actor recorded on the rollback entry")
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, _ []string) error {
	classID, err := requireFlag(cmd, "class")
	if err != nil {
		return err
	}
	logID, err := requireFlag(cmd, "log")
	if err != nil {
		return err
	}
	actor, _ := cmd.Flags().GetString("actor")

	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := b.rollback.Rollback(cmd.Context(), classID, logID, actor)
	if err != nil {
		return fmt.Errorf("rolling back %s: %w", logID, err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	fmt.Printf("%s %s -> %s (restored: %s)\n", result.Action, result.OriginalLogID, result.LogID, strings.Join(result.RestoredDocIDs, ", "))
	return nil
}
