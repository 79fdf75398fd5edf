package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the document and action log tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()
		if err := database.Migrate(b.db); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List every action kind and whether it can be undone",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, kind := range audit.Kinds() {
			entry, _ := audit.Lookup(kind)
			undo := "no"
			if entry.Reversible {
				undo = "yes"
			}
			fmt.Printf("%-36s %-24s %-28s undo=%s\n", kind, entry.Collection, entry.Shape, undo)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(kindsCmd)
}
