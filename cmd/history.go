package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hsmtools/hsmcheck/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent verdicts from the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("history")
		if path == "" {
			return fmt.Errorf("no history database configured (use --history)")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		store, err := db.Open(ctx, path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(ctx, limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  slot=%d  %-8s  %s\n",
				e.CheckedAt.Format(time.RFC3339), e.Slot, e.Severity, e.Message)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
