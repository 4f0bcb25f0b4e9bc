package cmd

import (
	"errors"
	"fmt"

	"github.com/busyrockin/vaultdb/core"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <name> <url>",
	Short: "Show prior secret/metadata snapshots for a record, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		category, _ := cmd.Flags().GetString("category")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openVault()
		if err != nil {
			return err
		}
		defer db.Shutdown()

		key := core.RecordKey(core.Metadata{Name: name, URL: url, Kind: core.KindPassword, Category: category})
		rec, err := db.Get(key)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("secret %q at %q not found", name, url)
			}
			return fmt.Errorf("history: %w", err)
		}

		entries := core.HistoryNewestFirst(*rec)
		if len(entries) == 0 {
			fmt.Printf("No history for %q\n", name)
			return nil
		}

		for i, h := range entries {
			if limit > 0 && i >= limit {
				break
			}
			fmt.Printf("%s  user=%-20s  updated=%s\n", h.Metadata.Updated, h.Secrets.User, h.Metadata.Updated)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("category", "c", core.DefaultCategory, "Category the secret was filed under")
	historyCmd.Flags().IntP("limit", "n", 10, "Maximum number of records to show")
	rootCmd.AddCommand(historyCmd)
}
