package cmd

import (
	"errors"
	"fmt"

	"github.com/busyrockin/vaultdb/core"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <name> <url>",
	Short: "Retrieve a decrypted secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		category, _ := cmd.Flags().GetString("category")

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
			return fmt.Errorf("get secret: %w", err)
		}

		db.UpdateMetadata(key, func(m *core.Metadata) {
			m.AccessCount++
			m.LastUsed = core.Now()
		})

		fmt.Print(rec.Secrets.Password)
		return nil
	},
}

func init() {
	getCmd.Flags().StringP("category", "c", core.DefaultCategory, "Category the secret was filed under")
	rootCmd.AddCommand(getCmd)
}
