package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/busyrockin/vaultdb/core"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Store a new secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		category, _ := cmd.Flags().GetString("category")
		user, _ := cmd.Flags().GetString("user")

		secretValue, err := readPassword("Secret value: ")
		if err != nil {
			return err
		}

		db, err := openVault()
		if err != nil {
			return err
		}
		defer db.Shutdown()

		meta := core.DefaultMetadata()
		meta.Name = name
		meta.URL = url
		meta.Category = category

		rec := core.DecryptedRecord{
			Metadata: meta,
			Secrets:  core.Secrets{User: user, Password: secretValue},
		}

		if _, err := db.Insert(rec); err != nil {
			if errors.Is(err, core.ErrDuplicate) {
				return fmt.Errorf("secret %q at %q already exists", name, url)
			}
			return fmt.Errorf("add secret: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Stored secret %q\n", name)
		return nil
	},
}

func init() {
	addCmd.Flags().StringP("category", "c", core.DefaultCategory, "Category to file this secret under")
	addCmd.Flags().StringP("user", "u", "", "Associated username or account ID")
	rootCmd.AddCommand(addCmd)
}
