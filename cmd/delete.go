package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/busyrockin/vaultdb/core"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name> <url>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		category, _ := cmd.Flags().GetString("category")
		hard, _ := cmd.Flags().GetBool("hard")

		if !confirm(fmt.Sprintf("Delete secret %q at %q?", name, url)) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}

		db, err := openVault()
		if err != nil {
			return err
		}
		defer db.Shutdown()

		key := core.RecordKey(core.Metadata{Name: name, URL: url, Kind: core.KindPassword, Category: category})

		if hard {
			if !db.Delete(key) {
				return fmt.Errorf("secret %q at %q not found", name, url)
			}
		} else {
			if err := db.SoftDelete(key); err != nil {
				if errors.Is(err, core.ErrNotFound) {
					return fmt.Errorf("secret %q at %q not found", name, url)
				}
				return fmt.Errorf("delete secret: %w", err)
			}
		}

		fmt.Fprintf(os.Stderr, "Deleted secret %q\n", name)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringP("category", "c", core.DefaultCategory, "Category the secret was filed under")
	deleteCmd.Flags().Bool("hard", false, "Remove the record outright instead of marking it deleted")
	rootCmd.AddCommand(deleteCmd)
}
