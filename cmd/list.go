package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/busyrockin/vaultdb/core"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored secrets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openVault()
		if err != nil {
			return err
		}
		defer db.Shutdown()

		var rows []core.Metadata
		db.Iter(func(key string, rec core.EncryptedRecord) bool {
			rows = append(rows, rec.Metadata)
			return true
		})

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No secrets stored.")
			return nil
		}

		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Name != rows[j].Name {
				return rows[i].Name < rows[j].Name
			}
			return rows[i].URL < rows[j].URL
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tCATEGORY\tSTATUS\tUPDATED")
		for _, m := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Name, m.URL, m.Category, m.State, m.Updated)
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
