package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/busyrockin/vaultdb/internal/backup"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "List backups taken on close of the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := backup.List(backupDir)
		if err != nil {
			return fmt.Errorf("list backups: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No backups found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODE\tMODIFIED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Permissions, e.Created.ModTime().Format("2006-01-02 15:04:05"))
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
