package cmd

import (
	"fmt"
	"os"

	"github.com/busyrockin/vaultdb/internal/backup"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [name]",
	Short: "Overwrite the vault file with a backup (latest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(fmt.Sprintf("Overwrite %s with a backup?", vaultPath)) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}

		if len(args) == 1 {
			if err := backup.Restore(backupDir, args[0], vaultPath); err != nil {
				return fmt.Errorf("restore %q: %w", args[0], err)
			}
			fmt.Fprintf(os.Stderr, "Restored from %q\n", args[0])
			return nil
		}

		entry, err := backup.Latest(backupDir)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		if err := backup.Restore(backupDir, entry.Name, vaultPath); err != nil {
			return fmt.Errorf("restore %q: %w", entry.Name, err)
		}
		fmt.Fprintf(os.Stderr, "Restored from %q\n", entry.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
