package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/busyrockin/vaultdb/core"
	"golang.org/x/term"
)

var (
	vaultDir  string
	vaultPath string
	backupDir string
)

func init() {
	home, _ := os.UserHomeDir()
	vaultDir = filepath.Join(home, ".vaultdb")
	vaultPath = filepath.Join(vaultDir, "vault.db")
	backupDir = filepath.Join(vaultDir, "backups")
}

func readPassword(prompt string) (string, error) {
	if pw := os.Getenv("VAULTDB_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(b), nil
}

// defaultSalt mirrors the original's upstream convention of using the
// invoking user's name as the default salt string when none is given.
func defaultSalt() string {
	if s := os.Getenv("VAULTDB_SALT"); s != "" {
		return s
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "vaultdb"
}

func openVault() (*core.DB, error) {
	if _, err := os.Stat(vaultPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vault not found, run 'vaultdb init' first")
	}
	pw, err := readPassword("Master password: ")
	if err != nil {
		return nil, err
	}
	db, err := core.Open(vaultPath, backupDir, pw, defaultSalt(), core.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to unlock vault (wrong password?): %w", err)
	}
	return db, nil
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	var ans string
	fmt.Scanln(&ans)
	return ans == "y" || ans == "Y"
}
