package backup

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameMatchesPattern(t *testing.T) {
	name := Name("secrets.db", "0.9.0")
	re := regexp.MustCompile(`^secrets\.db-\d{8}-\d{6}-v0\.9\.0$`)
	require.Regexp(t, re, name)
}

func TestCopyCreatesDestDirAndFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(src, []byte("ciphertext"), 0o600))

	destDir := filepath.Join(dir, "backups")
	dest, err := Copy(src, destDir, "0.9.0")
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "ciphertext", string(got))
}

func TestListSortsDescending(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"vault.db-20240101-000000-v0.9.0",
		"vault.db-20240102-000000-v0.9.0",
		"vault.db-20240103-000000-v0.9.0",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}

	entries, err := List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "vault.db-20240103-000000-v0.9.0", entries[0].Name)
	require.Equal(t, "vault.db-20240101-000000-v0.9.0", entries[2].Name)
}

func TestLatestFailsOnEmptyDir(t *testing.T) {
	dir := t.TempDir()
	_, err := Latest(dir)
	require.Error(t, err)
}

func TestRestoreOverwritesDest(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o777))

	name := "vault.db-20240101-000000-v0.9.0"
	require.NoError(t, os.WriteFile(filepath.Join(backupDir, name), []byte("restored-content"), 0o600))

	dest := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(dest, []byte("stale-content"), 0o600))

	require.NoError(t, Restore(backupDir, name, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "restored-content", string(got))
}

func TestLatestReturnsMostRecent(t *testing.T) {
	dir := t.TempDir()
	older := "vault.db-20240101-000000-v0.9.0"
	newer := "vault.db-20240102-000000-v0.9.0"
	require.NoError(t, os.WriteFile(filepath.Join(dir, older), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, newer), []byte("y"), 0o600))

	e, err := Latest(dir)
	require.NoError(t, err)
	require.Equal(t, newer, e.Name)
}
