// Package backup implements the store's rolling-backup policy:
// timestamped copies of the current store file into a backup
// directory, plus list/latest/restore over that directory.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/busyrockin/vaultdb/internal/timeutil"
)

// Entry is one backup file as returned by List: its name, creation time,
// and a human-readable permissions string (as os.FileMode.String() renders
// it, e.g. "-rw-------").
type Entry struct {
	Name        string
	Created     os.FileInfo
	Permissions string
}

// Name builds the backup file name "{file}-{YYYYMMDD-HHMMSS}-v{version}".
func Name(file, version string) string {
	return fmt.Sprintf("%s-%s-v%s", file, timeutil.SimpleTimestamp(), version)
}

// Copy copies src into destDir/Name(basename(src), version), creating
// destDir if it doesn't exist yet. Returns the full backup path.
func Copy(src, destDir, version string) (string, error) {
	if err := os.MkdirAll(destDir, 0o777); err != nil {
		return "", fmt.Errorf("backup: mkdir %s: %w", destDir, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("backup: open %s: %w", src, err)
	}
	defer in.Close()

	dest := filepath.Join(destDir, Name(filepath.Base(src), version))
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("backup: create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("backup: copy %s -> %s: %w", src, dest, err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("backup: sync %s: %w", dest, err)
	}

	log.Debug().Str("src", src).Str("dest", dest).Msg("backup: copied")
	return dest, nil
}

// List enumerates dir and returns its entries sorted descending by file
// name. Backup names embed a YYYYMMDD-HHMMSS timestamp so lexicographic
// descending order is also newest-first chronological order.
func List(dir string) ([]Entry, error) {
	infos, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: read dir %s: %w", dir, err)
	}

	out := make([]Entry, 0, len(infos))
	for _, de := range infos {
		if de.IsDir() {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("backup: stat %s: %w", de.Name(), err)
		}
		out = append(out, Entry{
			Name:        de.Name(),
			Created:     fi,
			Permissions: fi.Mode().String(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Latest returns the newest backup in dir. It fails when dir is empty or
// doesn't exist.
func Latest(dir string) (Entry, error) {
	entries, err := List(dir)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("backup: no backups in %s", dir)
	}
	return entries[0], nil
}

// Restore overwrites dest with the contents of backupDir/name.
func Restore(backupDir, name, dest string) error {
	src := filepath.Join(backupDir, name)
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o777); err != nil {
		return fmt.Errorf("backup: mkdir %s: %w", filepath.Dir(dest), err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("backup: create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("backup: restore %s -> %s: %w", src, dest, err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("backup: sync %s: %w", dest, err)
	}

	log.Info().Str("backup", name).Str("dest", dest).Msg("backup: restored")
	return nil
}
