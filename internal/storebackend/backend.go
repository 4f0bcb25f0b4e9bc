package storebackend

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mutecomm/go-sqlcipher/v4"
	"go.etcd.io/bbolt"

	"github.com/busyrockin/vaultdb/internal/backup"
	"github.com/busyrockin/vaultdb/internal/secret"
)

// Manager is the store backend capability: backup the
// current file, and read an EncryptedDB from a path. At least a filesystem
// implementation exists; alternatives are pluggable but not required by
// the core DB facade, which is constructed against FileSystemBackend by
// default.
type Manager interface {
	Backup(src, destDir, version string) (string, error)
	Read(path string, pwd, salt secret.Bytes) (*EncryptedDB, error)
}

// FileSystemBackend is the only backend the DB facade requires: a plain
// file on local disk, backed up via the backup package's timestamped-copy
// policy.
type FileSystemBackend struct{}

func (FileSystemBackend) Backup(src, destDir, version string) (string, error) {
	return backup.Copy(src, destDir, version)
}

func (FileSystemBackend) Read(path string, pwd, salt secret.Bytes) (*EncryptedDB, error) {
	return FromFile(path, pwd, salt)
}

// ErrBackendUnimplemented marks a backend whose Read path is a stub: the
// write path is always a plain file, so an alternative
// read backend needs its own on-disk container format, which is exactly
// the scope these stubs leave unimplemented.
var ErrBackendUnimplemented = errors.New("storebackend: backend not implemented")

// BoltBackend is a stub store backend over a bbolt file. Its Backup
// delegates to the same file-copy logic FileSystemBackend uses, backup is
// path-based regardless of which backend reads the file, but Read is
// unimplemented: the DB facade's wire format (envelope + record payload)
// has no bbolt-bucket representation defined, so there is
// nothing correct to decode here yet. Read still opens path as a bbolt
// file to surface a real bbolt error (e.g. "not a bolt db") before falling
// back to ErrBackendUnimplemented, so the stub fails honestly on garbage
// input rather than unconditionally claiming "not implemented".
type BoltBackend struct{}

func (BoltBackend) Backup(src, destDir, version string) (string, error) {
	return backup.Copy(src, destDir, version)
}

func (BoltBackend) Read(path string, pwd, salt secret.Bytes) (*EncryptedDB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("bolt backend: open %s: %w", path, err)
	}
	db.Close()
	return nil, fmt.Errorf("bolt backend: %w", ErrBackendUnimplemented)
}

// SQLCipherBackend is a stub store backend over a SQLCipher-encrypted
// SQLite file. Like BoltBackend, Backup is the shared file-copy path. Read
// opens the file through the sqlite3/SQLCipher driver with a
// `path?_pragma_key=...` DSN to confirm the password at least unlocks the
// file, then still reports unimplemented: the wire format here is the
// custom VersionedDB/EncryptedRecord layout, not a SQL schema, so there is
// no table to decode records from.
type SQLCipherBackend struct{}

func (SQLCipherBackend) Backup(src, destDir, version string) (string, error) {
	return backup.Copy(src, destDir, version)
}

func (SQLCipherBackend) Read(path string, pwd, salt secret.Bytes) (*EncryptedDB, error) {
	dsn := fmt.Sprintf("%s?_pragma_key=%s", path, pwd.ExposeString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlcipher backend: open %s: %w", path, err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlcipher backend: unlock %s: %w", path, err)
	}
	return nil, fmt.Errorf("sqlcipher backend: %w", ErrBackendUnimplemented)
}
