package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/busyrockin/vaultdb/internal/backup"
	"github.com/busyrockin/vaultdb/internal/envelope"
	"github.com/busyrockin/vaultdb/internal/metrics"
	"github.com/busyrockin/vaultdb/internal/recordmap"
	"github.com/busyrockin/vaultdb/internal/records/v09"
	"github.com/busyrockin/vaultdb/internal/secret"
	"github.com/busyrockin/vaultdb/internal/storebackend"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

// Options configures Open. The zero value is the default: a filesystem
// backend and the plain truncate-or-pad key derivation, deterministic and
// required for CRC-gated no-op persistence.
type Options struct {
	// Backend selects the store backend capability. Nil
	// defaults to storebackend.FileSystemBackend{}.
	Backend storebackend.Manager

	// Strengthen opts into an Argon2id-derived key in place of the
	// default truncate-or-pad derivation. Off by default so the
	// documented deterministic behavior, and the CRC-gated no-op write
	// path that depends on it, is unchanged unless a caller explicitly
	// asks for stronger key derivation.
	Strengthen bool
}

// DB is the open, in-memory handle on an encrypted secrets store: a file
// path, a backup directory, the password/salt it was opened with, a
// concurrent record map, and the bookkeeping Close needs to decide whether
// a write is necessary at all.
type DB struct {
	mu sync.Mutex // guards the lifecycle fields below, not the record map

	path      string
	backupDir string
	password  secret.Bytes
	salt      secret.Bytes
	effective secret.Bytes // password bytes actually used for crypto (== password unless Strengthen)
	backend   storebackend.Manager
	sessionID string

	records       *recordmap.Map[v09.EncryptedRecord]
	lastCRC       uint32
	schemaVersion string
	enabled       bool
}

// Open creates parent directories,
// initializes empty on a missing file, otherwise reads-decrypts-deserializes,
// falling back to the legacy non-envelope interpretation, then decode and
// migrate the record map forward to the current schema.
func Open(path, backupDir, password, salt string, opts Options) (*DB, error) {
	metrics.Opens.Inc()

	backend := opts.Backend
	if backend == nil {
		backend = storebackend.FileSystemBackend{}
	}

	pwdSecret := secret.NewString(password)
	saltSecret := secret.NewString(salt)
	effective := pwdSecret
	if opts.Strengthen {
		kdfSalt := append([]byte("vaultdb-kdf:"), saltSecret.Expose()...)
		effective = secret.New(vcrypto.DeriveArgon2id(pwdSecret.Expose(), kdfSalt))
	}

	sessionID := uuid.NewString()

	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return nil, fmt.Errorf("core: mkdir %s: %w", filepath.Dir(path), err)
	}

	db := &DB{
		path:      path,
		backupDir: backupDir,
		password:  pwdSecret,
		salt:      saltSecret,
		effective: effective,
		backend:   backend,
		sessionID: sessionID,
		records:   recordmap.New[v09.EncryptedRecord](),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debug().Str("session", sessionID).Str("path", path).Msg("core: opening empty database")
		db.schemaVersion = CurrentSchemaVersion
		db.lastCRC = 0
		db.enabled = true
		return db, nil
	}

	enc, err := backend.Read(path, effective, saltSecret)
	if err != nil {
		if errors.Is(err, vcrypto.ErrAuthFailed) {
			metrics.DecryptFailures.Inc()
			log.Error().Str("session", sessionID).Err(err).Msg("core: open: decrypt failed")
			return nil, fmt.Errorf("core: open %s: %w", path, ErrDecryptFail)
		}
		return nil, fmt.Errorf("core: open %s: %w", path, err)
	}

	ve, err := envelope.Deserialise(enc.Plaintext())
	if err != nil {
		// Legacy fallback: the entire plaintext is the record payload
		// under the current schema.
		log.Debug().Str("session", sessionID).Msg("core: open: legacy non-envelope payload")
		ve = envelope.FromBytes(enc.Plaintext(), CurrentSchemaVersion)
	}

	db.lastCRC = ve.Hash()
	db.schemaVersion = ve.Version

	hm, err := v09.DecodeHashMap(ve.Bytes, ve.Version, effective.Expose(), saltSecret.Expose())
	if err != nil {
		return nil, fmt.Errorf("core: open %s: decode records: %w", path, err)
	}
	for k, rec := range hm {
		db.records.Insert(k, rec)
	}

	db.enabled = true
	log.Info().Str("session", sessionID).Str("path", path).Int("records", db.records.Len()).
		Str("schema", db.schemaVersion).Msg("core: database opened")
	return db, nil
}

// Close backs up the existing file
// (if any) unconditionally, then snapshots the map sorted by key, serializes
// it, and skips the write entirely when the resulting CRC matches what was
// last persisted. A no-op close still backs up; only the write is CRC-gated.
// Close does not tear the handle down: it is re-callable, and a second call
// with no intervening mutation observes an equal CRC and issues no write.
// Callers done with the handle should follow up with Shutdown to zero the
// key material it holds.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return ErrNotOpen
	}

	metrics.Closes.Inc()

	if _, err := os.Stat(d.path); err == nil {
		if _, err := d.backend.Backup(d.path, d.backupDir, d.schemaVersion); err != nil {
			return fmt.Errorf("core: close: backup: %w", err)
		}
		metrics.BackupsCreated.Inc()
	}

	entries := d.records.Snapshot()
	recs := make([]v09.EncryptedRecord, len(entries))
	for i, e := range entries {
		recs[i] = e.Value
	}
	payload := v09.EncodeEntries(recs)

	ve := envelope.FromBytes(payload, CurrentSchemaVersion)
	newCRC := ve.Hash()

	if newCRC == d.lastCRC && d.schemaVersion == CurrentSchemaVersion {
		metrics.ClosesSkipped.Inc()
		log.Debug().Str("session", d.sessionID).Msg("core: close: CRC unchanged, skipping write")
		return nil
	}

	plaintext := ve.Serialise()
	enc := storebackend.FromDecrypted(plaintext, d.path, d.effective, d.salt)
	if err := enc.Write(); err != nil {
		return fmt.Errorf("core: close: write: %w", err)
	}

	d.lastCRC = newCRC
	d.schemaVersion = CurrentSchemaVersion
	log.Info().Str("session", d.sessionID).Str("path", d.path).Msg("core: database closed, file written")
	return nil
}

// Shutdown persists via Close, then zeroes the password, salt, and derived
// key bytes held on d and disables the handle. After Shutdown, every
// error-returning operation (Close, Insert, Get, Update, SoftDelete,
// CollectDecrypted) returns ErrNotOpen; GetMetadata, UpdateMetadata and
// Delete report absent/false, Iter visits nothing, and Len returns 0.
// Anything reached later would otherwise silently operate on zeroed key
// material.
func (d *DB) Shutdown() error {
	err := d.Close()
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return err
	}
	d.password.Zero()
	d.salt.Zero()
	d.effective.Zero()
	d.enabled = false
	return err
}

// Insert stores rec under its own computed key if absent. If the key
// already exists, Insert leaves the stored record untouched and returns
// it (encrypted form) alongside ErrDuplicate; callers wanting replacement
// must use Update.
func (d *DB) Insert(rec DecryptedRecord) (*EncryptedRecord, error) {
	if !d.enabled {
		return nil, ErrNotOpen
	}
	key := RecordKey(rec.Metadata)
	if existing, ok := d.records.Get(key); ok {
		metrics.Inserts.WithLabelValues("duplicate").Inc()
		return &existing, ErrDuplicate
	}

	enc := rec.Encrypt(key, d.effective.Expose(), d.salt.Expose())
	d.records.Insert(key, enc)
	metrics.Inserts.WithLabelValues("ok").Inc()
	return nil, nil
}

// Get decrypts and returns the record stored under key.
func (d *DB) Get(key string) (*DecryptedRecord, error) {
	if !d.enabled {
		return nil, ErrNotOpen
	}
	enc, ok := d.records.Get(key)
	if !ok {
		metrics.Gets.WithLabelValues("miss").Inc()
		return nil, ErrNotFound
	}
	dec, err := enc.Decrypt(d.effective.Expose(), d.salt.Expose())
	if err != nil {
		metrics.Gets.WithLabelValues("miss").Inc()
		metrics.DecryptFailures.Inc()
		return nil, fmt.Errorf("core: get %q: %w", key, ErrDecryptFail)
	}
	metrics.Gets.WithLabelValues("hit").Inc()
	return &dec, nil
}

// GetMetadata reads only the plaintext Metadata without decrypting Secrets
// or History.
func (d *DB) GetMetadata(key string) (*Metadata, bool) {
	if !d.enabled {
		return nil, false
	}
	enc, ok := d.records.Get(key)
	if !ok {
		return nil, false
	}
	m := enc.Metadata
	return &m, true
}

// Update replaces the record stored under key with newRecord (delete then
// insert). A missing key is a logged no-op, not an error.
func (d *DB) Update(key string, newRecord DecryptedRecord) error {
	if !d.enabled {
		return ErrNotOpen
	}
	if _, ok := d.records.Get(key); !ok {
		log.Info().Str("key", key).Msg("core: update: key not found, no-op")
		return nil
	}
	d.records.Remove(key)
	newKey := RecordKey(newRecord.Metadata)
	enc := newRecord.Encrypt(newKey, d.effective.Expose(), d.salt.Expose())
	d.records.Insert(newKey, enc)
	return nil
}

// UpdateMetadata applies fn to the plaintext Metadata stored under key in
// place, holding only that key's shard lock. It panics with ErrLockFailed
// if the shard lock cannot be acquired immediately.
func (d *DB) UpdateMetadata(key string, fn func(*Metadata)) bool {
	if !d.enabled {
		return false
	}
	return d.records.TryModify(key, func(rec *v09.EncryptedRecord) {
		fn(&rec.Metadata)
	})
}

// Delete removes key from the map outright. This is the hard-remove
// primitive; the user-facing "delete" surfaced by higher layers is by
// default a soft delete via SoftDelete (Update with status Deleted); only
// the CLI's `delete --hard` calls this.
func (d *DB) Delete(key string) bool {
	if !d.enabled {
		return false
	}
	_, had := d.records.Remove(key)
	if had {
		metrics.Deletes.WithLabelValues("hit").Inc()
	} else {
		metrics.Deletes.WithLabelValues("miss").Inc()
	}
	return had
}

// SoftDelete marks the record under key Deleted via Update, rather than
// removing it from the map.
func (d *DB) SoftDelete(key string) error {
	dec, err := d.Get(key)
	if err != nil {
		return err
	}
	dec.SetStatus(StatusDeleted)
	return d.Update(key, *dec)
}

// CollectDecrypted decrypts and returns every stored record. Any single
// decryption failure aborts the whole collection and surfaces the error.
func (d *DB) CollectDecrypted() ([]DecryptedRecord, error) {
	if !d.enabled {
		return nil, ErrNotOpen
	}
	var out []DecryptedRecord
	var firstErr error
	d.records.Range(func(key string, enc v09.EncryptedRecord) bool {
		dec, err := enc.Decrypt(d.effective.Expose(), d.salt.Expose())
		if err != nil {
			metrics.DecryptFailures.Inc()
			firstErr = fmt.Errorf("core: collect: %q: %w", key, ErrDecryptFail)
			return false
		}
		out = append(out, dec)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Iter calls fn for every (key, encrypted record) pair in the map. It does
// not decrypt; callers wanting plaintext should use CollectDecrypted or
// Get. Iteration never holds a whole-map lock (recordmap.Map.Range only
// locks one shard at a time and releases it before invoking fn).
func (d *DB) Iter(fn func(key string, rec EncryptedRecord) bool) {
	if !d.enabled {
		return
	}
	d.records.Range(fn)
}

// Len returns the number of records currently held, including soft-deleted
// ones. It returns 0 once the DB has been shut down.
func (d *DB) Len() int {
	if !d.enabled {
		return 0
	}
	return d.records.Len()
}

// RestoreLatest overwrites the store file at Path with the most recent
// backup in BackupDir.
func (d *DB) RestoreLatest() error {
	entry, err := backup.Latest(d.backupDir)
	if err != nil {
		return fmt.Errorf("core: restore latest: %w", err)
	}
	return backup.Restore(d.backupDir, entry.Name, d.path)
}

// RestoreNamed overwrites the store file at Path with a specific backup
// by file name.
func (d *DB) RestoreNamed(name string) error {
	return backup.Restore(d.backupDir, name, d.path)
}

// Path returns the file path this DB was opened against.
func (d *DB) Path() string { return d.path }

// BackupDir returns the backup directory this DB was opened against.
func (d *DB) BackupDir() string { return d.backupDir }

// SchemaVersion returns the schema version the store is currently tagged
// with (the version it will be written back as on the next successful
// Close).
func (d *DB) SchemaVersion() string { return d.schemaVersion }
