package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/busyrockin/vaultdb/internal/envelope"
	"github.com/busyrockin/vaultdb/internal/records/v07"
	"github.com/busyrockin/vaultdb/internal/records/v09"
	"github.com/busyrockin/vaultdb/internal/secret"
	"github.com/busyrockin/vaultdb/internal/storebackend"
)

func tempDB(t *testing.T) (*DB, string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	backupDir := filepath.Join(dir, "backups")
	db, err := Open(path, backupDir, "abc123", time.Now().Format(time.RFC3339), Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return db, path, backupDir
}

func newRecord(name, url, password string) DecryptedRecord {
	meta := DefaultMetadata()
	meta.Name = name
	meta.URL = url
	return DecryptedRecord{
		Secrets:  Secrets{User: "alice@site.com", Password: password},
		Metadata: meta,
	}
}

// TestInsertGetRoundTripAndReopen checks a stored secret survives a
// close-and-reopen cycle byte for byte.
func TestInsertGetRoundTripAndReopen(t *testing.T) {
	db, path, backupDir := tempDB(t)

	rec := newRecord("alice", "https://site.com/", "4 s3kr1t")
	key := RecordKey(rec.Metadata)

	if existing, err := db.Insert(rec); existing != nil || err != nil {
		t.Fatalf("Insert: existing=%v err=%v", existing, err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Secrets.Password != "4 s3kr1t" {
		t.Fatalf("Password = %q, want %q", got.Secrets.Password, "4 s3kr1t")
	}
	if len(got.History) != 0 {
		t.Fatalf("History len = %d, want 0", len(got.History))
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, backupDir, "abc123", time.Now().Format(time.RFC3339), Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got2, err := reopened.Get(key)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got2.Secrets.Password != "4 s3kr1t" {
		t.Fatalf("after reopen: Password = %q, want %q", got2.Secrets.Password, "4 s3kr1t")
	}
	if len(got2.History) != 0 {
		t.Fatalf("after reopen: History len = %d, want 0", len(got2.History))
	}
}

// TestSetPasswordTwiceThenReopen checks two password changes persist the
// full history, oldest first, across a close-and-reopen cycle.
func TestSetPasswordTwiceThenReopen(t *testing.T) {
	db, path, backupDir := tempDB(t)

	rec := newRecord("alice", "https://site.com/", "4 s3kr1t")
	key := RecordKey(rec.Metadata)
	if _, err := db.Insert(rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.SetPassword("5 s3kr1t")
	got.SetPassword("6 s3kr1t")
	if err := db.Update(key, *got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, backupDir, "abc123", time.Now().Format(time.RFC3339), Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	final, err := reopened.Get(key)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if final.Secrets.Password != "6 s3kr1t" {
		t.Fatalf("Password = %q, want %q", final.Secrets.Password, "6 s3kr1t")
	}
	if len(final.History) != 2 {
		t.Fatalf("History len = %d, want 2", len(final.History))
	}
	if final.History[0].Secrets.Password != "4 s3kr1t" {
		t.Fatalf("History[0].Secrets.Password = %q, want %q", final.History[0].Secrets.Password, "4 s3kr1t")
	}
	if final.History[1].Secrets.Password != "5 s3kr1t" {
		t.Fatalf("History[1].Secrets.Password = %q, want %q", final.History[1].Secrets.Password, "5 s3kr1t")
	}
}

func TestInsertDuplicateIsNoOp(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	rec := newRecord("bob", "https://example.com/", "pw1")
	if _, err := db.Insert(rec); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	dup := newRecord("bob", "https://example.com/", "pw2-should-not-be-stored")
	existing, err := db.Insert(dup)
	if err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if existing == nil {
		t.Fatal("expected existing encrypted record on duplicate insert")
	}

	key := RecordKey(rec.Metadata)
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Secrets.Password != "pw1" {
		t.Fatalf("Password = %q, want unchanged %q", got.Secrets.Password, "pw1")
	}
}

func TestGetNotFound(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	if _, err := db.Get("nope:nope:Password:default"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMissingKeyIsNoOp(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	rec := newRecord("ghost", "https://nowhere.example/", "pw")
	if err := db.Update("missing-key", rec); err != nil {
		t.Fatalf("Update on missing key should be a no-op, got error: %v", err)
	}
}

func TestSoftDeleteMarksStatus(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	rec := newRecord("carol", "https://example.org/", "pw")
	key := RecordKey(rec.Metadata)
	if _, err := db.Insert(rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := db.SoftDelete(key); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get after SoftDelete: %v", err)
	}
	if got.Metadata.State != StatusDeleted {
		t.Fatalf("State = %v, want %v", got.Metadata.State, StatusDeleted)
	}
	if db.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (soft delete must not evict)", db.Len())
	}
}

func TestHardDeleteEvicts(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	rec := newRecord("dave", "https://example.net/", "pw")
	key := RecordKey(rec.Metadata)
	db.Insert(rec)

	if !db.Delete(key) {
		t.Fatal("expected Delete to report the key was present")
	}
	if db.Delete(key) {
		t.Fatal("expected second Delete to report absent")
	}
}

// TestCloseIsIdempotentAtFileLevel checks a second
// Close with no intervening mutation must not rewrite the file.
func TestCloseIsIdempotentAtFileLevel(t *testing.T) {
	db, path, _ := tempDB(t)

	db.Insert(newRecord("alpha", "https://a.example/", "pw-a"))
	db.Insert(newRecord("beta", "https://b.example/", "pw-b"))

	if err := db.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}

	info1, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat after first close: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	info2, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat after second close: %v", err)
	}

	if info1.Size() != info2.Size() || !info1.ModTime().Equal(info2.ModTime()) {
		t.Fatalf("file changed on a no-op close: before=%v/%d after=%v/%d",
			info1.ModTime(), info1.Size(), info2.ModTime(), info2.Size())
	}
}

// TestShutdownDisablesHandle checks the teardown split: Close leaves the
// handle usable, Shutdown zeroes its key material and every later
// operation fails with ErrNotOpen.
func TestShutdownDisablesHandle(t *testing.T) {
	db, _, _ := tempDB(t)

	rec := newRecord("frank", "https://frank.example/", "pw")
	key := RecordKey(rec.Metadata)
	db.Insert(rec)

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := db.Get(key); err != nil {
		t.Fatalf("Get after Close must still work: %v", err)
	}

	if err := db.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := db.Get(key); err != ErrNotOpen {
		t.Fatalf("Get after Shutdown = %v, want ErrNotOpen", err)
	}
	if err := db.Close(); err != ErrNotOpen {
		t.Fatalf("Close after Shutdown = %v, want ErrNotOpen", err)
	}
	if db.Len() != 0 {
		t.Fatalf("Len after Shutdown = %d, want 0", db.Len())
	}
}

func TestWrongPasswordOnOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	backupDir := filepath.Join(dir, "backups")

	db, err := Open(path, backupDir, "correct-password", "fixed-salt", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.Insert(newRecord("x", "https://x.example/", "pw"))
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(path, backupDir, "wrong-password", "fixed-salt", Options{}); err == nil {
		t.Fatal("expected error opening with the wrong password")
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.db")
	backupDir := filepath.Join(dir, "backups")

	db, err := Open(path, backupDir, "pw", "salt", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Len() != 0 {
		t.Fatalf("Len = %d, want 0", db.Len())
	}
	if db.SchemaVersion() != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion = %q, want %q", db.SchemaVersion(), CurrentSchemaVersion)
	}
}

// TestBackupDirCreatedOnFirstBackup checks the backup
// directory does not exist until the first backup is made, and no backup
// is made for a brand-new vault file that didn't exist before Close (there
// is nothing yet to back up).
func TestBackupDirCreatedOnFirstBackup(t *testing.T) {
	db, path, backupDir := tempDB(t)
	db.Insert(newRecord("x", "https://x.example/", "pw"))
	if err := db.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if _, err := os.Stat(backupDir); err == nil {
		t.Fatal("expected no backup dir yet: the vault file didn't exist before this close")
	}

	reopened, err := Open(path, backupDir, "abc123", time.Now().Format(time.RFC3339), Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Insert(newRecord("y", "https://y.example/", "pw2"))
	if err := reopened.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := os.Stat(backupDir); err != nil {
		t.Fatalf("expected backup dir to exist after a close that found an existing file: %v", err)
	}
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 backup file, got %d", len(entries))
	}
}

func TestCollectDecrypted(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	db.Insert(newRecord("alpha", "https://a.example/", "pw-a"))
	db.Insert(newRecord("beta", "https://b.example/", "pw-b"))

	recs, err := db.CollectDecrypted()
	if err != nil {
		t.Fatalf("CollectDecrypted: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
}

// TestRestoreLatest exercises the restore path built on top of the backup
// module's primitives: the backup taken on the second close captures the
// vault as it stood after the first close (just "alpha"), so restoring it
// after that second close (which wrote "beta") rolls back to 1 record.
func TestRestoreLatest(t *testing.T) {
	db, path, backupDir := tempDB(t)

	db.Insert(newRecord("alpha", "https://a.example/", "pw-a"))
	if err := db.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}

	reopened, err := Open(path, backupDir, "abc123", time.Now().Format(time.RFC3339), Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Insert(newRecord("beta", "https://b.example/", "pw-b"))
	if err := reopened.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	firstBackup, err := os.ReadDir(backupDir)
	if err != nil || len(firstBackup) != 1 {
		t.Fatalf("expected 1 backup after second close, got %d (err=%v)", len(firstBackup), err)
	}

	if err := reopened.RestoreLatest(); err != nil {
		t.Fatalf("RestoreLatest: %v", err)
	}

	restored, err := Open(path, backupDir, "abc123", time.Now().Format(time.RFC3339), Options{})
	if err != nil {
		t.Fatalf("open restored file: %v", err)
	}
	defer restored.Close()
	if restored.Len() != 1 {
		t.Fatalf("Len = %d, want 1 record after restoring the backup taken before 'beta' was added", restored.Len())
	}
}

func TestUpdateMetadataSingleEntryLock(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	rec := newRecord("erin", "https://erin.example/", "pw")
	key := RecordKey(rec.Metadata)
	db.Insert(rec)

	ok := db.UpdateMetadata(key, func(m *Metadata) { m.AccessCount++ })
	if !ok {
		t.Fatal("expected UpdateMetadata to succeed")
	}

	meta, found := db.GetMetadata(key)
	if !found {
		t.Fatal("expected GetMetadata to find the record")
	}
	if meta.AccessCount != 1 {
		t.Fatalf("AccessCount = %d, want 1", meta.AccessCount)
	}
}

func TestUpdateMetadataMissingKey(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	if db.UpdateMetadata("missing", func(m *Metadata) {}) {
		t.Fatal("expected UpdateMetadata on a missing key to return false")
	}
}

// TestOpenMigratesV07File writes a file in the v0.7 on-disk format end to
// end, then opens it: the record must surface under the reordered v0.9
// key, and a close must re-tag the file with the current schema version.
func TestOpenMigratesV07File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	backupDir := filepath.Join(dir, "backups")
	pwd, salt := "abc123", "fixed-salt"

	oldMeta := v07.DefaultMetadata()
	oldMeta.Category = "category"
	oldMeta.Name = "alice"
	oldMeta.URL = "https://site.com/"
	oldKey := v07.Key(oldMeta.Category, oldMeta.Kind, oldMeta.Name, oldMeta.URL)
	oldRec := v07.DecryptedRecord{
		Secrets:  v07.Secrets{User: "alice@site.com", Password: "4 s3kr1t"},
		Metadata: oldMeta,
	}
	payload := v07.EncodeHashMap(v07.HashMap{oldKey: oldRec.Encrypt(oldKey, []byte(pwd), []byte(salt))})

	ve := envelope.FromBytes(payload, v07.Version)
	enc := storebackend.FromDecrypted(ve.Serialise(), path, secret.NewString(pwd), secret.NewString(salt))
	if err := enc.Write(); err != nil {
		t.Fatalf("write v0.7 file: %v", err)
	}

	db, err := Open(path, backupDir, pwd, salt, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if db.SchemaVersion() != v07.Version {
		t.Fatalf("SchemaVersion = %q, want %q until the next close", db.SchemaVersion(), v07.Version)
	}

	const newKey = "alice:https://site.com/:Password:category"
	rec, err := db.Get(newKey)
	if err != nil {
		t.Fatalf("Get under migrated key: %v", err)
	}
	if rec.Secrets.Password != "4 s3kr1t" {
		t.Fatalf("Password = %q, want %q", rec.Secrets.Password, "4 s3kr1t")
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, backupDir, pwd, salt, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.SchemaVersion() != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion after rewrite = %q, want %q", reopened.SchemaVersion(), CurrentSchemaVersion)
	}
	if _, err := reopened.Get(newKey); err != nil {
		t.Fatalf("Get after rewrite: %v", err)
	}
}

// TestOpenLegacyNonEnvelopeFile covers the fallback for files written
// before the envelope existed: the decrypted plaintext is the raw record
// payload, interpreted under the current schema.
func TestOpenLegacyNonEnvelopeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	backupDir := filepath.Join(dir, "backups")
	pwd, salt := "abc123", "fixed-salt"

	meta := v09.DefaultMetadata()
	meta.Name = "legacy"
	meta.URL = "https://legacy.example/"
	key := v09.Key(meta.Name, meta.URL, meta.Kind, meta.Category)
	rec := v09.DecryptedRecord{Secrets: v09.Secrets{Password: "pw"}, Metadata: meta}
	payload := v09.EncodeHashMap(v09.HashMap{key: rec.Encrypt(key, []byte(pwd), []byte(salt))})

	// No envelope: the payload itself is encrypted and written directly.
	enc := storebackend.FromDecrypted(payload, path, secret.NewString(pwd), secret.NewString(salt))
	if err := enc.Write(); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	db, err := Open(path, backupDir, pwd, salt, Options{})
	if err != nil {
		t.Fatalf("Open legacy file: %v", err)
	}
	defer db.Close()

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Secrets.Password != "pw" {
		t.Fatalf("Password = %q, want %q", got.Secrets.Password, "pw")
	}
}

func TestIterVisitsEveryRecord(t *testing.T) {
	db, _, _ := tempDB(t)
	defer db.Close()

	db.Insert(newRecord("alpha", "https://a.example/", "pw-a"))
	db.Insert(newRecord("beta", "https://b.example/", "pw-b"))

	seen := map[string]bool{}
	db.Iter(func(key string, rec EncryptedRecord) bool {
		seen[key] = true
		return true
	})
	if len(seen) != 2 {
		t.Fatalf("len(seen) = %d, want 2", len(seen))
	}
}
