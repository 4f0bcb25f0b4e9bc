package storebackend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/busyrockin/vaultdb/internal/secret"
)

func TestFromDecryptedThenFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	pwd := secret.NewString("abc123")
	salt := secret.NewString("saltsalt")

	e := FromDecrypted([]byte("hello vault"), path, pwd, salt)
	if err := e.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	back, err := FromFile(path, pwd, salt)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if string(back.Plaintext()) != "hello vault" {
		t.Fatalf("Plaintext() = %q, want %q", back.Plaintext(), "hello vault")
	}
}

func TestFromFileWrongPasswordFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	salt := secret.NewString("saltsalt")

	e := FromDecrypted([]byte("hello vault"), path, secret.NewString("right"), salt)
	if err := e.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := FromFile(path, secret.NewString("wrong"), salt); err == nil {
		t.Fatal("expected decrypt failure with wrong password")
	}
}

func TestWriteCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "vault.db")
	e := FromDecrypted([]byte("x"), path, secret.NewString("pw"), secret.NewString("salt"))
	if err := e.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestFileSystemBackendReadDelegatesToFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	pwd := secret.NewString("abc123")
	salt := secret.NewString("saltsalt")

	e := FromDecrypted([]byte("payload"), path, pwd, salt)
	if err := e.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var backend Manager = FileSystemBackend{}
	back, err := backend.Read(path, pwd, salt)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(back.Plaintext()) != "payload" {
		t.Fatalf("Plaintext() = %q, want %q", back.Plaintext(), "payload")
	}
}

func TestBoltBackendReadFailsOnNonBoltFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	if err := os.WriteFile(path, []byte("not a bolt file"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var backend Manager = BoltBackend{}
	if _, err := backend.Read(path, secret.NewString("pw"), secret.NewString("salt")); err == nil {
		t.Fatal("expected an error opening a non-bolt file")
	}
}
