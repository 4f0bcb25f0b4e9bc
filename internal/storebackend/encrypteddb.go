// Package storebackend holds the EncryptedDB envelope and
// the Manager capability abstraction: at least a
// filesystem implementation, with alternative backends as clearly-labeled
// stubs.
package storebackend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/busyrockin/vaultdb/internal/secret"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

// EncryptedDB holds a file's ciphertext, its plaintext once decrypted, the
// path it lives at, and the password/salt it was opened with. It moves
// through Empty -> HasCiphertext -> HasPlaintext on load, and the reverse
// on save; Go has no algebraic-state-machine sugar so this is modeled as
// one struct with nil-able byte slices standing in for "not yet in this
// state".
type EncryptedDB struct {
	Path       string
	Password   secret.Bytes
	Salt       secret.Bytes
	ciphertext []byte
	plaintext  []byte
}

// FromFile reads path and immediately attempts decryption.
func FromFile(path string, pwd, salt secret.Bytes) (*EncryptedDB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storebackend: read %s: %w", path, err)
	}
	return FromEncrypted(raw, path, pwd, salt)
}

// FromEncrypted wraps already-read ciphertext bytes and attempts decryption.
func FromEncrypted(ciphertext []byte, path string, pwd, salt secret.Bytes) (*EncryptedDB, error) {
	e := &EncryptedDB{Path: path, Password: pwd, Salt: salt, ciphertext: ciphertext}
	plain, err := vcrypto.Decrypt(ciphertext, pwd.Expose(), salt.Expose())
	if err != nil {
		log.Debug().Str("path", path).Msg("storebackend: decrypt failed on open")
		return nil, err
	}
	e.plaintext = plain
	return e, nil
}

// FromDecrypted wraps plaintext bytes not yet on disk and encrypts eagerly,
// so Write always has ciphertext ready.
func FromDecrypted(plaintext []byte, path string, pwd, salt secret.Bytes) *EncryptedDB {
	ct := vcrypto.Encrypt(plaintext, pwd.Expose(), salt.Expose())
	return &EncryptedDB{Path: path, Password: pwd, Salt: salt, plaintext: plaintext, ciphertext: ct}
}

// Plaintext returns the decrypted bytes.
func (e *EncryptedDB) Plaintext() []byte { return e.plaintext }

// Ciphertext returns the encrypted bytes.
func (e *EncryptedDB) Ciphertext() []byte { return e.ciphertext }

// Write persists the ciphertext to Path: creates parent directories as
// needed, opens with create+write (truncating any prior content), writes
// the whole payload, and syncs before closing so the bytes are durable on
// return.
func (e *EncryptedDB) Write() error {
	if err := os.MkdirAll(filepath.Dir(e.Path), 0o777); err != nil {
		return fmt.Errorf("storebackend: mkdir %s: %w", filepath.Dir(e.Path), err)
	}
	f, err := os.OpenFile(e.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("storebackend: open %s: %w", e.Path, err)
	}
	defer f.Close()
	if _, err := f.Write(e.ciphertext); err != nil {
		return fmt.Errorf("storebackend: write %s: %w", e.Path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("storebackend: sync %s: %w", e.Path, err)
	}
	log.Debug().Str("path", e.Path).Int("bytes", len(e.ciphertext)).Msg("storebackend: wrote file")
	return nil
}
