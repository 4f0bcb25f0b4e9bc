package core

import (
	"errors"

	"github.com/busyrockin/vaultdb/internal/recordmap"
)

// Sentinel errors: a flat set of errors surfaced at the facade boundary,
// wrapped with fmt.Errorf at each layer below rather than introducing a
// third-party error-chain library.
var (
	// ErrNotFound is returned by Get (and SoftDelete, through Get) for an
	// absent key. GetMetadata reports an absent key with false, Delete with
	// false, and Update treats it as a no-op.
	ErrNotFound = errors.New("core: record not found")

	// ErrDuplicate marks Insert on a key that already exists. Insert returns
	// it together with the existing (encrypted) record, which it leaves
	// untouched; higher layers (the CLI) surface it as "already exists".
	ErrDuplicate = errors.New("core: record already exists")

	// ErrDecryptFail wraps any authenticated-decryption failure: wrong
	// password, wrong salt, or a corrupted/truncated ciphertext blob.
	ErrDecryptFail = errors.New("core: decryption failed")

	// ErrNotOpen is returned by any error-returning DB operation attempted
	// after Shutdown has run. Shutdown zeroes the password/salt/effective-key secrets the
	// handle holds and flips enabled to false, so anything reached after
	// that point would otherwise silently read zeroed key material. Close
	// alone does not disable the handle; it is re-callable.
	ErrNotOpen = errors.New("core: database not open")

	// ErrLockFailed is the same sentinel recordmap.Map.TryModify panics
	// with when update_metadata's single-key lock can't be acquired
	// immediately: this is deliberately fatal, since it reflects a
	// reentrant lock on the same key, a programming error, not a runtime
	// condition. Aliased here so callers can errors.Is against it without
	// importing internal/recordmap directly.
	ErrLockFailed = recordmap.ErrLockFailed
)
