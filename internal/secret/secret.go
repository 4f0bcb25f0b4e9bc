// Package secret wraps password, salt, and decrypted-plaintext byte slices
// so they zero their backing memory once released and never print their
// value through String/GoString. Go has no destructors, so "once released"
// means "when the holder calls Zero"; owners are expected to defer it.
package secret

import "fmt"

// Bytes is a redactable byte-string: a password, a salt, or a decrypted
// plaintext blob.
type Bytes struct {
	v []byte
}

// New wraps a copy of v. The caller's slice is not retained.
func New(v []byte) Bytes {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Bytes{v: cp}
}

// NewString wraps a copy of s's bytes.
func NewString(s string) Bytes {
	return New([]byte(s))
}

// Expose returns the underlying bytes. Callers must not retain the result
// past the wrapper's lifetime.
func (b Bytes) Expose() []byte {
	return b.v
}

// ExposeString returns the underlying bytes as a string.
func (b Bytes) ExposeString() string {
	return string(b.v)
}

// Zero overwrites the backing array with zeroes. Safe to call multiple
// times and on a zero-value Bytes.
func (b *Bytes) Zero() {
	for i := range b.v {
		b.v[i] = 0
	}
}

// String never reveals the wrapped value.
func (b Bytes) String() string {
	return "secret.Bytes{REDACTED}"
}

// GoString never reveals the wrapped value (used by %#v).
func (b Bytes) GoString() string {
	return b.String()
}

var _ fmt.Stringer = Bytes{}
