// Package codec implements the on-disk binary layout the record format
// requires: little-endian, fixed-width u64 length prefixes, no padding,
// no framing beyond the fields each type documents. The layout is pinned
// down to literal byte sequences by tests, so no general-purpose
// serialization library can stand in for it.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// TrimVersion drops a semver string's pre-release and build-metadata
// suffixes ("-rc1", "+build") before schema-version comparison, so
// "0.9.0-rc1" and "0.7.0+build" still match their plain "0.9.0"/"0.7.0"
// counterparts instead of falling through to the current-schema decoder.
func TrimVersion(version string) string {
	if i := strings.IndexByte(version, '+'); i >= 0 {
		version = version[:i]
	}
	if i := strings.IndexByte(version, '-'); i >= 0 {
		version = version[:i]
	}
	return version
}

// Writer accumulates a length-prefixed binary encoding.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// U64 writes v as a little-endian 8-byte unsigned integer.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// Bool writes a single-byte tag: 1 for true, 0 for false.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// Raw writes data without any length prefix.
func (w *Writer) Raw(data []byte) {
	w.buf.Write(data)
}

// LenBytes writes len(data) as a u64 prefix followed by data.
func (w *Writer) LenBytes(data []byte) {
	w.U64(uint64(len(data)))
	w.buf.Write(data)
}

// LenString writes s as a u64 length prefix followed by its UTF-8 bytes.
func (w *Writer) LenString(s string) {
	w.LenBytes([]byte(s))
}

// Sub appends an already-encoded sub-message verbatim (used to embed one
// Writer's Bytes() inside another, e.g. Metadata inside EncryptedRecord).
func (w *Writer) Sub(b []byte) {
	w.buf.Write(b)
}

// Reader consumes a length-prefixed binary encoding produced by Writer.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Err returns the first error encountered during decoding, if any.
func (r *Reader) Err() error { return r.err }

// U64 reads a little-endian 8-byte unsigned integer.
func (r *Reader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		r.err = fmt.Errorf("codec: read u64: %w", err)
		return 0
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Bool reads a single-byte tag written by Writer.Bool.
func (r *Reader) Bool() bool {
	if r.err != nil {
		return false
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.err = fmt.Errorf("codec: read bool: %w", err)
		return false
	}
	return b != 0
}

// Raw reads exactly n bytes without interpreting a length prefix.
func (r *Reader) Raw(n int) []byte {
	if r.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = fmt.Errorf("codec: read raw: %w", err)
		return nil
	}
	return b
}

// LenBytes reads a u64-length-prefixed byte slice.
func (r *Reader) LenBytes() []byte {
	n := r.U64()
	if r.err != nil {
		return nil
	}
	if n > uint64(r.r.Len()) {
		r.err = fmt.Errorf("codec: length prefix %d exceeds %d remaining bytes", n, r.r.Len())
		return nil
	}
	return r.Raw(int(n))
}

// LenString reads a u64-length-prefixed UTF-8 string.
func (r *Reader) LenString() string {
	return string(r.LenBytes())
}

// Remaining returns the bytes not yet consumed.
func (r *Reader) Remaining() []byte {
	rest := make([]byte, r.r.Len())
	_, _ = r.r.Read(rest)
	return rest
}
