// Package envelope implements the VersionedDB container: a two-field
// (payload bytes, schema-version string) wrapper
// with a deterministic little-endian, fixed-width-length-prefixed wire
// format, decoupled from record-schema decoding so a reader can pick the
// right record decoder before attempting to decode the payload itself.
package envelope

import (
	"errors"
	"hash/crc32"

	"github.com/busyrockin/vaultdb/internal/records/codec"
)

// ErrInvalidEnvelope is returned by Deserialise when input isn't a valid
// VersionedDB encoding, used by the DB facade to detect pre-envelope
// (legacy) file contents during open.
var ErrInvalidEnvelope = errors.New("envelope: not a valid VersionedDB encoding")

// VersionedDB is the transient envelope wrapping an encoded record payload
// and the schema version it was written under.
type VersionedDB struct {
	Bytes   []byte
	Version string
}

// FromBytes tags payload with version, the schema version current at
// write time.
func FromBytes(payload []byte, version string) VersionedDB {
	return VersionedDB{Bytes: payload, Version: version}
}

// Serialise encodes v as: u64 length of Bytes + Bytes, then u64 length of
// Version + Version's UTF-8 bytes. Little-endian, no padding, no framing
// beyond these two length-prefixed fields.
func (v VersionedDB) Serialise() []byte {
	w := codec.NewWriter()
	w.LenBytes(v.Bytes)
	w.LenString(v.Version)
	return w.Bytes()
}

// Deserialise reverses Serialise. It fails with ErrInvalidEnvelope when
// input is too short or its length prefixes don't account for the whole
// input, the signal the DB facade uses to fall back to the legacy
// "plaintext is the raw payload" interpretation during open.
func Deserialise(input []byte) (VersionedDB, error) {
	r := codec.NewReader(input)
	payload := r.LenBytes()
	version := r.LenString()
	if r.Err() != nil {
		return VersionedDB{}, ErrInvalidEnvelope
	}
	if len(r.Remaining()) != 0 {
		return VersionedDB{}, ErrInvalidEnvelope
	}
	return VersionedDB{Bytes: payload, Version: version}, nil
}

// Hash returns the CRC32 (IEEE polynomial) of Bytes only; the version
// string is never hashed. This is the value the DB facade compares against
// last-persisted-CRC to decide whether close() needs to write at all.
func (v VersionedDB) Hash() uint32 {
	return crc32.ChecksumIEEE(v.Bytes)
}
