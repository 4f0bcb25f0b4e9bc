// Package core is the DB facade: open/close lifecycle, CRUD and iteration
// over a concurrent, encrypted record map, backed by the versioned
// record-schema chain, the VersionedDB/EncryptedDB envelopes, and the
// backup module.
package core

import (
	"github.com/busyrockin/vaultdb/internal/records/v09"
	"github.com/busyrockin/vaultdb/internal/timeutil"
)

// Re-exported so callers never need to import internal/records/v09
// directly; the facade is the only supported entry point.
type (
	Kind            = v09.Kind
	Status          = v09.Status
	Tag             = v09.Tag
	Metadata        = v09.Metadata
	Secrets         = v09.Secrets
	History         = v09.History
	DecryptedRecord = v09.DecryptedRecord
	EncryptedRecord = v09.EncryptedRecord
)

const (
	KindPassword           = v09.KindPassword
	KindAccount            = v09.KindAccount
	KindAny                = v09.KindAny
	KindAsymmetricCrypto   = v09.KindAsymmetricCrypto
	KindCertificates       = v09.KindCertificates
	KindServiceCredentials = v09.KindServiceCredentials

	StatusActive   = v09.StatusActive
	StatusAny      = v09.StatusAny
	StatusInactive = v09.StatusInactive
	StatusDeleted  = v09.StatusDeleted

	DefaultCategory = v09.DefaultCategory

	// CurrentSchemaVersion is the schema version new and re-persisted
	// records are tagged with.
	CurrentSchemaVersion = v09.Version
)

// DefaultMetadata returns a freshly created, never-touched Metadata.
func DefaultMetadata() Metadata {
	return v09.DefaultMetadata()
}

// Now returns the current time as an RFC3339 string, the format every
// Metadata timestamp field uses. Re-exported so callers stamping LastUsed
// or Synced through UpdateMetadata use the same clock convention as the
// engine itself.
func Now() string {
	return timeutil.Now()
}

// EpochZero returns the sentinel RFC3339 timestamp meaning "never".
func EpochZero() string {
	return timeutil.EpochZero()
}

// RecordKey computes the deterministic v0.9 map key for a record from its
// own metadata fields: "{name}:{url}:{kind}:{category}".
func RecordKey(m Metadata) string {
	return v09.Key(m.Name, m.URL, m.Kind, m.Category)
}

// HistoryNewestFirst returns r's History reversed, newest entry first.
// Storage order is always oldest-first; this is the
// convenience helper callers displaying history chronologically-descending
// are expected to use rather than reversing storage order themselves.
func HistoryNewestFirst(r DecryptedRecord) []History {
	out := make([]History, len(r.History))
	for i, h := range r.History {
		out[len(r.History)-1-i] = h
	}
	return out
}
