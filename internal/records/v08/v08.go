// Package v08 keeps v0.7's types verbatim; only the migration logic
// changes, fixing a v0.7 migration quirk by extracting the name segment
// from the *new* key format instead of the old one.
package v08

import (
	"strings"

	"github.com/busyrockin/vaultdb/internal/records/codec"
	"github.com/busyrockin/vaultdb/internal/records/v02"
	"github.com/busyrockin/vaultdb/internal/records/v03"
	"github.com/busyrockin/vaultdb/internal/records/v04"
	"github.com/busyrockin/vaultdb/internal/records/v05"
	"github.com/busyrockin/vaultdb/internal/records/v06"
	"github.com/busyrockin/vaultdb/internal/records/v07"
)

const Version = "0.8.0"

type (
	Kind            = v07.Kind
	Status          = v07.Status
	Tag             = v07.Tag
	Metadata        = v07.Metadata
	Secrets         = v07.Secrets
	DecryptedRecord = v07.DecryptedRecord
	EncryptedRecord = v07.EncryptedRecord
	HashMap         = v07.HashMap
)

const (
	KindPassword           = v07.KindPassword
	KindAccount            = v07.KindAccount
	KindAny                = v07.KindAny
	KindAsymmetricCrypto   = v07.KindAsymmetricCrypto
	KindCertificates       = v07.KindCertificates
	KindServiceCredentials = v07.KindServiceCredentials

	StatusActive   = v07.StatusActive
	StatusAny      = v07.StatusAny
	StatusInactive = v07.StatusInactive
	StatusDeleted  = v07.StatusDeleted

	DefaultCategory = v07.DefaultCategory
)

// Key builds the v0.8 lookup key: "{category}:{kind}:{name}:{url}"
// (unchanged from v0.7).
func Key(category string, kind Kind, name, url string) string {
	return v07.Key(category, kind, name, url)
}

// NameFromKey extracts the name segment from a v0.7/v0.8 key, laid out as
// "{category}:{kind}:{name}:{url}", name is the third colon-separated
// field. v0.7's own migration reused the pre-migration key's first segment
// (the v0.6 user), which only worked because v0.6 keys had no name concept
// at all; v0.8 fixes that by reading the actual v0.7 key.
func NameFromKey(key string) string {
	return nameFromKey(key)
}

func nameFromKey(key string) string {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) < 3 {
		return key
	}
	return parts[2]
}

func EncodeHashMap(hm HashMap) []byte {
	return v07.EncodeHashMap(hm)
}

// MigrateMetadataFromV07 carries v0.7 metadata forward, correcting Name via
// the fixed nameFromKey.
func MigrateMetadataFromV07(oldKey string, m v07.Metadata) Metadata {
	out := m
	out.Name = nameFromKey(oldKey)
	return out
}

func migrateRecordFromV07(oldKey string, old v07.EncryptedRecord) EncryptedRecord {
	newMetadata := MigrateMetadataFromV07(oldKey, old.Metadata)
	newKey := Key(newMetadata.Category, newMetadata.Kind, newMetadata.Name, newMetadata.URL)
	return EncryptedRecord{Key: newKey, Value: old.Value, Metadata: newMetadata}
}

// MigrateHashMapFromV07 re-keys every record with the corrected name
// extraction. Ciphertext (the Secrets payload) is unaffected by the fix
// and carries over unchanged.
func MigrateHashMapFromV07(hm v07.HashMap) HashMap {
	out := make(HashMap, len(hm))
	for k, rec := range hm {
		migrated := migrateRecordFromV07(k, rec)
		out[migrated.Key] = migrated
	}
	return out
}

func DecodeHashMap(data []byte, version string, storePwd, salt []byte) (HashMap, error) {
	version = codec.TrimVersion(version)
	switch version {
	case v02.Version, v03.Version, v04.Version, v05.Version, v06.Version:
		old, err := v07.DecodeHashMap(data, version, storePwd, salt)
		if err != nil {
			return nil, err
		}
		return MigrateHashMapFromV07(old), nil
	case v07.Version:
		old, err := v07.DecodeOwn(data)
		if err != nil {
			return nil, err
		}
		return MigrateHashMapFromV07(old), nil
	default:
		return v07.DecodeOwn(data)
	}
}
