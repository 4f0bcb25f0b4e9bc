// Package v09 is the current, default record schema: v0.8's Secrets and
// Metadata plus an append-only History log of prior Secrets/Metadata
// snapshots, a reordered key, and a set of mutator methods. Only
// SetPassword grows History; the other mutators stamp Updated and leave
// it alone.
package v09

import (
	"fmt"

	"github.com/busyrockin/vaultdb/internal/records/codec"
	"github.com/busyrockin/vaultdb/internal/records/v02"
	"github.com/busyrockin/vaultdb/internal/records/v03"
	"github.com/busyrockin/vaultdb/internal/records/v04"
	"github.com/busyrockin/vaultdb/internal/records/v05"
	"github.com/busyrockin/vaultdb/internal/records/v06"
	"github.com/busyrockin/vaultdb/internal/records/v07"
	"github.com/busyrockin/vaultdb/internal/records/v08"
	"github.com/busyrockin/vaultdb/internal/timeutil"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

const Version = "0.9.0"

type (
	Kind     = v07.Kind
	Status   = v07.Status
	Tag      = v07.Tag
	Metadata = v07.Metadata
	Secrets  = v07.Secrets
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

// History is one prior (Secrets, Metadata) snapshot, pushed by
// SetPassword before it applies a change.
type History struct {
	Secrets  Secrets
	Metadata Metadata
}

// Key builds the v0.9 lookup key: "{name}:{url}:{kind}:{category}", the
// fields are the same four as v0.7/v0.8 but reordered so records sort by
// name first.
func Key(name, url string, kind Kind, category string) string {
	return fmt.Sprintf("%s:%s:%s:%s", name, url, kind, category)
}

// DefaultMetadata is a freshly created, never-touched Metadata.
func DefaultMetadata() Metadata {
	return v07.DefaultMetadata()
}

// DecryptedRecord is a record with Secrets in the open, plus its History.
type DecryptedRecord struct {
	Secrets  Secrets
	Metadata Metadata
	History  []History
}

// EncryptedRecord is what lives in the on-disk hashmap: separately
// encrypted Secrets and History blobs plus metadata in the clear.
type EncryptedRecord struct {
	Key      string
	Value    []byte // encrypted Secrets
	Metadata Metadata
	History  []byte // encrypted []History
}

func encodeHistory(h []History, w *codec.Writer) {
	w.U64(uint64(len(h)))
	for _, entry := range h {
		encodeSecrets(entry.Secrets, w)
		v07.EncodeMetadata(entry.Metadata, w)
	}
}

func decodeHistory(r *codec.Reader) []History {
	n := r.U64()
	out := make([]History, 0, n)
	for i := uint64(0); i < n; i++ {
		s := decodeSecretsFrom(r)
		m := v07.DecodeMetadata(r)
		out = append(out, History{Secrets: s, Metadata: m})
	}
	return out
}

// encodeSecrets/decodeSecretsFrom re-derive Secrets' wire layout here since
// v0.7's codec helpers are unexported; the shape is identical to
// v0.7/v0.8's Secrets.
func encodeSecrets(s Secrets, w *codec.Writer) {
	w.LenString(s.AccountID)
	w.LenString(s.User)
	w.LenString(s.Password)
	w.LenString(s.PublicKey)
	w.LenString(s.PrivateKey)
	w.LenString(s.PublicCert)
	w.LenString(s.PrivateCert)
	w.LenString(s.RootCert)
	w.LenString(s.Key)
	w.LenString(s.Secret)
}

func decodeSecretsFrom(r *codec.Reader) Secrets {
	return Secrets{
		AccountID:   r.LenString(),
		User:        r.LenString(),
		Password:    r.LenString(),
		PublicKey:   r.LenString(),
		PrivateKey:  r.LenString(),
		PublicCert:  r.LenString(),
		PrivateCert: r.LenString(),
		RootCert:    r.LenString(),
		Key:         r.LenString(),
		Secret:      r.LenString(),
	}
}

// Encrypt seals r's Secrets and History as two independently encrypted
// blobs under the same (storePwd, salt) pair.
func (r DecryptedRecord) Encrypt(key string, storePwd, salt []byte) EncryptedRecord {
	sw := codec.NewWriter()
	encodeSecrets(r.Secrets, sw)
	secretsCt := vcrypto.Encrypt(sw.Bytes(), storePwd, salt)

	hw := codec.NewWriter()
	encodeHistory(r.History, hw)
	historyCt := vcrypto.Encrypt(hw.Bytes(), storePwd, salt)

	return EncryptedRecord{Key: key, Value: secretsCt, History: historyCt, Metadata: r.Metadata}
}

// Decrypt reverses Encrypt.
func (e EncryptedRecord) Decrypt(storePwd, salt []byte) (DecryptedRecord, error) {
	secretsPt, err := vcrypto.Decrypt(e.Value, storePwd, salt)
	if err != nil {
		return DecryptedRecord{}, err
	}
	sr := codec.NewReader(secretsPt)
	secrets := decodeSecretsFrom(sr)
	if sr.Err() != nil {
		return DecryptedRecord{}, fmt.Errorf("v09: decode secrets: %w", sr.Err())
	}

	var history []History
	if len(e.History) > 0 {
		historyPt, err := vcrypto.Decrypt(e.History, storePwd, salt)
		if err != nil {
			return DecryptedRecord{}, err
		}
		hr := codec.NewReader(historyPt)
		history = decodeHistory(hr)
		if hr.Err() != nil {
			return DecryptedRecord{}, fmt.Errorf("v09: decode history: %w", hr.Err())
		}
	}

	return DecryptedRecord{Secrets: secrets, Metadata: e.Metadata, History: history}, nil
}

// AddTag tags the record, keeping Metadata.Tags sorted by
// display-or-value.
func (r *DecryptedRecord) AddTag(value string) {
	r.Metadata.AddTag(value)
}

// AddTags adds one tag per value, re-sorting once.
func (r *DecryptedRecord) AddTags(values []string) {
	r.Metadata.AddTags(values)
}

// SetPassword pushes the current (Secrets, Metadata) onto History, then
// replaces the password and stamps PasswordChanged/Updated. History is
// strictly append-only and only password changes grow it; the other Set*
// mutators below never touch it.
func (r *DecryptedRecord) SetPassword(password string) {
	r.History = append(r.History, History{Secrets: r.Secrets, Metadata: r.Metadata})
	r.Secrets.Password = password
	r.Metadata.PasswordChanged = timeutil.Now()
	r.Metadata.Updated = timeutil.Now()
}

// SetUser replaces the secret username and mirrors it into Metadata.Name.
// Name is part of the v0.9 key, so callers must re-key the record in the
// containing map themselves.
func (r *DecryptedRecord) SetUser(user string) {
	r.Metadata.Updated = timeutil.Now()
	r.Secrets.User = user
	r.Metadata.Name = user
}

// SetURL replaces the record's URL. Like SetName, this changes the key.
func (r *DecryptedRecord) SetURL(url string) {
	r.Metadata.URL = url
	r.Metadata.Updated = timeutil.Now()
}

// SetKind replaces the record's Kind.
func (r *DecryptedRecord) SetKind(kind Kind) {
	r.Metadata.Kind = kind
	r.Metadata.Updated = timeutil.Now()
}

// SetStatus replaces the record's Status.
func (r *DecryptedRecord) SetStatus(status Status) {
	r.Metadata.State = status
	r.Metadata.Updated = timeutil.Now()
}

// SetName replaces the record's Name. Callers must re-key the record in
// the containing map themselves: Name is part of the v0.9 key, so renaming
// changes which key this record lives under.
func (r *DecryptedRecord) SetName(name string) {
	r.Metadata.Name = name
	r.Metadata.Updated = timeutil.Now()
}

func (e EncryptedRecord) encode(w *codec.Writer) {
	w.LenString(e.Key)
	w.LenBytes(e.Value)
	v07.EncodeMetadata(e.Metadata, w)
	w.LenBytes(e.History)
}

func decodeEncryptedRecord(r *codec.Reader) EncryptedRecord {
	key := r.LenString()
	value := r.LenBytes()
	metadata := v07.DecodeMetadata(r)
	history := r.LenBytes()
	return EncryptedRecord{Key: key, Value: value, Metadata: metadata, History: history}
}

// HashMap is the decoded, in-memory form of the current store payload.
type HashMap map[string]EncryptedRecord

func EncodeHashMap(hm HashMap) []byte {
	w := codec.NewWriter()
	w.U64(uint64(len(hm)))
	for _, rec := range hm {
		rec.encode(w)
	}
	return w.Bytes()
}

// EncodeEntries encodes entries in the caller's order rather than ranging
// a map. The DB facade uses this to serialize a lexicographically
// key-sorted snapshot so that the resulting payload bytes,
// and therefore their CRC32, are deterministic regardless of Go's
// randomized map iteration order.
func EncodeEntries(entries []EncryptedRecord) []byte {
	w := codec.NewWriter()
	w.U64(uint64(len(entries)))
	for _, rec := range entries {
		rec.encode(w)
	}
	return w.Bytes()
}

// DecodeOwn decodes a payload already at the v0.9 wire layout.
func DecodeOwn(data []byte) (HashMap, error) {
	r := codec.NewReader(data)
	count := r.U64()
	hm := make(HashMap, count)
	for i := uint64(0); i < count; i++ {
		rec := decodeEncryptedRecord(r)
		if r.Err() != nil {
			return nil, fmt.Errorf("v09: decode record %d: %w", i, r.Err())
		}
		hm[rec.Key] = rec
	}
	return hm, nil
}

// MigrateMetadataFromV08 carries v0.8 metadata forward one-for-one; the
// type is identical, only the key's field order changes.
func MigrateMetadataFromV08(m v08.Metadata) Metadata {
	return m
}

func migrateRecordFromV08(oldKey string, old v08.EncryptedRecord) EncryptedRecord {
	newMetadata := MigrateMetadataFromV08(old.Metadata)
	newKey := Key(newMetadata.Name, newMetadata.URL, newMetadata.Kind, newMetadata.Category)
	return EncryptedRecord{Key: newKey, Value: old.Value, History: nil, Metadata: newMetadata}
}

// MigrateHashMapFromV08 re-keys every record under the v0.9 key order.
// Secrets ciphertext carries over unchanged (the Secrets shape and its
// encryption parameters haven't changed); History starts empty, since
// v0.8 has no history concept at all.
func MigrateHashMapFromV08(hm v08.HashMap) HashMap {
	out := make(HashMap, len(hm))
	for k, rec := range hm {
		migrated := migrateRecordFromV08(k, rec)
		out[migrated.Key] = migrated
	}
	return out
}

// DecodeHashMap decodes a payload at version, migrating forward through
// the entire chain as needed.
func DecodeHashMap(data []byte, version string, storePwd, salt []byte) (HashMap, error) {
	version = codec.TrimVersion(version)
	switch version {
	case v02.Version, v03.Version, v04.Version, v05.Version, v06.Version, v07.Version, v08.Version:
		old, err := v08.DecodeHashMap(data, version, storePwd, salt)
		if err != nil {
			return nil, err
		}
		return MigrateHashMapFromV08(old), nil
	default:
		return DecodeOwn(data)
	}
}
