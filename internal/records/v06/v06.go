// Package v06 grows the Kind enum once more with a Credential variant.
// This is the last schema before the v0.7 rewrite that introduces
// categories, tags, and status.
package v06

import (
	"fmt"

	"github.com/busyrockin/vaultdb/internal/records/codec"
	"github.com/busyrockin/vaultdb/internal/records/v02"
	"github.com/busyrockin/vaultdb/internal/records/v03"
	"github.com/busyrockin/vaultdb/internal/records/v04"
	"github.com/busyrockin/vaultdb/internal/records/v05"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

const Version = "0.6.0"

// Kind is v0.5's Kind plus Credential.
type Kind int

const (
	KindPassword Kind = iota
	KindAccount
	KindCredential
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "Password"
	case KindAccount:
		return "Account"
	case KindCredential:
		return "Credential"
	default:
		return "Password"
	}
}

type Metadata struct {
	Kind            Kind
	URL             string
	Created         string
	Imported        string
	Updated         string
	PasswordChanged string
	LastUsed        string
	AccessCount     uint64
}

func (m Metadata) encode(w *codec.Writer) {
	w.U64(uint64(m.Kind))
	w.LenString(m.URL)
	w.LenString(m.Created)
	w.LenString(m.Imported)
	w.LenString(m.Updated)
	w.LenString(m.PasswordChanged)
	w.LenString(m.LastUsed)
	w.U64(m.AccessCount)
}

func decodeMetadata(r *codec.Reader) Metadata {
	return Metadata{
		Kind:            Kind(r.U64()),
		URL:             r.LenString(),
		Created:         r.LenString(),
		Imported:        r.LenString(),
		Updated:         r.LenString(),
		PasswordChanged: r.LenString(),
		LastUsed:        r.LenString(),
		AccessCount:     r.U64(),
	}
}

type Creds = v02.Creds

func decodeCreds(r *codec.Reader) Creds {
	return Creds{User: r.LenString(), Password: r.LenString()}
}

// Key builds the v0.6 lookup key: "{user}:{url}" (unchanged).
func Key(user, url string) string {
	return fmt.Sprintf("%s:%s", user, url)
}

type DecryptedRecord struct {
	Creds    Creds
	Metadata Metadata
}

type EncryptedRecord struct {
	Key      string
	Value    []byte
	Metadata Metadata
}

func (r DecryptedRecord) Encrypt(key string, storePwd, salt []byte) EncryptedRecord {
	w := codec.NewWriter()
	r.Creds.Encode(w)
	ciphertext := vcrypto.Encrypt(w.Bytes(), storePwd, salt)
	return EncryptedRecord{Key: key, Value: ciphertext, Metadata: r.Metadata}
}

func (e EncryptedRecord) Decrypt(storePwd, salt []byte) (DecryptedRecord, error) {
	plaintext, err := vcrypto.Decrypt(e.Value, storePwd, salt)
	if err != nil {
		return DecryptedRecord{}, err
	}
	r := codec.NewReader(plaintext)
	creds := decodeCreds(r)
	if r.Err() != nil {
		return DecryptedRecord{}, fmt.Errorf("v06: decode creds: %w", r.Err())
	}
	return DecryptedRecord{Creds: creds, Metadata: e.Metadata}, nil
}

func (e EncryptedRecord) encode(w *codec.Writer) {
	w.LenString(e.Key)
	w.LenBytes(e.Value)
	e.Metadata.encode(w)
}

func decodeEncryptedRecord(r *codec.Reader) EncryptedRecord {
	key := r.LenString()
	value := r.LenBytes()
	metadata := decodeMetadata(r)
	return EncryptedRecord{Key: key, Value: value, Metadata: metadata}
}

type HashMap map[string]EncryptedRecord

func EncodeHashMap(hm HashMap) []byte {
	w := codec.NewWriter()
	w.U64(uint64(len(hm)))
	for _, rec := range hm {
		rec.encode(w)
	}
	return w.Bytes()
}

func decodeHashMapOwn(data []byte) (HashMap, error) {
	r := codec.NewReader(data)
	count := r.U64()
	hm := make(HashMap, count)
	for i := uint64(0); i < count; i++ {
		rec := decodeEncryptedRecord(r)
		if r.Err() != nil {
			return nil, fmt.Errorf("v06: decode record %d: %w", i, r.Err())
		}
		hm[rec.Key] = rec
	}
	return hm, nil
}

// MigrateMetadataFromV05 carries v0.5 metadata forward one-for-one.
func MigrateMetadataFromV05(m v05.Metadata) Metadata {
	return Metadata{
		Kind:            Kind(m.Kind),
		URL:             m.URL,
		Created:         m.Created,
		Imported:        m.Imported,
		Updated:         m.Updated,
		PasswordChanged: m.PasswordChanged,
		LastUsed:        m.LastUsed,
		AccessCount:     m.AccessCount,
	}
}

func migrateRecordFromV05(key string, old v05.EncryptedRecord) EncryptedRecord {
	return EncryptedRecord{
		Key:      key,
		Value:    old.Value,
		Metadata: MigrateMetadataFromV05(old.Metadata),
	}
}

func MigrateHashMapFromV05(hm v05.HashMap) HashMap {
	out := make(HashMap, len(hm))
	for k, rec := range hm {
		out[k] = migrateRecordFromV05(k, rec)
	}
	return out
}

func DecodeHashMap(data []byte, version string, storePwd, salt []byte) (HashMap, error) {
	version = codec.TrimVersion(version)
	switch version {
	case v02.Version, v03.Version, v04.Version, v05.Version:
		old, err := v05.DecodeHashMap(data, version, storePwd, salt)
		if err != nil {
			return nil, err
		}
		return MigrateHashMapFromV05(old), nil
	default:
		return decodeHashMapOwn(data)
	}
}
