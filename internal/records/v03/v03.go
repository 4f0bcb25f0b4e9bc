// Package v03 adds an Imported timestamp to Metadata and moves encryption
// onto an explicit (password, salt) pair instead of v0.2's trick of reusing
// Metadata.Updated as the nonce salt.
package v03

import (
	"fmt"

	"github.com/busyrockin/vaultdb/internal/records/codec"
	"github.com/busyrockin/vaultdb/internal/records/v02"
	"github.com/busyrockin/vaultdb/internal/timeutil"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

// Version is this schema's semver tag.
const Version = "0.3.0"

type Kind = v02.Kind

const KindPassword = v02.KindPassword

// Metadata is v0.2's Metadata plus Imported.
type Metadata struct {
	Kind            Kind
	URL             string
	Created         string
	Imported        string
	Updated         string
	PasswordChanged string
}

func (m Metadata) encode(w *codec.Writer) {
	w.U64(uint64(m.Kind))
	w.LenString(m.URL)
	w.LenString(m.Created)
	w.LenString(m.Imported)
	w.LenString(m.Updated)
	w.LenString(m.PasswordChanged)
}

func decodeMetadata(r *codec.Reader) Metadata {
	return Metadata{
		Kind:            Kind(r.U64()),
		URL:             r.LenString(),
		Created:         r.LenString(),
		Imported:        r.LenString(),
		Updated:         r.LenString(),
		PasswordChanged: r.LenString(),
	}
}

type Creds = v02.Creds

func decodeCreds(r *codec.Reader) Creds {
	return Creds{User: r.LenString(), Password: r.LenString()}
}

// Key builds the v0.3 lookup key: "{user}:{url}" (unchanged from v0.2).
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
		return DecryptedRecord{}, fmt.Errorf("v03: decode creds: %w", r.Err())
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

// HashMap is the decoded, in-memory form of a v0.3 store payload.
type HashMap map[string]EncryptedRecord

func EncodeHashMap(hm HashMap) []byte {
	w := codec.NewWriter()
	w.U64(uint64(len(hm)))
	for _, rec := range hm {
		rec.encode(w)
	}
	return w.Bytes()
}

// decodeHashMapOwn decodes a payload already known to be at v0.3.
func decodeHashMapOwn(data []byte) (HashMap, error) {
	r := codec.NewReader(data)
	count := r.U64()
	hm := make(HashMap, count)
	for i := uint64(0); i < count; i++ {
		rec := decodeEncryptedRecord(r)
		if r.Err() != nil {
			return nil, fmt.Errorf("v03: decode record %d: %w", i, r.Err())
		}
		hm[rec.Key] = rec
	}
	return hm, nil
}

// MigrateMetadataFromV02 carries v0.2 metadata forward. Imported has no v0.2
// equivalent, so it takes the epoch-zero sentinel, same as a freshly created
// v0.3 record that has never been re-imported.
func MigrateMetadataFromV02(m v02.Metadata) Metadata {
	return Metadata{
		Kind:            m.Kind,
		URL:             m.URL,
		Created:         m.Created,
		Imported:        timeutil.EpochZero(),
		Updated:         m.Updated,
		PasswordChanged: m.PasswordChanged,
	}
}

// migrateRecordFromV02 re-encrypts a v0.2 record under v0.3's scheme. This
// has to decrypt and re-seal rather than carry ciphertext forward: v0.2
// derives its nonce from Metadata.Updated, while v0.3 onward takes an
// explicit store-wide salt, so the two ciphertext forms are not
// interchangeable.
func migrateRecordFromV02(key string, old v02.EncryptedRecord, storePwd, salt []byte) (EncryptedRecord, error) {
	decrypted, err := old.Decrypt(storePwd)
	if err != nil {
		return EncryptedRecord{}, err
	}
	newMetadata := MigrateMetadataFromV02(old.Metadata)
	rec := DecryptedRecord{Creds: decrypted.Creds, Metadata: newMetadata}
	return rec.Encrypt(key, storePwd, salt), nil
}

// MigrateHashMapFromV02 migrates every record in hm to v0.3.
func MigrateHashMapFromV02(hm v02.HashMap, storePwd, salt []byte) (HashMap, error) {
	out := make(HashMap, len(hm))
	for k, rec := range hm {
		migrated, err := migrateRecordFromV02(k, rec, storePwd, salt)
		if err != nil {
			return nil, fmt.Errorf("v03: migrate record %q: %w", k, err)
		}
		out[k] = migrated
	}
	return out, nil
}

// DecodeHashMap decodes a payload at version, migrating forward from v0.2
// if necessary.
func DecodeHashMap(data []byte, version string, storePwd, salt []byte) (HashMap, error) {
	version = codec.TrimVersion(version)
	if version == v02.Version {
		old, err := v02.DecodeHashMap(data)
		if err != nil {
			return nil, err
		}
		return MigrateHashMapFromV02(old, storePwd, salt)
	}
	return decodeHashMapOwn(data)
}
