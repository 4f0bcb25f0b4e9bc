// Package v02 is the oldest record schema this module still knows how to
// read: the original on-disk layout, before categories, tags, status, or
// history existed. It is the base case of the migration chain, there is
// no older version to migrate from, so DecodeHashMap here never recurses.
package v02

import (
	"fmt"

	"github.com/busyrockin/vaultdb/internal/records/codec"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

// Version is this schema's semver tag.
const Version = "0.2.0"

// Kind is the record's secret type. v0.2 only ever stores passwords.
type Kind int

const (
	KindPassword Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "Password"
	default:
		return "Password"
	}
}

// Metadata carries the non-secret fields stored alongside a record.
type Metadata struct {
	Kind            Kind
	URL             string
	Created         string
	Updated         string
	PasswordChanged string
}

func (m Metadata) encode(w *codec.Writer) {
	w.U64(uint64(m.Kind))
	w.LenString(m.URL)
	w.LenString(m.Created)
	w.LenString(m.Updated)
	w.LenString(m.PasswordChanged)
}

func decodeMetadata(r *codec.Reader) Metadata {
	return Metadata{
		Kind:            Kind(r.U64()),
		URL:             r.LenString(),
		Created:         r.LenString(),
		Updated:         r.LenString(),
		PasswordChanged: r.LenString(),
	}
}

// Creds is the secret half of a v0.2 record: a single username/password pair.
type Creds struct {
	User     string
	Password string
}

func (c Creds) Encode(w *codec.Writer) {
	w.LenString(c.User)
	w.LenString(c.Password)
}

func decodeCreds(r *codec.Reader) Creds {
	return Creds{User: r.LenString(), Password: r.LenString()}
}

// Key builds the v0.2 lookup key: "{user}:{url}".
func Key(user, url string) string {
	return fmt.Sprintf("%s:%s", user, url)
}

// DecryptedRecord is a record with its secrets in the open.
type DecryptedRecord struct {
	Creds    Creds
	Metadata Metadata
}

// EncryptedRecord is what actually lives in the on-disk hashmap: the
// encrypted Creds blob plus metadata in the clear.
type EncryptedRecord struct {
	Key      string
	Value    []byte
	Metadata Metadata
}

// Encrypt seals r's creds using storePwd as the key and the record's own
// Metadata.Updated timestamp as the nonce salt, v0.2 predates a dedicated
// store-wide salt, so it derives one from metadata instead.
func (r DecryptedRecord) Encrypt(key string, storePwd []byte) EncryptedRecord {
	w := codec.NewWriter()
	r.Creds.Encode(w)
	ciphertext := vcrypto.Encrypt(w.Bytes(), storePwd, []byte(r.Metadata.Updated))
	return EncryptedRecord{Key: key, Value: ciphertext, Metadata: r.Metadata}
}

// Decrypt reverses Encrypt.
func (e EncryptedRecord) Decrypt(storePwd []byte) (DecryptedRecord, error) {
	plaintext, err := vcrypto.Decrypt(e.Value, storePwd, []byte(e.Metadata.Updated))
	if err != nil {
		return DecryptedRecord{}, err
	}
	r := codec.NewReader(plaintext)
	creds := decodeCreds(r)
	if r.Err() != nil {
		return DecryptedRecord{}, fmt.Errorf("v02: decode creds: %w", r.Err())
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

// HashMap is the decoded, in-memory form of a v0.2 store payload.
type HashMap map[string]EncryptedRecord

// EncodeHashMap serializes hm as a count-prefixed vector of records. Nothing
// in this module writes v0.2 back out (every write path re-encodes at the
// current schema); the encoder exists symmetrically with the decoder.
func EncodeHashMap(hm HashMap) []byte {
	w := codec.NewWriter()
	w.U64(uint64(len(hm)))
	for _, rec := range hm {
		rec.encode(w)
	}
	return w.Bytes()
}

// DecodeHashMap decodes a v0.2 payload. This is the chain's base case: v0.2
// is the oldest schema this module understands, so there is nothing older
// to fall back to.
func DecodeHashMap(data []byte) (HashMap, error) {
	r := codec.NewReader(data)
	count := r.U64()
	hm := make(HashMap, count)
	for i := uint64(0); i < count; i++ {
		rec := decodeEncryptedRecord(r)
		if r.Err() != nil {
			return nil, fmt.Errorf("v02: decode record %d: %w", i, r.Err())
		}
		hm[rec.Key] = rec
	}
	return hm, nil
}
