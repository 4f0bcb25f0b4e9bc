// Package v07 is a near-total rewrite of the schema: categories, a richer
// Kind enum, record status, tags, and a multi-field Secrets payload replace
// v0.6's single username/password Creds.
package v07

import (
	"fmt"
	"sort"
	"strings"

	"github.com/busyrockin/vaultdb/internal/records/codec"
	"github.com/busyrockin/vaultdb/internal/records/v02"
	"github.com/busyrockin/vaultdb/internal/records/v03"
	"github.com/busyrockin/vaultdb/internal/records/v04"
	"github.com/busyrockin/vaultdb/internal/records/v05"
	"github.com/busyrockin/vaultdb/internal/records/v06"
	"github.com/busyrockin/vaultdb/internal/timeutil"
	"github.com/busyrockin/vaultdb/internal/vcrypto"
)

const Version = "0.7.0"

// DefaultCategory is the category new records get when none is specified.
const DefaultCategory = "default"

// Kind is the v0.7 secret-type enum, rewritten from scratch around what a
// record's Secrets payload actually holds rather than Creds alone.
type Kind int

const (
	KindPassword Kind = iota
	KindAccount
	KindAny
	KindAsymmetricCrypto
	KindCertificates
	KindServiceCredentials
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "Password"
	case KindAccount:
		return "Account"
	case KindAny:
		return "Any"
	case KindAsymmetricCrypto:
		return "AsymmetricCrypto"
	case KindCertificates:
		return "Certificates"
	case KindServiceCredentials:
		return "ServiceCredentials"
	default:
		return "Password"
	}
}

// Status is the record lifecycle state.
type Status int

const (
	StatusActive Status = iota
	StatusAny
	StatusInactive
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusAny:
		return "Any"
	case StatusInactive:
		return "Inactive"
	case StatusDeleted:
		return "Deleted"
	default:
		return "Active"
	}
}

// AsStr is the lowercase form used for CLI display/filtering.
func (s Status) AsStr() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusAny:
		return "any"
	case StatusInactive:
		return "inactive"
	case StatusDeleted:
		return "deleted"
	default:
		return "active"
	}
}

// Tag is a user-assigned label on a record.
type Tag struct {
	Display string
	Value   string
	Created string
	Updated string
	State   Status
}

func (t Tag) encode(w *codec.Writer) {
	w.LenString(t.Display)
	w.LenString(t.Value)
	w.LenString(t.Created)
	w.LenString(t.Updated)
	w.U64(uint64(t.State))
}

func decodeTag(r *codec.Reader) Tag {
	return Tag{
		Display: r.LenString(),
		Value:   r.LenString(),
		Created: r.LenString(),
		Updated: r.LenString(),
		State:   Status(r.U64()),
	}
}

// NewTag builds a freshly created tag: Created is stamped now, Updated
// takes the epoch-zero sentinel until the tag is first modified.
func NewTag(value string) Tag {
	return Tag{
		Value:   value,
		Created: timeutil.Now(),
		Updated: timeutil.EpochZero(),
		State:   StatusActive,
	}
}

// NewTags builds one NewTag per value.
func NewTags(values []string) []Tag {
	out := make([]Tag, len(values))
	for i, v := range values {
		out[i] = NewTag(v)
	}
	return out
}

// DisplayOrValue is the sort key for tags: the display label when one is
// set, the raw value otherwise.
func (t Tag) DisplayOrValue() string {
	if t.Display != "" {
		return t.Display
	}
	return t.Value
}

// Metadata carries the non-secret fields stored alongside a record.
type Metadata struct {
	Kind            Kind
	Category        string
	Name            string
	URL             string
	Created         string
	Imported        string
	Updated         string
	PasswordChanged string
	LastUsed        string
	Synced          string
	AccessCount     uint64
	State           Status
	Tags            []Tag
}

func (m Metadata) encode(w *codec.Writer) {
	w.U64(uint64(m.Kind))
	w.LenString(m.Category)
	w.LenString(m.Name)
	w.LenString(m.URL)
	w.LenString(m.Created)
	w.LenString(m.Imported)
	w.LenString(m.Updated)
	w.LenString(m.PasswordChanged)
	w.LenString(m.LastUsed)
	w.LenString(m.Synced)
	w.U64(m.AccessCount)
	w.U64(uint64(m.State))
	w.U64(uint64(len(m.Tags)))
	for _, t := range m.Tags {
		t.encode(w)
	}
}

func decodeMetadata(r *codec.Reader) Metadata {
	m := Metadata{
		Kind:            Kind(r.U64()),
		Category:        r.LenString(),
		Name:            r.LenString(),
		URL:             r.LenString(),
		Created:         r.LenString(),
		Imported:        r.LenString(),
		Updated:         r.LenString(),
		PasswordChanged: r.LenString(),
		LastUsed:        r.LenString(),
		Synced:          r.LenString(),
		AccessCount:     r.U64(),
		State:           Status(r.U64()),
	}
	n := r.U64()
	m.Tags = make([]Tag, 0, n)
	for i := uint64(0); i < n; i++ {
		m.Tags = append(m.Tags, decodeTag(r))
	}
	return m
}

// AddTag appends a new tag for value and re-sorts. Tags stay sorted by
// display-or-value ascending after each mutation.
func (m *Metadata) AddTag(value string) {
	m.Tags = append(m.Tags, NewTag(value))
	m.sortTags()
}

// AddTags appends one new tag per value and re-sorts once.
func (m *Metadata) AddTags(values []string) {
	m.Tags = append(m.Tags, NewTags(values)...)
	m.sortTags()
}

func (m *Metadata) sortTags() {
	sort.SliceStable(m.Tags, func(i, j int) bool {
		return m.Tags[i].DisplayOrValue() < m.Tags[j].DisplayOrValue()
	})
}

// TagValues returns just the raw tag values, in sorted tag order.
func (m Metadata) TagValues() []string {
	out := make([]string, len(m.Tags))
	for i, t := range m.Tags {
		out[i] = t.Value
	}
	return out
}

// DefaultMetadata is a freshly created, never-touched Metadata.
func DefaultMetadata() Metadata {
	return Metadata{
		Kind:     KindPassword,
		Category: DefaultCategory,
		Created:  timeutil.Now(),
		Imported: timeutil.EpochZero(),
		Updated:  timeutil.Now(),
		Synced:   timeutil.EpochZero(),
		State:    StatusActive,
	}
}

// Secrets is the full secret payload a v0.7 record can hold. Most fields
// are blank for any given Kind; which ones matter is Kind-dependent.
type Secrets struct {
	AccountID    string
	User         string
	Password     string
	PublicKey    string
	PrivateKey   string
	PublicCert   string
	PrivateCert  string
	RootCert     string
	Key          string
	Secret       string
}

func (s Secrets) encode(w *codec.Writer) {
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

func decodeSecrets(r *codec.Reader) Secrets {
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

// Key builds the v0.7 lookup key: "{category}:{kind}:{name}:{url}".
func Key(category string, kind Kind, name, url string) string {
	return fmt.Sprintf("%s:%s:%s:%s", category, kind, name, url)
}

// nameFromV06Key extracts the name segment from a v0.6-and-earlier key, which
// is just "{user}:{url}", the whole left side, i.e. user, stands in for
// name since v0.6 had no separate name field.
func nameFromV06Key(key string) string {
	parts := strings.SplitN(key, ":", 2)
	return parts[0]
}

type DecryptedRecord struct {
	Secrets  Secrets
	Metadata Metadata
}

type EncryptedRecord struct {
	Key      string
	Value    []byte
	Metadata Metadata
}

func (r DecryptedRecord) Encrypt(key string, storePwd, salt []byte) EncryptedRecord {
	w := codec.NewWriter()
	r.Secrets.encode(w)
	ciphertext := vcrypto.Encrypt(w.Bytes(), storePwd, salt)
	return EncryptedRecord{Key: key, Value: ciphertext, Metadata: r.Metadata}
}

func (e EncryptedRecord) Decrypt(storePwd, salt []byte) (DecryptedRecord, error) {
	plaintext, err := vcrypto.Decrypt(e.Value, storePwd, salt)
	if err != nil {
		return DecryptedRecord{}, err
	}
	r := codec.NewReader(plaintext)
	secrets := decodeSecrets(r)
	if r.Err() != nil {
		return DecryptedRecord{}, fmt.Errorf("v07: decode secrets: %w", r.Err())
	}
	return DecryptedRecord{Secrets: secrets, Metadata: e.Metadata}, nil
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

// DecodeOwn decodes a payload already at the v0.7 wire layout, with no
// migration. v0.8 reuses this directly since its binary layout is
// unchanged from v0.7; v0.9 appends a History field after Metadata, so it
// has its own decoder and reuses only DecodeMetadata.
func DecodeOwn(data []byte) (HashMap, error) {
	r := codec.NewReader(data)
	count := r.U64()
	hm := make(HashMap, count)
	for i := uint64(0); i < count; i++ {
		rec := decodeEncryptedRecord(r)
		if r.Err() != nil {
			return nil, fmt.Errorf("v07: decode record %d: %w", i, r.Err())
		}
		hm[rec.Key] = rec
	}
	return hm, nil
}

// DecodeMetadata decodes just a Metadata value, exported so v0.9 can reuse
// it when decoding records that append a History section afterward.
func DecodeMetadata(r *codec.Reader) Metadata {
	return decodeMetadata(r)
}

// EncodeMetadata encodes a Metadata value into w, exported for the same
// reason as DecodeMetadata.
func EncodeMetadata(m Metadata, w *codec.Writer) {
	m.encode(w)
}

// migrateKindFromV06 collapses both of v0.6's newer variants, Account and
// Credential, onto Password, intentional, not an oversight: v0.7's richer
// Kind enum distinguishes secret shape rather than account-vs-credential,
// and neither v0.6 variant maps cleanly onto it.
func migrateKindFromV06(k v06.Kind) Kind {
	switch k {
	case v06.KindAccount, v06.KindCredential, v06.KindPassword:
		return KindPassword
	default:
		return KindPassword
	}
}

// MigrateMetadataFromV06 builds v0.7 metadata from a v0.6 record, given the
// old key (to recover name) since v0.6 metadata carries no name field.
func MigrateMetadataFromV06(oldKey string, m v06.Metadata) Metadata {
	out := DefaultMetadata()
	out.Kind = migrateKindFromV06(m.Kind)
	out.Name = nameFromV06Key(oldKey)
	out.URL = m.URL
	out.Created = m.Created
	out.Imported = m.Imported
	out.Updated = m.Updated
	out.PasswordChanged = m.PasswordChanged
	out.LastUsed = m.LastUsed
	out.AccessCount = m.AccessCount
	return out
}

// MigrateSecretsFromV06 carries only user/password forward; v0.6's Creds
// has nothing else to offer the richer v0.7 Secrets shape.
func MigrateSecretsFromV06(c v06.Creds) Secrets {
	return Secrets{User: c.User, Password: c.Password}
}

func migrateRecordFromV06(oldKey string, old v06.EncryptedRecord, storePwd, salt []byte) (EncryptedRecord, error) {
	oldRec := v06.EncryptedRecord{Key: oldKey, Value: old.Value, Metadata: old.Metadata}
	decrypted, err := oldRec.Decrypt(storePwd, salt)
	if err != nil {
		return EncryptedRecord{}, err
	}
	newMetadata := MigrateMetadataFromV06(oldKey, old.Metadata)
	newSecrets := MigrateSecretsFromV06(decrypted.Creds)
	newKey := Key(newMetadata.Category, newMetadata.Kind, newMetadata.Name, newMetadata.URL)
	rec := DecryptedRecord{Secrets: newSecrets, Metadata: newMetadata}
	return rec.Encrypt(newKey, storePwd, salt), nil
}

// MigrateHashMapFromV06 re-encrypts every record under the v0.7 scheme.
// Unlike the v0.3->v0.6 migrations, this one must decrypt and re-encrypt:
// the key changes shape (category/kind/name/url instead of user/url) and
// the Secrets payload shape changes too, so ciphertext cannot simply be
// carried over.
func MigrateHashMapFromV06(hm v06.HashMap, storePwd, salt []byte) (HashMap, error) {
	out := make(HashMap, len(hm))
	for k, rec := range hm {
		migrated, err := migrateRecordFromV06(k, rec, storePwd, salt)
		if err != nil {
			return nil, fmt.Errorf("v07: migrate record %q: %w", k, err)
		}
		out[migrated.Key] = migrated
	}
	return out, nil
}

// DecodeHashMap decodes a payload at version, migrating forward through the
// chain (and re-encrypting, once the v0.6 boundary is crossed) as needed.
func DecodeHashMap(data []byte, version string, storePwd, salt []byte) (HashMap, error) {
	version = codec.TrimVersion(version)
	switch version {
	case v02.Version, v03.Version, v04.Version, v05.Version, v06.Version:
		old, err := v06.DecodeHashMap(data, version, storePwd, salt)
		if err != nil {
			return nil, err
		}
		return MigrateHashMapFromV06(old, storePwd, salt)
	default:
		return DecodeOwn(data)
	}
}
