// Package vcrypto is the authenticated-encryption primitive everything else
// in this module is built on: a pure, stateless encrypt/decrypt pair that
// keeps every higher layer ignorant of key and nonce handling.
package vcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
)

const (
	keySize   = 32 // AES-256
	nonceSize = 12 // GCM standard nonce
	tagSize   = 16 // GCM authentication tag

	// Argon2id parameters for the opt-in KDF path (core.Options.Strengthen).
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ErrAuthFailed is returned when decryption fails: wrong password, wrong
// salt, a corrupted or truncated ciphertext, or a tag mismatch. Callers
// must never treat the returned bytes as plaintext when this is non-nil.
var ErrAuthFailed = errors.New("vcrypto: authentication failed")

// Encrypt seals plaintext under a key derived from pwd and a nonce derived
// from salt. The construction is AES-256-GCM: len(ciphertext) ==
// len(plaintext) + 16.
//
// Key and nonce derivation are deterministic (see sizedKey/sizedNonce):
// encrypting the same plaintext twice with the same (pwd, salt) yields
// byte-identical ciphertext. This is required upstream for CRC-gated
// no-op persistence to work, and is a known confidentiality trade-off,
// not a bug.
func Encrypt(plaintext, pwd, salt []byte) []byte {
	gcm := newGCM(sizedKey(pwd))
	nonce := sizedNonce(salt)
	log.Trace().Int("plaintext_len", len(plaintext)).Msg("vcrypto: sealing")
	return gcm.Seal(nil, nonce, plaintext, nil)
}

// Decrypt reverses Encrypt. Any failure, truncation, wrong key, wrong
// nonce, tag mismatch, is reported as ErrAuthFailed; the corrupted output
// is never returned.
func Decrypt(ciphertext, pwd, salt []byte) ([]byte, error) {
	if len(ciphertext) < tagSize {
		log.Debug().Int("len", len(ciphertext)).Msg("vcrypto: ciphertext too short")
		return nil, ErrAuthFailed
	}
	gcm := newGCM(sizedKey(pwd))
	nonce := sizedNonce(salt)
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		log.Debug().Err(err).Msg("vcrypto: open failed")
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) cipher.AEAD {
	block, err := aes.NewCipher(key)
	if err != nil {
		// key is always exactly 32 bytes by construction; this can't fail.
		panic(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	return gcm
}

// sizedKey truncates or right-pads source with 0x00 to exactly 32 bytes.
// No KDF stretching is applied by default, see DeriveArgon2id for the
// opt-in alternative.
func sizedKey(source []byte) []byte {
	return sizedTo(source, keySize)
}

// sizedNonce truncates or right-pads source with 0x00 to exactly 12 bytes.
func sizedNonce(source []byte) []byte {
	return sizedTo(source, nonceSize)
}

func sizedTo(source []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, source)
	return out
}

// DeriveArgon2id stretches pwd into a 32-byte key using Argon2id with kdfSalt
// as the KDF salt (independent of the AEAD nonce salt). This is the opt-in
// strengthened path: the default encrypt/decrypt path
// above never calls this, since CRC-gated persistence needs the
// deterministic truncate-or-pad key derivation to behave
// predictably. Callers that opt in via core.Options.Strengthen get a real
// KDF; everyone else keeps the documented, weaker default.
func DeriveArgon2id(pwd, kdfSalt []byte) []byte {
	return argon2.IDKey(pwd, kdfSalt, argonTime, argonMemory, argonThreads, keySize)
}
