package vcrypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	pt := []byte("4 s3kr1t")
	pwd := []byte("abc123")
	salt := []byte("2024-01-01T00:00:00Z")

	ct := Encrypt(pt, pwd, salt)
	if len(ct) != len(pt)+tagSize {
		t.Fatalf("ciphertext length = %d, want %d", len(ct), len(pt)+tagSize)
	}

	got, err := Decrypt(ct, pwd, salt)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("got %q, want %q", got, pt)
	}
}

func TestEncryptDeterministic(t *testing.T) {
	pt := []byte("same plaintext")
	pwd := []byte("password")
	salt := []byte("salt-value")

	a := Encrypt(pt, pwd, salt)
	b := Encrypt(pt, pwd, salt)
	if !bytes.Equal(a, b) {
		t.Fatal("Encrypt must be deterministic for the same (plaintext, pwd, salt), required for CRC-gated no-op persistence")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	ct := Encrypt([]byte("secret"), []byte("right-password"), []byte("salt"))
	_, err := Decrypt(ct, []byte("wrong-password"), []byte("salt"))
	if err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptWrongSalt(t *testing.T) {
	ct := Encrypt([]byte("secret"), []byte("pwd"), []byte("salt-a"))
	_, err := Decrypt(ct, []byte("pwd"), []byte("salt-b"))
	if err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptTruncated(t *testing.T) {
	_, err := Decrypt([]byte("short"), []byte("pwd"), []byte("salt"))
	if err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed for truncated ciphertext, got %v", err)
	}
}

func TestSizedToTruncatesAndPads(t *testing.T) {
	long := sizedTo([]byte("this-is-way-more-than-32-bytes-long-indeed"), keySize)
	if len(long) != keySize {
		t.Fatalf("len = %d, want %d", len(long), keySize)
	}

	short := sizedTo([]byte("ab"), keySize)
	if len(short) != keySize {
		t.Fatalf("len = %d, want %d", len(short), keySize)
	}
	for _, b := range short[2:] {
		if b != 0 {
			t.Fatal("padding bytes must be 0x00")
		}
	}
}

func TestDeriveArgon2idDifferentFromPlain(t *testing.T) {
	pwd := []byte("abc123")
	kdfSalt := []byte("separate-kdf-salt")
	derived := DeriveArgon2id(pwd, kdfSalt)
	if len(derived) != keySize {
		t.Fatalf("len = %d, want %d", len(derived), keySize)
	}
	if bytes.Equal(derived, sizedKey(pwd)) {
		t.Fatal("Argon2id-derived key must differ from the plain truncate-or-pad key")
	}
}
