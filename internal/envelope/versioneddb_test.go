package envelope

import (
	"bytes"
	"testing"
)

// TestSerialiseLiteral pins the exact byte sequence and
// CRC32 value.
func TestSerialiseLiteral(t *testing.T) {
	v := VersionedDB{Bytes: []byte{2, 4, 16}, Version: "1.2.3"}

	if got := v.Hash(); got != 2233391132 {
		t.Fatalf("Hash() = %d, want 2233391132", got)
	}

	want := []byte{3, 0, 0, 0, 0, 0, 0, 0, 2, 4, 16, 5, 0, 0, 0, 0, 0, 0, 0, 49, 46, 50, 46, 51}
	got := v.Serialise()
	if !bytes.Equal(got, want) {
		t.Fatalf("Serialise() = %v, want %v", got, want)
	}
}

func TestDeserialiseRoundTrip(t *testing.T) {
	v := VersionedDB{Bytes: []byte("a record payload"), Version: "0.9.0"}
	back, err := Deserialise(v.Serialise())
	if err != nil {
		t.Fatalf("Deserialise: %v", err)
	}
	if !bytes.Equal(back.Bytes, v.Bytes) || back.Version != v.Version {
		t.Fatalf("got %+v, want %+v", back, v)
	}
}

func TestDeserialiseRejectsGarbage(t *testing.T) {
	_, err := Deserialise([]byte{1, 2, 3})
	if err != ErrInvalidEnvelope {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestDeserialiseRejectsTrailingGarbage(t *testing.T) {
	v := VersionedDB{Bytes: []byte{1}, Version: "0.9.0"}
	encoded := append(v.Serialise(), 0xFF)
	_, err := Deserialise(encoded)
	if err != ErrInvalidEnvelope {
		t.Fatalf("expected ErrInvalidEnvelope for trailing bytes, got %v", err)
	}
}

func TestHashIgnoresVersion(t *testing.T) {
	a := VersionedDB{Bytes: []byte{1, 2, 3}, Version: "0.2.0"}
	b := VersionedDB{Bytes: []byte{1, 2, 3}, Version: "0.9.0"}
	if a.Hash() != b.Hash() {
		t.Fatal("Hash must depend only on Bytes, not Version")
	}
}

func TestSerialiseDeterministic(t *testing.T) {
	v := FromBytes([]byte("payload"), "0.9.0")
	if !bytes.Equal(v.Serialise(), v.Serialise()) {
		t.Fatal("Serialise must be deterministic across successive calls")
	}
}
