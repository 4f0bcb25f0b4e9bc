package v07

import (
	"testing"

	"github.com/busyrockin/vaultdb/internal/records/codec"
)

func TestAddTagKeepsSorted(t *testing.T) {
	m := DefaultMetadata()
	m.AddTag("zeta")
	m.AddTag("alpha")
	m.AddTag("mu")

	got := m.TagValues()
	want := []string{"alpha", "mu", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TagValues() = %v, want %v", got, want)
		}
	}
}

func TestAddTagsSortsByDisplayOverValue(t *testing.T) {
	m := DefaultMetadata()
	m.AddTags([]string{"bravo", "delta"})

	// A display label takes precedence over the raw value when sorting.
	m.Tags = append(m.Tags, Tag{Display: "aaa", Value: "zzz"})
	m.sortTags()

	if m.Tags[0].Value != "zzz" {
		t.Fatalf("expected display-labeled tag first, got %+v", m.Tags[0])
	}
}

func TestNewTagTimestamps(t *testing.T) {
	tag := NewTag("work")
	if tag.Created == "" {
		t.Fatal("Created must be stamped")
	}
	if tag.Updated != "1970-01-01T00:00:00Z" {
		t.Fatalf("Updated = %q, want epoch-zero sentinel", tag.Updated)
	}
	if tag.State != StatusActive {
		t.Fatalf("State = %v, want StatusActive", tag.State)
	}
}

func TestMetadataEncodeDecodeWithTags(t *testing.T) {
	m := DefaultMetadata()
	m.Name = "alice"
	m.URL = "https://site.com/"
	m.AddTags([]string{"personal", "banking"})

	w := codec.NewWriter()
	m.encode(w)
	back := DecodeMetadata(codec.NewReader(w.Bytes()))

	if len(back.Tags) != 2 {
		t.Fatalf("len(Tags) = %d, want 2", len(back.Tags))
	}
	if back.Tags[0].Value != "banking" || back.Tags[1].Value != "personal" {
		t.Fatalf("tags out of order after round trip: %+v", back.Tags)
	}
	if back.Name != "alice" || back.URL != "https://site.com/" {
		t.Fatalf("metadata fields lost in round trip: %+v", back)
	}
}

func TestKeyFormat(t *testing.T) {
	got := Key("category", KindPassword, "alice", "https://site.com/")
	if got != "category:Password:alice:https://site.com/" {
		t.Fatalf("Key = %q", got)
	}
}
