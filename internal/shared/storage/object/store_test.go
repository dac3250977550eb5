package object

import (
	"errors"
	"strings"
	"testing"
)

func TestPreviewKeyHashesOwner(t *testing.T) {
	key, err := PreviewKey("user-1", "cl-1")
	if err != nil {
		t.Fatalf("PreviewKey: %v", err)
	}
	if !strings.HasPrefix(key, "previews/") || !strings.HasSuffix(key, "/cl-1.png") {
		t.Fatalf("unexpected key %q", key)
	}
	if strings.Contains(key, "user-1") {
		t.Fatalf("key leaks owner id: %q", key)
	}
	again, _ := PreviewKey("user-1", "cl-1")
	if again != key {
		t.Fatalf("expected stable key, got %q and %q", key, again)
	}
}

func TestPreviewKeyRejectsBadIDs(t *testing.T) {
	for _, bad := range []string{"", "   ", "../x"} {
		if _, err := PreviewKey("user-1", bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", bad, err)
		}
	}
	key, err := PreviewKey("user-1", " a/b\\c ")
	if err != nil {
		t.Fatalf("PreviewKey: %v", err)
	}
	if !strings.HasSuffix(key, "/a_b_c.png") {
		t.Fatalf("expected separators flattened, got %q", key)
	}
}

func TestOwnerSegmentIsHex(t *testing.T) {
	got := ownerSegment("guest:12345")
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("non-hex character %c in %s", ch, got)
		}
	}
}
