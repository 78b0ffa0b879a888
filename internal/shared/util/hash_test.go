package util

import "testing"

func TestHashUserKey(t *testing.T) {
	t.Parallel()

	a := HashUserKey("google:12345")
	b := HashUserKey("guest:abc")

	if a != HashUserKey("google:12345") {
		t.Fatalf("expected stable hash, got %s", a)
	}
	if a == b {
		t.Fatalf("expected distinct inputs to hash differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
	for _, ch := range a {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
}
