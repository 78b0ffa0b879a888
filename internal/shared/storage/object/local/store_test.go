package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docchat-backend/internal/shared/storage/object"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	content := []byte("%PDF-1.4 fake body")
	key, size, mimeType, err := store.Save(context.Background(), "u1", "report.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(content)) {
		t.Fatalf("size = %d, want %d", size, len(content))
	}
	if mimeType == "" {
		t.Fatalf("expected sniffed mime type")
	}
	if !strings.HasPrefix(key, "u1/") || !strings.HasSuffix(key, "_report.pdf") {
		t.Fatalf("unexpected key %q", key)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if _, _, _, err := store.Save(ctx, "u1", "a.txt", strings.NewReader("first")); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, _, _, err := store.Save(ctx, "u1", "b.txt", strings.NewReader("second")); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	infos, err := store.List(ctx, "u1", object.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}
	if !strings.HasSuffix(infos[0].Name, "_b.txt") {
		t.Fatalf("expected newest first, got %q", infos[0].Name)
	}
	if !strings.HasPrefix(infos[0].MimeType, "text/plain") {
		t.Fatalf("mime type = %q", infos[0].MimeType)
	}

	byName, err := store.List(ctx, "u1", object.ListOptions{SortBy: object.SortByName})
	if err != nil {
		t.Fatalf("List by name: %v", err)
	}
	if byName[0].Name > byName[1].Name {
		t.Fatalf("expected name order, got %q before %q", byName[0].Name, byName[1].Name)
	}
}

func TestListUnknownUserIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	infos, err := store.List(context.Background(), "nobody", object.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty listing, got %d entries", len(infos))
	}
}

func TestRemoveDeletesObject(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	key, _, _, err := store.Save(ctx, "u1", "gone.txt", strings.NewReader("bye"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Open(ctx, key); err == nil {
		t.Fatalf("expected Open to fail after Remove")
	}
}

func TestSignedURLUnsupported(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = store.SignedURL(context.Background(), "u1/file.txt", time.Minute, "")
	if !errors.Is(err, object.ErrSignedURLUnsupported) {
		t.Fatalf("err = %v, want ErrSignedURLUnsupported", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
