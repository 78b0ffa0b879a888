package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSignedURLUnsupported is returned by stores that cannot mint signed URLs.
// Callers are expected to fall back to streaming via Open.
var ErrSignedURLUnsupported = errors.New("signed urls not supported by this store")

// ErrObjectExists is returned by Save when the target key is already taken.
var ErrObjectExists = errors.New("object already exists")

// SortBy selects the ordering of a listing.
type SortBy string

const (
	SortByCreated SortBy = "created_at"
	SortByName    SortBy = "name"
)

// ListOptions controls pagination and ordering of a listing.
type ListOptions struct {
	Limit  int
	Offset int
	SortBy SortBy
}

// ObjectInfo describes one stored blob within a user's namespace.
type ObjectInfo struct {
	// Key is the full storage key, "{userKey}/{fileName}".
	Key       string
	Name      string
	SizeBytes int64
	MimeType  string
	CreatedAt time.Time
}

// ObjectStore defines the contract for storing and retrieving binary objects.
// Keys follow the "{userKey}/{fileName}" convention; Save never overwrites an
// existing key.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	List(ctx context.Context, userId string, opts ListOptions) ([]ObjectInfo, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, storageKey string) error
	// SignedURL mints a time-limited read URL for the object. A non-empty
	// downloadName forces attachment disposition under that name.
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration, downloadName string) (string, error)
}
