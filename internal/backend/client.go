package backend

import (
	"context"
	"io"
)

// Client talks to the document chat backend. Register ships the raw file
// and returns the backend's document ID; Chat asks a question about a
// previously registered document.
type Client interface {
	Register(ctx context.Context, fileName string, r io.Reader) (string, error)
	Chat(ctx context.Context, message string, documentID string) (string, error)
}
