package backend

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"docchat-backend/internal/extract"
)

const localExcerptLimit = 600

// LocalClient is a development stand-in for the real backend. It extracts
// document text locally and answers chats with excerpts, so the full flow
// works without BACKEND_API_BASE_URL set.
type LocalClient struct {
	mu   sync.Mutex
	docs map[string]localDoc
}

type localDoc struct {
	fileName string
	text     string
}

// NewLocalClient constructs an empty local backend.
func NewLocalClient() *LocalClient {
	return &LocalClient{docs: make(map[string]localDoc)}
}

func (c *LocalClient) Register(ctx context.Context, fileName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	text, err := extract.Text(ctx, data, "", fileName)
	if err != nil {
		// Unsupported types still register; chats fall back to a generic reply.
		text = ""
	}

	id := "local_" + uuid.NewString()
	c.mu.Lock()
	c.docs[id] = localDoc{fileName: fileName, text: text}
	c.mu.Unlock()
	return id, nil
}

func (c *LocalClient) Chat(ctx context.Context, message string, documentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	doc, ok := c.docs[documentID]
	c.mu.Unlock()
	if !ok {
		return "", &APIError{StatusCode: 404, Detail: fmt.Sprintf("document %s not found", documentID)}
	}

	excerpt := strings.TrimSpace(doc.text)
	if excerpt == "" {
		return fmt.Sprintf("I could not extract text from %q, so I can only confirm it was received.", doc.fileName), nil
	}
	if len(excerpt) > localExcerptLimit {
		excerpt = excerpt[:localExcerptLimit] + "..."
	}
	return fmt.Sprintf("You asked: %q. Here is the relevant content of %s:\n\n%s", message, doc.fileName, excerpt), nil
}

var _ Client = (*LocalClient)(nil)
