package transcripts

import (
	"context"
	"time"
)

// Repo defines persistence operations for chat transcripts. Reads return
// messages in ascending sent order; LastMessageTime returns nil when a
// mapping has no history.
type Repo interface {
	Insert(ctx context.Context, msg Message) error
	ListByMapping(ctx context.Context, userId, mappingID string) ([]Message, error)
	ListByMappings(ctx context.Context, userId string, mappingIDs []string) (map[string][]Message, error)
	DeleteByMapping(ctx context.Context, userId, mappingID string) error
	LastMessageTime(ctx context.Context, userId, mappingID string) (*time.Time, error)
	HasHistory(ctx context.Context, userId, mappingID string) (bool, error)
}
