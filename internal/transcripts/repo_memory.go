package transcripts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Message // userId -> messages
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Message)}
}

func (r *MemoryRepo) Insert(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[msg.UserID] = append(r.data[msg.UserID], msg)
	return nil
}

func (r *MemoryRepo) ListByMapping(ctx context.Context, userId, mappingID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Message
	for _, m := range r.data[userId] {
		if m.MappingID == mappingID {
			out = append(out, m)
		}
	}
	sortAscending(out)
	return out, nil
}

func (r *MemoryRepo) ListByMappings(ctx context.Context, userId string, mappingIDs []string) (map[string][]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(mappingIDs))
	for _, id := range mappingIDs {
		wanted[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]Message)
	for _, m := range r.data[userId] {
		if wanted[m.MappingID] {
			out[m.MappingID] = append(out[m.MappingID], m)
		}
	}
	for id := range out {
		sortAscending(out[id])
	}
	return out, nil
}

func (r *MemoryRepo) DeleteByMapping(ctx context.Context, userId, mappingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.data[userId]
	kept := stored[:0:0]
	for _, m := range stored {
		if m.MappingID != mappingID {
			kept = append(kept, m)
		}
	}
	r.data[userId] = kept
	return nil
}

func (r *MemoryRepo) LastMessageTime(ctx context.Context, userId, mappingID string) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *time.Time
	for _, m := range r.data[userId] {
		if m.MappingID != mappingID {
			continue
		}
		t := m.SentAt
		if last == nil || t.After(*last) {
			last = &t
		}
	}
	return last, nil
}

func (r *MemoryRepo) HasHistory(ctx context.Context, userId, mappingID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.data[userId] {
		if m.MappingID == mappingID {
			return true, nil
		}
	}
	return false, nil
}

func sortAscending(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}

var _ Repo = (*MemoryRepo)(nil)
