package mappings

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Mapping // userId -> mappings
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Mapping)}
}

func (r *MemoryRepo) Create(ctx context.Context, m Mapping) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[m.UserID] = append(r.data[m.UserID], m)
	return nil
}

// ListByUser returns the user's mappings newest-first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userId string) ([]Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	stored := r.data[userId]
	r.mu.RUnlock()

	out := make([]Mapping, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) GetByBackendID(ctx context.Context, userId, backendID string) (Mapping, error) {
	return r.find(ctx, userId, func(m Mapping) bool { return m.BackendID == backendID })
}

func (r *MemoryRepo) GetByPath(ctx context.Context, userId, path string) (Mapping, error) {
	return r.find(ctx, userId, func(m Mapping) bool { return m.Path == path })
}

func (r *MemoryRepo) DeleteByID(ctx context.Context, userId, id string) error {
	return r.remove(ctx, userId, func(m Mapping) bool { return m.ID == id })
}

func (r *MemoryRepo) DeleteByBackendID(ctx context.Context, userId, backendID string) error {
	return r.remove(ctx, userId, func(m Mapping) bool { return m.BackendID == backendID })
}

func (r *MemoryRepo) DeleteByPath(ctx context.Context, userId, path string) error {
	return r.remove(ctx, userId, func(m Mapping) bool { return m.Path == path })
}

func (r *MemoryRepo) find(ctx context.Context, userId string, match func(Mapping) bool) (Mapping, error) {
	if err := ctx.Err(); err != nil {
		return Mapping{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.data[userId] {
		if match(m) {
			return m, nil
		}
	}
	return Mapping{}, ErrNotFound
}

func (r *MemoryRepo) remove(ctx context.Context, userId string, match func(Mapping) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.data[userId]
	for i, m := range stored {
		if match(m) {
			r.data[userId] = append(stored[:i:i], stored[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
