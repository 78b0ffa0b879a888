package mappings

import "context"

// Repo defines persistence operations for document mappings.
type Repo interface {
	Create(ctx context.Context, m Mapping) error
	ListByUser(ctx context.Context, userId string) ([]Mapping, error)
	GetByBackendID(ctx context.Context, userId, backendID string) (Mapping, error)
	GetByPath(ctx context.Context, userId, path string) (Mapping, error)
	DeleteByID(ctx context.Context, userId, id string) error
	DeleteByBackendID(ctx context.Context, userId, backendID string) error
	DeleteByPath(ctx context.Context, userId, path string) error
}
