package transcripts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docchat-backend/internal/shared/util"
)

const cacheTTL = 5 * time.Minute

// CachedRepo decorates a Repo with a redis cache for the hot read paths the
// document list hits per row: HasHistory and LastMessageTime. Writes and
// deletes invalidate; everything else passes through.
type CachedRepo struct {
	inner Repo
	rdb   *redis.Client
}

// NewCachedRepo wraps inner with a redis cache.
func NewCachedRepo(inner Repo, rdb *redis.Client) *CachedRepo {
	return &CachedRepo{inner: inner, rdb: rdb}
}

func historyKey(userId, mappingID string) string {
	return fmt.Sprintf("transcripts:%s:%s:has_history", util.HashUserKey(userId), mappingID)
}

func lastTimeKey(userId, mappingID string) string {
	return fmt.Sprintf("transcripts:%s:%s:last_time", util.HashUserKey(userId), mappingID)
}

func (r *CachedRepo) Insert(ctx context.Context, msg Message) error {
	if err := r.inner.Insert(ctx, msg); err != nil {
		return err
	}
	r.invalidate(ctx, msg.UserID, msg.MappingID)
	return nil
}

func (r *CachedRepo) ListByMapping(ctx context.Context, userId, mappingID string) ([]Message, error) {
	return r.inner.ListByMapping(ctx, userId, mappingID)
}

func (r *CachedRepo) ListByMappings(ctx context.Context, userId string, mappingIDs []string) (map[string][]Message, error) {
	return r.inner.ListByMappings(ctx, userId, mappingIDs)
}

func (r *CachedRepo) DeleteByMapping(ctx context.Context, userId, mappingID string) error {
	if err := r.inner.DeleteByMapping(ctx, userId, mappingID); err != nil {
		return err
	}
	r.invalidate(ctx, userId, mappingID)
	return nil
}

func (r *CachedRepo) LastMessageTime(ctx context.Context, userId, mappingID string) (*time.Time, error) {
	key := lastTimeKey(userId, mappingID)
	if raw, err := r.rdb.Get(ctx, key).Result(); err == nil {
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return &t, nil
		}
	}

	last, err := r.inner.LastMessageTime(ctx, userId, mappingID)
	if err != nil {
		return nil, err
	}

	val := ""
	if last != nil {
		val = last.Format(time.RFC3339Nano)
	}
	r.rdb.Set(ctx, key, val, cacheTTL)
	return last, nil
}

func (r *CachedRepo) HasHistory(ctx context.Context, userId, mappingID string) (bool, error) {
	key := historyKey(userId, mappingID)
	if raw, err := r.rdb.Get(ctx, key).Result(); err == nil {
		return raw == "1", nil
	}

	has, err := r.inner.HasHistory(ctx, userId, mappingID)
	if err != nil {
		return false, err
	}

	val := "0"
	if has {
		val = "1"
	}
	r.rdb.Set(ctx, key, val, cacheTTL)
	return has, nil
}

// invalidate is best-effort; a stale badge expires with the TTL anyway.
func (r *CachedRepo) invalidate(ctx context.Context, userId, mappingID string) {
	r.rdb.Del(ctx, historyKey(userId, mappingID), lastTimeKey(userId, mappingID))
}

var _ Repo = (*CachedRepo)(nil)
