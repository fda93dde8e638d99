package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("candidate cache miss")

// CandidateCacheRepo holds the per-user cached candidate deck. Entries are a
// derived view: dropping one at any point only forces a recompute on the
// next read. A reverse index (target id -> user ids whose entry contains it)
// supports per-target invalidation without a global flush.
type CandidateCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

type CandidateCacheEntry struct {
	CandidateIDs []int64   `json:"candidate_ids"`
	Version      int64     `json:"version"`
	CachedAt     time.Time `json:"cached_at"`
}

func NewCandidateCacheRepo(client *goredis.Client, ttl time.Duration) *CandidateCacheRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CandidateCacheRepo{client: client, ttl: ttl}
}

func entryKey(userID int64) string {
	return "cand:deck:" + strconv.FormatInt(userID, 10)
}

func reverseKey(targetID int64) string {
	return "cand:rev:" + strconv.FormatInt(targetID, 10)
}

func versionKey(userID int64) string {
	return "cand:ver:" + strconv.FormatInt(userID, 10)
}

func (r *CandidateCacheRepo) Get(ctx context.Context, userID int64) (CandidateCacheEntry, error) {
	if r.client == nil {
		return CandidateCacheEntry{}, ErrCacheMiss
	}
	if userID <= 0 {
		return CandidateCacheEntry{}, fmt.Errorf("invalid user id")
	}

	raw, err := r.client.Get(ctx, entryKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return CandidateCacheEntry{}, ErrCacheMiss
		}
		return CandidateCacheEntry{}, fmt.Errorf("get candidate cache entry: %w", err)
	}

	var entry CandidateCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entries behave as a miss; the next Store overwrites them.
		return CandidateCacheEntry{}, ErrCacheMiss
	}

	return entry, nil
}

// Store writes the recomputed deck with a fresh expiry and a bumped
// version, and registers the user in each candidate's reverse index.
func (r *CandidateCacheRepo) Store(ctx context.Context, userID int64, candidateIDs []int64, cachedAt time.Time) (CandidateCacheEntry, error) {
	if r.client == nil {
		return CandidateCacheEntry{}, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return CandidateCacheEntry{}, fmt.Errorf("invalid user id")
	}
	if cachedAt.IsZero() {
		cachedAt = time.Now().UTC()
	}

	version, err := r.client.Incr(ctx, versionKey(userID)).Result()
	if err != nil {
		return CandidateCacheEntry{}, fmt.Errorf("bump candidate cache version: %w", err)
	}

	entry := CandidateCacheEntry{
		CandidateIDs: candidateIDs,
		Version:      version,
		CachedAt:     cachedAt.UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return CandidateCacheEntry{}, fmt.Errorf("marshal candidate cache entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, entryKey(userID), raw, r.ttl)
	for _, candidateID := range candidateIDs {
		key := reverseKey(candidateID)
		pipe.SAdd(ctx, key, userID)
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return CandidateCacheEntry{}, fmt.Errorf("store candidate cache entry: %w", err)
	}

	return entry, nil
}

// Invalidate drops the user's entry; the next read recomputes from source.
func (r *CandidateCacheRepo) Invalidate(ctx context.Context, userID int64) error {
	if r.client == nil {
		return nil
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if err := r.client.Del(ctx, entryKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate candidate cache entry: %w", err)
	}

	return nil
}

// InvalidateForTarget drops every entry that could contain the target,
// using the reverse index so unrelated users keep their decks.
func (r *CandidateCacheRepo) InvalidateForTarget(ctx context.Context, targetID int64) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	if targetID <= 0 {
		return 0, fmt.Errorf("invalid target id")
	}

	members, err := r.client.SMembers(ctx, reverseKey(targetID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read candidate reverse index: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		userID, parseErr := strconv.ParseInt(member, 10, 64)
		if parseErr != nil {
			continue
		}
		keys = append(keys, entryKey(userID))
	}
	keys = append(keys, reverseKey(targetID))

	dropped, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("invalidate candidate entries by target: %w", err)
	}

	return dropped, nil
}
