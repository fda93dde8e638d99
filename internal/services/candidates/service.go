package candidates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	redrepo "github.com/shiftmatch/backend/internal/repo/redis"
)

var ErrValidation = errors.New("validation error")

// CandidatePool is the authoritative, externally curated candidate set.
type CandidatePool interface {
	FetchCandidatePool(ctx context.Context, userID int64) ([]int64, error)
}

type SwipeStore interface {
	ListTargetIDs(ctx context.Context, actorUserID int64) ([]int64, error)
}

type CacheStore interface {
	Get(ctx context.Context, userID int64) (redrepo.CandidateCacheEntry, error)
	Store(ctx context.Context, userID int64, candidateIDs []int64, cachedAt time.Time) (redrepo.CandidateCacheEntry, error)
	Invalidate(ctx context.Context, userID int64) error
	InvalidateForTarget(ctx context.Context, targetID int64) (int64, error)
}

// Service serves the per-user swipe deck as a disposable derived view:
// cache entries can vanish at any point and the next read rebuilds them
// from the pool minus everything already swiped.
type Service struct {
	pool   CandidatePool
	swipes SwipeStore
	cache  CacheStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(pool CandidatePool, swipes SwipeStore, cache CacheStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		pool:   pool,
		swipes: swipes,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// GetCandidates returns the deck in pool order. Cache problems never
// surface: a failed read degrades to recomputation, a failed write only
// costs the next request a recompute.
func (s *Service) GetCandidates(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.pool == nil || s.swipes == nil {
		return nil, fmt.Errorf("candidate dependencies are not configured")
	}

	if s.cache != nil {
		entry, err := s.cache.Get(ctx, userID)
		if err == nil {
			return entry.CandidateIDs, nil
		}
		if !errors.Is(err, redrepo.ErrCacheMiss) {
			s.logger.Warn("candidate cache read failed, recomputing", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	deck, err := s.recompute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if _, err := s.cache.Store(ctx, userID, deck, s.now().UTC()); err != nil {
			s.logger.Warn("candidate cache store failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return deck, nil
}

// Invalidate drops the user's deck so the next read recomputes. Called
// synchronously after every swipe-record write.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.cache == nil {
		return nil
	}

	return s.cache.Invalidate(ctx, userID)
}

// InvalidateForTarget reacts to upstream eligibility changes: every deck
// that could contain the target is dropped, nothing else.
func (s *Service) InvalidateForTarget(ctx context.Context, targetID int64) error {
	if targetID <= 0 {
		return ErrValidation
	}
	if s.cache == nil {
		return nil
	}

	dropped, err := s.cache.InvalidateForTarget(ctx, targetID)
	if err != nil {
		return fmt.Errorf("invalidate decks for target: %w", err)
	}
	if dropped > 0 {
		s.logger.Debug("invalidated candidate decks for target",
			zap.Int64("target_id", targetID),
			zap.Int64("dropped", dropped),
		)
	}

	return nil
}

func (s *Service) recompute(ctx context.Context, userID int64) ([]int64, error) {
	poolIDs, err := s.pool.FetchCandidatePool(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}

	swipedIDs, err := s.swipes.ListTargetIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list swiped targets: %w", err)
	}

	swiped := make(map[int64]struct{}, len(swipedIDs))
	for _, id := range swipedIDs {
		swiped[id] = struct{}{}
	}

	// Pool order is authoritative; filter in place, never re-sort.
	deck := make([]int64, 0, len(poolIDs))
	for _, id := range poolIDs {
		if _, seen := swiped[id]; seen {
			continue
		}
		if id == userID {
			continue
		}
		deck = append(deck, id)
	}

	return deck, nil
}
