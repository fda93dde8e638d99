package matches

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shiftmatch/backend/internal/domain/model"
	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrMatchNotFound = errors.New("match not found")
	ErrUnauthorized  = errors.New("user is not a match participant")
)

type Store interface {
	GetByID(ctx context.Context, matchID int64) (pgrepo.MatchRecord, error)
	ListActiveForUser(ctx context.Context, userID int64, limit int) ([]pgrepo.MatchRecord, error)
	SetStatus(ctx context.Context, matchID int64, status string) error
}

// Service reads and ends matches. Creation happens inside the swipe
// pipeline's transaction, never here.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{store: store, logger: logger}
}

func (s *Service) ListActive(ctx context.Context, userID int64, limit int) ([]model.Match, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("match store is nil")
	}

	records, err := s.store.ListActiveForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active matches: %w", err)
	}

	items := make([]model.Match, 0, len(records))
	for _, rec := range records {
		items = append(items, toModel(rec))
	}

	return items, nil
}

// End soft-ends an active match. Only a participant may end it; ending an
// already ended match is a no-op success.
func (s *Service) End(ctx context.Context, userID, matchID int64) error {
	if userID <= 0 || matchID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("match store is nil")
	}

	rec, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("get match: %w", err)
	}
	if rec.UserAID != userID && rec.UserBID != userID {
		return ErrUnauthorized
	}
	if rec.Status == model.MatchStatusEnded {
		return nil
	}

	if err := s.store.SetStatus(ctx, matchID, model.MatchStatusEnded); err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("end match: %w", err)
	}

	s.logger.Info("match ended", zap.Int64("match_id", matchID), zap.Int64("ended_by", userID))

	return nil
}

func toModel(rec pgrepo.MatchRecord) model.Match {
	return model.Match{
		ID:        rec.ID,
		UserAID:   rec.UserAID,
		UserBID:   rec.UserBID,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
	}
}
