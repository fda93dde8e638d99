package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shiftmatch/backend/internal/domain/enums"
	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
	creditssvc "github.com/shiftmatch/backend/internal/services/credits"
	notifysvc "github.com/shiftmatch/backend/internal/services/notify"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateSwipe     = errors.New("duplicate swipe")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrUnauthorized       = errors.New("actor does not own the application")
)

type SwipeStore interface {
	Create(ctx context.Context, tx pgx.Tx, actorUserID, targetEntityID int64, direction, creditUsed string, now time.Time) (pgrepo.SwipeRecord, error)
	SetCreditUsed(ctx context.Context, tx pgx.Tx, swipeID int64, creditUsed string) error
	HasReciprocalLike(ctx context.Context, tx pgx.Tx, actorUserID, targetEntityID int64) (bool, error)
}

type MatchStore interface {
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (int64, bool, error)
}

type CreditLedger interface {
	EnsureAccount(ctx context.Context, tx pgx.Tx, userID int64, at time.Time) error
	Debit(ctx context.Context, tx pgx.Tx, userID int64, creditType enums.CreditType) (creditssvc.DebitResult, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

type ApplicationStore interface {
	GetApplication(ctx context.Context, applicationID int64) (pgrepo.ApplicationRecord, error)
}

type ConversationStore interface {
	CreateConversation(ctx context.Context, matchID, userAID, userBID int64) (string, error)
}

type MatchNotifier interface {
	NotifyMatch(ctx context.Context, event notifysvc.MatchEvent)
}

type SwipeResult struct {
	MatchCreated   bool
	MatchID        int64
	ConversationID string
	CreditUsed     enums.CreditType
	Remaining      int
}

type Dependencies struct {
	Pool          *pgxpool.Pool
	SwipeStore    SwipeStore
	MatchStore    MatchStore
	Ledger        CreditLedger
	Cache         CacheInvalidator
	Applications  ApplicationStore
	Conversations ConversationStore
	Notifier      MatchNotifier
	Logger        *zap.Logger
}

// Service runs the swipe-consumption pipeline: credit check and debit,
// swipe record, mutual-interest detection, match creation, cache
// invalidation and notification dispatch.
type Service struct {
	swipeStore    SwipeStore
	matchStore    MatchStore
	ledger        CreditLedger
	cache         CacheInvalidator
	applications  ApplicationStore
	conversations ConversationStore
	notifier      MatchNotifier
	logger        *zap.Logger
	runTx         func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now           func() time.Time
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := deps.Pool
	return &Service{
		swipeStore:    deps.SwipeStore,
		matchStore:    deps.MatchStore,
		ledger:        deps.Ledger,
		cache:         deps.Cache,
		applications:  deps.Applications,
		conversations: deps.Conversations,
		notifier:      deps.Notifier,
		logger:        logger,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
		now: time.Now,
	}
}

// Swipe is the single entry point for both directions. A like debits one
// credit, a skip is free; both write the immutable swipe record and drop
// the actor's cached deck before the response is returned.
func (s *Service) Swipe(ctx context.Context, actorID, targetID int64, direction string) (SwipeResult, error) {
	if actorID <= 0 || actorID == targetID {
		return SwipeResult{}, ErrValidation
	}
	if targetID <= 0 {
		return SwipeResult{}, ErrInvalidTarget
	}

	dir, err := normalizeDirection(direction)
	if err != nil {
		return SwipeResult{}, err
	}

	if s.swipeStore == nil || s.matchStore == nil || s.ledger == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	now := s.now().UTC()

	var (
		result  SwipeResult
		matchID int64
		created bool
	)
	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		// Insert before the debit so a duplicate is rejected without
		// charging; an insufficient-credit failure rolls the record back.
		rec, err := s.swipeStore.Create(txCtx, tx, actorID, targetID, string(dir), string(enums.CreditNone), now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrDuplicateSwipe) {
				return ErrDuplicateSwipe
			}
			return err
		}

		result.CreditUsed = enums.CreditNone
		if dir == enums.SwipeLike {
			if err := s.ledger.EnsureAccount(txCtx, tx, actorID, now); err != nil {
				return err
			}
			debit, err := s.ledger.Debit(txCtx, tx, actorID, enums.CreditNone)
			if err != nil {
				if errors.Is(err, creditssvc.ErrInsufficientCredit) {
					return ErrInsufficientCredit
				}
				return err
			}
			if err := s.swipeStore.SetCreditUsed(txCtx, tx, rec.ID, string(debit.CreditUsed)); err != nil {
				return err
			}
			result.CreditUsed = debit.CreditUsed
			result.Remaining = debit.Remaining

			reciprocal, err := s.swipeStore.HasReciprocalLike(txCtx, tx, actorID, targetID)
			if err != nil {
				return err
			}
			if reciprocal {
				id, isNew, err := s.matchStore.CreateIfAbsent(txCtx, tx, actorID, targetID, now)
				if err != nil {
					return err
				}
				matchID = id
				created = isNew
			}
		}
		return nil
	}); err != nil {
		return SwipeResult{}, err
	}

	s.invalidateDeck(ctx, actorID)

	if matchID > 0 {
		result.MatchID = matchID
		result.MatchCreated = created
		if created {
			s.invalidateDeck(ctx, targetID)
			result.ConversationID = s.openConversation(ctx, matchID, actorID, targetID)
			if s.notifier != nil {
				s.notifier.NotifyMatch(ctx, notifysvc.MatchEvent{
					MatchID:        matchID,
					UserAID:        actorID,
					UserBID:        targetID,
					ConversationID: result.ConversationID,
				})
			}
		}
	}

	return result, nil
}

// SkipApplication runs the skip pipeline against the target of an
// outstanding application. Ownership is a hard precondition.
func (s *Service) SkipApplication(ctx context.Context, actorID, applicationID int64) (SwipeResult, error) {
	if actorID <= 0 || applicationID <= 0 {
		return SwipeResult{}, ErrValidation
	}
	if s.applications == nil {
		return SwipeResult{}, fmt.Errorf("application store is not configured")
	}

	app, err := s.applications.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrApplicationNotFound) {
			return SwipeResult{}, ErrInvalidTarget
		}
		return SwipeResult{}, fmt.Errorf("resolve application: %w", err)
	}
	if app.OwnerUserID != actorID {
		return SwipeResult{}, ErrUnauthorized
	}

	return s.Swipe(ctx, actorID, app.TargetEntityID, string(enums.SwipeSkip))
}

// invalidateDeck is synchronous with the response but tolerant: the cache
// is a derived view bounded by its TTL, so a failed drop is logged, not
// fatal.
func (s *Service) invalidateDeck(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("candidate deck invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *Service) openConversation(ctx context.Context, matchID, actorID, targetID int64) string {
	if s.conversations == nil {
		return ""
	}

	conversationID, err := s.conversations.CreateConversation(ctx, matchID, actorID, targetID)
	if err != nil {
		// The match stands; conversation creation is retried by the chat
		// collaborator on first open.
		s.logger.Warn("conversation creation failed",
			zap.Int64("match_id", matchID),
			zap.Error(err),
		)
		return ""
	}

	return conversationID
}

func normalizeDirection(input string) (enums.SwipeDirection, error) {
	dir := enums.SwipeDirection(strings.ToUpper(strings.TrimSpace(input)))
	if !dir.Valid() {
		return "", ErrValidation
	}
	return dir, nil
}
