package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pgrepo "github.com/shiftmatch/backend/internal/repo/postgres"
)

// SubscriptionRegistry resolves a user's registered delivery endpoints.
// Zero endpoints is a normal state, not an error.
type SubscriptionRegistry interface {
	Endpoints(ctx context.Context, userID int64) ([]pgrepo.EndpointRecord, error)
}

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type MatchEvent struct {
	MatchID        int64
	UserAID        int64
	UserBID        int64
	ConversationID string
}

type MessageEvent struct {
	FromUserID int64
	ToUserID   int64
	Preview    string
}

// Service delivers best-effort push notifications. Nothing here ever
// propagates to the swipe pipeline: a lost notification must not roll back
// a match.
type Service struct {
	registry SubscriptionRegistry
	sender   Sender
	logger   *zap.Logger
}

func NewService(registry SubscriptionRegistry, sender Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		registry: registry,
		sender:   sender,
		logger:   logger,
	}
}

// NotifyMatch pings both sides of a fresh match.
func (s *Service) NotifyMatch(ctx context.Context, event MatchEvent) {
	text := "You have a new match! Open the app to start the conversation."
	s.deliver(ctx, event.UserAID, text)
	s.deliver(ctx, event.UserBID, text)
}

// NotifyMessage pings the recipient of a new chat message.
func (s *Service) NotifyMessage(ctx context.Context, event MessageEvent) {
	text := "New message"
	if event.Preview != "" {
		text = fmt.Sprintf("New message: %s", event.Preview)
	}
	s.deliver(ctx, event.ToUserID, text)
}

func (s *Service) deliver(ctx context.Context, userID int64, text string) {
	if userID <= 0 {
		return
	}
	if s.registry == nil || s.sender == nil {
		s.logger.Debug("notification dispatch skipped, transport not configured", zap.Int64("user_id", userID))
		return
	}

	endpoints, err := s.registry.Endpoints(ctx, userID)
	if err != nil {
		s.logger.Warn("resolve push endpoints failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if len(endpoints) == 0 {
		return
	}

	for _, endpoint := range endpoints {
		if err := s.sender.SendText(ctx, endpoint.ChatID, text); err != nil {
			s.logger.Warn("push delivery failed",
				zap.Int64("user_id", userID),
				zap.Int64("chat_id", endpoint.ChatID),
				zap.Error(err),
			)
		}
	}
}
