package app

import (
	"context"
	"errors"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// SessionGate checks the session captured at handshake is still valid.
// Lookup errors and timeouts count as invalid.
type SessionGate struct {
	sessions repository.SessionRepository
	timeout  time.Duration
}

// NewSessionGate create SessionGate
func NewSessionGate(sessions repository.SessionRepository, timeout time.Duration) *SessionGate {
	return &SessionGate{sessions: sessions, timeout: timeout}
}

// Validate never returns Valid on error
func (g *SessionGate) Validate(ctx context.Context, userID, sessionID string) domain.SessionValidationResult {
	if userID == "" || sessionID == "" {
		return domain.SessionValidationResult{Reason: domain.SessionReasonMissing}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.sessions.ValidateSession(ctx, userID, sessionID)
	if err != nil {
		reason := domain.SessionReasonLookupFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = domain.SessionReasonTimeout
		}
		logger.Log.Warn("session validation failed closed",
			zap.String("userID", userID),
			zap.String("reason", reason),
			zap.Error(err))
		return domain.SessionValidationResult{Reason: reason}
	}
	return res
}
