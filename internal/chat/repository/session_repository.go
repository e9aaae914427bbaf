package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SessionRepository session state owned by the auth service, read by chat
type SessionRepository interface {
	Save(ctx context.Context, s domain.Session, ttl time.Duration) error
	ValidateSession(ctx context.Context, userID, sessionID string) (domain.SessionValidationResult, error)
	UpdateLastActivity(ctx context.Context, userID, sessionID string) error
}

// touch only the session that is still current, remaining ttl kept
var touchSessionScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return 0
end
local s = cjson.decode(raw)
if s['sessionId'] ~= ARGV[1] then
	return -1
end
s['lastActivity'] = ARGV[2]
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	redis.call('SET', KEYS[1], cjson.encode(s), 'PX', ttl)
else
	redis.call('SET', KEYS[1], cjson.encode(s))
end
return 1
`)

type sessionRepository struct {
	client *redis.Client
	store  database.RedisRepository[domain.Session]
	now    func() time.Time
}

// NewSessionRepository create a SessionRepository
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{
		client: client,
		store:  database.NewRedisRepository[domain.Session](client),
		now:    time.Now,
	}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

func (r *sessionRepository) Save(ctx context.Context, s domain.Session, ttl time.Duration) error {
	return r.store.Set(ctx, sessionKey(s.UserID), s, ttl)
}

// ValidateSession lookup errors are returned as errors, callers decide to fail closed
func (r *sessionRepository) ValidateSession(ctx context.Context, userID, sessionID string) (domain.SessionValidationResult, error) {
	s, err := r.store.Get(ctx, sessionKey(userID))
	if errors.Is(err, database.ErrNotFound) {
		return domain.SessionValidationResult{Reason: domain.SessionReasonNotFound}, nil
	} else if err != nil {
		return domain.SessionValidationResult{}, err
	}

	if s.SessionID != sessionID {
		return domain.SessionValidationResult{Reason: domain.SessionReasonMismatch}, nil
	}
	if !s.ExpiresAt.IsZero() && r.now().After(s.ExpiresAt) {
		return domain.SessionValidationResult{Reason: domain.SessionReasonExpired}, nil
	}
	return domain.SessionValidationResult{Valid: true}, nil
}

// UpdateLastActivity a rotated session is left untouched
func (r *sessionRepository) UpdateLastActivity(ctx context.Context, userID, sessionID string) error {
	at := r.now().UTC().Format(time.RFC3339Nano)
	res, err := touchSessionScript.Run(ctx, r.client, []string{sessionKey(userID)}, sessionID, at).Int64()
	if err != nil {
		return fmt.Errorf("update last activity %s: %w", userID, err)
	}

	switch res {
	case 0:
		return fmt.Errorf("update last activity %s: %w", userID, database.ErrNotFound)
	case -1:
		logger.Log.Debug("session rotated, last activity skipped", zap.String("userID", userID))
	}
	return nil
}
