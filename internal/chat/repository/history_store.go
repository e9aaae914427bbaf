package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// HistoryStore bounded per room window of recent messages, oldest first
type HistoryStore interface {
	Append(ctx context.Context, roomID string, msg domain.MessageResponse) error
	GetLast(ctx context.Context, roomID string, limit int) ([]domain.MessageResponse, error)
	GetAll(ctx context.Context, roomID string) ([]domain.MessageResponse, error)
	Size(ctx context.Context, roomID string) (int64, error)
}

// push + trim + expire in one round trip so concurrent writers never lose a trim
var historyAppendScript = redis.NewScript(`
redis.call('RPUSH', KEYS[1], ARGV[1])
redis.call('LTRIM', KEYS[1], -tonumber(ARGV[2]), -1)
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return redis.call('LLEN', KEYS[1])
`)

type redisHistoryStore struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration
}

// NewRedisHistoryStore create a HistoryStore, ttl <= 0 never expires the room key
func NewRedisHistoryStore(client *redis.Client, capacity int, ttl time.Duration) HistoryStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &redisHistoryStore{client: client, capacity: capacity, ttl: ttl}
}

func historyKey(roomID string) string {
	return fmt.Sprintf("room:%s:messages", roomID)
}

func (s *redisHistoryStore) Append(ctx context.Context, roomID string, msg domain.MessageResponse) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	var ttlMillis int64
	if s.ttl > 0 {
		ttlMillis = s.ttl.Milliseconds()
	}

	if err := historyAppendScript.Run(ctx, s.client, []string{historyKey(roomID)}, data, s.capacity, ttlMillis).Err(); err != nil {
		return fmt.Errorf("append history %s: %w", roomID, err)
	}
	return nil
}

func (s *redisHistoryStore) GetLast(ctx context.Context, roomID string, limit int) ([]domain.MessageResponse, error) {
	if limit <= 0 {
		return []domain.MessageResponse{}, nil
	}
	return s.lrange(ctx, roomID, int64(-limit), -1)
}

func (s *redisHistoryStore) GetAll(ctx context.Context, roomID string) ([]domain.MessageResponse, error) {
	return s.lrange(ctx, roomID, 0, -1)
}

func (s *redisHistoryStore) Size(ctx context.Context, roomID string) (int64, error) {
	n, err := s.client.LLen(ctx, historyKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("history size %s: %w", roomID, err)
	}
	return n, nil
}

func (s *redisHistoryStore) lrange(ctx context.Context, roomID string, start, stop int64) ([]domain.MessageResponse, error) {
	raw, err := s.client.LRange(ctx, historyKey(roomID), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", roomID, err)
	}

	out := make([]domain.MessageResponse, 0, len(raw))
	for _, item := range raw {
		var m domain.MessageResponse
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			logger.Log.Warn("skip undecodable history entry", zap.String("room", roomID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
