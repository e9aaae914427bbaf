package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const roomChannelPrefix = "chat:room:"

// RoomBroadcaster cross instance room fan-out
type RoomBroadcaster interface {
	Publish(ctx context.Context, roomID string, evt domain.RoomEvent) error
	// Subscribe blocks until the subscription is live, then delivers events until ctx is done
	Subscribe(ctx context.Context, handler func(evt domain.RoomEvent)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

func roomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

// Publish 將 event 序列化後，發布到 room channel
func (r *RedisPubSub) Publish(ctx context.Context, roomID string, evt domain.RoomEvent) error {
	evt.RoomID = roomID
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal room event: %w", err)
	}
	return r.client.Publish(ctx, roomChannel(roomID), data).Err()
}

// Subscribe 訂閱所有 room channel，收到訊息後呼叫 handler 處理
func (r *RedisPubSub) Subscribe(ctx context.Context, handler func(evt domain.RoomEvent)) error {
	sub := r.client.PSubscribe(ctx, roomChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe rooms: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var evt domain.RoomEvent
				if err := json.Unmarshal([]byte(m.Payload), &evt); err != nil {
					logger.Log.Warn("drop undecodable room event", zap.String("channel", m.Channel), zap.Error(err))
					continue
				}
				if evt.RoomID == "" {
					evt.RoomID = strings.TrimPrefix(m.Channel, roomChannelPrefix)
				}
				handler(evt)
			case <-ctx.Done():
				logger.Log.Info("room subscription closed")
				return
			}
		}
	}()
	return nil
}
