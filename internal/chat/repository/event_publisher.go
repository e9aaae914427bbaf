package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"realtime_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
)

// MessageEventPublisher message.created events for downstream consumers
type MessageEventPublisher interface {
	PublishCreated(ctx context.Context, evt domain.MessageCreatedEvent) error
}

// KafkaWriter subset of *kafka.Writer used here
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaEventPublisher struct {
	writer KafkaWriter
}

// NewKafkaEventPublisher create a MessageEventPublisher
func NewKafkaEventPublisher(writer KafkaWriter) MessageEventPublisher {
	return &kafkaEventPublisher{writer: writer}
}

// PublishCreated keyed by room so a room's events stay on one partition
func (p *kafkaEventPublisher) PublishCreated(ctx context.Context, evt domain.MessageCreatedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal message.created: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.RoomID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("message.created")},
		},
	})
}
