package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"realtime_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestKafkaEventPublisher_PublishCreated(t *testing.T) {
	w := &recordingWriter{}
	pub := NewKafkaEventPublisher(w)

	evt := domain.MessageCreatedEvent{MessageID: "m1", RoomID: "r1", SenderID: "u1", Type: domain.MessageTypeText, Timestamp: 1234, Instance: "a"}
	require.NoError(t, pub.PublishCreated(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "r1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "message.created", string(msg.Headers[0].Value))

	var got domain.MessageCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, evt, got)
}

func TestKafkaEventPublisher_WriterError(t *testing.T) {
	pub := NewKafkaEventPublisher(&recordingWriter{err: errors.New("broker down")})

	err := pub.PublishCreated(context.Background(), domain.MessageCreatedEvent{MessageID: "m1"})

	assert.EqualError(t, err, "broker down")
}
