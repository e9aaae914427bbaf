package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/database"

	"github.com/streadway/amqp"
)

// ResponderQueue hands mention jobs to the automated responder workers
type ResponderQueue interface {
	Dispatch(ctx context.Context, job domain.MentionJob) error
}

type rabbitResponderQueue struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitResponderQueue declare the queue and create a ResponderQueue
func NewRabbitResponderQueue(rabbit database.RabbitRepo, queue string) (ResponderQueue, error) {
	if err := rabbit.DeclareQueue(queue); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &rabbitResponderQueue{rabbit: rabbit, queue: queue}, nil
}

func (q *rabbitResponderQueue) Dispatch(ctx context.Context, job domain.MentionJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal mention job: %w", err)
	}

	return q.rabbit.Publish("", q.queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.MessageID,
		Timestamp:    time.Now(),
		Body:         body,
	})
}
