package database

import (
	"context"
	"fmt"
	"time"

	"realtime_chat_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewKafkaWriterWithRetry 建立 Kafka Writer，以讀取 topic partition 確認 broker 可用
func NewKafkaWriterWithRetry(ctx context.Context, k KafkaConnection) (*kafka.Writer, error) {
	if len(k.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	var err error
	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		err = probeKafka(ctx, k.Brokers[0], k.Topic)
		if err == nil {
			logger.Log.Info("kafka writer ready",
				zap.Strings("brokers", k.Brokers),
				zap.String("topic", k.Topic),
				zap.Int("attempt", attempt))
			return &kafka.Writer{
				Addr:                   kafka.TCP(k.Brokers...),
				Topic:                  k.Topic,
				Balancer:               &kafka.Hash{},
				AllowAutoTopicCreation: true,
				RequiredAcks:           kafka.RequireOne,
			}, nil
		}

		logger.Log.Warn("kafka probe failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max", k.RetryCount),
			zap.Error(err))
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("kafka writer after %d attempts: %w", k.RetryCount, err)
}

func probeKafka(ctx context.Context, broker, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ReadPartitions(topic)
	return err
}
