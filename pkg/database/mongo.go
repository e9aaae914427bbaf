package database

import (
	"context"
	"fmt"
	"time"

	"realtime_chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const mongoPingTimeout = 5 * time.Second

// NewMongoDB connect + ping with retry (chat messages, rooms)
func NewMongoDB(ctx context.Context, c Connection, dbName string) (*MongoDB, error) {
	var err error
	for attempt := 1; attempt <= c.RetryCount+1; attempt++ {
		var client *mongo.Client
		client, err = connectMongo(ctx, c.ConnectStr)
		if err == nil {
			logger.Log.Info("mongo connected", zap.String("database", dbName), zap.Int("attempt", attempt))
			return &MongoDB{Client: client, Database: client.Database(dbName)}, nil
		}

		logger.Log.Warn("mongo connect failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max", c.RetryCount+1),
			zap.Error(err))
		if attempt <= c.RetryCount {
			time.Sleep(c.RetryInterval)
		}
	}
	return nil, fmt.Errorf("mongo after %d attempts: %w", c.RetryCount+1, err)
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// Close disconnect mongo client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
