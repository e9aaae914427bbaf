package repository

import (
	"context"
	"fmt"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository durable, append only message store
type MessageRepository interface {
	// Append assigns ID and the canonical timestamp
	Append(ctx context.Context, msg *domain.ChatMessage) error
	// FindBefore newest first, strictly older than before, soft deleted excluded
	FindBefore(ctx context.Context, roomID string, before time.Time, limit int) ([]domain.ChatMessage, bool, error)
	CountRecentByRoom(ctx context.Context, roomID string, since time.Time) (int64, error)
	MarkRead(ctx context.Context, messageIDs []string, userID string) error
	EnsureIndexes(ctx context.Context) error
}

type chatMessageRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoChatMessageRepository create a ChatMessageRepository
func NewMongoChatMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection("chat_messages"),
		now:  time.Now,
	}
}

func (r *chatMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func (r *chatMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	msg.ID = uuid.NewString()
	// mongo keeps millisecond precision
	msg.Timestamp = r.now().UTC().Truncate(time.Millisecond)
	if msg.Readers == nil {
		msg.Readers = []string{}
	}

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *chatMessageRepository) FindBefore(ctx context.Context, roomID string, before time.Time, limit int) ([]domain.ChatMessage, bool, error) {
	filter := bson.M{
		"room_id":    roomID,
		"is_deleted": bson.M{"$ne": true},
		"timestamp":  bson.M{"$lt": before},
	}

	// one extra row tells whether a next page exists
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, fmt.Errorf("find messages before: %w", err)
	}
	defer cur.Close(ctx)

	var msgs []domain.ChatMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, fmt.Errorf("decode messages: %w", err)
	}

	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	return msgs, hasMore, nil
}

func (r *chatMessageRepository) CountRecentByRoom(ctx context.Context, roomID string, since time.Time) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{
		"room_id":    roomID,
		"is_deleted": bson.M{"$ne": true},
		"timestamp":  bson.M{"$gte": since},
	})
}

// MarkRead - 將 userID 加入 readers
func (r *chatMessageRepository) MarkRead(ctx context.Context, messageIDs []string, userID string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": messageIDs}},
		bson.M{"$addToSet": bson.M{"readers": userID}},
	)
	return err
}
