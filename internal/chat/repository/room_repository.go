package repository

import (
	"context"
	"errors"
	"fmt"

	"realtime_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoomRepository room lookup for membership checks
type RoomRepository interface {
	Create(ctx context.Context, room *domain.ChatRoom) error
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
}

type roomRepository struct {
	coll *mongo.Collection
}

// NewRoomRepository create a RoomRepository
func NewRoomRepository(db *mongo.Database) RoomRepository {
	return &roomRepository{coll: db.Collection("chat_rooms")}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.ChatRoom) error {
	_, err := r.coll.InsertOne(ctx, room)
	return err
}

func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.coll.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	} else if err != nil {
		return nil, fmt.Errorf("find room %s: %w", roomID, err)
	}
	return &room, nil
}
