package domain

import (
	"time"

	"github.com/samber/lo"
)

// ChatRoom definition chat room
type ChatRoom struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	CreatorID    string    `bson:"creator_id,omitempty" json:"creatorId,omitempty"`
	Participants []string  `bson:"participants" json:"participants"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}

// HasParticipant membership check
func (r *ChatRoom) HasParticipant(userID string) bool {
	return lo.Contains(r.Participants, userID)
}
