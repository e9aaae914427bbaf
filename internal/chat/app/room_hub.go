package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// RoomHub connections of this instance per room.
// Every instance, the publisher included, delivers room events it receives from the broadcaster.
type RoomHub struct {
	mu          sync.RWMutex
	rooms       map[string]map[Client]struct{}
	broadcaster repository.RoomBroadcaster
}

// NewRoomHub create RoomHub
func NewRoomHub(broadcaster repository.RoomBroadcaster) *RoomHub {
	return &RoomHub{
		rooms:       make(map[string]map[Client]struct{}),
		broadcaster: broadcaster,
	}
}

// Run subscribe to room events, returns once the subscription is live
func (h *RoomHub) Run(ctx context.Context) error {
	return h.broadcaster.Subscribe(ctx, h.deliver)
}

// Join subscribe c to roomID
func (h *RoomHub) Join(roomID string, c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[Client]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
}

// Leave unsubscribe c from roomID
func (h *RoomHub) Leave(roomID string, c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(roomID, c)
}

// LeaveAll connection closed
func (h *RoomHub) LeaveAll(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.rooms {
		h.removeLocked(roomID, c)
	}
}

func (h *RoomHub) removeLocked(roomID string, c Client) {
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Members local subscriber count
func (h *RoomHub) Members(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// deliver runs on the subscription goroutine, SendEvent only enqueues so a slow socket cannot stall other rooms
func (h *RoomHub) deliver(evt domain.RoomEvent) {
	// snapshot so no lock is held while enqueueing
	h.mu.RLock()
	targets := make([]Client, 0, len(h.rooms[evt.RoomID]))
	for c := range h.rooms[evt.RoomID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.SendEvent(evt.Event, json.RawMessage(evt.Payload)); err != nil {
			if errors.Is(err, errClientClosed) {
				continue
			}
			logger.Log.Warn("deliver room event failed",
				zap.String("roomID", evt.RoomID),
				zap.String("userID", c.UserID()),
				zap.Error(err))
		}
	}
}
