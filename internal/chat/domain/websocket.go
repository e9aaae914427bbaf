package domain

import "encoding/json"

// websocket events
const (
	EventJoinRoom        = "joinRoom"
	EventJoinRoomSuccess = "joinRoomSuccess"
	EventLeaveRoom       = "leaveRoom"
	EventChatMessage     = "chatMessage"
	EventMessage         = "message"
	EventFetchPrevious   = "fetchPreviousMessages"
	EventPreviousLoaded  = "previousMessagesLoaded"
	EventError           = "error"
)

// WSRequest websocket inbound envelope
type WSRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSResponse websocket outbound envelope
type WSResponse struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// RoomEvent event fanned out to every instance subscribed to a room
type RoomEvent struct {
	Event   string          `json:"event"`
	RoomID  string          `json:"roomId"`
	Payload json.RawMessage `json:"payload"`
	Origin  string          `json:"origin"`
}

// PreviousMessagesLoaded payload of previousMessagesLoaded
type PreviousMessagesLoaded struct {
	RoomID string `json:"roomId"`
	HistoryPage
}
