package domain

import (
	"errors"
	"time"
)

// MessageType text | file
type MessageType string

const (
	// MessageTypeText plain text message
	MessageTypeText MessageType = "text"
	// MessageTypeFile message carrying a file reference
	MessageTypeFile MessageType = "file"
)

// Valid known message type
func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeFile
}

// metadata keys of file messages
const (
	MetaFileType     = "fileType"
	MetaFileSize     = "fileSize"
	MetaOriginalName = "originalName"
)

var (
	// ErrRoomNotFound room does not exist
	ErrRoomNotFound = errors.New("room not found")
	// ErrUserNotFound member does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrFileNotFound file record does not exist
	ErrFileNotFound = errors.New("file not found")
)

// ChatMessage 表示一則聊天訊息 (durable record)
// SenderID empty means a system / automated sender.
type ChatMessage struct {
	ID        string                 `bson:"_id" json:"id"`
	RoomID    string                 `bson:"room_id" json:"room_id"`
	SenderID  string                 `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	Type      MessageType            `bson:"type" json:"type"`
	Content   string                 `bson:"content" json:"content"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	Mentions  []string               `bson:"mentions,omitempty" json:"mentions,omitempty"`
	FileID    string                 `bson:"file_id,omitempty" json:"file_id,omitempty"`
	Reactions map[string][]string    `bson:"reactions,omitempty" json:"reactions,omitempty"`
	Readers   []string               `bson:"readers" json:"readers"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IsDeleted bool                   `bson:"is_deleted" json:"is_deleted"`
}

// SenderSummary sender part of a message response
type SenderSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// FileSummary file part of a message response
type FileSummary struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
}

// MessageResponse message as seen by clients, also the shape kept in the room history window
type MessageResponse struct {
	ID        string                 `json:"id"`
	RoomID    string                 `json:"roomId"`
	Content   string                 `json:"content"`
	Type      MessageType            `json:"type"`
	Timestamp int64                  `json:"timestamp"` // unix ms
	Sender    *SenderSummary         `json:"sender"`
	File      *FileSummary           `json:"file,omitempty"`
	Mentions  []string               `json:"mentions,omitempty"`
	Reactions map[string][]string    `json:"reactions"`
	Readers   []string               `json:"readers"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// HistoryPage response of a history query
type HistoryPage struct {
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"hasMore"`
}

// EmptyPage page with no messages, encodes as [] not null
func EmptyPage() HistoryPage {
	return HistoryPage{Messages: []MessageResponse{}}
}

// MessageCreatedEvent published on the message.created topic
type MessageCreatedEvent struct {
	MessageID string      `json:"messageId"`
	RoomID    string      `json:"roomId"`
	SenderID  string      `json:"senderId,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Mentions  []string    `json:"mentions,omitempty"`
	Instance  string      `json:"instance"`
}

// MentionJob job queued for automated responders
type MentionJob struct {
	MessageID  string   `json:"messageId"`
	RoomID     string   `json:"roomId"`
	SenderID   string   `json:"senderId"`
	Content    string   `json:"content"`
	Responders []string `json:"responders"`
}

// ToMillis unix ms of t
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// ErrRoomAccessDenied member is not a participant of the room
var ErrRoomAccessDenied = errors.New("room access denied")
