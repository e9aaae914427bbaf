package domain

// PipelineState ingest state machine
type PipelineState string

// states of a message send
const (
	StateReceived       PipelineState = "Received"
	StateSessionChecked PipelineState = "SessionChecked"
	StateRateChecked    PipelineState = "RateChecked"
	StateAccessChecked  PipelineState = "AccessChecked"
	StateContentChecked PipelineState = "ContentChecked"
	StateTypeValidated  PipelineState = "TypeValidated"
	StatePersisted      PipelineState = "Persisted"
	StateBroadcast      PipelineState = "Broadcast"
	StateDone           PipelineState = "Done"
	StateIgnored        PipelineState = "Ignored"
	StateAbandoned      PipelineState = "Abandoned"
)

// AbandonReason why a send was abandoned, also the error metric label
type AbandonReason string

// abandon reasons
const (
	ReasonNullData          AbandonReason = "null_data"
	ReasonSessionNull       AbandonReason = "session_null"
	ReasonSessionExpired    AbandonReason = "session_expired"
	ReasonRateLimitExceeded AbandonReason = "rate_limit_exceeded"
	ReasonUserNotFound      AbandonReason = "user_not_found"
	ReasonRoomAccessDenied  AbandonReason = "room_access_denied"
	ReasonContentRejected   AbandonReason = "content_rejected"
	ReasonInvalidType       AbandonReason = "invalid_type"
	ReasonInvalidFile       AbandonReason = "invalid_file"
	ReasonFileNotFound      AbandonReason = "file_not_found"
	ReasonForbidden         AbandonReason = "forbidden"
	ReasonStorageError      AbandonReason = "storage_error"
)

// FileData file part of an inbound chat message
type FileData struct {
	ID           string `json:"_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// ChatMessageRequest inbound chatMessage payload
// Msg is the legacy content field.
type ChatMessageRequest struct {
	Room     string    `json:"room" validate:"required"`
	Type     string    `json:"type"`
	Content  string    `json:"content"`
	Msg      string    `json:"msg"`
	FileData *FileData `json:"fileData"`
}

// FetchMessagesRequest inbound fetchPreviousMessages payload
type FetchMessagesRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Before int64  `json:"before" validate:"gte=0"`
	Limit  int    `json:"limit" validate:"gte=0"`
}

// RoomRequest inbound joinRoom / leaveRoom payload
type RoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// IngestResult outcome of one pipeline run
type IngestResult struct {
	State      PipelineState
	Reason     AbandonReason
	RetryAfter int64
	Message    *MessageResponse
}
