package errprocess

// Code client visible error code
type Code string

const (
	// MessageError generic send / validation failure
	MessageError Code = "MESSAGE_ERROR"
	// SessionExpired client must re-authenticate
	SessionExpired Code = "SESSION_EXPIRED"
	// RateLimitExceeded client should retry after RetryAfter seconds
	RateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	// MessageRejected content refused by moderation
	MessageRejected Code = "MESSAGE_REJECTED"
)

// ChatError payload of the "error" event
type ChatError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	RetryAfter *int64 `json:"retryAfter,omitempty"`
}

// New create ChatError
func New(code Code, msg string) *ChatError {
	return &ChatError{Code: code, Message: msg}
}

// WithRetryAfter attach retry hint in seconds
func (e *ChatError) WithRetryAfter(seconds int64) *ChatError {
	e.RetryAfter = &seconds
	return e
}

func (e *ChatError) Error() string {
	return string(e.Code) + ": " + e.Message
}
