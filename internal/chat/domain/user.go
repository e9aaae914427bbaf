package domain

import "time"

// UserProfile member directory entry used for sender summaries
type UserProfile struct {
	ID           string
	Name         string
	Email        string
	ProfileImage string // object key in the bucket, may be empty
}

// Session server side session record of a member
type Session struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// session validation reasons
const (
	SessionReasonMissing      = "missing"
	SessionReasonNotFound     = "not_found"
	SessionReasonMismatch     = "mismatch"
	SessionReasonExpired      = "expired"
	SessionReasonLookupFailed = "lookup_failed"
	SessionReasonTimeout      = "timeout"
)

// SessionValidationResult result of the session gate
type SessionValidationResult struct {
	Valid  bool
	Reason string
}

// RateLimitCheckResult result of the rate limiter
type RateLimitCheckResult struct {
	Allowed           bool
	RetryAfterSeconds int64
}
