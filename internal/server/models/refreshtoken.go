package models

import "time"

// RefreshToken is one durable session record. Token holds a one-way hash of
// the raw refresh token; the raw value is never persisted.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	IP        string
	UserAgent string
}
