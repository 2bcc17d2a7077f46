// Package kvstore defines the ephemeral key-value contract used for OTP
// codes, pending registrations, verified-email markers, and password-reset
// token hashes. Keys expire on their own; there are no cross-key
// transactions.
package kvstore

import (
	"context"
	"time"
)

// Store is a string key-value store with per-key TTL.
type Store interface {
	// Set stores value under key for ttl. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes several keys at once.
	DeleteMany(ctx context.Context, keys []string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
