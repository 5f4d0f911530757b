// Package cache declares the key/value store used outside the analysis core.
package cache

import (
	"strings"
	"time"
)

// Purpose scopes a cached value to one use.
type Purpose string

const (
	PurposeProfile         Purpose = "profile"
	PurposeSignals         Purpose = "signals"
	PurposeEligibility     Purpose = "eligibility"
	PurposeRecommendations Purpose = "recommendations"
)

// Store is a byte-oriented store with per-entry expiry. The method set
// matches fiber.Storage so a Store can back fiber middleware directly.
type Store interface {
	// Get returns nil, nil when key is missing or expired.
	Get(key string) ([]byte, error)
	// Set stores val under key. An exp of zero means no expiry.
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	// Reset removes every entry the store owns.
	Reset() error
	Close() error
}

// Key builds the key for a user and purpose, e.g. "eligibility:<user id>".
func Key(userID string, purpose Purpose) string {
	return string(purpose) + ":" + strings.ToLower(strings.TrimSpace(userID))
}
