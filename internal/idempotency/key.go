// Package idempotency derives and validates checkout-attempt deduplication
// keys. A key is the lowercase hex SHA-256 of the attempt's identity, so
// repeated submissions of the same configuration by the same user collapse
// to one key.
package idempotency

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Window is the dedup lookback applied by the order flow's fast-path guard.
const Window = 24 * time.Hour

var keyPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// DeriveKey produces the deterministic key for a logical checkout attempt.
// The same (user, configuration, version) triple always yields the same key.
func DeriveKey(userID string, configurationID uuid.UUID, version int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%d", userID, configurationID, version))
	return hex.EncodeToString(sum[:])
}

// NewAttemptKey produces a fresh session-scoped key for a caller that
// explicitly wants a new attempt rather than deduplication.
func NewAttemptKey(userID string, configurationID uuid.UUID) string {
	var nonce [8]byte
	_, _ = rand.Read(nonce[:])
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%d:%x", userID, configurationID, time.Now().UnixNano(), nonce))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether key is a well-formed idempotency key.
func Valid(key string) bool {
	return keyPattern.MatchString(key)
}
