package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"lumistore/internal/model"

	"github.com/jackc/pgx/v5"
)

const (
	orderNumberPrefix   = "LUM-"
	orderNumberAttempts = 3
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newOrderNumberCandidate builds a human-facing order number from the
// current millisecond timestamp plus a short random suffix, both base-36
// uppercase. Timestamp plus randomness makes a collision astronomically
// unlikely; the uniqueness check is a safety net.
func newOrderNumberCandidate() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = base36Upper[rand.IntN(len(base36Upper))]
	}

	return orderNumberPrefix + ts + "-" + string(suffix)
}

// generateOrderNumber allocates a collision-free order number inside the
// active transaction, retrying a bounded number of times before giving up
// with ErrOrderNumberExhausted.
func (s *orderService) generateOrderNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		candidate := newOrderNumberCandidate()

		exists, err := s.orderRepo.OrderNumberExists(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}

		s.logger.Warn().
			Str("candidate", candidate).
			Int("attempt", attempt).
			Msg("order number collision")
	}

	return "", model.ErrOrderNumberExhausted
}
