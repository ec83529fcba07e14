package service

import (
	"context"
	"strconv"
	"time"

	"goldlink/internal/domain"
	"goldlink/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// MarkerStore is the one Redis operation the choice markers need.
type MarkerStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// ChoiceLocks writes a best-effort per-round-per-seat marker so a browser
// that refreshes mid-round is deterred from re-choosing. This is a soft
// deterrent only: a motivated user can clear it, and nothing in gameplay
// correctness relies on it. Without a store every lock acquires, mirroring
// how the rate limiter fails open.
type ChoiceLocks struct {
	store MarkerStore
	ttl   time.Duration
}

const lockTTL = 7 * 24 * time.Hour

func NewChoiceLocks(client *redis.Client) *ChoiceLocks {
	l := &ChoiceLocks{ttl: lockTTL}
	if client != nil {
		l.store = client
	}
	return l
}

// NewChoiceLocksWithStore wires an explicit marker store.
func NewChoiceLocksWithStore(store MarkerStore) *ChoiceLocks {
	return &ChoiceLocks{store: store, ttl: lockTTL}
}

func lockKey(gameID string, roundIdx int, slot domain.Slot) string {
	return "choice:" + gameID + ":" + strconv.Itoa(roundIdx) + ":" + strconv.Itoa(int(slot))
}

// Acquire returns false only when a marker for this exact choice already
// exists. Redis errors allow the choice through.
func (l *ChoiceLocks) Acquire(ctx context.Context, gameID string, roundIdx int, slot domain.Slot) bool {
	if l == nil || l.store == nil {
		return true
	}

	ok, err := l.store.SetNX(ctx, lockKey(gameID, roundIdx, slot), 1, l.ttl).Result()
	if err != nil {
		logger.Warn("choice lock unavailable", "error", err)
		return true
	}

	return ok
}
