// Package lock provides a per-lead Redis lease so only one matching run
// mutates a lead's offer set at a time. The lease is an optimization to
// avoid duplicate work; correctness always rests on the status-guarded
// updates in the assignment repository.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another process holds the lead's lease.
var ErrNotAcquired = fmt.Errorf("lead lock held by another process")

type LeadLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *LeadLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeadLocker{client: client, ttl: ttl}
}

func lockKey(leadID uuid.UUID) string {
	return "leadrouter:lead-lock:" + leadID.String()
}

// Acquire takes the lead's lease. The returned release function deletes the
// key only if this holder still owns it.
func (l *LeadLocker) Acquire(ctx context.Context, leadID uuid.UUID) (func(), error) {
	holder := uuid.NewString()
	key := lockKey(leadID)

	ok, err := l.client.SetNX(ctx, key, holder, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lead lock: %w", err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	release := func() {
		// Compare-and-delete so an expired lease taken over by another
		// holder is never released from here.
		const script = `
			if redis.call("GET", KEYS[1]) == ARGV[1] then
				return redis.call("DEL", KEYS[1])
			end
			return 0`
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, script, []string{key}, holder).Err()
	}

	return release, nil
}
