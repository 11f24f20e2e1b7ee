package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// KindReviewLiked marks an update staged when another user likes a review.
const KindReviewLiked = "review_liked"

// Update is one staged notification for a user, held until the user's client
// fetches and acknowledges it or the TTL expires.
type Update struct {
	Kind      string    `json:"kind"`
	ReviewID  string    `json:"review_id"`
	ActorID   int64     `json:"actor_id"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingCache is an in-process cache of per-user pending updates.
//
// Lifecycle: Stage appends, Pending reads without consuming, Acknowledge
// clears, and a janitor sweep drops entries older than the TTL. State is
// process-local and lost on restart; staged updates are best-effort signals,
// not durable messages.
type PendingCache struct {
	mu      sync.Mutex
	entries map[int64][]Update
	ttl     time.Duration
	nowFn   func() time.Time
}

// NewPendingCache creates a pending-update cache with the given TTL.
func NewPendingCache(ttl time.Duration) *PendingCache {
	if ttl <= 0 {
		panic("notify: ttl must be positive")
	}
	return &PendingCache{
		entries: make(map[int64][]Update),
		ttl:     ttl,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Stage appends an update to the user's pending list.
func (c *PendingCache) Stage(userID int64, update Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = append(c.entries[userID], update)
}

// Pending returns a copy of the user's pending updates, oldest first.
// Reading does not consume; the client acknowledges explicitly.
func (c *PendingCache) Pending(userID int64) []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	staged := c.entries[userID]
	out := make([]Update, len(staged))
	copy(out, staged)
	return out
}

// Acknowledge clears the user's pending updates.
func (c *PendingCache) Acknowledge(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// StartJanitor sweeps expired updates on the given interval until the context
// is cancelled. Meant to run as a goroutine for the process lifetime.
func (c *PendingCache) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("[Notify] Pending-update janitor started", "ttl", c.ttl, "interval", interval)

	for {
		select {
		case <-ticker.C:
			if dropped := c.sweep(); dropped > 0 {
				slog.Info("[Notify] Swept expired pending updates", "dropped", dropped)
			}
		case <-ctx.Done():
			slog.Info("[Notify] Pending-update janitor stopped")
			return
		}
	}
}

// sweep drops updates older than the TTL and returns how many were removed.
func (c *PendingCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.nowFn().Add(-c.ttl)
	dropped := 0
	for userID, staged := range c.entries {
		kept := staged[:0]
		for _, u := range staged {
			if u.CreatedAt.After(cutoff) {
				kept = append(kept, u)
			} else {
				dropped++
			}
		}
		if len(kept) == 0 {
			delete(c.entries, userID)
		} else {
			c.entries[userID] = kept
		}
	}
	return dropped
}
