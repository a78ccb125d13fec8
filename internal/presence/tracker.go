package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"messaging-service/internal/observability"
)

// DefaultTimeout is how long a typing signal stays valid without a
// refresh.
const DefaultTimeout = 2 * time.Second

type key struct {
	chatID int
	userID int
}

// Tracker holds ephemeral typing state per (chat, user). A user is
// typing in a chat while their last heartbeat is younger than the
// timeout. Expiry is evaluated lazily on every read and stale entries
// are additionally removed by a periodic sweep so the map stays
// bounded when clients vanish without an explicit stop signal.
//
// The tracker is independent of the message and chat stores and never
// blocks on them.
type Tracker struct {
	mu      sync.RWMutex
	entries map[key]time.Time
	timeout time.Duration
	now     func() time.Time
}

// NewTracker creates a Tracker with the given signal timeout.
func NewTracker(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		entries: make(map[key]time.Time),
		timeout: timeout,
		now:     time.Now,
	}
}

// Set records a typing signal. active=true starts or refreshes the
// heartbeat; active=false clears the entry immediately.
func (t *Tracker) Set(chatID int, userID int, active bool) {
	k := key{chatID: chatID, userID: userID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if active {
		t.entries[k] = t.now()
		return
	}
	delete(t.entries, k)
}

// Active returns the ids of users currently typing in the chat, in
// ascending order. Entries at or past the timeout are treated as idle
// no matter what the map still holds.
func (t *Tracker) Active(chatID int) []int {
	now := t.now()
	t.mu.RLock()
	defer t.mu.RUnlock()

	var users []int
	for k, last := range t.entries {
		if k.chatID != chatID {
			continue
		}
		if now.Sub(last) >= t.timeout {
			continue
		}
		users = append(users, k.userID)
	}
	sort.Ints(users)
	return users
}

// Sweep drops all expired entries and returns how many were removed.
func (t *Tracker) Sweep() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, last := range t.entries {
		if now.Sub(last) >= t.timeout {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Run sweeps on a fixed interval until the context is canceled. It is
// meant to be started once as a background goroutine.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = t.timeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := t.Sweep()
			observability.AddPresenceSwept(removed)
			observability.SetPresenceEntries(t.len())
		}
	}
}

func (t *Tracker) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
