package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeTracker(timeout time.Duration) (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker(timeout)
	tracker.now = clock.Now
	return tracker, clock
}

func TestActiveBeforeTimeout(t *testing.T) {
	tracker, clock := newFakeTracker(2 * time.Second)

	tracker.Set(1, 7, true)
	assert.Equal(t, []int{7}, tracker.Active(1))

	clock.Advance(1999 * time.Millisecond)
	assert.Equal(t, []int{7}, tracker.Active(1))
}

func TestExpiresAtTimeout(t *testing.T) {
	tracker, clock := newFakeTracker(2 * time.Second)

	tracker.Set(1, 7, true)
	clock.Advance(2 * time.Second)

	// now - last == timeout means idle, not typing.
	assert.Empty(t, tracker.Active(1))
}

func TestHeartbeatRefreshesDeadline(t *testing.T) {
	tracker, clock := newFakeTracker(2 * time.Second)

	tracker.Set(1, 7, true)
	clock.Advance(1500 * time.Millisecond)
	tracker.Set(1, 7, true)
	clock.Advance(1500 * time.Millisecond)

	// 3s after the first signal but only 1.5s after the refresh.
	assert.Equal(t, []int{7}, tracker.Active(1))
}

func TestExplicitStopClearsImmediately(t *testing.T) {
	tracker, _ := newFakeTracker(2 * time.Second)

	tracker.Set(1, 7, true)
	tracker.Set(1, 7, false)
	assert.Empty(t, tracker.Active(1))
}

func TestActiveScopedToChat(t *testing.T) {
	tracker, _ := newFakeTracker(2 * time.Second)

	tracker.Set(1, 7, true)
	tracker.Set(2, 8, true)

	assert.Equal(t, []int{7}, tracker.Active(1))
	assert.Equal(t, []int{8}, tracker.Active(2))
	assert.Empty(t, tracker.Active(3))
}

func TestActiveSortsUsers(t *testing.T) {
	tracker, _ := newFakeTracker(2 * time.Second)

	tracker.Set(1, 9, true)
	tracker.Set(1, 3, true)
	tracker.Set(1, 5, true)

	assert.Equal(t, []int{3, 5, 9}, tracker.Active(1))
}

func TestSweepRemovesOnlyStaleEntries(t *testing.T) {
	tracker, clock := newFakeTracker(2 * time.Second)

	tracker.Set(1, 7, true)
	clock.Advance(3 * time.Second)
	tracker.Set(1, 8, true)

	removed := tracker.Sweep()
	require.Equal(t, 1, removed)
	assert.Equal(t, []int{8}, tracker.Active(1))
	assert.Equal(t, 1, tracker.len())
}

func TestSweepBoundsMemory(t *testing.T) {
	tracker, clock := newFakeTracker(2 * time.Second)

	for userID := 1; userID <= 100; userID++ {
		tracker.Set(userID, userID, true)
	}
	clock.Advance(5 * time.Second)

	require.Equal(t, 100, tracker.Sweep())
	assert.Equal(t, 0, tracker.len())
}

func TestConcurrentSignals(t *testing.T) {
	tracker := NewTracker(2 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tracker.Set(1, userID, true)
				tracker.Active(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, tracker.Active(1), 50)
}
