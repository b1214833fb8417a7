package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, lim.Allow(), "burst token %d", i)
	}
	assert.False(t, lim.Allow(), "bucket should be empty after the burst")
}

func TestLimiter_Refills(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 100, Burst: 1})
	require.True(t, lim.Allow())
	require.False(t, lim.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, lim.Allow(), "tokens should refill over time")
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1, Burst: 1})
	require.True(t, lim.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := lim.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_SeparateLimitersPerKey(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 1, Burst: 1})

	require.True(t, mgr.GetLimiter("preciosclaros").Allow())
	// A drained bucket for one feed must not affect another.
	assert.True(t, mgr.GetLimiter("dolarapi").Allow())
	assert.False(t, mgr.GetLimiter("preciosclaros").Allow())
}

func TestManager_ReturnsSameLimiterForKey(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 1, Burst: 5})
	assert.Same(t, mgr.GetLimiter("a"), mgr.GetLimiter("a"))
}
