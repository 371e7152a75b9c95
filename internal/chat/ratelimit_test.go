package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenDenies(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, rl.allow(), "call %d should pass", i)
	}
	require.False(t, rl.allow())
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)

	require.True(t, rl.allow())
	require.False(t, rl.allow())

	time.Sleep(30 * time.Millisecond)
	require.True(t, rl.allow())
}

func TestRateLimiterSanitizesArguments(t *testing.T) {
	rl := newRateLimiter(0, 0)
	require.True(t, rl.allow())
	require.False(t, rl.allow())
}
