package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsWithinBudget(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  3,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("client-a", "/projects", "GET")
		assert.True(t, allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 3, info.Limit)
	}

	allowed, info := limiter.Allow("client-a", "/projects", "GET")
	assert.False(t, allowed)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiter_RuleOverridesDefault(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Rules: []Rule{
			{Method: "POST", Path: "/scan/stream", Limit: 1, Window: time.Minute},
		},
	})
	defer limiter.Stop()

	allowed, info := limiter.Allow("client-a", "/scan/stream", "POST")
	require.True(t, allowed)
	assert.Equal(t, 1, info.Limit)

	allowed, _ = limiter.Allow("client-a", "/scan/stream", "POST")
	assert.False(t, allowed)

	// The default budget still applies elsewhere.
	allowed, info = limiter.Allow("client-a", "/projects", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("client-a", "/projects", "GET")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("client-a", "/projects", "GET")
	require.False(t, allowed)

	allowed, _ = limiter.Allow("client-b", "/projects", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("client-a", "/projects", "GET")
		assert.True(t, allowed)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(2, 100) // refills fast enough to observe

	require.True(t, bucket.allow())
	require.True(t, bucket.allow())
	require.False(t, bucket.allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, bucket.allow())
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})
	defer limiter.Stop()

	limiter.Allow("client-a", "/projects", "GET")
	limiter.mu.Lock()
	require.Len(t, limiter.buckets, 1)
	for key := range limiter.access {
		limiter.access[key] = time.Now().Add(-2 * time.Hour)
	}
	limiter.mu.Unlock()

	limiter.cleanupBuckets()

	limiter.mu.Lock()
	assert.Empty(t, limiter.buckets)
	limiter.mu.Unlock()
}
