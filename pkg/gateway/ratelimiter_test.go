package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsWithinLimits(t *testing.T) {
	r := NewClientRateLimiterWithLimits(5, 2)

	allowed, reason := r.CheckRequestAllowed()
	assert.True(t, allowed)
	assert.Empty(t, reason)
}

func TestRateLimiterRequestsPerMinute(t *testing.T) {
	r := NewClientRateLimiterWithLimits(3, 100)

	for i := 0; i < 3; i++ {
		allowed, _ := r.CheckRequestAllowed()
		assert.True(t, allowed)
		r.RecordRequestStart()
		r.RecordRequestEnd()
	}

	allowed, reason := r.CheckRequestAllowed()
	assert.False(t, allowed)
	assert.Equal(t, "rate limit exceeded", reason)
}

func TestRateLimiterConcurrency(t *testing.T) {
	r := NewClientRateLimiterWithLimits(100, 2)

	r.RecordRequestStart()
	r.RecordRequestStart()

	allowed, reason := r.CheckRequestAllowed()
	assert.False(t, allowed)
	assert.Equal(t, "too many concurrent requests", reason)

	r.RecordRequestEnd()
	allowed, _ = r.CheckRequestAllowed()
	assert.True(t, allowed)
}

func TestRateLimiterEndWithoutStart(t *testing.T) {
	r := NewClientRateLimiter()
	r.RecordRequestEnd() // must not underflow

	allowed, _ := r.CheckRequestAllowed()
	assert.True(t, allowed)
}
