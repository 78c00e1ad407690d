package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
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

func TestTokenBucketStartsFull(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 5, 1)

	if !b.Allow(5) {
		t.Fatalf("expected initial burst of 5 to be allowed")
	}
	if b.Allow(1) {
		t.Fatalf("expected bucket to be empty after burst")
	}
}

func TestTokenBucketRefillsAtRate(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 10, 2)

	if !b.Allow(10) {
		t.Fatalf("expected initial burst to drain the bucket")
	}

	clk.Advance(500 * time.Millisecond)
	if !b.Allow(1) {
		t.Fatalf("expected 1 token after 500ms at 2 tokens/sec")
	}
	if b.Allow(1) {
		t.Fatalf("expected no second token after 500ms at 2 tokens/sec")
	}

	clk.Advance(3 * time.Second)
	if !b.Allow(6) {
		t.Fatalf("expected 6 tokens after 3s at 2 tokens/sec")
	}
}

func TestTokenBucketCapsAtCapacity(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 3, 100)

	if !b.Allow(3) {
		t.Fatalf("expected initial burst to drain the bucket")
	}

	clk.Advance(time.Hour)
	if !b.Allow(3) {
		t.Fatalf("expected bucket refilled to capacity")
	}
	if b.Allow(1) {
		t.Fatalf("expected refill to cap at capacity, not accumulate for an hour")
	}
}

func TestTokenBucketPartialTokens(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 1, 1)

	if !b.Allow(1) {
		t.Fatalf("expected first token to be allowed")
	}

	// 999ms refills 0.999 tokens, which is not a whole token yet.
	clk.Advance(999 * time.Millisecond)
	if b.Allow(1) {
		t.Fatalf("expected partial refill to be insufficient")
	}
	clk.Advance(1 * time.Millisecond)
	if !b.Allow(1) {
		t.Fatalf("expected token after a full second")
	}
}

func TestTokenBucketNonPositiveCost(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 1, 1)

	if !b.Allow(0) {
		t.Fatalf("expected zero-cost request to be allowed")
	}
	if !b.Allow(-3) {
		t.Fatalf("expected negative-cost request to be allowed")
	}
	if !b.Allow(1) {
		t.Fatalf("expected the bucket untouched by non-positive costs")
	}
}

func TestTokenBucketBackwardsTime(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 2, 1)

	if !b.Allow(2) {
		t.Fatalf("expected initial burst to drain the bucket")
	}

	clk.Advance(-time.Minute)
	if b.Allow(1) {
		t.Fatalf("expected no refill when the clock moves backwards")
	}

	// Refill resumes from the new reference point.
	clk.Advance(time.Second)
	if !b.Allow(1) {
		t.Fatalf("expected refill to resume after backwards jump")
	}
}

func TestTokenBucketZeroCapacityDeniesAll(t *testing.T) {
	clk := newFakeClock()
	b := NewTokenBucket(clk, 0, 10)

	if b.Allow(1) {
		t.Fatalf("expected zero-capacity bucket to deny everything")
	}
	clk.Advance(time.Minute)
	if b.Allow(1) {
		t.Fatalf("expected zero-capacity bucket to stay empty")
	}
}
