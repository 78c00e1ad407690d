package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a token bucket refilling at an integer rate (tokens/sec).
//
// Fixed-point "nano-tokens" (1 token = 1e9 nano-tokens) keep the refill math
// free of float rounding: a rate of X tokens/sec adds X nano-tokens per
// elapsed nanosecond.
type TokenBucket struct {
	mu sync.Mutex

	clock Clock

	capacity int64 // tokens
	fillRate int64 // tokens/sec

	availableNano int64
	last          time.Time
}

const nanoPerToken = int64(time.Second)

func NewTokenBucket(clock Clock, capacity, fillRate int64) *TokenBucket {
	if clock == nil {
		clock = RealClock{}
	}
	if capacity < 0 {
		capacity = 0
	}
	if fillRate < 0 {
		fillRate = 0
	}
	return &TokenBucket{
		clock:         clock,
		capacity:      capacity,
		fillRate:      fillRate,
		availableNano: capacity * nanoPerToken,
		last:          clock.Now(),
	}
}

// Allow consumes tokens if available. tokens <= 0 always succeeds.
func (b *TokenBucket) Allow(tokens int64) bool {
	if tokens <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()

	cost := tokens * nanoPerToken
	if b.availableNano < cost {
		return false
	}
	b.availableNano -= cost
	return true
}

func (b *TokenBucket) refillLocked() {
	now := b.clock.Now()
	if now.Before(b.last) {
		// Time went backwards; move the reference point without refilling.
		b.last = now
		return
	}

	elapsed := now.Sub(b.last).Nanoseconds()
	b.last = now
	if elapsed <= 0 || b.fillRate <= 0 || b.capacity <= 0 {
		return
	}

	capacityNano := b.capacity * nanoPerToken
	need := capacityNano - b.availableNano
	if need <= 0 {
		b.availableNano = capacityNano
		return
	}

	// fillRate tokens/sec equals fillRate nano-tokens/ns. Clamp to capacity
	// before multiplying to avoid overflow on long idle periods.
	if elapsed >= need/b.fillRate {
		b.availableNano = capacityNano
		return
	}
	b.availableNano += elapsed * b.fillRate
}
