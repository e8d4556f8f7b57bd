package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Limiter is a token bucket. The bucket starts full and gains one token
// per refill interval up to its capacity.
type Limiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	mu         sync.Mutex
	lastRefill time.Time
}

// NewLimiter creates a bucket holding maxTokens that refills one token
// every refillRate.
func NewLimiter(maxTokens int, refillRate time.Duration) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is consumed.
func (l *Limiter) Wait() {
	for !l.Allow() {
		time.Sleep(l.refillRate / time.Duration(l.maxTokens))
	}
}

// WaitWithTimeout blocks until a token is consumed or the timeout
// passes, reporting whether a token was acquired.
func (l *Limiter) WaitWithTimeout(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if l.Allow() {
			return true
		}

		sleep := l.refillRate / time.Duration(l.maxTokens)
		if sleep > time.Until(deadline) {
			sleep = time.Until(deadline)
		}
		if sleep > 0 {
			time.Sleep(sleep)
		}
	}
	return false
}

// TokensAvailable reports the current token count.
func (l *Limiter) TokensAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}

// refill adds tokens earned since the last refill. Caller holds the
// mutex.
func (l *Limiter) refill() {
	now := time.Now()
	earned := int(now.Sub(l.lastRefill) / l.refillRate)
	if earned > 0 {
		l.tokens = min(l.maxTokens, l.tokens+earned)
		l.lastRefill = now
	}
}

// NewSearchLimiter paces search result page fetches. FINN tolerates
// roughly one page per second; a small burst covers the first pages.
func NewSearchLimiter() *Limiter {
	return NewLimiter(3, time.Second)
}

// NewDetailLimiter paces ad detail page fetches across the worker pool.
func NewDetailLimiter() *Limiter {
	return NewLimiter(5, 300*time.Millisecond)
}

// Jitter returns a random duration in [lo, hi), used to keep request
// spacing from looking mechanical.
func Jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}
