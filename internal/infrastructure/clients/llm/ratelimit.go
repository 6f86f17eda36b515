package llm

import (
	"context"
	"sync"
	"time"
)

// TokenBucket throttles outbound model calls to a requests-per-minute budget
// with an initial burst.
type TokenBucket struct {
	tokens chan struct{}
	stop   chan struct{}
	once   sync.Once
}

// NewTokenBucket returns nil when rpm is negative, which disables limiting.
// Zero values fall back to 60 rpm and a burst of 5.
func NewTokenBucket(rpm int, burst int) *TokenBucket {
	if rpm < 0 {
		return nil
	}
	if rpm == 0 {
		rpm = 60
	}
	if burst <= 0 {
		burst = 5
	}

	bucket := &TokenBucket{
		tokens: make(chan struct{}, burst),
		stop:   make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-bucket.stop:
				return
			case <-ticker.C:
				select {
				case bucket.tokens <- struct{}{}:
				default:
				}
			}
		}
	}()

	return bucket
}

// Wait blocks until a token is available or ctx ends.
func (b *TokenBucket) Wait(ctx context.Context) error {
	if b == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

// Stop releases the refill goroutine.
func (b *TokenBucket) Stop() {
	if b == nil {
		return
	}
	b.once.Do(func() { close(b.stop) })
}
