package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer spaces consecutive requests against one endpoint by a random delay
// drawn uniformly from [Min, Max].
type Pacer struct {
	Min time.Duration
	Max time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(context.Context, time.Duration) error
}

// NewPacer creates a Pacer with the given bounds in milliseconds. Bounds
// given in the wrong order are swapped.
func NewPacer(minMs, maxMs int) *Pacer {
	if minMs > maxMs {
		minMs, maxMs = maxMs, minMs
	}
	return &Pacer{
		Min:   time.Duration(minMs) * time.Millisecond,
		Max:   time.Duration(maxMs) * time.Millisecond,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// WithSleeper replaces the blocking sleep, mainly for tests.
func (p *Pacer) WithSleeper(sleep func(context.Context, time.Duration) error) *Pacer {
	p.sleep = sleep
	return p
}

// WithSeed makes the drawn intervals reproducible.
func (p *Pacer) WithSeed(seed int64) *Pacer {
	p.mu.Lock()
	p.rng = rand.New(rand.NewSource(seed))
	p.mu.Unlock()
	return p
}

// Next draws the next interval.
func (p *Pacer) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	span := p.Max - p.Min
	if span <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(p.rng.Int63n(int64(span)+1))
}

// Pause waits for one drawn interval and returns it. It returns early with
// the context error if ctx is cancelled.
func (p *Pacer) Pause(ctx context.Context) (time.Duration, error) {
	d := p.Next()
	return d, p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
