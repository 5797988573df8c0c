package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacerNextWithinBounds(t *testing.T) {
	p := NewPacer(3000, 8000).WithSeed(42)

	for i := 0; i < 200; i++ {
		d := p.Next()
		if d < 3*time.Second || d > 8*time.Second {
			t.Fatalf("interval %d out of bounds: %v", i, d)
		}
	}
}

func TestPacerSwapsInvertedBounds(t *testing.T) {
	p := NewPacer(500, 100)
	if p.Min != 100*time.Millisecond || p.Max != 500*time.Millisecond {
		t.Errorf("bounds: got [%v, %v], want [100ms, 500ms]", p.Min, p.Max)
	}
}

func TestPacerFixedInterval(t *testing.T) {
	p := NewPacer(250, 250)
	if d := p.Next(); d != 250*time.Millisecond {
		t.Errorf("Next: got %v, want 250ms", d)
	}
}

func TestPacerPauseUsesSleeper(t *testing.T) {
	var slept []time.Duration
	p := NewPacer(10, 20).WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	d, err := p.Pause(context.Background())
	if err != nil {
		t.Fatalf("Pause: unexpected error %v", err)
	}
	if len(slept) != 1 || slept[0] != d {
		t.Errorf("sleeper calls: got %v, want [%v]", slept, d)
	}
}

func TestPacerPauseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPacer(1000, 1000).Pause(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Pause on cancelled ctx: got %v, want context.Canceled", err)
	}
}
