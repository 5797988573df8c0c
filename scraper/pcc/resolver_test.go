package pcc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pcc-tenders/utils"
)

func recordingLocator(name string, calls *[]string, err error) Locator {
	return Locator{Name: name, Click: func(context.Context) error {
		*calls = append(*calls, name)
		return err
	}}
}

func TestResolverStopsAtFirstSuccess(t *testing.T) {
	var calls []string
	fallbackRan := false
	r := NewResolver([]Locator{
		recordingLocator("a", &calls, context.DeadlineExceeded),
		recordingLocator("b", &calls, nil),
		recordingLocator("c", &calls, nil),
	}, func(context.Context) error {
		fallbackRan = true
		return nil
	}, time.Second, utils.NewDiscardLogger())

	got := r.Trigger(context.Background())
	if got != "b" {
		t.Errorf("Trigger: got %q, want %q", got, "b")
	}
	if diff := cmp.Diff([]string{"a", "b"}, calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	if fallbackRan {
		t.Error("fallback must not run when a locator succeeds")
	}
}

func TestResolverFallsBackWhenAllFail(t *testing.T) {
	var calls []string
	fallbackRan := false
	r := NewResolver([]Locator{
		recordingLocator("a", &calls, context.DeadlineExceeded),
		recordingLocator("b", &calls, errors.New("not clickable")),
	}, func(context.Context) error {
		fallbackRan = true
		return errors.New("goQuery undefined")
	}, time.Second, utils.NewDiscardLogger())

	got := r.Trigger(context.Background())
	if got != FallbackName {
		t.Errorf("Trigger: got %q, want %q", got, FallbackName)
	}
	if len(calls) != 2 {
		t.Errorf("every locator should be tried, got %v", calls)
	}
	if !fallbackRan {
		t.Error("fallback should run after all locators fail")
	}
}

func TestResolverBoundsEachAttempt(t *testing.T) {
	slow := Locator{Name: "slow", Click: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	r := NewResolver([]Locator{slow, slow}, nil, 20*time.Millisecond, utils.NewDiscardLogger())

	start := time.Now()
	r.Trigger(context.Background())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("attempts should be bounded, took %v", elapsed)
	}
}
