package pcc

import (
	"context"
	"time"

	"pcc-tenders/utils"
)

// FallbackName is reported by Trigger when no locator matched.
const FallbackName = "script:goQuery"

// Locator finds one variant of the query control and clicks it.
type Locator struct {
	Name  string
	Click func(ctx context.Context) error
}

// Resolver triggers the portal's query action across the markup variants
// the portal has shipped. Locators are tried in order, each bounded by
// its own timeout; the first one that clicks wins. When all of them fail
// the fallback runs.
type Resolver struct {
	locators   []Locator
	fallback   func(ctx context.Context) error
	perAttempt time.Duration
	logger     *utils.Logger
}

// NewResolver creates a Resolver over locators with a last-resort fallback.
func NewResolver(locators []Locator, fallback func(ctx context.Context) error, perAttempt time.Duration, logger *utils.Logger) *Resolver {
	return &Resolver{
		locators:   locators,
		fallback:   fallback,
		perAttempt: perAttempt,
		logger:     logger,
	}
}

// Trigger fires the query action and returns the name of the strategy that
// did it. It never fails: a failing fallback is only logged, and the
// results wait that follows decides whether anything happened.
func (r *Resolver) Trigger(ctx context.Context) string {
	for _, loc := range r.locators {
		if ctx.Err() != nil {
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.perAttempt)
		err := loc.Click(attemptCtx)
		cancel()

		if err == nil {
			r.logger.Debug("[pcc] query triggered via %s", loc.Name)
			return loc.Name
		}
		r.logger.Debug("[pcc] locator %s failed: %v", loc.Name, err)
	}

	if r.fallback != nil {
		if err := r.fallback(ctx); err != nil {
			r.logger.Warn("[pcc] fallback %s failed: %v", FallbackName, err)
		}
	}
	r.logger.Debug("[pcc] query triggered via %s", FallbackName)
	return FallbackName
}
