package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pcc-tenders/config"
	"pcc-tenders/models"
	"pcc-tenders/scraper/mirror"
	"pcc-tenders/scraper/pcc"
	"pcc-tenders/utils"
)

// BrowserSession is an exclusive browser tab able to query one agency at a time.
type BrowserSession interface {
	FetchFirstPage(ctx context.Context, agency string) (*models.RawTable, error)
	Close() error
}

// SessionOpener acquires a BrowserSession for one batch.
type SessionOpener func(ctx context.Context) (BrowserSession, error)

// UnitFetcher queries the REST mirror.
type UnitFetcher interface {
	FetchUnitMonth(ctx context.Context, unit, month string) (*models.RawTable, error)
}

// Pauser spaces consecutive browser fetches.
type Pauser interface {
	Pause(ctx context.Context) (time.Duration, error)
}

// Orchestrator runs batches sequentially and concatenates the normalized
// per-unit tables in iteration order.
type Orchestrator struct {
	openSession     SessionOpener
	units           UnitFetcher
	normalizer      *Normalizer
	pacer           Pauser
	retry           *utils.RetryConfig
	continueOnError bool
	logger          *utils.Logger
}

// NewOrchestrator wires the two acquisition strategies. Either may be nil
// when the caller only uses the other one.
func NewOrchestrator(cfg *config.Config, open SessionOpener, units UnitFetcher, normalizer *Normalizer, pacer Pauser, logger *utils.Logger) *Orchestrator {
	return &Orchestrator{
		openSession: open,
		units:       units,
		normalizer:  normalizer,
		pacer:       pacer,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
			Retryable:   retryable,
		},
		continueOnError: cfg.ContinueOnError,
		logger:          logger,
	}
}

// CrawlAll queries every configured portal agency through the browser.
func (o *Orchestrator) CrawlAll(ctx context.Context) (*models.DisplayTable, error) {
	return o.CrawlAgencies(ctx, config.Agencies())
}

// CrawlAgencies queries agencies in order on one browser session, pausing
// between consecutive agencies but never before the first or after the
// last. The session is closed whatever happens.
func (o *Orchestrator) CrawlAgencies(ctx context.Context, agencies []string) (*models.DisplayTable, error) {
	if o.openSession == nil {
		return nil, fmt.Errorf("orchestrator: no browser session configured")
	}

	session, err := o.openSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: open session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			o.logger.Warn("[orchestrator] closing browser session: %v", cerr)
		}
	}()

	o.logger.Info("[orchestrator] Crawling %d agencies via browser", len(agencies))
	combined := models.NewDisplayTable()

	for i, agency := range agencies {
		if i > 0 && o.pacer != nil {
			d, err := o.pacer.Pause(ctx)
			if err != nil {
				return nil, fmt.Errorf("orchestrator: pause before %q: %w", agency, err)
			}
			o.logger.Debug("[orchestrator] paused %v before %s", d.Round(time.Millisecond), agency)
		}

		var raw *models.RawTable
		err := o.retry.Do(ctx, "fetch "+agency, func(ctx context.Context) error {
			var ferr error
			raw, ferr = session.FetchFirstPage(ctx, agency)
			return ferr
		})
		if err != nil {
			if raw, err = o.skipOrAbort(ctx, agency, err); err != nil {
				return nil, err
			}
		}

		combined.Append(o.normalizer.Normalize(raw))
		o.logger.Info("[orchestrator] [%d/%d] %s done, %d rows so far", i+1, len(agencies), agency, combined.Len())
	}

	return combined, nil
}

// FetchUnits queries the mirror for each unit and month in order. Mirror
// calls are stateless, so no pause is inserted between them.
func (o *Orchestrator) FetchUnits(ctx context.Context, units []string, month string) (*models.DisplayTable, error) {
	if o.units == nil {
		return nil, fmt.Errorf("orchestrator: no mirror client configured")
	}

	o.logger.Info("[orchestrator] Fetching %d units from mirror (month: %s)", len(units), monthOrLatest(month))
	combined := models.NewDisplayTable()

	for _, unit := range units {
		var raw *models.RawTable
		err := o.retry.Do(ctx, "fetch "+unit, func(ctx context.Context) error {
			var ferr error
			raw, ferr = o.units.FetchUnitMonth(ctx, unit, month)
			return ferr
		})
		if err != nil {
			if raw, err = o.skipOrAbort(ctx, unit, err); err != nil {
				return nil, err
			}
		}

		combined.Append(o.normalizer.Normalize(raw))
		o.logger.Debug("[orchestrator] %s: %d rows", unit, raw.Len())
	}

	o.logger.Info("[orchestrator] Mirror fetch complete: %d rows", combined.Len())
	return combined, nil
}

// skipOrAbort applies the skip policy to a failed unit: abort by default, or
// substitute a sentinel row carrying the error when continuing is enabled.
// Cancellation always aborts.
func (o *Orchestrator) skipOrAbort(ctx context.Context, unit string, err error) (*models.RawTable, error) {
	if !o.continueOnError || ctx.Err() != nil {
		return nil, fmt.Errorf("orchestrator: %s: %w", unit, err)
	}
	o.logger.Warn("[orchestrator] %s failed, continuing: %v", unit, err)
	return models.NewSentinelTable(unit, err.Error()), nil
}

// retryable rejects errors that another attempt cannot fix: bad input,
// malformed mirror bodies, client-side HTTP statuses and cancellation.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, pcc.ErrEmptyAgency),
		errors.Is(err, mirror.ErrEmptyUnit),
		errors.Is(err, mirror.ErrInvalidMonth),
		errors.Is(err, mirror.ErrNotArray):
		return false
	}

	var status *mirror.StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return true
}

func monthOrLatest(month string) string {
	if month == "" {
		return "latest"
	}
	return month
}
