package pcc

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"pcc-tenders/models"
)

const (
	agencyInputSelector  = "#dep"
	resultsFrameSelector = "iframe#listIframe"
	resultsTableSelector = "table"
)

// FetchFirstPage queries the portal for agency and returns the first page
// of results, each row tagged with agency. A results frame or table that
// does not show up in time, or a table without rows, yields a one-row
// sentinel table instead of an error. Any other failure is returned.
func (s *Session) FetchFirstPage(ctx context.Context, agency string) (*models.RawTable, error) {
	if agency == "" {
		return nil, ErrEmptyAgency
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	defer s.leaveFrame()

	if err := s.submit(runCtx, agency); err != nil {
		return nil, fmt.Errorf("pcc: submit agency %q: %w", agency, err)
	}

	used := s.trigger(runCtx)
	s.logger.Debug("[pcc] %s: query sent (%s)", agency, used)

	markup, err := s.readResults(runCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Warn("[pcc] %s: results did not appear in %v", agency, s.cfg.FrameTimeout)
			return models.NewSentinelTable(agency, models.SentinelMessage), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pcc: read results for %q: %w", agency, err)
	}

	table, err := parseResultTable(agency, markup, s.cfg.PortalURL)
	if err != nil {
		return nil, fmt.Errorf("pcc: parse results for %q: %w", agency, err)
	}
	if table.Len() == 0 {
		s.logger.Warn("[pcc] %s: results table is empty", agency)
		return models.NewSentinelTable(agency, models.SentinelMessage), nil
	}

	s.logger.Info("[pcc] %s: %d tenders on first page", agency, table.Len())
	return table, nil
}

// submitAgency loads the portal fresh and types agency into the agency
// field, confirming with Enter so variants that need a blur still see it.
func (s *Session) submitAgency(ctx context.Context, agency string) error {
	navCtx, cancelNav := context.WithTimeout(ctx, s.cfg.HTTPTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(s.cfg.PortalURL)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	inputCtx, cancelInput := context.WithTimeout(ctx, s.cfg.InputTimeout)
	defer cancelInput()
	return chromedp.Run(inputCtx,
		chromedp.WaitVisible(agencyInputSelector, chromedp.ByQuery),
		chromedp.Clear(agencyInputSelector, chromedp.ByQuery),
		chromedp.SendKeys(agencyInputSelector, agency+kb.Enter, chromedp.ByQuery),
	)
}

// resultsMarkup waits for the results frame, enters it, waits for its table
// and returns the frame document's markup. Both waits share FrameTimeout
// as their individual bound.
func (s *Session) resultsMarkup(ctx context.Context) (string, error) {
	frameCtx, cancelFrame := context.WithTimeout(ctx, s.cfg.FrameTimeout)
	defer cancelFrame()

	var frames []*cdp.Node
	if err := chromedp.Run(frameCtx, chromedp.Nodes(resultsFrameSelector, &frames, chromedp.ByQuery)); err != nil {
		return "", err
	}
	if len(frames) == 0 {
		return "", context.DeadlineExceeded
	}
	s.enterFrame(frames[0])

	tableCtx, cancelTable := context.WithTimeout(ctx, s.cfg.FrameTimeout)
	defer cancelTable()

	var markup string
	err := chromedp.Run(tableCtx,
		chromedp.WaitReady(resultsTableSelector, s.scope()...),
		chromedp.OuterHTML("html", &markup, s.scope()...),
	)
	return markup, err
}

func (s *Session) enterFrame(frame *cdp.Node) { s.frame = frame }

// leaveFrame points queries back at the top-level document.
func (s *Session) leaveFrame() { s.frame = nil }

// scope returns the query options for the current document.
func (s *Session) scope() []chromedp.QueryOption {
	if s.frame == nil {
		return []chromedp.QueryOption{chromedp.ByQuery}
	}
	return []chromedp.QueryOption{chromedp.ByQuery, chromedp.FromNode(s.frame)}
}
