// Package pcc drives a headless browser against the procurement bulletin
// portal and extracts the first results page per agency.
package pcc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"pcc-tenders/config"
	"pcc-tenders/utils"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	windowWidth  = 1366
	windowHeight = 900
)

// ErrEmptyAgency is returned when FetchFirstPage is called without an agency.
var ErrEmptyAgency = errors.New("pcc: agency name is empty")

// Session owns one browser tab. It is not safe for concurrent use: query
// state and the current frame live in the tab.
type Session struct {
	cfg      *config.Config
	logger   *utils.Logger
	resolver *Resolver

	ctx       context.Context
	cancelTab context.CancelFunc
	cancelAlc context.CancelFunc
	closeOnce sync.Once

	// frame is the results iframe while extraction runs inside it; nil
	// means queries target the top-level document.
	frame *cdp.Node

	// steps of one agency query; Open points them at the browser
	submit      func(ctx context.Context, agency string) error
	trigger     func(ctx context.Context) string
	readResults func(ctx context.Context) (string, error)
}

// Open launches headless Chrome with a fixed window size and a desktop
// user agent. The caller must Close the session.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(windowWidth, windowHeight),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		logger.Info("[pcc] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Logf))

	// starts the browser so launch failures surface here
	if err := chromedp.Run(tabCtx, emulation.SetUserAgentOverride(userAgent)); err != nil {
		cancelTab()
		cancelAlc()
		return nil, fmt.Errorf("pcc: launch browser: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		logger:    logger,
		ctx:       tabCtx,
		cancelTab: cancelTab,
		cancelAlc: cancelAlc,
	}
	s.resolver = NewResolver(s.queryLocators(), s.invokeQueryScript, cfg.LocatorTimeout, logger)
	s.submit = s.submitAgency
	s.trigger = s.resolver.Trigger
	s.readResults = s.resultsMarkup
	return s, nil
}

// Close shuts the tab and the browser process. It is safe to call twice.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancelTab()
		s.cancelAlc()
		s.logger.Debug("[pcc] browser session closed")
	})
	return nil
}

// queryLocators lists the known variants of the query button, oldest first.
func (s *Session) queryLocators() []Locator {
	click := func(sel string, by chromedp.QueryOption) func(context.Context) error {
		return func(ctx context.Context) error {
			return chromedp.Run(ctx,
				chromedp.WaitVisible(sel, by),
				chromedp.WaitEnabled(sel, by),
				chromedp.Click(sel, by),
			)
		}
	}

	return []Locator{
		{Name: "id:queryBtn", Click: click("#queryBtn", chromedp.ByQuery)},
		{Name: "id:doQuery", Click: click("#doQuery", chromedp.ByQuery)},
		{Name: "xpath:a.btn", Click: click(`//a[contains(text(),'查詢')][contains(@class,'btn')]`, chromedp.BySearch)},
		{Name: "xpath:button", Click: click(`//button[contains(text(),'查詢')]`, chromedp.BySearch)},
	}
}

func (s *Session) invokeQueryScript(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`if (typeof goQuery === 'function') goQuery();`, nil),
	)
}
