// Package mirror queries the JSON REST mirror of the procurement bulletin.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-resty/resty/v2"

	"pcc-tenders/config"
	"pcc-tenders/models"
	"pcc-tenders/utils"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	unitPath = "/unit/{unit}/{month}"
)

var (
	ErrUpstreamStatus = errors.New("mirror: upstream returned non-success status")
	ErrInvalidMonth   = errors.New("mirror: month must be YYYYMM or empty")
	ErrEmptyUnit      = errors.New("mirror: unit name is empty")
	ErrNotArray       = errors.New("mirror: response body is not a JSON array")
)

// StatusError is a non-2xx mirror answer. It matches ErrUpstreamStatus
// under errors.Is.
type StatusError struct {
	Code   int
	Status string
	Unit   string
	Month  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s for %s/%s", ErrUpstreamStatus, e.Status, e.Unit, e.Month)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// Temporary reports whether the same request may succeed later: server
// errors and 429, but not other client errors.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

var monthRegexp = regexp.MustCompile(`^\d{6}$`)

// Client issues one GET per (unit, month) against the mirror. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *utils.Logger
}

// New creates a Client for cfg.MirrorBaseURL bounded by cfg.HTTPTimeout.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.MirrorBaseURL)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")
	client.SetTimeout(cfg.HTTPTimeout)

	return &Client{http: client, logger: logger}
}

// FetchUnitMonth returns the tenders of unit for month. An empty month asks
// for the most recent month the mirror has. Every row is tagged with unit.
// A non-2xx answer is returned as an error wrapping ErrUpstreamStatus; an
// empty JSON array is a zero-row table.
func (c *Client) FetchUnitMonth(ctx context.Context, unit, month string) (*models.RawTable, error) {
	if unit == "" {
		return nil, ErrEmptyUnit
	}
	if month != "" && !monthRegexp.MatchString(month) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"unit":  unit,
			"month": month,
		}).
		Get(unitPath)
	if err != nil {
		return nil, fmt.Errorf("mirror: get %s/%s: %w", unit, month, err)
	}
	if !res.IsSuccess() {
		return nil, &StatusError{Code: res.StatusCode(), Status: res.Status(), Unit: unit, Month: month}
	}

	table, err := parseTenders(unit, res.Body())
	if err != nil {
		return nil, fmt.Errorf("mirror: decode %s/%s: %w", unit, month, err)
	}

	c.logger.Debug("[mirror] %s/%s: %d tenders", unit, monthLabel(month), table.Len())
	return table, nil
}

func monthLabel(month string) string {
	if month == "" {
		return "latest"
	}
	return month
}
