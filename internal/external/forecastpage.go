package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"weatherplugin/internal/types"
)

// maxPageBytes caps how much of a forecast page is read.
const maxPageBytes = 4 << 20

// PageClientConfig holds the configuration for creating a PageClient.
type PageClientConfig struct {
	UserAgent string
	Retry     RetryPolicy

	// Validator runs before every fetch. Nil disables the pre-flight check.
	Validator types.SSRFValidator

	Logger *slog.Logger
}

// PageClient implements ForecastPageFetcher. It downloads the forecast page,
// transcodes it to UTF-8 from its declared charset, and parses it with
// goquery.
type PageClient struct {
	base      *BaseClient
	validator types.SSRFValidator
	logger    *slog.Logger
}

// NewPageClient creates a PageClient with its own "forecast-page" breaker.
func NewPageClient(httpClient *http.Client, cfg PageClientConfig) *PageClient {
	return NewPageClientWithBase(NewBaseClient(httpClient, "forecast-page", cfg.Retry, cfg.UserAgent), cfg)
}

// NewPageClientWithBase creates a PageClient around a pre-configured
// BaseClient.
func NewPageClientWithBase(base *BaseClient, cfg PageClientConfig) *PageClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PageClient{base: base, validator: cfg.Validator, logger: logger}
}

// Base exposes the underlying BaseClient for health probing.
func (c *PageClient) Base() *BaseClient {
	return c.base
}

// FetchPage downloads link and parses it. Only 2xx responses succeed.
func (c *PageClient) FetchPage(ctx context.Context, link string) (*goquery.Document, error) {
	if c.validator != nil {
		if err := c.validator(link); err != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamForecastPage, "forecast link rejected", err)
		}
	}

	resp, err := c.base.Get(ctx, link)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamRateLimited {
			return nil, appErr
		}
		return nil, types.NewAppError(types.ErrCodeUpstreamForecastPage, "forecast page request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.WarnContext(ctx, "forecast page returned non-2xx",
			"fx_link", link,
			"status_code", resp.StatusCode,
		)
		return nil, types.NewAppError(
			types.ErrCodeUpstreamForecastPage,
			fmt.Sprintf("forecast page returned %d", resp.StatusCode),
			nil,
		)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxPageBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecastPage, "unsupported forecast page charset", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecastPage, "failed to parse forecast page", err)
	}
	return doc, nil
}
