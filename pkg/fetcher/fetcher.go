package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/essay-ingest/models"
)

const maxBackoff = 30 * time.Second

// Options configures a Fetcher.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	Delay       time.Duration // minimum spacing between requests to one origin
	MaxAttempts int
	Backoff     time.Duration // wait before the second attempt, doubled after each retry
	Transport   http.RoundTripper
}

// OptionsFromConfig maps the runtime config onto fetcher options.
func OptionsFromConfig(cfg *models.Config) Options {
	return Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		Delay:       cfg.RequestDelay,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.Backoff,
	}
}

// Fetcher retrieves pages one at a time, honouring the politeness gate.
type Fetcher struct {
	client      *http.Client
	gate        *Gate
	userAgent   string
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

func NewFetcher(opts Options, logger *slog.Logger) *Fetcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		gate:        NewGate(opts.Delay),
		userAgent:   opts.UserAgent,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		logger:      logger,
	}
}

// GetHtml fetches url and parses it into a goquery document.
func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	bodyBytes, err := f.GetHtmlBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// GetHtmlBytes fetches url, retrying transport errors, 429 and 5xx with exponential backoff.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	wait := f.backoff
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var fe *models.FetchError
		if !errors.As(err, &fe) || !fe.Retryable() || attempt == f.maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		f.logger.Warn("Fetch failed, retrying", "url", url, "attempt", attempt, "wait", wait.String(), "error", err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if err := f.gate.Wait(ctx, url); err != nil {
		return nil, err
	}
	defer f.gate.Done(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("failed to make HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &models.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return bodyBytes, nil
}
