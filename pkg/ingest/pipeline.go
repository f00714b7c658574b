// Package ingest runs one ingestion pass: fetch the listing, diff it against the
// committed index, fetch and extract each pending essay, persist it, and commit
// a new index snapshot.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/dtnitsch/essay-ingest/internal/common"
	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/analytics"
	"github.com/dtnitsch/essay-ingest/pkg/parser"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

// Fetcher retrieves pages: the listing as a parsed document, essays as raw bytes.
type Fetcher interface {
	GetHtml(ctx context.Context, url string) (*goquery.Document, error)
	GetHtmlBytes(ctx context.Context, url string) ([]byte, error)
}

// Recorder receives run lifecycle events. It is best-effort: errors are logged, never fatal.
type Recorder interface {
	StartRun(ctx context.Context, report *models.RunReport) error
	RecordAttempt(ctx context.Context, a models.FetchAttempt) error
	FinishRun(ctx context.Context, report *models.RunReport) error
}

// Options are the per-run inputs.
type Options struct {
	ListingURL   string
	ExcludePages []string
	Force        bool
	// TouchOnEmpty commits a new lastUpdated when the listing has no essay links.
	TouchOnEmpty bool
}

// OptionsFromConfig maps the runtime config onto run options.
func OptionsFromConfig(cfg *models.Config, force bool) Options {
	return Options{
		ListingURL:   cfg.ListingURL,
		ExcludePages: cfg.ExcludePages,
		Force:        force,
		TouchOnEmpty: cfg.TouchOnEmpty,
	}
}

type Pipeline struct {
	fetcher   Fetcher
	store     store.Store
	parser    *parser.Parser
	analytics *analytics.Analytics
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
	newRunID  func() string
}

type Option func(*Pipeline)

// WithRecorder attaches a run ledger.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock overrides the run clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunID overrides run id generation.
func WithRunID(newID func() string) Option {
	return func(p *Pipeline) { p.newRunID = newID }
}

func New(f Fetcher, s store.Store, a *analytics.Analytics, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a == nil {
		a = analytics.New(nil)
	}
	p := &Pipeline{
		fetcher:   f,
		store:     s,
		parser:    &parser.Parser{},
		analytics: a,
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one ingestion pass and returns its report. The error is non-nil only
// when the run failed as a whole; per-document failures are in the report's outcomes.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*models.RunReport, error) {
	mode := models.ModeIncremental
	if opts.Force {
		mode = models.ModeForced
	}
	runTime := p.now().UTC()
	report := &models.RunReport{
		RunID:      p.newRunID(),
		Mode:       mode,
		ListingURL: opts.ListingURL,
		StartedAt:  runTime,
		Phase:      models.PhaseIdle,
		Outcomes:   []models.DocumentOutcome{},
	}

	p.logger.Info("Starting ingestion run", "run_id", report.RunID, "mode", mode, "listing_url", opts.ListingURL)
	p.recordStart(ctx, report)

	err := p.run(ctx, opts, report, runTime)

	report.FinishedAt = p.now().UTC()
	if err != nil {
		report.Error = err.Error()
	}
	p.recordFinish(ctx, report)

	if err != nil {
		p.logger.Error("Ingestion run failed", "run_id", report.RunID, "phase", report.Phase, "error", err)
		return report, err
	}
	p.logger.Info("Ingestion run finished", "run_id", report.RunID, "phase", report.Phase,
		"discovered", report.Discovered, "skipped", report.Skipped, "ingested", report.Ingested,
		"failed", report.Failed, "pruned", report.Pruned, "committed", report.Committed)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, opts Options, report *models.RunReport, runTime time.Time) error {
	if err := ctx.Err(); err != nil {
		report.Phase = models.PhaseCancelled
		return err
	}
	current, err := p.store.Load(ctx)
	if err != nil {
		report.Phase = models.PhasePersistFailed
		return fmt.Errorf("failed to load index: %w", err)
	}
	report.IndexSize = current.TotalCount

	links, err := p.discover(ctx, opts, report.RunID)
	if err != nil {
		if ctx.Err() != nil {
			report.Phase = models.PhaseCancelled
			return ctx.Err()
		}
		report.Phase = models.PhaseListingFetchFailed
		return err
	}
	report.Phase = models.PhaseListingFetched
	report.Discovered = len(links)

	if len(links) == 0 {
		p.logger.Warn("Listing page has no essay links", "listing_url", opts.ListingURL)
		return p.handleEmptyListing(ctx, opts, report, current, runTime)
	}

	pending := Diff(links, current, opts.Force)
	report.Phase = models.PhaseDiffComputed
	report.Skipped = len(links) - len(pending)
	p.logger.Info("Diff computed", "discovered", len(links), "pending", len(pending), "skipped", report.Skipped)

	next := current.Clone()
	for _, link := range pending {
		if err := ctx.Err(); err != nil {
			report.Phase = models.PhaseCancelled
			return err
		}
		report.Phase = models.PhaseFetchingDocument

		doc, err := p.ingestOne(ctx, report.RunID, link, runTime)
		if err != nil {
			if ctx.Err() != nil {
				report.Phase = models.PhaseCancelled
				return ctx.Err()
			}
			report.Failed++
			report.Outcomes = append(report.Outcomes, models.DocumentOutcome{
				ID:        link.ID,
				URL:       link.SourceURL,
				Status:    models.OutcomeFailed,
				ErrorType: models.ErrorKind(err),
				Error:     err.Error(),
			})
			p.logger.Warn("Skipping essay", "id", link.ID, "url", link.SourceURL, "error", err)
			continue
		}

		location, err := p.store.Put(ctx, doc)
		if err != nil {
			report.Phase = models.PhasePersistFailed
			return fmt.Errorf("failed to store essay %s: %w", doc.ID, err)
		}

		summary := doc.Summarize()
		summary.File = location
		next.Put(summary)
		report.Ingested++
		report.Outcomes = append(report.Outcomes, models.DocumentOutcome{
			ID:        doc.ID,
			URL:       doc.SourceURL,
			Status:    models.OutcomeIngested,
			WordCount: doc.WordCount,
		})
		p.logger.Info("Essay ingested", "id", doc.ID, "title", doc.Title, "word_count", doc.WordCount)
	}

	var pruned []string
	if opts.Force {
		pruned = Prune(next, links)
		report.Pruned = len(pruned)
	}

	if report.Ingested == 0 && report.Pruned == 0 {
		// Nothing changed: leave the committed index untouched.
		report.Phase = models.PhaseIdle
		return nil
	}

	next.LastUpdated = runTime
	if err := p.store.Commit(ctx, next); err != nil {
		report.Phase = models.PhasePersistFailed
		return fmt.Errorf("failed to commit index: %w", err)
	}
	report.Phase = models.PhaseIndexCommitted
	report.Committed = true
	report.IndexSize = next.TotalCount
	p.logger.Info("Index committed", "total_count", next.TotalCount, "last_updated", next.LastUpdated)

	// Records of pruned essays go only after the index stops referencing them.
	for _, id := range pruned {
		if err := p.store.Delete(ctx, id); err != nil {
			p.logger.Warn("Failed to delete pruned essay", "id", id, "error", err)
		}
	}
	return nil
}

// discover fetches and parses the listing page.
func (p *Pipeline) discover(ctx context.Context, opts Options, runID string) ([]models.Link, error) {
	doc, err := p.fetcher.GetHtml(ctx, opts.ListingURL)
	p.recordAttempt(ctx, runID, "", opts.ListingURL, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrListingFetch, err)
	}

	links, err := p.parser.ParseListing(doc, opts.ListingURL, opts.ExcludePages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrListingFetch, err)
	}
	return links, nil
}

func (p *Pipeline) handleEmptyListing(ctx context.Context, opts Options, report *models.RunReport, current *models.Index, runTime time.Time) error {
	if !opts.TouchOnEmpty {
		report.Phase = models.PhaseIdle
		return nil
	}
	next := current.Clone()
	next.LastUpdated = runTime
	if err := p.store.Commit(ctx, next); err != nil {
		report.Phase = models.PhasePersistFailed
		return fmt.Errorf("failed to commit index: %w", err)
	}
	report.Phase = models.PhaseIndexCommitted
	report.Committed = true
	return nil
}

// ingestOne fetches one essay and builds its document. It never writes.
func (p *Pipeline) ingestOne(ctx context.Context, runID string, link models.Link, runTime time.Time) (*models.Document, error) {
	p.logger.Debug("Fetching essay", "id", link.ID, "url", link.SourceURL)

	html, err := p.fetcher.GetHtmlBytes(ctx, link.SourceURL)
	p.recordAttempt(ctx, runID, link.ID, link.SourceURL, err)
	if err != nil {
		return nil, err
	}

	ex, err := p.parser.ParseEssay(link.SourceURL, html, link.Title)
	if err != nil {
		return nil, err
	}
	if ex.Fallback {
		p.logger.Debug("Essay body extracted by readability fallback", "id", link.ID)
	}

	profile := p.analytics.Profile(ex.Body)
	return &models.Document{
		ID:              link.ID,
		Title:           ex.Title,
		PublishedPeriod: ex.Period,
		SourceURL:       link.SourceURL,
		Body:            ex.Body,
		Footnotes:       ex.Footnotes,
		WordCount:       profile.WordCount,
		IngestedAt:      runTime,
		ContentHash:     common.ContentHash(ex.Body, ex.Footnotes),
		Language:        profile.Language,
		Keywords:        profile.Keywords,
	}, nil
}

// Diff returns the links that need fetching: all of them when forced, else those not yet indexed.
func Diff(links []models.Link, current *models.Index, force bool) []models.Link {
	if force {
		return links
	}
	var pending []models.Link
	for _, link := range links {
		if !current.Has(link.ID) {
			pending = append(pending, link)
		}
	}
	return pending
}

// Prune removes entries that are no longer listed and returns their ids.
func Prune(ix *models.Index, links []models.Link) []string {
	listed := make(map[string]struct{}, len(links))
	for _, link := range links {
		listed[link.ID] = struct{}{}
	}
	var removed []string
	for id := range ix.Entries {
		if _, ok := listed[id]; !ok {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		ix.Remove(id)
	}
	return removed
}

func (p *Pipeline) recordStart(ctx context.Context, report *models.RunReport) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.StartRun(context.WithoutCancel(ctx), report); err != nil {
		p.logger.Warn("Failed to record run start", "run_id", report.RunID, "error", err)
	}
}

// The ledger calls ignore cancellation so a cancelled run is still recorded.
func (p *Pipeline) recordFinish(ctx context.Context, report *models.RunReport) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.FinishRun(context.WithoutCancel(ctx), report); err != nil {
		p.logger.Warn("Failed to record run finish", "run_id", report.RunID, "error", err)
	}
}

func (p *Pipeline) recordAttempt(ctx context.Context, runID, docID, url string, fetchErr error) {
	if p.recorder == nil {
		return
	}
	a := models.FetchAttempt{
		RunID:      runID,
		DocumentID: docID,
		URL:        url,
		StatusCode: http.StatusOK,
		Success:    fetchErr == nil,
		At:         p.now().UTC(),
	}
	if fetchErr != nil {
		a.StatusCode = 0
		var fe *models.FetchError
		if errors.As(fetchErr, &fe) {
			a.StatusCode = fe.StatusCode
		}
		a.ErrorType = models.ErrorKind(fetchErr)
	}
	if err := p.recorder.RecordAttempt(context.WithoutCancel(ctx), a); err != nil {
		p.logger.Warn("Failed to record fetch attempt", "url", url, "error", err)
	}
}
