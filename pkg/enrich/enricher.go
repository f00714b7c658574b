package enrich

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

// Ledger stores enrichment records.
type Ledger interface {
	ListEnrichments(ctx context.Context) (map[string]*models.Enrichment, error)
	SaveEnrichment(ctx context.Context, e *models.Enrichment) error
}

// Options select which essays are enriched.
type Options struct {
	// Limit caps how many index entries are considered, in index order. Zero means all.
	Limit int
	// Force re-enriches essays that already have a record.
	Force bool
}

// Result counts what an enrichment pass did.
type Result struct {
	Processed int `json:"processed" yaml:"processed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

type Enricher struct {
	store      store.Store
	ledger     Ledger
	classifier Classifier
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time
}

// NewEnricher paces classifier calls to at most one per delay.
func NewEnricher(s store.Store, ledger Ledger, c Classifier, delay time.Duration, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Enricher{
		store:      s,
		ledger:     ledger,
		classifier: c,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}
}

// Run enriches the indexed essays. Per-essay failures are logged and counted; only
// failures to read the index or the ledger, or cancellation, end the pass early.
func (e *Enricher) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result

	ix, err := e.store.Load(ctx)
	if err != nil {
		return res, err
	}
	existing, err := e.ledger.ListEnrichments(ctx)
	if err != nil {
		return res, err
	}

	entries := ix.Sorted()
	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}
	e.logger.Info("Starting enrichment", "essays", len(entries), "classifier", e.classifier.Name(),
		"model", e.classifier.Model(), "force", opts.Force)

	for _, entry := range entries {
		if _, done := existing[entry.ID]; done && !opts.Force {
			res.Skipped++
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return res, err
		}

		if err := e.enrichOne(ctx, entry.ID); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			e.logger.Warn("Enrichment failed", "id", entry.ID, "error", err)
			continue
		}
		res.Processed++
		e.logger.Info("Essay enriched", "id", entry.ID, "title", entry.Title)
	}

	e.logger.Info("Enrichment finished", "processed", res.Processed, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (e *Enricher) enrichOne(ctx context.Context, id string) error {
	doc, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	meta, err := e.classifier.Classify(ctx, doc)
	if err != nil {
		return err
	}
	meta.DocumentID = id
	meta.Classifier = e.classifier.Name()
	meta.Model = e.classifier.Model()
	meta.EnrichedAt = e.now().UTC()
	return e.ledger.SaveEnrichment(ctx, meta)
}
