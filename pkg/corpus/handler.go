// Package corpus answers read-only queries over the ingested essays:
// listing the index, showing one essay, weighted search and keyword aggregation.
package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/analytics"
	"github.com/dtnitsch/essay-ingest/pkg/mapreduce"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

const (
	defaultSearchLimit   = 20
	defaultKeywordsLimit = 25
	minKeywordLen        = 3
)

// EnrichmentSource supplies stored classifier metadata. *db.DB satisfies it.
type EnrichmentSource interface {
	ListEnrichments(ctx context.Context) (map[string]*models.Enrichment, error)
	GetEnrichment(ctx context.Context, documentID string) (*models.Enrichment, error)
}

// Corpus serves queries from a document store and an optional enrichment source.
type Corpus struct {
	store       store.Store
	enrichments EnrichmentSource
	analytics   *analytics.Analytics
}

// New creates a Corpus. enrichments may be nil.
func New(s store.Store, enrichments EnrichmentSource) *Corpus {
	return &Corpus{store: s, enrichments: enrichments, analytics: analytics.New(nil)}
}

// Essay is the show result: the document plus its enrichment, when one exists.
type Essay struct {
	Document   *models.Document   `json:"document" yaml:"document"`
	Enrichment *models.Enrichment `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
}

// Handle dispatches a corpus request to the appropriate verb handler.
func (c *Corpus) Handle(ctx context.Context, req models.Request) models.Response {
	if !IsValidVerb(req.Verb) {
		return models.NewUnknownVerbResponse(req.Verb, suggestVerb(req.Verb), AllVerbs())
	}

	switch req.Verb {
	case VerbLIST:
		return c.handleList(ctx, req)
	case VerbSHOW:
		return c.handleShow(ctx, req)
	case VerbSEARCH:
		return c.handleSearch(ctx, req)
	case VerbKEYWORDS:
		return c.handleKeywords(ctx, req)
	default:
		return models.NewUnknownVerbResponse(req.Verb, "", AllVerbs())
	}
}

func (c *Corpus) handleList(ctx context.Context, req models.Request) models.Response {
	ix, err := c.store.Load(ctx)
	if err != nil {
		return models.NewErrorResponse(VerbLIST, err, "Run 'essayctl ingest' to build the index")
	}
	entries := ix.Sorted()
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return models.Response{Verb: VerbLIST, Count: len(entries), Data: entries}
}

func (c *Corpus) handleShow(ctx context.Context, req models.Request) models.Response {
	if req.ID == "" {
		return models.NewErrorResponse(VerbSHOW, errors.New("an essay id is required"),
			"Run 'essayctl list' to see essay ids")
	}
	doc, err := c.store.Get(ctx, req.ID)
	if err != nil {
		return models.NewErrorResponse(VerbSHOW, err, "Run 'essayctl list' to see essay ids")
	}

	essay := Essay{Document: doc}
	if c.enrichments != nil {
		e, err := c.enrichments.GetEnrichment(ctx, req.ID)
		switch {
		case err == nil:
			essay.Enrichment = e
		case !errors.Is(err, models.ErrNotFound):
			return models.NewErrorResponse(VerbSHOW, fmt.Errorf("loading enrichment: %w", err))
		}
	}
	return models.Response{Verb: VerbSHOW, Count: 1, Data: essay}
}

func (c *Corpus) handleSearch(ctx context.Context, req models.Request) models.Response {
	if req.Query == "" {
		return models.NewErrorResponse(VerbSEARCH, errors.New("a search query is required"))
	}
	ix, err := c.store.Load(ctx)
	if err != nil {
		return models.NewErrorResponse(VerbSEARCH, err)
	}

	var enrichments map[string]*models.Enrichment
	if c.enrichments != nil {
		enrichments, err = c.enrichments.ListEnrichments(ctx)
		if err != nil {
			return models.NewErrorResponse(VerbSEARCH, fmt.Errorf("loading enrichments: %w", err))
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	hits := Search(ix, enrichments, req.Query, limit)
	return models.Response{Verb: VerbSEARCH, Count: len(hits), Data: hits}
}

func (c *Corpus) handleKeywords(ctx context.Context, req models.Request) models.Response {
	ix, err := c.store.Load(ctx)
	if err != nil {
		return models.NewErrorResponse(VerbKEYWORDS, err)
	}

	var intermediate []map[string]int
	for _, s := range ix.Sorted() {
		if err := ctx.Err(); err != nil {
			return models.NewErrorResponse(VerbKEYWORDS, err)
		}
		doc, err := c.store.Get(ctx, s.ID)
		if err != nil {
			return models.NewErrorResponse(VerbKEYWORDS, fmt.Errorf("loading %s: %w", s.ID, err))
		}
		intermediate = append(intermediate, mapreduce.Map(doc.Body, c.analytics))
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultKeywordsLimit
	}
	top := mapreduce.TopKeywords(mapreduce.Reduce(intermediate), limit, minKeywordLen)
	return models.Response{Verb: VerbKEYWORDS, Count: len(top), Data: top}
}

// suggestVerb attempts to find a similar verb for typos.
func suggestVerb(verb string) string {
	for _, v := range AllVerbs() {
		if len(verb) >= 2 && len(v) >= 2 && verb[:2] == v[:2] {
			return v
		}
	}
	return ""
}
