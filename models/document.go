// Package models defines the essay records, index snapshot, run report and configuration
// shared by every stage of ingestion.
package models

import (
	"sort"
	"time"
)

// Document is one ingested essay: every field extracted from its page.
type Document struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	PublishedPeriod *string   `json:"date" yaml:"date"` // YYYY-MM, nil when no date was found
	SourceURL       string    `json:"url" yaml:"url"`
	Body            string    `json:"content" yaml:"-"`
	Footnotes       []string  `json:"footnotes" yaml:"footnotes,omitempty"`
	WordCount       int       `json:"word_count" yaml:"word_count"`
	IngestedAt      time.Time `json:"scraped_at" yaml:"scraped_at"`
	ContentHash     string    `json:"content_hash" yaml:"content_hash"`
	Language        *string   `json:"language,omitempty" yaml:"language,omitempty"`
	Keywords        []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Summary is the index view of a Document. Body and footnotes stay in the document store.
type Summary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	PublishedPeriod *string   `json:"date"`
	SourceURL       string    `json:"url"`
	File            string    `json:"file,omitempty"`
	WordCount       int       `json:"word_count"`
	HasFootnotes    bool      `json:"has_footnotes"`
	IngestedAt      time.Time `json:"scraped_at"`
	ContentHash     string    `json:"content_hash"`
	Language        *string   `json:"language,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
}

// Summarize returns the index summary of d.
func (d *Document) Summarize() Summary {
	return Summary{
		ID:              d.ID,
		Title:           d.Title,
		PublishedPeriod: d.PublishedPeriod,
		SourceURL:       d.SourceURL,
		WordCount:       d.WordCount,
		HasFootnotes:    len(d.Footnotes) > 0,
		IngestedAt:      d.IngestedAt,
		ContentHash:     d.ContentHash,
		Language:        d.Language,
		Keywords:        d.Keywords,
	}
}

// Period returns the published period or "" when unknown.
func (s Summary) Period() string {
	if s.PublishedPeriod == nil {
		return ""
	}
	return *s.PublishedPeriod
}

// Index is a snapshot of the durable ledger of ingested essays.
// A snapshot is a value: stages build a new one and hand it to the store to commit.
type Index struct {
	Entries     map[string]Summary
	LastUpdated time.Time
	TotalCount  int
}

// NewIndex returns an empty index snapshot.
func NewIndex() *Index {
	return &Index{Entries: make(map[string]Summary)}
}

// Clone returns a deep-enough copy of the snapshot (entries are copied by value).
func (ix *Index) Clone() *Index {
	out := &Index{
		Entries:     make(map[string]Summary, len(ix.Entries)),
		LastUpdated: ix.LastUpdated,
		TotalCount:  ix.TotalCount,
	}
	for id, s := range ix.Entries {
		out.Entries[id] = s
	}
	return out
}

// Has reports whether id is present in the index.
func (ix *Index) Has(id string) bool {
	_, ok := ix.Entries[id]
	return ok
}

// Put inserts or replaces an entry and keeps TotalCount in step.
func (ix *Index) Put(s Summary) {
	ix.Entries[s.ID] = s
	ix.TotalCount = len(ix.Entries)
}

// Remove deletes an entry and keeps TotalCount in step.
func (ix *Index) Remove(id string) {
	delete(ix.Entries, id)
	ix.TotalCount = len(ix.Entries)
}

// Validate checks the count invariant.
func (ix *Index) Validate() error {
	if ix.TotalCount != len(ix.Entries) {
		return &InvariantError{TotalCount: ix.TotalCount, Entries: len(ix.Entries)}
	}
	for id, s := range ix.Entries {
		if s.ID != id {
			return &InvariantError{TotalCount: ix.TotalCount, Entries: len(ix.Entries), Key: id, EntryID: s.ID}
		}
	}
	return nil
}

// Sorted returns the entries ordered by period then title, most recent first.
// Essays without a period sort last.
func (ix *Index) Sorted() []Summary {
	out := make([]Summary, 0, len(ix.Entries))
	for _, s := range ix.Entries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := periodKey(out[i]), periodKey(out[j])
		if pi != pj {
			return pi > pj
		}
		if out[i].Title != out[j].Title {
			return out[i].Title > out[j].Title
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func periodKey(s Summary) string {
	if s.PublishedPeriod == nil {
		return "0000-00"
	}
	return *s.PublishedPeriod
}
