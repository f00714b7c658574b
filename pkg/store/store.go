// Package store persists essay documents and the ingestion index.
package store

import (
	"context"

	"github.com/dtnitsch/essay-ingest/models"
)

// Store is the document store plus the index the pipeline commits against.
// Implementations assume a single writer.
type Store interface {
	// Load returns the last committed index, or an empty one when none exists.
	Load(ctx context.Context) (*models.Index, error)

	// Commit durably replaces the index with ix. A failed commit leaves the previous index readable.
	Commit(ctx context.Context, ix *models.Index) error

	// Put durably writes one document, replacing any previous record, and returns its location.
	Put(ctx context.Context, doc *models.Document) (string, error)

	// Get returns the stored document for id, or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Document, error)

	// Delete removes the document for id. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error
}
