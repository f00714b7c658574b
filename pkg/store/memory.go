package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dtnitsch/essay-ingest/models"
)

// MemoryStore is an in-process Store. Failures can be injected for tests.
type MemoryStore struct {
	mu    sync.Mutex
	index *models.Index
	docs  map[string]models.Document

	// PutErr, when set, is consulted before every Put.
	PutErr func(id string) error
	// CommitErr, when set, fails every Commit.
	CommitErr error

	Puts    int
	Commits int
	Deletes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: models.NewIndex(),
		docs:  make(map[string]models.Document),
	}
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Clone(), nil
}

func (m *MemoryStore) Commit(ctx context.Context, ix *models.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ix.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return fmt.Errorf("%w: %w", models.ErrPersist, m.CommitErr)
	}
	m.index = ix.Clone()
	m.Commits++
	return nil
}

func (m *MemoryStore) Put(ctx context.Context, doc *models.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		if err := m.PutErr(doc.ID); err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrPersist, err)
		}
	}
	stored := *doc
	stored.Footnotes = append([]string{}, doc.Footnotes...)
	m.docs[doc.ID] = stored
	m.Puts++
	return "memory://" + doc.ID, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("essay %q: %w", id, models.ErrNotFound)
	}
	return &doc, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	m.Deletes++
	return nil
}

// Documents returns the number of stored documents.
func (m *MemoryStore) Documents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}
