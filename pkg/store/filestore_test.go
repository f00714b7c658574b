package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/essay-ingest/models"
)

func period(s string) *string { return &s }

func sampleDocument() *models.Document {
	lang := "en"
	return &models.Document{
		ID:              "greatwork",
		Title:           "How to Do Great Work",
		PublishedPeriod: period("2023-07"),
		SourceURL:       "http://paulgraham.com/greatwork.html",
		Body:            "First paragraph.\n\nSecond paragraph.",
		Footnotes:       []string{"[1] One.", "[2] Two."},
		WordCount:       4,
		IngestedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		ContentHash:     "abc123",
		Language:        &lang,
		Keywords:        []string{"paragraph"},
	}
}

func TestFileStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	doc := sampleDocument()

	rel, err := s.Put(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "essays/greatwork.md", rel)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), rel))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# How to Do Great Work\n\nFirst paragraph.")
	assert.Contains(t, string(raw), "## Notes\n\n[1] One.\n\n[2] Two.")

	got, err := s.Get(ctx, "greatwork")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Body, got.Body)
	assert.Equal(t, doc.Footnotes, got.Footnotes)
	assert.Equal(t, *doc.PublishedPeriod, *got.PublishedPeriod)
	assert.True(t, doc.IngestedAt.Equal(got.IngestedAt))
	assert.Equal(t, doc.WordCount, got.WordCount)
}

func TestFileStore_GetWithoutDateOrNotes(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	doc := sampleDocument()
	doc.PublishedPeriod = nil
	doc.Footnotes = []string{}

	_, err := s.Put(ctx, doc)
	require.NoError(t, err)

	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PublishedPeriod)
	assert.Empty(t, got.Footnotes)
	assert.Equal(t, doc.Body, got.Body)
}

func TestFileStore_GetMissing(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestFileStore_LoadMissingIndexIsEmpty(t *testing.T) {
	ix, err := NewFileStore(t.TempDir()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ix.TotalCount)
	assert.Empty(t, ix.Entries)
}

func TestFileStore_CommitAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	ix := models.NewIndex()
	older := sampleDocument().Summarize()
	older.ID, older.Title, older.PublishedPeriod = "old", "Old", period("2001-01")
	undated := sampleDocument().Summarize()
	undated.ID, undated.Title, undated.PublishedPeriod = "undated", "Undated", nil
	ix.Put(sampleDocument().Summarize())
	ix.Put(older)
	ix.Put(undated)
	ix.LastUpdated = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Commit(ctx, ix))

	raw, err := os.ReadFile(s.IndexPath())
	require.NoError(t, err)
	var onDisk indexDocument
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, 3, onDisk.TotalCount)
	require.Len(t, onDisk.Essays, 3)
	assert.Equal(t, []string{"greatwork", "old", "undated"},
		[]string{onDisk.Essays[0].ID, onDisk.Essays[1].ID, onDisk.Essays[2].ID})

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TotalCount)
	assert.True(t, loaded.Has("undated"))
	assert.True(t, ix.LastUpdated.Equal(loaded.LastUpdated))
}

func TestFileStore_CommitRejectsBrokenInvariant(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	good := models.NewIndex()
	good.Put(sampleDocument().Summarize())
	require.NoError(t, s.Commit(ctx, good))

	bad := good.Clone()
	bad.TotalCount = 7
	err := s.Commit(ctx, bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIndexInvariant))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalCount, "previous index must survive a rejected commit")
}

func TestFileStore_LoadRejectsCorruptCount(t *testing.T) {
	s := NewFileStore(t.TempDir())
	require.NoError(t, os.WriteFile(s.IndexPath(), []byte(`{"essays":[{"id":"a","title":"A"}],"total_count":2}`), 0o644))

	_, err := s.Load(context.Background())
	assert.True(t, errors.Is(err, models.ErrIndexInvariant))
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	_, err := s.Put(ctx, sampleDocument())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "greatwork"))
	require.NoError(t, s.Delete(ctx, "greatwork"))
	_, err = s.Get(ctx, "greatwork")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemoryStore_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.PutErr = func(id string) error {
		if id == "bad" {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := m.Put(ctx, &models.Document{ID: "bad"})
	assert.True(t, errors.Is(err, models.ErrPersist))

	m.CommitErr = errors.New("rename failed")
	err = m.Commit(ctx, models.NewIndex())
	assert.True(t, errors.Is(err, models.ErrPersist))
	assert.Zero(t, m.Commits)
}
