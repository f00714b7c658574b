package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/storage"
)

const (
	EssaysDir = "essays"
	IndexFile = "index.json"

	frontmatterDelim = "---\n"
	notesHeading     = "\n\n## Notes\n\n"
)

// indexDocument is the on-disk shape of index.json.
type indexDocument struct {
	Essays      []models.Summary `json:"essays"`
	TotalCount  int              `json:"total_count"`
	LastUpdated time.Time        `json:"last_updated"`
}

// FileStore keeps one markdown file per essay under <dir>/essays and the index in <dir>/index.json.
type FileStore struct {
	dir     string
	storage *storage.Storage
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, storage: &storage.Storage{}}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// IndexPath returns the location of index.json.
func (s *FileStore) IndexPath() string {
	return filepath.Join(s.dir, IndexFile)
}

func (s *FileStore) documentPath(id string) string {
	return filepath.Join(s.dir, EssaysDir, id+".md")
}

func (s *FileStore) Load(ctx context.Context) (*models.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.storage.ReadFile(s.IndexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewIndex(), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIndex(data)
}

func decodeIndex(data []byte) (*models.Index, error) {
	var raw indexDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}

	ix := models.NewIndex()
	for _, s := range raw.Essays {
		if ix.Has(s.ID) {
			return nil, &models.InvariantError{TotalCount: raw.TotalCount, Entries: len(raw.Essays), Key: s.ID, EntryID: s.ID}
		}
		ix.Entries[s.ID] = s
	}
	ix.TotalCount = raw.TotalCount
	ix.LastUpdated = raw.LastUpdated

	if err := ix.Validate(); err != nil {
		return nil, err
	}
	return ix, nil
}

func (s *FileStore) Commit(ctx context.Context, ix *models.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ix.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(indexDocument{
		Essays:      ix.Sorted(),
		TotalCount:  ix.TotalCount,
		LastUpdated: ix.LastUpdated,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := s.storage.SaveFile(s.IndexPath(), data); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersist, err)
	}

	// Read back what a later run will load.
	written, err := s.storage.ReadFile(s.IndexPath())
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	reloaded, err := decodeIndex(written)
	if err != nil {
		return err
	}
	if reloaded.TotalCount != ix.TotalCount {
		return &models.InvariantError{TotalCount: reloaded.TotalCount, Entries: ix.TotalCount}
	}
	return nil
}

func (s *FileStore) Put(ctx context.Context, doc *models.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := renderMarkdown(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	if err := s.storage.SaveFile(s.documentPath(doc.ID), data); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	return filepath.ToSlash(filepath.Join(EssaysDir, doc.ID+".md")), nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.storage.ReadFile(s.documentPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("essay %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return parseMarkdown(data)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.storage.RemoveFile(s.documentPath(id)); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	return nil
}

// renderMarkdown writes the document as YAML frontmatter, a title heading, the body and a Notes section.
func renderMarkdown(doc *models.Document) ([]byte, error) {
	front, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(frontmatterDelim)
	b.Write(front)
	b.WriteString(frontmatterDelim)
	b.WriteString("\n# ")
	b.WriteString(doc.Title)
	b.WriteString("\n\n")
	b.WriteString(doc.Body)
	if len(doc.Footnotes) > 0 {
		b.WriteString(notesHeading)
		for i, note := range doc.Footnotes {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(note)
		}
	}
	b.WriteString("\n")
	return b.Bytes(), nil
}

// parseMarkdown reverses renderMarkdown. Footnotes come from the frontmatter.
func parseMarkdown(data []byte) (*models.Document, error) {
	text := string(data)
	if !strings.HasPrefix(text, frontmatterDelim) {
		return nil, errors.New("document has no frontmatter")
	}
	rest := text[len(frontmatterDelim):]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return nil, errors.New("document frontmatter is not terminated")
	}

	var doc models.Document
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	if doc.Footnotes == nil {
		doc.Footnotes = []string{}
	}

	body := rest[end+1+len(frontmatterDelim):]
	body = strings.TrimPrefix(body, "\n")
	if strings.HasPrefix(body, "# ") {
		if nl := strings.Index(body, "\n"); nl >= 0 {
			body = body[nl+1:]
		} else {
			body = ""
		}
	}
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")
	if len(doc.Footnotes) > 0 {
		if i := strings.LastIndex(body, notesHeading); i >= 0 {
			body = body[:i]
		}
	}
	doc.Body = body
	return &doc, nil
}
