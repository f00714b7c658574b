package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

const metadataJSON = `{"summary":"On doing great work.","topics":["ambition","curiosity"],"key_concepts":["interest"],"questions_answered":["How?"],"target_audience":["founders"],"difficulty_level":"intermediate"}`

func TestParseMetadata(t *testing.T) {
	e, err := ParseMetadata(metadataJSON)
	require.NoError(t, err)
	assert.Equal(t, "On doing great work.", e.Summary)
	assert.Equal(t, []string{"founders"}, e.TargetAudience)

	fenced, err := ParseMetadata("Here you go:\n```json\n" + metadataJSON + "\n```")
	require.NoError(t, err)
	assert.Equal(t, e.Topics, fenced.Topics)

	_, err = ParseMetadata("I cannot help with that.")
	assert.True(t, errors.Is(err, ErrMalformedResponse))

	_, err = ParseMetadata(`{"difficulty_level":"advanced"}`)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestPrompt_IncludesTitleAndBody(t *testing.T) {
	p := Prompt(&models.Document{Title: "Great Work", Body: "The body text."})
	assert.Contains(t, p, `"Great Work"`)
	assert.Contains(t, p, "The body text.")
	assert.Contains(t, p, "difficulty_level")
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script classifier needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "assistant")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCommandClassifier_ParsesEnvelope(t *testing.T) {
	envelope, err := json.Marshal(map[string]any{"result": "```json\n" + metadataJSON + "\n```", "total_cost_usd": 0.01})
	require.NoError(t, err)
	script := writeScript(t, "cat <<'EOF'\n"+string(envelope)+"\nEOF")

	c := NewCommandClassifier(script, "sonnet", 5*time.Second)
	e, err := c.Classify(context.Background(), &models.Document{ID: "x", Title: "X", Body: "Body."})
	require.NoError(t, err)
	assert.Equal(t, "intermediate", e.DifficultyLevel)
	assert.Equal(t, "cli", c.Name())
	assert.Equal(t, "sonnet", c.Model())
}

func TestCommandClassifier_NonZeroExit(t *testing.T) {
	script := writeScript(t, "echo 'rate limited' >&2\nexit 3")
	_, err := NewCommandClassifier(script, "", time.Second).Classify(context.Background(), &models.Document{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCommandClassifier_Timeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5")
	_, err := NewCommandClassifier(script, "", 50*time.Millisecond).Classify(context.Background(), &models.Document{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAIClassifier(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": metadataJSON},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClassifier("test-key", srv.URL+"/v1", "", 5*time.Second)
	e, err := c.Classify(context.Background(), &models.Document{Title: "X", Body: "Body."})
	require.NoError(t, err)
	assert.Equal(t, []string{"ambition", "curiosity"}, e.Topics)
	assert.Equal(t, "gpt-3.5-turbo", gotModel)
}

type stubClassifier struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (s *stubClassifier) Name() string  { return "stub" }
func (s *stubClassifier) Model() string { return "stub-1" }

func (s *stubClassifier) Classify(ctx context.Context, doc *models.Document) (*models.Enrichment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, doc.ID)
	if s.fail[doc.ID] {
		return nil, errors.New("classifier unavailable")
	}
	return &models.Enrichment{Summary: "About " + doc.Title}, nil
}

type memoryLedger struct {
	records map[string]*models.Enrichment
}

func (l *memoryLedger) ListEnrichments(ctx context.Context) (map[string]*models.Enrichment, error) {
	out := make(map[string]*models.Enrichment, len(l.records))
	for k, v := range l.records {
		out[k] = v
	}
	return out, nil
}

func (l *memoryLedger) SaveEnrichment(ctx context.Context, e *models.Enrichment) error {
	l.records[e.DocumentID] = e
	return nil
}

func seedStore(t *testing.T, ids ...string) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	ix := models.NewIndex()
	for i, id := range ids {
		period := "2020-0" + string(rune('1'+i))
		doc := &models.Document{ID: id, Title: strings.ToUpper(id), PublishedPeriod: &period, Body: "text"}
		_, err := st.Put(ctx, doc)
		require.NoError(t, err)
		ix.Put(doc.Summarize())
	}
	require.NoError(t, st.Commit(ctx, ix))
	return st
}

func TestEnricher_SkipsEnrichedUnlessForced(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, "a", "b", "c")
	ledger := &memoryLedger{records: map[string]*models.Enrichment{"a": {DocumentID: "a"}}}
	cls := &stubClassifier{fail: map[string]bool{"b": true}}

	res, err := NewEnricher(st, ledger, cls, 0, nil).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Skipped: 1, Failed: 1}, res)
	assert.ElementsMatch(t, []string{"b", "c"}, cls.calls)

	saved := ledger.records["c"]
	require.NotNil(t, saved)
	assert.Equal(t, "c", saved.DocumentID)
	assert.Equal(t, "stub", saved.Classifier)
	assert.Equal(t, "stub-1", saved.Model)
	assert.False(t, saved.EnrichedAt.IsZero())

	cls.fail = nil
	res, err = NewEnricher(st, ledger, cls, 0, nil).Run(ctx, Options{Force: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
}

func TestEnricher_PacesCalls(t *testing.T) {
	st := seedStore(t, "a", "b", "c")
	ledger := &memoryLedger{records: map[string]*models.Enrichment{}}

	start := time.Now()
	_, err := NewEnricher(st, ledger, &stubClassifier{}, 30*time.Millisecond, nil).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
