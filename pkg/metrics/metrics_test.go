package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/essay-ingest/models"
)

func textfile(t *testing.T, m *RunMetrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "essay_ingest.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestObserve(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := New()
	m.Observe(&models.RunReport{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Phase:      models.PhaseIndexCommitted,
		Discovered: 10,
		Skipped:    7,
		Ingested:   2,
		Failed:     1,
		IndexSize:  9,
		Committed:  true,
	})

	out := textfile(t, m)
	assert.Contains(t, out, `essay_ingest_documents{outcome="discovered"} 10`)
	assert.Contains(t, out, `essay_ingest_documents{outcome="failed"} 1`)
	assert.Contains(t, out, "essay_ingest_run_duration_seconds 2\n")
	assert.Contains(t, out, "essay_ingest_index_size 9\n")
	assert.Contains(t, out, "essay_ingest_run_success 1\n")
	assert.Contains(t, out, "essay_ingest_last_success_timestamp_seconds 1.709294402e+09\n")

	m.Observe(&models.RunReport{Phase: models.PhaseListingFetchFailed, Error: "listing fetch failed"})
	out = textfile(t, m)
	assert.Contains(t, out, "essay_ingest_run_success 0\n")
	assert.Contains(t, out, "essay_ingest_last_success_timestamp_seconds 1.709294402e+09\n")
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(&models.RunReport{Phase: models.PhaseIdle, IndexSize: 3})

	path := filepath.Join(t.TempDir(), "essay_ingest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# TYPE essay_ingest_index_size gauge")
	assert.Contains(t, string(data), "essay_ingest_index_size 3")
	assert.Contains(t, string(data), `essay_ingest_documents{outcome="ingested"} 0`)

	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")))
}
