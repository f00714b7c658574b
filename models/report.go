package models

import "time"

// Phase is a state of the ingestion run state machine.
type Phase string

const (
	PhaseIdle               Phase = "IDLE"
	PhaseListingFetched     Phase = "LISTING_FETCHED"
	PhaseDiffComputed       Phase = "DIFF_COMPUTED"
	PhaseFetchingDocument   Phase = "FETCHING_DOCUMENT"
	PhaseIndexCommitted     Phase = "INDEX_COMMITTED"
	PhaseListingFetchFailed Phase = "LISTING_FETCH_FAILED"
	PhasePersistFailed      Phase = "PERSIST_FAILED"
	PhaseCancelled          Phase = "CANCELLED"
)

// Mode is the ingestion mode of a run.
type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeForced      Mode = "forced"
)

// Outcome statuses for a single document.
const (
	OutcomeIngested = "ingested"
	OutcomeFailed   = "failed"
)

// Link is a candidate essay discovered on the listing page.
type Link struct {
	ID        string `json:"id" yaml:"id"`
	SourceURL string `json:"url" yaml:"url"`
	Title     string `json:"title" yaml:"title"`
}

// DocumentOutcome records what happened to one attempted essay.
type DocumentOutcome struct {
	ID        string `json:"id" yaml:"id"`
	URL       string `json:"url" yaml:"url"`
	Status    string `json:"status" yaml:"status"`
	ErrorType string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	WordCount int    `json:"word_count,omitempty" yaml:"word_count,omitempty"`
}

// RunReport is the structured result of one ingestion run.
type RunReport struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	Mode       Mode              `json:"mode" yaml:"mode"`
	ListingURL string            `json:"listing_url" yaml:"listing_url"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
	Phase      Phase             `json:"phase" yaml:"phase"`
	Discovered int               `json:"discovered" yaml:"discovered"`
	Skipped    int               `json:"skipped" yaml:"skipped"`
	Ingested   int               `json:"ingested" yaml:"ingested"`
	Failed     int               `json:"failed" yaml:"failed"`
	Pruned     int               `json:"pruned" yaml:"pruned"`
	IndexSize  int               `json:"index_size" yaml:"index_size"`
	Committed  bool              `json:"committed" yaml:"committed"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	Outcomes   []DocumentOutcome `json:"outcomes" yaml:"outcomes"`
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run ended in a consistent, non-error state.
func (r *RunReport) Succeeded() bool {
	return r.Error == "" && (r.Phase == PhaseIndexCommitted || r.Phase == PhaseIdle)
}

// FetchAttempt is one HTTP retrieval made during a run, as recorded in the run ledger.
type FetchAttempt struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	DocumentID string    `json:"document_id,omitempty" yaml:"document_id,omitempty"` // empty for the listing
	URL        string    `json:"url" yaml:"url"`
	StatusCode int       `json:"status_code" yaml:"status_code"`
	ErrorType  string    `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Success    bool      `json:"success" yaml:"success"`
	At         time.Time `json:"at" yaml:"at"`
}
