package models

import (
	"errors"
	"fmt"
)

var (
	// ErrListingFetch indicates the listing page could not be retrieved. Fatal for a run.
	ErrListingFetch = errors.New("listing fetch failed")

	// ErrNoContent indicates the essay body could not be located on the page.
	ErrNoContent = errors.New("no essay content found")

	// ErrPersist indicates a document or index write failed. Fatal for a run.
	ErrPersist = errors.New("persistence failed")

	// ErrIndexInvariant indicates the index count invariant does not hold.
	ErrIndexInvariant = errors.New("index invariant violated")

	// ErrNotFound indicates a requested document or record does not exist.
	ErrNotFound = errors.New("not found")
)

// InvariantError describes an index whose bookkeeping disagrees with its entries.
type InvariantError struct {
	TotalCount int
	Entries    int
	Key        string
	EntryID    string
}

func (e *InvariantError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("index entry keyed %q carries id %q", e.Key, e.EntryID)
	}
	return fmt.Sprintf("index total_count %d does not match %d entries", e.TotalCount, e.Entries)
}

// Unwrap lets errors.Is match ErrIndexInvariant.
func (e *InvariantError) Unwrap() error { return ErrIndexInvariant }

// FetchError carries the HTTP status of a failed fetch, 0 for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed.
func (e *FetchError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// ErrorKind classifies err for reports and the run ledger.
func ErrorKind(err error) string {
	var fe *FetchError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return "fetch_error"
	case errors.Is(err, ErrNoContent):
		return "parse_error"
	case errors.Is(err, ErrPersist):
		return "persist_error"
	case errors.Is(err, ErrIndexInvariant):
		return "invariant_error"
	}
	return "error"
}
