package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dtnitsch/essay-ingest/models"
)

// SaveEnrichment stores or replaces the enrichment for an essay (upsert).
func (db *DB) SaveEnrichment(ctx context.Context, e *models.Enrichment) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode enrichment: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO enrichments (document_id, classifier, model, payload, enriched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			classifier = excluded.classifier,
			model = excluded.model,
			payload = excluded.payload,
			enriched_at = excluded.enriched_at
	`, e.DocumentID, e.Classifier, e.Model, string(payload), e.EnrichedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save enrichment: %w", err)
	}
	return nil
}

// GetEnrichment returns the enrichment for an essay, or models.ErrNotFound.
func (db *DB) GetEnrichment(ctx context.Context, documentID string) (*models.Enrichment, error) {
	var payload string
	err := db.QueryRowContext(ctx, "SELECT payload FROM enrichments WHERE document_id = ?", documentID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enrichment %s: %w", documentID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrichment: %w", err)
	}
	return decodeEnrichment(payload)
}

// ListEnrichments returns every stored enrichment keyed by essay id.
func (db *DB) ListEnrichments(ctx context.Context) (map[string]*models.Enrichment, error) {
	rows, err := db.QueryContext(ctx, "SELECT payload FROM enrichments")
	if err != nil {
		return nil, fmt.Errorf("failed to list enrichments: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.Enrichment)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan enrichment: %w", err)
		}
		e, err := decodeEnrichment(payload)
		if err != nil {
			return nil, err
		}
		out[e.DocumentID] = e
	}
	return out, rows.Err()
}

func decodeEnrichment(payload string) (*models.Enrichment, error) {
	var e models.Enrichment
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment: %w", err)
	}
	return &e, nil
}
