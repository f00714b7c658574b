package models

import "time"

// Enrichment is the classifier's structured description of one essay.
type Enrichment struct {
	DocumentID        string    `json:"document_id" yaml:"document_id"`
	Summary           string    `json:"summary" yaml:"summary"`
	Topics            []string  `json:"topics" yaml:"topics"`
	KeyConcepts       []string  `json:"key_concepts" yaml:"key_concepts"`
	QuestionsAnswered []string  `json:"questions_answered" yaml:"questions_answered"`
	TargetAudience    []string  `json:"target_audience" yaml:"target_audience"`
	DifficultyLevel   string    `json:"difficulty_level" yaml:"difficulty_level"`
	Classifier        string    `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Model             string    `json:"model,omitempty" yaml:"model,omitempty"`
	EnrichedAt        time.Time `json:"enriched_at" yaml:"enriched_at"`
}
