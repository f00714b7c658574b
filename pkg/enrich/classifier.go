// Package enrich asks an external classifier to describe each ingested essay
// and stores the result in the run ledger.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/essay-ingest/models"
)

// Classifier turns one essay into structured metadata.
type Classifier interface {
	Name() string
	Model() string
	Classify(ctx context.Context, doc *models.Document) (*models.Enrichment, error)
}

// ErrMalformedResponse indicates the classifier answered with something that is not the expected JSON.
var ErrMalformedResponse = errors.New("malformed classifier response")

// maxPromptRunes bounds the essay text sent to a classifier.
const maxPromptRunes = 60000

// Prompt builds the classification prompt for doc.
func Prompt(doc *models.Document) string {
	body := doc.Body
	if runes := []rune(body); len(runes) > maxPromptRunes {
		body = string(runes[:maxPromptRunes])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the essay %q below and extract metadata in JSON format.\n\n", doc.Title)
	b.WriteString(`Provide the following metadata:

1. **summary**: A 2-3 sentence overview of the main points
2. **topics**: Array of 3-6 topic tags (e.g., ["startups", "fundraising", "product-market-fit"])
3. **key_concepts**: Array of 3-5 main ideas or key terms from the essay
4. **questions_answered**: Array of 2-4 questions this essay addresses
5. **target_audience**: Array of 1-3 audience types (e.g., ["founders", "investors", "programmers"])
6. **difficulty_level**: One of "beginner", "intermediate", or "advanced"

Return ONLY a JSON object with these exact keys. No additional text or explanation.

Essay:
`)
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

// ParseMetadata decodes the classifier's JSON answer, tolerating a markdown code fence around it.
func ParseMetadata(text string) (*models.Enrichment, error) {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "```") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end < start {
			return nil, fmt.Errorf("%w: no JSON object in fenced block", ErrMalformedResponse)
		}
		text = text[start : end+1]
	}

	var e models.Enrichment
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if e.Summary == "" && len(e.Topics) == 0 {
		return nil, fmt.Errorf("%w: missing summary and topics", ErrMalformedResponse)
	}
	return &e, nil
}
