package corpus

import (
	"sort"
	"strings"

	"github.com/dtnitsch/essay-ingest/models"
)

// Field weights for Search.
const (
	weightTitle       = 10
	weightTopics      = 5
	weightQuestions   = 4
	weightKeyConcepts = 3
	weightSummary     = 2
	weightKeywords    = 1
)

// Hit is one search result.
type Hit struct {
	models.Summary `yaml:",inline"`
	Score          int      `json:"search_score" yaml:"search_score"`
	MatchedFields  []string `json:"matched_fields" yaml:"matched_fields"`
	Abstract       string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Topics         []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// Search scores every index entry against query with a case-insensitive
// substring match, adding each field's weight once. Entries scoring zero are
// dropped; the rest are ordered by score, then by the index order.
func Search(ix *models.Index, enrichments map[string]*models.Enrichment, query string, limit int) []Hit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var hits []Hit
	for _, s := range ix.Sorted() {
		h := Hit{Summary: s}
		match := func(field string, weight int, ok bool) {
			if ok {
				h.Score += weight
				h.MatchedFields = append(h.MatchedFields, field)
			}
		}

		match("title", weightTitle, strings.Contains(strings.ToLower(s.Title), q))
		if e := enrichments[s.ID]; e != nil {
			h.Abstract = e.Summary
			h.Topics = e.Topics
			match("topics", weightTopics, anyContains(e.Topics, q))
			match("questions", weightQuestions, anyContains(e.QuestionsAnswered, q))
			match("key_concepts", weightKeyConcepts, anyContains(e.KeyConcepts, q))
			match("summary", weightSummary, strings.Contains(strings.ToLower(e.Summary), q))
		}
		match("keywords", weightKeywords, anyContains(s.Keywords, q))

		if h.Score > 0 {
			hits = append(hits, h)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func anyContains(values []string, q string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}
