// Package mapreduce aggregates keyword frequencies across many essays.
package mapreduce

import (
	"sort"

	"github.com/dtnitsch/essay-ingest/pkg/analytics"
)

// KeywordCount is one aggregated keyword.
type KeywordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// Map generates a word frequency map for a single document's content.
func Map(content string, a *analytics.Analytics) map[string]int {
	return a.WordFrequency(content)
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}

// TopKeywords returns the n most frequent words, ties broken alphabetically.
// Words shorter than minLen are ignored.
func TopKeywords(wordCounts map[string]int, n, minLen int) []KeywordCount {
	ss := make([]KeywordCount, 0, len(wordCounts))
	for k, v := range wordCounts {
		if len([]rune(k)) >= minLen {
			ss = append(ss, KeywordCount{k, v})
		}
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Word < ss[j].Word
	})

	if n > 0 && len(ss) > n {
		ss = ss[:n]
	}
	return ss
}
