// Package analytics derives cheap text statistics from essay bodies: word counts,
// keyword frequencies and the detected language.
package analytics

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultKeywordCount is how many keywords are kept per document.
const DefaultKeywordCount = 10

const minKeywordLen = 3

type Analytics struct {
	languages *LanguageDetector
}

// New returns an Analytics. A nil detector disables language detection.
func New(languages *LanguageDetector) *Analytics {
	return &Analytics{languages: languages}
}

// Profile is the set of statistics stored alongside a document.
type Profile struct {
	WordCount int
	Keywords  []string
	Language  *string
}

// Profile computes every statistic for body in one pass over the text.
func (a *Analytics) Profile(body string) Profile {
	p := Profile{
		WordCount: WordCount(body),
		Keywords:  a.TopKeywords(body, DefaultKeywordCount),
	}
	if a.languages != nil {
		p.Language = a.languages.Detect(body)
	}
	return p
}

// WordCount is the number of whitespace-separated tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WordFrequency counts non-stopword tokens in text, lowercased with surrounding punctuation removed.
func (a *Analytics) WordFrequency(text string) map[string]int {
	frequencies := make(map[string]int)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		if _, exists := stopwords[word]; exists {
			continue
		}
		frequencies[word]++
	}

	return frequencies
}

// TopKeywords returns up to n of the most frequent keywords in text.
// Ties are broken alphabetically so the result is stable.
func (a *Analytics) TopKeywords(text string, n int) []string {
	type kv struct {
		Word  string
		Count int
	}

	var counts []kv
	for word, count := range a.WordFrequency(text) {
		if isKeyword(word) {
			counts = append(counts, kv{word, count})
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})

	limit := n
	if len(counts) < n {
		limit = len(counts)
	}

	keywords := make([]string, limit)
	for i := 0; i < limit; i++ {
		keywords[i] = counts[i].Word
	}
	return keywords
}

// isKeyword drops short tokens, bare numbers and contractions.
func isKeyword(word string) bool {
	if len([]rune(word)) < minKeywordLen || strings.ContainsAny(word, "'’") {
		return false
	}
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
