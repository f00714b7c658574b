package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 5, WordCount("one two\n\nthree\tfour  five"))
}

func TestWordFrequency_SkipsStopwordsAndPunctuation(t *testing.T) {
	a := New(nil)
	freq := a.WordFrequency("The startup, the Startup! And \"startups\" are hard.")
	assert.Equal(t, 2, freq["startup"])
	assert.Equal(t, 1, freq["startups"])
	assert.Equal(t, 1, freq["hard"])
	assert.NotContains(t, freq, "the")
	assert.NotContains(t, freq, "and")
}

func TestTopKeywords_OrderedByCountThenWord(t *testing.T) {
	a := New(nil)
	text := "founders founders founders investors investors users users ok 2024 don't"
	got := a.TopKeywords(text, 10)
	assert.Equal(t, []string{"founders", "investors", "users"}, got)
	assert.Equal(t, []string{"founders"}, a.TopKeywords(text, 1))
}

func TestProfile_WithoutDetector(t *testing.T) {
	p := New(nil).Profile("Essays about essays and more essays.")
	assert.Equal(t, 6, p.WordCount)
	assert.Nil(t, p.Language)
	require.NotEmpty(t, p.Keywords)
	assert.Equal(t, "essays", p.Keywords[0])
}

func TestLanguageDetector(t *testing.T) {
	d := NewLanguageDetector()

	code := d.Detect("The best way to get startup ideas is not to try to think of startup ideas. It's to look for problems, preferably problems you have yourself.")
	require.NotNil(t, code)
	assert.Equal(t, "en", *code)

	assert.Nil(t, d.Detect("too short"))
}
