package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	a := ContentHash("body", []string{"n1"})
	assert.Len(t, a, 64)
	assert.Equal(t, a, ContentHash("body", []string{"n1"}))
	assert.NotEqual(t, a, ContentHash("body", nil))
	assert.NotEqual(t, ContentHash("ab", []string{"c"}), ContentHash("a", []string{"bc"}))
}

func TestValidateURL(t *testing.T) {
	got, err := ValidateURL("  [essays](http://paulgraham.com/articles.html) ")
	require.NoError(t, err)
	assert.Equal(t, "http://paulgraham.com/articles.html", got)

	got, err = ValidateURL("<https://example.com/list.html>,")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list.html", got)

	for _, bad := range []string{"", "ftp://example.com/x", "paulgraham.com/articles.html", "http://exa mple.com"} {
		_, err := ValidateURL(bad)
		assert.Error(t, err, bad)
	}
}
