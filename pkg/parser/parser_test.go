package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/essay-ingest/models"
)

const essayPage = `<html><head><title>How to Do Great Work</title><script>var tracking = "January 1999";</script></head>
<body><table><tr><td><img src="header.gif"><map><area href="index.html"></map>
<font size="2" face="verdana">July 2023<br><br>If you collected lists of techniques for doing
great work in a lot of different fields, what would the intersection look like?<br><br>I decided to find out by making it.<br><br><b>Notes</b><br><br>[1] A footnote about fields.<br><br>[2] Another note.<br><br>Thanks to Trevor Blackwell for reading drafts of this.</font>
</td></tr></table></body></html>`

func TestParseEssay_LayoutRules(t *testing.T) {
	p := &Parser{}
	ex, err := p.ParseEssay("http://paulgraham.com/greatwork.html", []byte(essayPage), "Great Work")
	require.NoError(t, err)

	assert.Equal(t, "How to Do Great Work", ex.Title)
	require.NotNil(t, ex.Period)
	assert.Equal(t, "2023-07", *ex.Period)
	assert.False(t, ex.Fallback)

	paragraphs := strings.Split(ex.Body, "\n\n")
	require.Len(t, paragraphs, 2)
	assert.Equal(t, "If you collected lists of techniques for doing great work in a lot of different fields, what would the intersection look like?", paragraphs[0])
	assert.Equal(t, "I decided to find out by making it.", paragraphs[1])

	assert.Equal(t, []string{"[1] A footnote about fields.", "[2] Another note."}, ex.Footnotes)
	assert.NotContains(t, ex.Body, "Thanks to")
}

func TestParseEssay_HeadingWinsOverTitleTag(t *testing.T) {
	page := `<html><head><title>Site</title></head><body><h1>  The Real
	Title </h1><font>This paragraph is long enough to count as content.</font></body></html>`
	ex, err := (&Parser{}).ParseEssay("http://example.com/a.html", []byte(page), "")
	require.NoError(t, err)
	assert.Equal(t, "The Real Title", ex.Title)
	assert.Nil(t, ex.Period)
	assert.Equal(t, []string{}, ex.Footnotes)
}

func TestParseEssay_LinkTextIsLastTitleResort(t *testing.T) {
	page := `<html><body><font size="2" face="verdana">A paragraph that is long enough to survive.</font></body></html>`
	ex, err := (&Parser{}).ParseEssay("http://example.com/a.html", []byte(page), " Link  Title ")
	require.NoError(t, err)
	assert.Equal(t, "Link Title", ex.Title)
}

func TestParseEssay_NoContent(t *testing.T) {
	page := `<html><head><title>Empty</title></head><body><script>document.write("x")</script></body></html>`
	_, err := (&Parser{}).ParseEssay("http://example.com/empty.html", []byte(page), "Empty")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoContent))
}

func TestExtractPeriod(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"month and year", "Written in March 2005 at home", "2005-03"},
		{"first match wins", "December 2001 then May 2002", "2001-12"},
		{"split across lines", "November\n  2010", "2010-11"},
		{"run into the next paragraph", "How to Do Great Work\n\nJuly 2023If you collected", "2023-07"},
		{"year at end of text", "Updated April 2019", "2019-04"},
		{"longer number is not a year", "May 20201 items", ""},
		{"no date", "no dates here", ""},
		{"outside window", strings.Repeat("x", 2100) + " June 2020", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPeriod(tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseEssay_KeepsVeryLongParagraphs(t *testing.T) {
	short := strings.TrimSpace(strings.Repeat("word ", 20))
	long := strings.TrimSpace(strings.Repeat("lengthy ", 14000))
	page := `<html><body><font size="2" face="verdana">` + short + `<br><br>` + long + `<br><br>` + short + `</font></body></html>`

	ex, err := (&Parser{}).ParseEssay("http://example.com/long.html", []byte(page), "Long")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(ex.Body), 14040)
	assert.Len(t, strings.Split(ex.Body, "\n\n"), 3)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a\n\n  b \t c\n"))

	line := strings.Repeat("x", 70*1024)
	assert.Equal(t, line+" y", normalizeText(line+"\ny"))
}

func TestSplitSections_LeadingShortParagraphsSkipped(t *testing.T) {
	body, notes := splitSections([]string{"Home", "Essays", "This is the first real paragraph.", "Short one.", "notes", "[1] x"})
	assert.Equal(t, "This is the first real paragraph.\n\nShort one.", body)
	assert.Equal(t, []string{"[1] x"}, notes)
}

func TestParseListing(t *testing.T) {
	listing := `<html><body>
	<a href="index.html">Home</a>
	<a href="articles.html">Essays</a>
	<a href="greatwork.html">How to Do Great Work</a>
	<a href="http://paulgraham.com/kids.html">Having Kids</a>
	<a href="greatwork.html#notes">Duplicate</a>
	<a href="http://other.example/spam.html">Elsewhere</a>
	<a href="rss.xml">RSS</a>
	<a href="/sub/kids.html">Same id</a>
	<a href="">Empty</a>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listing))
	require.NoError(t, err)

	links, err := (&Parser{}).ParseListing(doc, "http://paulgraham.com/articles.html", []string{"index.html", "articles.html"})
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, models.Link{ID: "greatwork", SourceURL: "http://paulgraham.com/greatwork.html", Title: "How to Do Great Work"}, links[0])
	assert.Equal(t, models.Link{ID: "kids", SourceURL: "http://paulgraham.com/kids.html", Title: "Having Kids"}, links[1])
}

func TestDeriveID(t *testing.T) {
	assert.Equal(t, "greatwork", DeriveID("http://paulgraham.com/greatwork.html"))
	assert.Equal(t, "kids", DeriveID("http://paulgraham.com/a/kids.htm?x=1"))
	assert.Equal(t, "", DeriveID("http://paulgraham.com/"))
}
