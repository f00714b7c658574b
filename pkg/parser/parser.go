package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/dtnitsch/essay-ingest/models"
)

// Parser extracts structured essay fields from raw HTML.
type Parser struct{}

// Extraction is the set of fields recovered from one essay page.
type Extraction struct {
	Title     string
	Period    *string
	Body      string
	Footnotes []string
	// Fallback is true when the layout selectors found nothing and readability supplied the body.
	Fallback bool
}

const (
	paragraphMarker = "||PARAGRAPH||"
	dateWindow      = 2000
	minLeadingPara  = 20
)

var (
	// Markup removed before any text is read.
	strippedTags = "script, style, img, map, area, nav, noscript"

	paragraphBreak = regexp.MustCompile(`(?i)<br\s*/?>\s*<br\s*/?>|</p\s*>`)
	datePattern    = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})(?:\D|$)`)

	monthNumbers = map[string]string{
		"January": "01", "February": "02", "March": "03", "April": "04",
		"May": "05", "June": "06", "July": "07", "August": "08",
		"September": "09", "October": "10", "November": "11", "December": "12",
	}
)

// ParseEssay extracts title, period, body and footnotes from an essay page.
// linkTitle is the text of the listing link, used when the page has no heading.
// It returns models.ErrNoContent when no body text can be located.
func (p *Parser) ParseEssay(rawURL string, html []byte, linkTitle string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(strippedTags).Remove()

	ex := &Extraction{
		Title:  extractTitle(doc, linkTitle),
		Period: ExtractPeriod(doc.Text()),
	}

	paragraphs, err := containerParagraphs(doc)
	if err != nil {
		return nil, err
	}
	ex.Body, ex.Footnotes = splitSections(paragraphs)

	if ex.Body == "" {
		body, ok := readabilityBody(rawURL, html)
		if !ok {
			return nil, fmt.Errorf("%s: %w", rawURL, models.ErrNoContent)
		}
		ex.Body = body
		ex.Fallback = true
	}

	return ex, nil
}

// extractTitle returns the first heading text, then the page title, then the link text.
func extractTitle(doc *goquery.Document, linkTitle string) string {
	var title string
	doc.Find("h1, h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
		title = normalizeText(s.Text())
		return title == ""
	})
	if title != "" {
		return title
	}
	if t := normalizeText(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return normalizeText(linkTitle)
}

// ExtractPeriod finds the first "Month YYYY" near the top of text and returns it as YYYY-MM.
func ExtractPeriod(text string) *string {
	runes := []rune(text)
	if len(runes) > dateWindow {
		text = string(runes[:dateWindow])
	}
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	period := m[2] + "-" + monthNumbers[m[1]]
	return &period
}

// containerParagraphs locates the essay container and splits it into paragraphs.
// The layout uses <font size=2 face=verdana> with <br><br> between paragraphs.
func containerParagraphs(doc *goquery.Document) ([]string, error) {
	container := doc.Find(`font[size="2"][face="verdana"]`).First()
	if container.Length() == 0 {
		container = doc.Find("font").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		return nil, nil
	}

	inner, err := goquery.OuterHtml(container)
	if err != nil {
		return nil, fmt.Errorf("failed to render content container: %w", err)
	}
	inner = paragraphBreak.ReplaceAllString(inner, "\n\n"+paragraphMarker+"\n\n")

	frag, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	if err != nil {
		return nil, fmt.Errorf("failed to parse content container: %w", err)
	}

	var paragraphs []string
	for _, part := range strings.Split(frag.Text(), paragraphMarker) {
		if text := normalizeText(part); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs, nil
}

// splitSections applies the essay layout rules: short leading paragraphs are navigation,
// a "Notes" paragraph starts the footnotes, and "Thanks to" ends the essay.
func splitSections(paragraphs []string) (string, []string) {
	var content, footnotes []string
	inFootnotes := false
	started := false

	for _, para := range paragraphs {
		lower := strings.ToLower(para)
		if lower == "notes" {
			inFootnotes = true
			continue
		}
		if strings.HasPrefix(lower, "thanks to") {
			break
		}
		if inFootnotes {
			footnotes = append(footnotes, para)
			continue
		}
		if !started && len([]rune(para)) < minLeadingPara {
			continue
		}
		started = true
		content = append(content, para)
	}

	if footnotes == nil {
		footnotes = []string{}
	}
	return strings.Join(content, "\n\n"), footnotes
}

// readabilityBody extracts the main text with go-readability when the layout selectors fail.
func readabilityBody(rawURL string, html []byte) (string, bool) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	rp := readability.NewParser()
	article, err := rp.Parse(bytes.NewReader(html), parsedURL)
	if err != nil {
		return "", false
	}

	var paragraphs []string
	for _, block := range strings.Split(article.TextContent, "\n") {
		if text := normalizeText(block); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	body := strings.Join(paragraphs, "\n\n")
	return body, body != ""
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, raw := range strings.Split(input, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
