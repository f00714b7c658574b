package parser

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/essay-ingest/models"
)

// ParseListing extracts candidate essay links from the listing page, in page order.
// A link qualifies when it resolves to a .html page on the listing's host and its
// file name is not in exclude. Links repeating an earlier URL or id are dropped.
func (p *Parser) ParseListing(doc *goquery.Document, listingURL string, exclude []string) ([]models.Link, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[strings.ToLower(name)] = struct{}{}
	}

	var links []models.Link
	seenURL := make(map[string]struct{})
	seenID := make(map[string]struct{})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := base.Parse(href)
		if err != nil {
			return
		}
		if !strings.EqualFold(ref.Host, base.Host) {
			return
		}
		name := path.Base(ref.Path)
		if !strings.HasSuffix(strings.ToLower(name), ".html") {
			return
		}
		if _, excluded := skip[strings.ToLower(name)]; excluded {
			return
		}

		ref.Fragment = ""
		ref.RawQuery = ""
		sourceURL := ref.String()
		id := DeriveID(sourceURL)
		if id == "" {
			return
		}
		if _, dup := seenURL[sourceURL]; dup {
			return
		}
		if _, dup := seenID[id]; dup {
			return
		}
		seenURL[sourceURL] = struct{}{}
		seenID[id] = struct{}{}

		links = append(links, models.Link{
			ID:        id,
			SourceURL: sourceURL,
			Title:     normalizeText(s.Text()),
		})
	})

	return links, nil
}

// DeriveID returns the essay id for a source URL: its final path segment without extension.
func DeriveID(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" {
		return ""
	}
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
