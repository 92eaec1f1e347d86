package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot is a parsed copy of the markup a session was showing when it was
// taken. It does not follow later navigation.
type Snapshot struct {
	raw string
	doc *goquery.Document
}

// ParseSnapshot parses rendered page markup.
func ParseSnapshot(markup string) (*Snapshot, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Snapshot{
		raw: markup,
		doc: goquery.NewDocumentFromNode(root),
	}, nil
}

// Title returns the text of the first <title> element, trimmed.
// Pages without a title return an empty string.
func (s *Snapshot) Title() string {
	title := s.doc.Find("title").First()
	if title.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(title.Text())
}

// HasForm reports whether the page contains a <form> whose id is exactly id.
func (s *Snapshot) HasForm(id string) bool {
	found := false
	s.doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		if formID, ok := form.Attr("id"); ok && formID == id {
			found = true
			return false
		}
		return true
	})
	return found
}

// HTML returns the markup the snapshot was parsed from.
func (s *Snapshot) HTML() string {
	return s.raw
}

// Document exposes the parsed tree for content extraction.
func (s *Snapshot) Document() *goquery.Document {
	return s.doc
}
