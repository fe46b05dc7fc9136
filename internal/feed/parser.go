package feed

import (
	"crypto/sha256"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/pairwatch/internal/storage"
)

var (
	yearSuffix = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// mediaTypes are categories that describe what an item is rather than what
// it is about; they set MediaType instead of becoming tags.
var mediaTypes = map[string]string{
	"movie":       "movie",
	"film":        "movie",
	"series":      "series",
	"show":        "series",
	"tv":          "series",
	"anime":       "anime",
	"documentary": "documentary",
	"podcast":     "podcast",
	"book":        "book",
}

// Parsed is a decoded watchlist feed.
type Parsed struct {
	Title   string
	Entries []*storage.Entry
}

type Parser struct {
	parser  *gofeed.Parser
	addedBy string
}

// NewParser returns a parser that credits items without an author to addedBy.
func NewParser(addedBy string) *Parser {
	return &Parser{
		parser:  gofeed.NewParser(),
		addedBy: addedBy,
	}
}

// Parse decodes an RSS or Atom feed into watchlist entries. Items
// without a title are skipped.
func (p *Parser) Parse(reader io.Reader, feedURL string) (*Parsed, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &Parsed{
		Title:   strings.TrimSpace(feed.Title),
		Entries: make([]*storage.Entry, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if e := p.entryFromItem(feedURL, item); e != nil {
			out.Entries = append(out.Entries, e)
		}
	}
	return out, nil
}

func (p *Parser) entryFromItem(feedURL string, item *gofeed.Item) *storage.Entry {
	title := strings.TrimSpace(html.UnescapeString(item.Title))
	var year int
	if m := yearSuffix.FindStringSubmatch(title); m != nil {
		year, _ = strconv.Atoi(m[1])
		title = strings.TrimSpace(yearSuffix.ReplaceAllString(title, ""))
	}
	if title == "" {
		return nil
	}

	tags, mediaType := splitCategories(item.Categories)
	if mediaType == "" {
		mediaType = mediaFromEnclosures(item)
	}

	e := &storage.Entry{
		ID:        generateID(feedURL, item),
		Title:     title,
		Tags:      tags,
		Status:    storage.StatusPlanned,
		MediaType: mediaType,
		Year:      year,
		Link:      item.Link,
		Notes:     stripHTML(getContent(item)),
		AddedBy:   p.addedBy,
		UpdatedAt: time.Now(),
	}
	if item.Author != nil && item.Author.Name != "" {
		e.AddedBy = item.Author.Name
	}
	if item.PublishedParsed != nil {
		e.UpdatedAt = *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		e.UpdatedAt = *item.UpdatedParsed
	}
	return e
}

func getContent(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// splitCategories lower-cases and dedupes categories, peeling off the first
// one that names a media type.
func splitCategories(categories []string) ([]string, string) {
	var tags []string
	var mediaType string
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if mt, ok := mediaTypes[c]; ok && mediaType == "" {
			mediaType = mt
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		tags = append(tags, c)
	}
	return tags, mediaType
}

func mediaFromEnclosures(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		switch {
		case strings.HasPrefix(enc.Type, "video/"):
			return "video"
		case strings.HasPrefix(enc.Type, "audio/"):
			return "audio"
		}
	}
	return ""
}

func stripHTML(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n").Replace(s)
	s = htmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// generateID derives a stable id from the feed and the item's guid, falling
// back to its link and then its title.
func generateID(feedURL string, item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}
	sum := sha256.Sum256([]byte(feedURL + "\x00" + key))
	return fmt.Sprintf("feed-%x", sum[:8])
}
