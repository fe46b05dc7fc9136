package listing

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/storage"
)

// Pipeline filters entries by title search and tags, then sorts the
// survivors by title with locale-aware collation. A Pipeline is not safe for
// concurrent use; the collator and case folder keep internal buffers.
type Pipeline struct {
	locale   language.Tag
	collator *collate.Collator
	fold     cases.Caser
}

// NewPipeline builds a pipeline for the BCP 47 locale; unknown locales fall
// back to English.
func NewPipeline(locale string) *Pipeline {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Pipeline{
		locale:   tag,
		collator: collate.New(tag),
		fold:     cases.Fold(),
	}
}

func (p *Pipeline) Locale() language.Tag { return p.locale }

// FilterAndSort returns the valid entries matching search and tags, stably
// sorted by title. The input slice is never modified.
//
// Entries without an id or a title, and repeats of an id already seen, are
// dropped and logged. Search is a case-insensitive substring match on the
// title; an empty search matches everything. Tags match when the entry shares
// at least one tag with the selection; an empty selection matches everything.
func (p *Pipeline) FilterAndSort(entries []*storage.Entry, search string, tags []string) []*storage.Entry {
	noFilter := search == "" && len(tags) == 0

	var needle string
	var selected map[string]struct{}
	if !noFilter {
		if search != "" {
			needle = p.fold.String(search)
		}
		if len(tags) > 0 {
			selected = make(map[string]struct{}, len(tags))
			for _, t := range tags {
				selected[t] = struct{}{}
			}
		}
	}

	out := make([]*storage.Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if !p.valid(i, e, seen) {
			continue
		}
		if !noFilter {
			if needle != "" && !strings.Contains(p.fold.String(e.Title), needle) {
				continue
			}
			if selected != nil && !hasAnyTag(e, selected) {
				continue
			}
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b *storage.Entry) int {
		return p.collator.CompareString(a.Title, b.Title)
	})
	return out
}

func (p *Pipeline) valid(pos int, e *storage.Entry, seen map[string]struct{}) bool {
	if e == nil {
		debuglog.WithFields(debuglog.Fields{"pos": pos}).Warnf("dropping nil entry")
		return false
	}
	if e.ID == "" || e.Title == "" {
		debuglog.WithFields(debuglog.Fields{"pos": pos, "id": e.ID, "title": e.Title}).
			Warnf("dropping entry without id or title")
		return false
	}
	if _, dup := seen[e.ID]; dup {
		debuglog.WithFields(debuglog.Fields{"pos": pos, "id": e.ID}).Warnf("dropping duplicate entry")
		return false
	}
	seen[e.ID] = struct{}{}
	return true
}

func hasAnyTag(e *storage.Entry, selected map[string]struct{}) bool {
	for _, t := range e.Tags {
		if _, ok := selected[t]; ok {
			return true
		}
	}
	return false
}

// FilterAndSort runs a one-off English pipeline.
func FilterAndSort(entries []*storage.Entry, search string, tags []string) []*storage.Entry {
	return NewPipeline("en").FilterAndSort(entries, search, tags)
}
