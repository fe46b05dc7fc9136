package listing

import (
	"sort"

	"github.com/pders01/pairwatch/internal/storage"
)

// ExtractTags returns the distinct tags used across entries in ascending
// order. Nil entries and empty tag strings contribute nothing.
func ExtractTags(entries []*storage.Entry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e == nil {
			continue
		}
		for _, t := range e.Tags {
			if t != "" {
				seen[t] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

type TagCount struct {
	Tag   string
	Count int
}

// TagCounts reports how many entries carry each tag, in ExtractTags order.
// A tag repeated on one entry counts once.
func TagCounts(entries []*storage.Entry) []TagCount {
	counts := make(map[string]int)
	for _, e := range entries {
		if e == nil {
			continue
		}
		onEntry := make(map[string]struct{}, len(e.Tags))
		for _, t := range e.Tags {
			if t == "" {
				continue
			}
			if _, dup := onEntry[t]; dup {
				continue
			}
			onEntry[t] = struct{}{}
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
