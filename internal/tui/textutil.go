package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateEnd shortens s to at most limit terminal cells, ending in an
// ellipsis when it had to cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return runewidth.Truncate(s, limit, "…")
}

// truncateMiddle keeps both ends of s, which is what matters for links.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left

	head := runewidth.Truncate(s, left, "")
	r := []rune(s)
	tail := ""
	for i := len(r) - 1; i >= 0; i-- {
		next := string(r[i:])
		if runewidth.StringWidth(next) > right {
			break
		}
		tail = next
	}
	return head + "…" + tail
}

// parseTags splits editor input on commas and whitespace, dropping blanks
// and duplicates while keeping first-seen order.
func parseTags(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimPrefix(strings.TrimSpace(f), "#")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
