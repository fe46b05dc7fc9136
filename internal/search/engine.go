package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/pairwatch/internal/storage"
)

// Result represents a search match with relevance scoring
type Result struct {
	Entry   *storage.Entry
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "tags", "notes"
	Text   string // matched text snippet
	Weight float64
}

const (
	titleWeight = 4.0
	tagsWeight  = 3.0
	typeWeight  = 1.5
	notesWeight = 1.0
)

// Engine ranks entries by scanning the store; no index is kept.
type Engine struct {
	store EntrySource
}

func NewEngine(store EntrySource) *Engine {
	return &Engine{store: store}
}

// Search scores every entry against query and returns the best limit hits,
// highest score first. limit <= 0 returns all hits.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	entries, err := e.store.GetAllEntries()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0)
	for _, entry := range entries {
		if entry == nil || entry.ID == "" || entry.Title == "" {
			continue
		}
		if result := e.SearchEntry(entry, terms); result != nil {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.Title < results[j].Entry.Title
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchEntry scores a single entry; nil means no field matched.
func (e *Engine) SearchEntry(entry *storage.Entry, terms []string) *Result {
	var matches []Match
	var total float64

	if s := e.scoreField(entry.Title, terms, titleWeight); s > 0 {
		matches = append(matches, Match{Field: "title", Text: entry.Title, Weight: s})
		total += s
	}

	if len(entry.Tags) > 0 {
		tags := strings.Join(entry.Tags, " ")
		if s := e.scoreField(tags, terms, tagsWeight); s > 0 {
			matches = append(matches, Match{Field: "tags", Text: tags, Weight: s})
			total += s
		}
	}

	if s := e.scoreField(entry.MediaType, terms, typeWeight); s > 0 {
		matches = append(matches, Match{Field: "media_type", Text: entry.MediaType, Weight: s})
		total += s
	}

	if s := e.scoreField(entry.Notes, terms, notesWeight); s > 0 {
		matches = append(matches, Match{
			Field:  "notes",
			Text:   e.findBestSnippet(entry.Notes, terms, 160),
			Weight: s,
		})
		total += s
	}

	if total <= 0 {
		return nil
	}
	return &Result{Entry: entry, Score: total, Matches: matches}
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Phrase containment
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		// Word boundary matches
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize > len(words) || windowSize == 0 {
		return truncate(text, maxLength)
	}

	bestScore := 0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(window, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize breaks text into lower-cased searchable terms, dropping single runes.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder
	runes := 0

	flush := func() {
		if runes > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
		runes = 0
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			runes++
		} else {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text length in runes with an ellipsis
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
