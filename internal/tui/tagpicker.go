package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/pders01/pairwatch/internal/listing"
)

// tagPicker is the overlay for choosing filter tags. Typing narrows the
// tag list fuzzily; space or enter toggles the tag under the cursor.
type tagPicker struct {
	input    textinput.Model
	all      []listing.TagCount
	filtered []listing.TagCount
	cursor   int
}

func newTagPicker() tagPicker {
	ti := textinput.New()
	ti.Placeholder = "filter tags…"
	ti.CharLimit = 64
	ti.Prompt = "# "
	return tagPicker{input: ti}
}

// Open loads counts and resets the query.
func (p *tagPicker) Open(counts []listing.TagCount) tea.Cmd {
	p.all = counts
	p.input.Reset()
	p.cursor = 0
	p.narrow()
	return p.input.Focus()
}

func (p *tagPicker) Close() {
	p.input.Blur()
}

func (p *tagPicker) narrow() {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.filtered = p.all
		p.clampCursor()
		return
	}

	names := make([]string, len(p.all))
	for i, tc := range p.all {
		names[i] = tc.Tag
	}
	matches := fuzzy.Find(query, names)

	p.filtered = make([]listing.TagCount, 0, len(matches))
	for _, m := range matches {
		p.filtered = append(p.filtered, p.all[m.Index])
	}
	p.clampCursor()
}

func (p *tagPicker) clampCursor() {
	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *tagPicker) Move(delta int) {
	p.cursor += delta
	p.clampCursor()
}

// Current is the tag under the cursor, empty if nothing matches.
func (p *tagPicker) Current() string {
	if len(p.filtered) == 0 {
		return ""
	}
	return p.filtered[p.cursor].Tag
}

// Update feeds a key to the query box and re-narrows on change.
func (p *tagPicker) Update(msg tea.Msg) tea.Cmd {
	prev := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != prev {
		p.cursor = 0
		p.narrow()
	}
	return cmd
}

func (p *tagPicker) View(selected []string, width, height int) string {
	rows := []string{
		renderHeader("› tags", fmt.Sprintf("%d selected • any match", len(selected)), width),
		"",
		renderInputFrame(p.input.View(), true, min(40, max(width-8, 10))),
		"",
	}

	listHeight := max(height-len(rows)-1, 1)
	start := 0
	if p.cursor >= listHeight {
		start = p.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(p.filtered))

	if len(p.filtered) == 0 {
		rows = append(rows, renderMuted("no matching tags"))
	}
	for i := start; i < end; i++ {
		tc := p.filtered[i]
		check := "[ ]"
		style := TagStyle
		if slices.Contains(selected, tc.Tag) {
			check = "[x]"
			style = ActiveTagStyle
		}
		cursor := "  "
		if i == p.cursor {
			cursor = "› "
		}
		line := fmt.Sprintf("%s%s %s %s", cursor, check, style.Render(truncateEnd(tc.Tag, width-20)),
			renderMuted(fmt.Sprintf("(%d)", tc.Count)))
		rows = append(rows, line)
	}

	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// toggleTag adds or removes tag, keeping the selection sorted so it is a
// stable filter memo key.
func toggleTag(selected []string, tag string) []string {
	if tag == "" {
		return selected
	}
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, t := range selected {
		if t == tag {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, tag)
		slices.Sort(out)
	}
	return out
}
