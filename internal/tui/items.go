package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pairwatch/internal/listing"
	"github.com/pders01/pairwatch/internal/storage"
)

// renderItem is the listing.ItemRenderer for the terminal. It returns exactly
// ctx.Height lines, each at most ctx.Width cells wide, so the app can place
// items by line offset.
func renderItem(ctx listing.ItemContext) string {
	e := ctx.Entry
	width := max(ctx.Width, 8)
	if ctx.Mode == storage.ViewModeGrid {
		// one column of gap between cells
		width = max(width-1, 6)
	}

	marker := "  "
	if ctx.Selected {
		marker = "› "
	}
	inner := width - 2

	title := e.Title
	if e.Year > 0 {
		title += " (" + strconv.Itoa(e.Year) + ")"
	}
	title = truncateEnd(title, inner)
	titleStyle := ItemTitleStyle
	if ctx.Selected {
		titleStyle = SelectedTitleStyle
	}

	meta := badge(e.Status)
	if e.MediaType != "" {
		meta += MutedStyle.Render(" " + e.MediaType)
	}
	if e.AddedBy != "" && ctx.Mode == storage.ViewModeList {
		meta += MutedStyle.Render(" · added by " + e.AddedBy)
	}

	var tags string
	switch {
	case ctx.Editing:
		tags = StatusWarnStyle.Render(truncateEnd("✎ editing tags…", inner))
	case len(e.Tags) > 0:
		tags = TagStyle.Render(truncateEnd("#"+strings.Join(e.Tags, " #"), inner))
	}

	lines := []string{
		marker + titleStyle.Render(title),
		"  " + lipgloss.NewStyle().MaxWidth(inner).Render(meta),
		"  " + tags,
	}

	height := max(ctx.Height, 1)
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]
	for i, l := range lines {
		lines[i] = lipgloss.NewStyle().Width(width).MaxWidth(width).Render(l)
	}
	return strings.Join(lines, "\n")
}

func badge(s storage.Status) string {
	if s == "" {
		s = storage.StatusPlanned
	}
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render("● " + string(s))
}
