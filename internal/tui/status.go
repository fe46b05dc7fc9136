package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/pairwatch/internal/storage"
)

// StatusKind picks the status bar colour.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading    = "Loading…"
	MsgRefreshing = "Refreshing feeds…"
	MsgSaving     = "Saving…"
	MsgNoMatches  = "No entries match"
	MsgNoLink     = "Entry has no link"
	MsgTagsSaved  = "Tags saved"
	MsgLinkCopied = "Link copied"
)

func MsgStatusChanged(title string, status storage.Status) string {
	return fmt.Sprintf("'%s' → %s", strings.TrimSpace(title), status)
}

func MsgViewMode(mode storage.ViewMode) string {
	return fmt.Sprintf("%s view", mode)
}

func MsgEntryCount(shown, total int) string {
	if shown == total {
		if total == 1 {
			return "1 entry"
		}
		return fmt.Sprintf("%d entries", total)
	}
	return fmt.Sprintf("%d of %d entries", shown, total)
}

func MsgRefreshSummary(feeds, added, updated, errors int) string {
	base := fmt.Sprintf("Refreshed: %d feeds • %d new • %d updated", feeds, added, updated)
	if errors > 0 {
		base += fmt.Sprintf(" • %d errors", errors)
	}
	return base
}
