package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/media"
	"github.com/pders01/pairwatch/internal/storage"
)

type entriesLoadedMsg struct {
	entries []*storage.Entry
}

type viewModeLoadedMsg struct {
	mode storage.ViewMode
}

type entrySavedMsg struct {
	id     string
	status string
}

type detailRenderedMsg struct {
	content string
	reset   bool
}

type refreshDoneMsg struct {
	summary string
	kind    StatusKind
}

type errorMsg struct {
	err error
}

type autoRefreshMsg struct{}

type statusMsg struct {
	text string
	kind StatusKind
}

func (a *App) loadEntries() tea.Cmd {
	return func() tea.Msg {
		entries, err := a.store.GetAllEntries()
		if err != nil {
			return errorMsg{err: wrapErr("loading entries", err)}
		}
		return entriesLoadedMsg{entries: entries}
	}
}

func (a *App) loadViewMode() tea.Cmd {
	fallback := storage.ParseViewMode(a.config.List.ViewMode)
	return func() tea.Msg {
		mode, err := a.store.GetViewMode(fallback)
		if err != nil {
			debuglog.Warnf("view mode unavailable, using %s: %v", fallback, err)
			return viewModeLoadedMsg{mode: fallback}
		}
		return viewModeLoadedMsg{mode: mode}
	}
}

func (a *App) saveViewMode(mode storage.ViewMode) tea.Cmd {
	return func() tea.Msg {
		if err := retryOperation(func() error { return a.store.SetViewMode(mode) }); err != nil {
			return errorMsg{err: wrapErr("saving view mode", err)}
		}
		return nil
	}
}

func (a *App) updateStatus(id string, status storage.Status) tea.Cmd {
	title := id
	if e := a.findEntry(id); e != nil {
		title = e.Title
	}
	return func() tea.Msg {
		if err := retryOperation(func() error { return a.store.UpdateStatus(id, status) }); err != nil {
			return errorMsg{err: wrapErr("updating status", err)}
		}
		debuglog.WithFields(debuglog.Fields{"id": id, "status": status}).Infof("status changed")
		return entrySavedMsg{id: id, status: MsgStatusChanged(title, status)}
	}
}

func (a *App) updateTags(id string, tags []string) tea.Cmd {
	return func() tea.Msg {
		if err := retryOperation(func() error { return a.store.UpdateTags(id, tags) }); err != nil {
			return errorMsg{err: wrapErr("updating tags", err)}
		}
		debuglog.WithFields(debuglog.Fields{"id": id, "tags": len(tags)}).Infof("tags changed")
		return entrySavedMsg{id: id, status: MsgTagsSaved}
	}
}

// renderDetail renders an entry as markdown. reset scrolls to the top; it is
// false when re-rendering after an edit.
func (a *App) renderDetail(e *storage.Entry, reset bool) tea.Cmd {
	entry := *e
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return detailRenderedMsg{content: "Error initializing renderer: " + err.Error(), reset: reset}
		}
		rendered, err := r.Render(detailMarkdown(&entry, a.launcher.Kind(entry.Link)))
		if err != nil {
			return detailRenderedMsg{content: fmt.Sprintf("# Error\n\nFailed to render entry: %s", err), reset: reset}
		}
		return detailRenderedMsg{content: rendered, reset: reset}
	}
}

func detailMarkdown(e *storage.Entry, kind media.Kind) string {
	var b strings.Builder
	b.WriteString("# " + e.Title)
	if e.Year > 0 {
		fmt.Fprintf(&b, " (%d)", e.Year)
	}
	b.WriteString("\n\n")

	meta := []string{"**" + string(e.Status) + "**"}
	if e.MediaType != "" {
		meta = append(meta, e.MediaType)
	}
	if e.AddedBy != "" {
		meta = append(meta, "added by "+e.AddedBy)
	}
	if !e.UpdatedAt.IsZero() {
		meta = append(meta, "updated "+e.UpdatedAt.Format("Jan 2, 2006"))
	}
	b.WriteString(strings.Join(meta, " · ") + "\n\n")

	if len(e.Tags) > 0 {
		b.WriteString("`#" + strings.Join(e.Tags, "` `#") + "`\n\n")
	}
	if e.Link != "" {
		fmt.Fprintf(&b, "[%s](%s)\n\n", kind, e.Link)
	}

	b.WriteString("---\n\n")
	if strings.TrimSpace(e.Notes) != "" {
		b.WriteString(e.Notes)
	} else {
		b.WriteString("*No notes yet.*")
	}
	return b.String()
}

func (a *App) refreshFeeds() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		results, err := a.feeds.RefreshAllFeeds(ctx)
		added, updated := 0, 0
		for _, r := range results {
			added += r.Added
			updated += r.Updated
		}

		failures := 0
		if err != nil {
			var joined interface{ Unwrap() []error }
			if errors.As(err, &joined) {
				failures = len(joined.Unwrap())
			} else {
				failures = 1
			}
			debuglog.Warnf("refresh: %v", err)
		}

		kind := StatusSuccess
		if failures > 0 {
			kind = StatusWarn
		}
		return refreshDoneMsg{summary: MsgRefreshSummary(len(results), added, updated, failures), kind: kind}
	}
}

// scheduleRefresh arms the next background feed refresh. A zero interval
// disables it.
func (a *App) scheduleRefresh() tea.Cmd {
	interval := a.config.Import.RefreshInterval
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return autoRefreshMsg{}
	})
}

func (a *App) openLink(link string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(link); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", truncateMiddle(link, 40), err)}
		}
		return nil
	}
}

func (a *App) copyLink(link string) tea.Cmd {
	return func() tea.Msg {
		if err := a.writeClipboard(link); err != nil {
			return errorMsg{err: wrapErr("copying link", err)}
		}
		return statusMsg{text: MsgLinkCopied, kind: StatusSuccess}
	}
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		lastErr = err
		if i < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<i))
		}
	}
	return lastErr
}
