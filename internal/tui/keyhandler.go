package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/listing"
	"github.com/pders01/pairwatch/internal/storage"
)

type KeyHandler struct {
	app    *App
	config *config.Config
	keys   keyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, config: cfg, keys: app.keys}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return kh.quit()
	}

	// Any key acknowledges the last status or error.
	kh.app.err = nil
	kh.app.status = ""

	switch kh.app.view {
	case ViewTagPicker:
		return kh.handleTagPicker(msg)
	case ViewTagEditor:
		return kh.handleTagEditor(msg)
	case ViewDetail:
		return kh.handleDetail(msg)
	}

	if kh.app.searchInput.Focused() {
		return kh.handleSearchInput(msg)
	}
	return kh.handleList(msg)
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.Stop()
	return kh.app, tea.Quit
}

func (kh *KeyHandler) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		kh.app.searchInput.Blur()
		kh.app.flushSearch()
		return kh.app, nil
	case tea.KeyEsc:
		kh.app.searchInput.Blur()
		return kh.app, nil
	case tea.KeyDown, tea.KeyTab:
		kh.app.searchInput.Blur()
		kh.app.moveCursor(1)
		return kh.app, nil
	}

	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)
	return kh.app, tea.Batch(cmd, kh.app.setSearchText(sanitizeSearchInput(kh.app.searchInput.Value())))
}

func (kh *KeyHandler) handleList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	cols := a.columns()
	page := max(a.bodyHeight()/a.itemHeight(), 1) * cols

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.quit()
	case key.Matches(msg, kh.keys.Help):
		a.help.ShowAll = !a.help.ShowAll

	case key.Matches(msg, kh.keys.Up):
		a.moveCursor(-cols)
	case key.Matches(msg, kh.keys.Down):
		a.moveCursor(cols)
	case key.Matches(msg, kh.keys.Left):
		if a.mode == storage.ViewModeGrid {
			a.moveCursor(-1)
		}
	case key.Matches(msg, kh.keys.Right):
		if a.mode == storage.ViewModeGrid {
			a.moveCursor(1)
		}
	case key.Matches(msg, kh.keys.PageUp):
		a.moveCursor(-page)
	case key.Matches(msg, kh.keys.PageDown):
		a.moveCursor(page)
	case key.Matches(msg, kh.keys.Top):
		a.moveCursor(-len(a.filtered()))
	case key.Matches(msg, kh.keys.Bottom):
		a.moveCursor(len(a.filtered()))

	case key.Matches(msg, kh.keys.Search):
		return a, a.searchInput.Focus()

	case key.Matches(msg, kh.keys.Back):
		// Clear filters one layer at a time: search first, then tags.
		if a.searchInput.Value() != "" || a.search != "" {
			a.searchInput.Reset()
			a.debouncer.Cancel()
			a.debouncer.Set("", a.now())
			a.flushSearch()
		} else if len(a.tags) > 0 {
			a.setTags(nil)
		}

	case key.Matches(msg, kh.keys.Tags):
		a.view = ViewTagPicker
		return a, a.tagPicker.Open(listing.TagCounts(a.entries))

	case key.Matches(msg, kh.keys.ToggleView):
		a.mode = a.mode.Toggle()
		a.ensureCursorVisible()
		a.setStatus(MsgViewMode(a.mode), StatusInfo)
		return a, a.saveViewMode(a.mode)

	case key.Matches(msg, kh.keys.CycleStatus):
		if e := a.selected(); e != nil {
			a.callbacks.OnStatusChange(e.ID, e.Status.Next())
			return a, a.takeQueued()
		}

	case key.Matches(msg, kh.keys.EditTags):
		if e := a.selected(); e != nil {
			return a, kh.startTagEditor(e)
		}

	case key.Matches(msg, kh.keys.Open):
		return a, kh.openSelected(a.selected())
	case key.Matches(msg, kh.keys.CopyLink):
		return a, kh.copySelected(a.selected())

	case key.Matches(msg, kh.keys.Refresh):
		a.setStatus(MsgRefreshing, StatusInfo)
		return a, a.refreshFeeds()

	case key.Matches(msg, kh.keys.Select):
		if e := a.selected(); e != nil {
			a.detail = e
			a.view = ViewDetail
			return a, a.renderDetail(e, true)
		}
	}
	return a, nil
}

func (kh *KeyHandler) startTagEditor(e *storage.Entry) tea.Cmd {
	a := kh.app
	a.editingID = e.ID
	a.view = ViewTagEditor
	a.tagEditor.SetValue(strings.Join(e.Tags, ", "))
	a.tagEditor.CursorEnd()
	return a.tagEditor.Focus()
}

func (kh *KeyHandler) handleTagEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.Type {
	case tea.KeyEsc:
		kh.closeTagEditor()
		return a, nil
	case tea.KeyEnter:
		id := a.editingID
		tags := parseTags(a.tagEditor.Value())
		kh.closeTagEditor()
		a.callbacks.OnTagsChange(id, tags)
		return a, a.takeQueued()
	}

	var cmd tea.Cmd
	a.tagEditor, cmd = a.tagEditor.Update(msg)
	return a, cmd
}

// closeTagEditor returns to wherever the editor was opened from.
func (kh *KeyHandler) closeTagEditor() {
	a := kh.app
	a.tagEditor.Blur()
	a.tagEditor.Reset()
	a.editingID = ""
	a.view = ViewList
	if a.detail != nil {
		a.view = ViewDetail
	}
}

func (kh *KeyHandler) handleTagPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.Type {
	case tea.KeyEsc:
		a.tagPicker.Close()
		a.view = ViewList
		return a, nil
	case tea.KeyUp, tea.KeyShiftTab:
		a.tagPicker.Move(-1)
		return a, nil
	case tea.KeyDown, tea.KeyTab:
		a.tagPicker.Move(1)
		return a, nil
	case tea.KeyEnter, tea.KeySpace:
		a.setTags(toggleTag(a.tags, a.tagPicker.Current()))
		return a, nil
	case tea.KeyCtrlX:
		a.setTags(nil)
		return a, nil
	}
	return a, a.tagPicker.Update(msg)
}

func (kh *KeyHandler) handleDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	e := a.detail
	if e == nil {
		a.view = ViewList
		return a, nil
	}

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.quit()
	case key.Matches(msg, kh.keys.Back):
		a.detail = nil
		a.view = ViewList
		return a, nil
	case key.Matches(msg, kh.keys.Open):
		return a, kh.openSelected(e)
	case key.Matches(msg, kh.keys.CopyLink):
		return a, kh.copySelected(e)
	case key.Matches(msg, kh.keys.CycleStatus):
		a.callbacks.OnStatusChange(e.ID, e.Status.Next())
		return a, a.takeQueued()
	case key.Matches(msg, kh.keys.EditTags):
		return a, kh.startTagEditor(e)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) openSelected(e *storage.Entry) tea.Cmd {
	if e == nil {
		return nil
	}
	if e.Link == "" {
		kh.app.setStatus(MsgNoLink, StatusWarn)
		return nil
	}
	return kh.app.openLink(e.Link)
}

func (kh *KeyHandler) copySelected(e *storage.Entry) tea.Cmd {
	if e == nil {
		return nil
	}
	if e.Link == "" {
		kh.app.setStatus(MsgNoLink, StatusWarn)
		return nil
	}
	return kh.app.copyLink(e.Link)
}

// sanitizeSearchInput limits length and collapses whitespace.
func sanitizeSearchInput(input string) string {
	if r := []rune(input); len(r) > 256 {
		input = string(r[:256])
	}
	return strings.Join(strings.Fields(input), " ")
}
