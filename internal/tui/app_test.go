package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/debounce"
	"github.com/pders01/pairwatch/internal/storage"
)

func newTestApp(t *testing.T, entries ...*storage.Entry) (*App, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if len(entries) > 0 {
		require.NoError(t, store.SaveEntries(entries))
	}

	app := NewApp(store, config.TestConfig())
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	drain(t, app, app.loadEntries())
	return app, store
}

// drain runs cmd and feeds every resulting message back into the app until
// no commands remain. Never pass it a debounce tick.
func drain(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func films(n int) []*storage.Entry {
	out := make([]*storage.Entry, n)
	for i := range out {
		out[i] = &storage.Entry{
			ID:     fmt.Sprintf("id-%03d", i),
			Title:  fmt.Sprintf("Film %03d", i),
			Status: storage.StatusPlanned,
		}
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(app *App, msgs ...tea.KeyMsg) tea.Cmd {
	var cmds []tea.Cmd
	for _, m := range msgs {
		_, cmd := app.Update(m)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func TestViewStateTransitions(t *testing.T) {
	tests := []struct {
		name         string
		initialView  View
		msg          tea.KeyMsg
		expectedView View
		setupFunc    func(*App)
	}{
		{
			name:         "list to tag picker on 't'",
			initialView:  ViewList,
			msg:          keyRunes("t"),
			expectedView: ViewTagPicker,
		},
		{
			name:         "tag picker to list on escape",
			initialView:  ViewTagPicker,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewList,
		},
		{
			name:         "list to detail on enter",
			initialView:  ViewList,
			msg:          tea.KeyMsg{Type: tea.KeyEnter},
			expectedView: ViewDetail,
		},
		{
			name:         "detail to list on escape",
			initialView:  ViewDetail,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewList,
			setupFunc: func(a *App) {
				a.detail = a.entries[0]
			},
		},
		{
			name:         "detail without entry falls back to list",
			initialView:  ViewDetail,
			msg:          keyRunes("j"),
			expectedView: ViewList,
		},
		{
			name:         "list to tag editor on 'e'",
			initialView:  ViewList,
			msg:          keyRunes("e"),
			expectedView: ViewTagEditor,
		},
		{
			name:         "tag editor back to list on escape",
			initialView:  ViewTagEditor,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewList,
			setupFunc: func(a *App) {
				a.editingID = "id-000"
			},
		},
		{
			name:         "tag editor opened from detail returns to detail",
			initialView:  ViewTagEditor,
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewDetail,
			setupFunc: func(a *App) {
				a.detail = a.entries[0]
				a.editingID = a.entries[0].ID
			},
		},
		{
			name:         "search key keeps list view",
			initialView:  ViewList,
			msg:          keyRunes("/"),
			expectedView: ViewList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, films(3)...)
			app.view = tt.initialView
			if tt.setupFunc != nil {
				tt.setupFunc(app)
			}

			updatedModel, _ := app.Update(tt.msg)
			updatedApp, ok := updatedModel.(*App)
			require.True(t, ok, "model should be *App")
			assert.Equal(t, tt.expectedView, updatedApp.view,
				"expected view to be %v but got %v", tt.expectedView, updatedApp.view)
		})
	}
}

func TestSearchIsDebouncedToOneFilterPass(t *testing.T) {
	app, _ := newTestApp(t, films(60)...)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	app.now = func() time.Time { return clock }

	app.View()
	base := app.renderer.Stats().FilterPasses

	press(app, keyRunes("/"))
	require.True(t, app.searchInput.Focused())

	for _, r := range "lm 01" {
		_, cmd := app.Update(keyRunes(string(r)))
		assert.NotNil(t, cmd, "each keystroke arms the debouncer")
		clock = clock.Add(100 * time.Millisecond)
		app.View()
	}

	assert.Equal(t, "lm 01", app.searchInput.Value())
	assert.Empty(t, app.search, "filter must not see unsettled input")
	assert.Equal(t, base, app.renderer.Stats().FilterPasses)

	// A tick from an earlier keystroke is stale.
	clock = clock.Add(time.Second)
	app.Update(debounce.FireMsg{ID: searchDebouncerID, Seq: 2})
	assert.Empty(t, app.search)

	app.Update(debounce.FireMsg{ID: searchDebouncerID, Seq: 5})
	assert.Equal(t, "lm 01", app.search)

	out := app.View()
	assert.Equal(t, base+1, app.renderer.Stats().FilterPasses)
	assert.Contains(t, out, "Film 010")
	assert.NotContains(t, out, "Film 000")
	assert.Len(t, app.filtered(), 10)
}

func TestSearchEnterAppliesImmediately(t *testing.T) {
	app, _ := newTestApp(t, films(5)...)

	press(app, keyRunes("/"), keyRunes("0"), keyRunes("3"))
	assert.Empty(t, app.search)

	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "03", app.search)
	assert.False(t, app.searchInput.Focused())
	assert.False(t, app.debouncer.Pending())
}

func TestStopMakesLateTicksNoop(t *testing.T) {
	app, _ := newTestApp(t, films(5)...)

	press(app, keyRunes("/"), keyRunes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	app.Update(debounce.FireMsg{ID: searchDebouncerID, Seq: 1})
	assert.Empty(t, app.search)
	assert.True(t, app.debouncer.Stopped())
}

func TestEscapeClearsSearchThenTags(t *testing.T) {
	entries := films(4)
	entries[0].Tags = []string{"noir"}
	app, _ := newTestApp(t, entries...)

	app.setTags([]string{"noir"})
	press(app, keyRunes("/"), keyRunes("F"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "F", app.search)

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, app.search)
	assert.Empty(t, app.searchInput.Value())
	assert.Equal(t, []string{"noir"}, app.tags)

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, app.tags)
	assert.Len(t, app.filtered(), 4)
}

func TestWindowedListRendersOnlyVisibleItems(t *testing.T) {
	app, _ := newTestApp(t, films(200)...)

	out := app.View()
	stats := app.renderer.Stats()
	assert.Less(t, stats.Renders, 30, "only the window should be rendered")
	assert.Contains(t, out, "Film 000")
	assert.NotContains(t, out, "Film 199")
	assert.Contains(t, out, "200 entries")
}

func TestSmallListRendersEverything(t *testing.T) {
	app, _ := newTestApp(t, films(50)...)

	app.View()
	assert.Equal(t, 50, app.renderer.Stats().Renders)
}

func TestCursorStaysVisible(t *testing.T) {
	app, _ := newTestApp(t, films(200)...)

	press(app, keyRunes("G"))
	assert.Equal(t, 199, app.cursor)
	assert.Equal(t, 200*3-app.bodyHeight(), app.scroll)

	out := app.View()
	assert.Contains(t, out, "Film 199")
	assert.NotContains(t, out, "Film 000")

	press(app, keyRunes("g"))
	assert.Equal(t, 0, app.cursor)
	assert.Equal(t, 0, app.scroll)

	press(app, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, app.bodyHeight()/3, app.cursor)
}

func TestMouseWheelScrolls(t *testing.T) {
	app, _ := newTestApp(t, films(100)...)

	app.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	app.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 6, app.scroll)
	assert.Equal(t, 0, app.cursor, "wheel scrolls without moving the cursor")

	app.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Equal(t, 3, app.scroll)

	for i := 0; i < 10; i++ {
		app.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	}
	assert.Equal(t, 0, app.scroll)
}

func TestCycleStatusPersists(t *testing.T) {
	app, store := newTestApp(t, films(2)...)

	cmd := press(app, keyRunes("s"))
	require.NotNil(t, cmd)
	drain(t, app, cmd)

	got, err := store.GetEntry("id-000")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusWatching, got.Status)
	assert.Equal(t, storage.StatusWatching, app.findEntry("id-000").Status)
	assert.Contains(t, app.status, "watching")
}

func TestEditTagsPersists(t *testing.T) {
	entries := films(2)
	entries[0].Tags = []string{"drama", "crime"}
	app, store := newTestApp(t, entries...)

	press(app, keyRunes("e"))
	require.Equal(t, ViewTagEditor, app.view)
	assert.Equal(t, "drama, crime", app.tagEditor.Value())
	assert.Equal(t, "id-000", app.editingID)

	app.tagEditor.SetValue("noir, #drama noir")
	drain(t, app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))

	got, err := store.GetEntry("id-000")
	require.NoError(t, err)
	assert.Equal(t, []string{"noir", "drama"}, got.Tags)
	assert.Equal(t, ViewList, app.view)
	assert.Empty(t, app.editingID)
	assert.Equal(t, MsgTagsSaved, app.status)
}

func TestEditingRerendersOnlyThatItem(t *testing.T) {
	app, _ := newTestApp(t, films(20)...)

	app.View()
	before := app.renderer.Stats().Renders

	press(app, keyRunes("e"))
	out := app.View()
	assert.Equal(t, before+1, app.renderer.Stats().Renders)
	assert.Contains(t, out, "editing tags")
}

func TestTagPickerFiltersList(t *testing.T) {
	entries := films(4)
	entries[0].Tags = []string{"comedy"}
	entries[1].Tags = []string{"drama"}
	entries[2].Tags = []string{"comedy", "drama"}
	app, _ := newTestApp(t, entries...)

	press(app, keyRunes("t"))
	require.Equal(t, ViewTagPicker, app.view)
	assert.Len(t, app.tagPicker.filtered, 2)

	press(app, keyRunes("c"), keyRunes("o"), keyRunes("m"))
	require.Len(t, app.tagPicker.filtered, 1)
	assert.Equal(t, "comedy", app.tagPicker.Current())

	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"comedy"}, app.tags)
	assert.Contains(t, app.View(), "[x]")

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, app.view)
	assert.Equal(t, []string{"Film 000", "Film 002"}, titlesOf(app.filtered()))

	// Inclusive OR across selected tags.
	app.setTags(toggleTag(app.tags, "drama"))
	assert.Equal(t, []string{"Film 000", "Film 001", "Film 002"}, titlesOf(app.filtered()))
}

func titlesOf(entries []*storage.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestToggleViewPersists(t *testing.T) {
	app, store := newTestApp(t, films(9)...)

	drain(t, app, press(app, keyRunes("v")))
	assert.Equal(t, storage.ViewModeGrid, app.mode)
	assert.Equal(t, 2, app.columns())

	mode, err := store.GetViewMode(storage.ViewModeList)
	require.NoError(t, err)
	assert.Equal(t, storage.ViewModeGrid, mode)

	press(app, keyRunes("j"))
	assert.Equal(t, 2, app.cursor, "down moves one grid row")
	press(app, keyRunes("l"))
	assert.Equal(t, 3, app.cursor)

	out := app.View()
	assert.Contains(t, out, "Film 000")
	assert.Contains(t, out, "Film 001")
}

func TestViewModeLoadedFromStore(t *testing.T) {
	app, store := newTestApp(t, films(1)...)
	require.NoError(t, store.SetViewMode(storage.ViewModeGrid))

	drain(t, app, app.loadViewMode())
	assert.Equal(t, storage.ViewModeGrid, app.mode)
}

func TestDetailView(t *testing.T) {
	entries := films(1)
	entries[0].Notes = "Recommended by **Sam**."
	entries[0].Link = "https://letterboxd.com/film/heat-1995/"
	app, _ := newTestApp(t, entries...)

	drain(t, app, press(app, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, ViewDetail, app.view)
	out := app.View()
	assert.Contains(t, out, "Film 000")
	assert.Contains(t, out, "Sam")

	// Status change from the detail view re-renders it in place.
	drain(t, app, press(app, keyRunes("s")))
	assert.Equal(t, ViewDetail, app.view)
	assert.Equal(t, storage.StatusWatching, app.detail.Status)
}

func TestEmptyStates(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Contains(t, app.View(), "Nothing here yet")

	app, _ = newTestApp(t, films(3)...)
	app.applySearch("zzz")
	assert.Contains(t, app.View(), MsgNoMatches)
}

func TestErrorShownInStatusBar(t *testing.T) {
	app, _ := newTestApp(t, films(1)...)

	app.Update(errorMsg{err: wrapErr("updating status", errors.New("disk full"))})
	assert.Contains(t, app.View(), "✗ updating status: disk full")

	// The next key acknowledges it.
	press(app, keyRunes("j"))
	assert.Nil(t, app.err)
}

func TestOpenWithoutLinkWarns(t *testing.T) {
	app, _ := newTestApp(t, films(1)...)

	assert.Nil(t, press(app, keyRunes("o")))
	assert.Equal(t, MsgNoLink, app.status)
}

func TestHelpToggle(t *testing.T) {
	app, _ := newTestApp(t, films(1)...)

	press(app, keyRunes("?"))
	assert.True(t, app.help.ShowAll)
	assert.Contains(t, app.View(), "page down")

	press(app, keyRunes("?"))
	assert.False(t, app.help.ShowAll)
	assert.True(t, strings.Contains(app.View(), "Film 000"))
}
