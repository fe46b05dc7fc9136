package tui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/debounce"
	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/feed"
	"github.com/pders01/pairwatch/internal/listing"
	"github.com/pders01/pairwatch/internal/media"
	"github.com/pders01/pairwatch/internal/storage"
)

// header, search line, separator and status bar
const chromeHeight = 4

const searchDebouncerID = "search"

type App struct {
	config     *config.Config
	store      *storage.Store
	feeds      *feed.Manager
	launcher   *media.Launcher
	keyHandler *KeyHandler
	keys       keyMap
	help       help.Model
	renderer   *listing.Renderer
	callbacks  listing.Callbacks
	debouncer  *debounce.Debouncer[string]
	now        func() time.Time

	writeClipboard func(string) error

	searchInput textinput.Model
	tagEditor   textinput.Model
	tagPicker   tagPicker
	viewport    viewport.Model

	view      View
	entries   []*storage.Entry
	loaded    bool
	search    string   // settled search text fed to the filter
	tags      []string // selected filter tags, sorted
	mode      storage.ViewMode
	cursor    int
	scroll    int
	editingID string
	detail    *storage.Entry

	width      int
	height     int
	err        error
	status     string
	statusKind StatusKind
	queued     []tea.Cmd

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(store *storage.Store, cfg *config.Config) *App {
	si := textinput.New()
	si.Placeholder = "search titles…"
	si.Prompt = "/ "
	si.CharLimit = 256

	te := textinput.New()
	te.Placeholder = "comma separated tags"
	te.Prompt = "# "
	te.CharLimit = 512

	app := &App{
		config:   cfg,
		store:    store,
		feeds:    feed.NewManager(store, cfg),
		launcher: media.NewLauncher(cfg),
		keys:     newKeyMap(cfg),
		help:     help.New(),
		renderer: listing.NewRenderer(listing.Options{
			Threshold:     cfg.List.VirtualizeThreshold,
			ItemHeight:    cfg.List.ItemHeight,
			Buffer:        cfg.List.Buffer,
			GridCellWidth: cfg.List.GridCellWidth,
			Locale:        cfg.UI.Locale,
			Render:        renderItem,
		}),
		debouncer:   debounce.New(searchDebouncerID, cfg.List.Debounce, ""),
		now:         time.Now,
		searchInput: si,
		tagEditor:   te,
		tagPicker:   newTagPicker(),
		viewport:    viewport.New(0, 0),
		view:        ViewList,
		mode:        storage.ParseViewMode(cfg.List.ViewMode),
	}

	app.callbacks = listing.Callbacks{
		OnStatusChange: app.onStatusChange,
		OnTagsChange:   app.onTagsChange,
	}
	app.renderer.SetCallbacks(app.callbacks)
	app.writeClipboard = clipboard.WriteAll
	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

// SetFeedManager replaces the manager used by refresh, e.g. to attach a
// search index listener or plugin registry.
func (a *App) SetFeedManager(m *feed.Manager) {
	a.feeds = m
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadViewMode(),
		a.loadEntries(),
		a.scheduleRefresh(),
		tea.EnterAltScreen,
	)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := min(max((a.width*9)/10, 40), 120)
	if a.width > 0 && a.width < 50 {
		wrap = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-2, 1)
		a.searchInput.Width = max(msg.Width-6, 10)
		a.tagEditor.Width = max(msg.Width-30, 10)
		a.help.Width = msg.Width
		a.ensureCursorVisible()
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case debounce.FireMsg:
		if v, ok := a.debouncer.Handle(msg, a.now()); ok {
			a.applySearch(v)
		}
		return a, nil

	case viewModeLoadedMsg:
		a.mode = msg.mode
		a.ensureCursorVisible()
		return a, nil

	case entriesLoadedMsg:
		a.entries = msg.entries
		a.loaded = true
		a.clampCursor()
		if a.detail != nil {
			a.detail = a.findEntry(a.detail.ID)
			if a.detail != nil && a.view == ViewDetail {
				return a, a.renderDetail(a.detail, false)
			}
		}
		return a, nil

	case entrySavedMsg:
		a.setStatus(msg.status, StatusSuccess)
		return a, a.loadEntries()

	case detailRenderedMsg:
		if a.view == ViewDetail {
			a.viewport.SetContent(msg.content)
			if msg.reset {
				a.viewport.GotoTop()
			}
		}
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.kind)
		return a, nil

	case refreshDoneMsg:
		a.setStatus(msg.summary, msg.kind)
		return a, a.loadEntries()

	case autoRefreshMsg:
		return a, tea.Batch(a.refreshFeeds(), a.scheduleRefresh())

	case errorMsg:
		a.err = msg.err
		debuglog.Warnf("tui error: %v", msg.err)
		return a, nil
	}

	if a.view == ViewDetail {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.view == ViewDetail {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	if a.view != ViewList || msg.Action != tea.MouseActionPress {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.scrollBy(-a.itemHeight())
	case tea.MouseButtonWheelDown:
		a.scrollBy(a.itemHeight())
	}
	return a, nil
}

// setSearchText records raw input and arms the debouncer. The filter only
// sees the value once typing settles.
func (a *App) setSearchText(v string) tea.Cmd {
	if v == a.debouncer.Value() && !a.debouncer.Pending() {
		return nil
	}
	seq := a.debouncer.Set(v, a.now())
	return a.debouncer.Tick(seq)
}

// flushSearch applies pending input immediately.
func (a *App) flushSearch() {
	if v, ok := a.debouncer.Flush(); ok {
		a.applySearch(v)
	}
}

func (a *App) applySearch(v string) {
	if v == a.search {
		return
	}
	a.search = v
	a.cursor = 0
	a.scroll = 0
}

func (a *App) setTags(tags []string) {
	a.tags = tags
	a.cursor = 0
	a.scroll = 0
}

func (a *App) filtered() []*storage.Entry {
	return a.renderer.Filtered(a.entries, a.search, a.tags)
}

func (a *App) selected() *storage.Entry {
	f := a.filtered()
	if a.cursor < 0 || a.cursor >= len(f) {
		return nil
	}
	return f[a.cursor]
}

func (a *App) findEntry(id string) *storage.Entry {
	for _, e := range a.entries {
		if e != nil && e.ID == id {
			return e
		}
	}
	return nil
}

func (a *App) itemHeight() int {
	return max(a.renderer.Options().ItemHeight, 1)
}

func (a *App) bodyHeight() int {
	return max(a.height-chromeHeight, 1)
}

func (a *App) columns() int {
	if a.mode != storage.ViewModeGrid {
		return 1
	}
	return max(1, a.width/a.renderer.Options().GridCellWidth)
}

func (a *App) moveCursor(delta int) {
	n := len(a.filtered())
	if n == 0 {
		return
	}
	a.cursor = min(max(a.cursor+delta, 0), n-1)
	a.ensureCursorVisible()
}

func (a *App) clampCursor() {
	n := len(a.filtered())
	a.cursor = min(max(a.cursor, 0), max(n-1, 0))
	a.ensureCursorVisible()
}

// ensureCursorVisible scrolls the minimum needed to show the cursor row.
func (a *App) ensureCursorVisible() {
	h := a.itemHeight()
	top := (a.cursor / a.columns()) * h
	body := a.bodyHeight()
	if top < a.scroll {
		a.scroll = top
	}
	if top+h > a.scroll+body {
		a.scroll = top + h - body
	}
	a.clampScroll()
}

func (a *App) scrollBy(lines int) {
	a.scroll += lines
	a.clampScroll()
}

func (a *App) clampScroll() {
	cols := a.columns()
	rows := (len(a.filtered()) + cols - 1) / cols
	maxScroll := max(rows*a.itemHeight()-a.bodyHeight(), 0)
	a.scroll = min(max(a.scroll, 0), maxScroll)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.err = nil
}

func (a *App) onStatusChange(id string, status storage.Status) {
	a.queued = append(a.queued, a.updateStatus(id, status))
}

func (a *App) onTagsChange(id string, tags []string) {
	a.queued = append(a.queued, a.updateTags(id, tags))
}

// takeQueued hands over commands queued by callbacks.
func (a *App) takeQueued() tea.Cmd {
	cmds := a.queued
	a.queued = nil
	return tea.Batch(cmds...)
}

// Stop tears down timers; late debounce ticks become no-ops.
func (a *App) Stop() {
	a.debouncer.Stop()
}

func (a *App) View() string {
	var content string
	switch a.view {
	case ViewTagPicker:
		content = a.tagPicker.View(a.tags, a.width, a.height-2)
	case ViewDetail:
		content = a.viewport.View()
	case ViewList:
		if a.help.ShowAll {
			content = renderCentered(a.width, a.height-2, a.help.FullHelpView(a.keys.FullHelp()))
			break
		}
		fallthrough
	default:
		content = lipgloss.JoinVertical(lipgloss.Left,
			a.headerView(),
			a.inputLine(),
			a.listView(),
		)
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left, content, separator, a.statusBar())
}

func (a *App) headerView() string {
	f := a.filtered()
	parts := []string{TitleStyle.Render(CompactLogo), renderMuted(MsgEntryCount(len(f), len(a.entries)) + " • " + string(a.mode))}
	for _, t := range a.tags {
		parts = append(parts, ActiveTagStyle.Render("#"+t))
	}
	return lipgloss.NewStyle().MaxWidth(max(a.width, 1)).Render(strings.Join(parts, " "))
}

func (a *App) inputLine() string {
	switch {
	case a.view == ViewTagEditor:
		title := ""
		if e := a.findEntry(a.editingID); e != nil {
			title = truncateEnd(e.Title, 24)
		}
		return HeaderStyle.Render(title+" ") + a.tagEditor.View()
	case a.searchInput.Focused() || a.searchInput.Value() != "":
		return a.searchInput.View()
	default:
		return renderHelp(a.keys.Search.Help().Key + " search • " + a.keys.Tags.Help().Key + " tags")
	}
}

// listView lays the renderer's frame onto a body-sized canvas. Items carry
// their Top in list coordinates; the scroll offset maps them onto screen lines.
func (a *App) listView() string {
	body := a.bodyHeight()
	switch {
	case !a.loaded:
		return renderCentered(a.width, body, renderMuted(MsgLoading))
	case len(a.entries) == 0:
		return renderCentered(a.width, body, GetWelcomeMessage())
	}

	sel := ""
	if e := a.selected(); e != nil {
		sel = e.ID
	}
	frame := a.renderer.Render(listing.Input{
		Entries:        a.entries,
		Search:         a.search,
		Tags:           a.tags,
		Mode:           a.mode,
		ScrollOffset:   a.scroll,
		ViewportHeight: body,
		Width:          a.width,
		SelectedID:     sel,
		EditingID:      a.editingID,
	})
	if len(frame.Filtered) == 0 {
		return renderCentered(a.width, body, renderMuted(MsgNoMatches))
	}

	canvas := make([]string, body)
	place := func(top int, view string) {
		for k, line := range strings.Split(view, "\n") {
			if y := top + k - a.scroll; y >= 0 && y < body {
				canvas[y] = line
			}
		}
	}
	visible := func(top int) bool {
		return top+frame.ItemHeight > a.scroll && top < a.scroll+body
	}

	if frame.Mode == storage.ViewModeGrid {
		var row []string
		rowTop := -1
		flush := func() {
			if len(row) > 0 && visible(rowTop) {
				place(rowTop, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			}
			row = row[:0]
		}
		for _, it := range frame.Items {
			if it.Top != rowTop {
				flush()
				rowTop = it.Top
			}
			row = append(row, it.View)
		}
		flush()
	} else {
		for _, it := range frame.Items {
			if visible(it.Top) {
				place(it.Top, it.View)
			}
		}
	}

	return strings.Join(canvas, "\n")
}

func (a *App) statusBar() string {
	var line string
	switch {
	case a.err != nil:
		line = renderStatus(userError(a.err), StatusError)
	case a.status != "":
		line = renderStatus(a.status, a.statusKind)
	case a.view == ViewDetail:
		line = a.help.ShortHelpView(a.keys.detailHelp())
	case a.view == ViewTagPicker:
		line = renderHelp("type to filter • space/enter: toggle • ctrl+x: clear • esc: back")
	case a.view == ViewTagEditor:
		line = renderHelp("enter: save • esc: cancel")
	default:
		line = a.help.ShortHelpView(a.keys.ShortHelp())
	}
	return lipgloss.NewStyle().Width(max(a.width, 1)).Padding(0, 1).MaxHeight(1).Render(line)
}
