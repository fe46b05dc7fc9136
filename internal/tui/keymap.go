package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/pairwatch/internal/config"
)

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Select      key.Binding
	Search      key.Binding
	Tags        key.Binding
	ToggleView  key.Binding
	CycleStatus key.Binding
	EditTags    key.Binding
	Open        key.Binding
	Back        key.Binding
	Refresh     key.Binding
	CopyLink    key.Binding
	Quit        key.Binding
	Help        key.Binding
}

// newKeyMap builds bindings from the configured keys. Arrow and paging keys
// are fixed.
func newKeyMap(cfg *config.Config) keyMap {
	b := cfg.Keys.Bindings
	bind := func(k, desc string, extra ...string) key.Binding {
		return key.NewBinding(key.WithKeys(append([]string{k}, extra...)...), key.WithHelp(k, desc))
	}

	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Search:      bind(b.Search, "search"),
		Tags:        bind(b.Tags, "tags"),
		ToggleView:  bind(b.ToggleView, "grid/list"),
		CycleStatus: bind(b.CycleStatus, "status"),
		EditTags:    bind(b.EditTags, "edit tags"),
		Open:        bind(b.Open, "open link"),
		Back:        bind(b.Back, "back"),
		Refresh:     bind(b.Refresh, "refresh"),
		CopyLink:    bind(b.CopyLink, "copy link"),
		Quit:        bind(b.Quit, "quit", "ctrl+c"),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Tags, k.CycleStatus, k.EditTags, k.ToggleView, k.Select, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Search, k.Tags, k.ToggleView, k.Select, k.Back},
		{k.CycleStatus, k.EditTags, k.Open, k.CopyLink, k.Refresh, k.Help, k.Quit},
	}
}

// detailHelp is the short help shown in the detail view.
func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Open, k.CopyLink, k.CycleStatus, k.EditTags, k.Back, k.Quit}
}
