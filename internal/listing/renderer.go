package listing

import (
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/pders01/pairwatch/internal/debuglog"
	"github.com/pders01/pairwatch/internal/storage"
)

const (
	DefaultThreshold = 50
	DefaultBuffer    = 5
)

// Callbacks are handed to item renderers untouched; the renderer never calls them.
type Callbacks struct {
	OnStatusChange func(id string, status storage.Status)
	OnTagsChange   func(id string, tags []string)
}

// ItemContext is everything an item renderer may depend on. Renders are
// cached, so the output must be a pure function of these fields.
type ItemContext struct {
	Entry     *storage.Entry
	Index     int
	Mode      storage.ViewMode
	Width     int
	Height    int
	Selected  bool
	Editing   bool
	Callbacks Callbacks
}

type ItemRenderer func(ItemContext) string

type Options struct {
	// Threshold is the filtered size above which list mode is windowed.
	Threshold     int
	ItemHeight    int
	Buffer        int
	GridCellWidth int
	Locale        string
	Render        ItemRenderer
}

type Input struct {
	Entries        []*storage.Entry
	Search         string
	Tags           []string
	Mode           storage.ViewMode
	ScrollOffset   int
	ViewportHeight int
	Width          int
	SelectedID     string
	EditingID      string
}

// Placed is one rendered item and where it goes. Top is in the coordinate
// space of Frame.TotalHeight.
type Placed struct {
	Index  int
	Top    int
	Column int
	Entry  *storage.Entry
	View   string
}

type Frame struct {
	Filtered    []*storage.Entry
	Mode        storage.ViewMode
	Windowed    bool
	Items       []Placed
	TotalHeight int
	Columns     int
	ItemHeight  int
	CellWidth   int
}

type Stats struct {
	FilterPasses int
	Renders      int
	Hits         int
}

type memoEntry struct {
	key  [32]byte
	view string
}

// Renderer turns entries plus filter and scroll state into a Frame. It keeps
// two memos keyed on inputs: the last filter result, and per-entry renders.
type Renderer struct {
	opts      Options
	pipeline  *Pipeline
	callbacks Callbacks
	callGen   uint64

	lastEntries []*storage.Entry
	lastSearch  string
	lastTags    string
	filtered    []*storage.Entry
	filterValid bool

	cache map[string]memoEntry
	stats Stats
}

func NewRenderer(opts Options) *Renderer {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Buffer < 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.GridCellWidth <= 0 {
		opts.GridCellWidth = 28
	}
	if opts.Render == nil {
		opts.Render = PlainItem
	}
	return &Renderer{
		opts:     opts,
		pipeline: NewPipeline(opts.Locale),
		cache:    make(map[string]memoEntry),
	}
}

func (r *Renderer) Options() Options { return r.opts }
func (r *Renderer) Stats() Stats     { return r.stats }

// SetCallbacks replaces the callbacks and invalidates every cached render.
func (r *Renderer) SetCallbacks(cb Callbacks) {
	r.callbacks = cb
	r.callGen++
}

// Filtered runs (or reuses) the filter pass for the given inputs.
func (r *Renderer) Filtered(entries []*storage.Entry, search string, tags []string) []*storage.Entry {
	tagKey := strings.Join(tags, "\x00")
	if r.filterValid && sameSlice(entries, r.lastEntries) && search == r.lastSearch && tagKey == r.lastTags {
		return r.filtered
	}

	r.filtered = r.pipeline.FilterAndSort(entries, search, tags)
	r.lastEntries = entries
	r.lastSearch = search
	r.lastTags = tagKey
	r.filterValid = true
	r.stats.FilterPasses++
	r.prune()

	debuglog.WithFields(debuglog.Fields{"in": len(entries), "out": len(r.filtered), "search": search}).
		Debugf("filter pass")
	return r.filtered
}

// Invalidate forgets the filter memo and all cached renders.
func (r *Renderer) Invalidate() {
	r.filterValid = false
	r.cache = make(map[string]memoEntry)
}

func (r *Renderer) Render(in Input) Frame {
	filtered := r.Filtered(in.Entries, in.Search, in.Tags)
	mode := in.Mode
	if mode != storage.ViewModeGrid {
		mode = storage.ViewModeList
	}

	frame := Frame{
		Filtered:   filtered,
		Mode:       mode,
		Columns:    1,
		ItemHeight: r.opts.ItemHeight,
		CellWidth:  in.Width,
	}

	if mode == storage.ViewModeList && len(filtered) > r.opts.Threshold {
		if w, ok := ComputeWindow(len(filtered), r.opts.ItemHeight, in.ViewportHeight, in.ScrollOffset, r.opts.Buffer); ok {
			frame.Windowed = true
			frame.TotalHeight = w.TotalHeight
			frame.Items = make([]Placed, 0, len(w.Items))
			for _, vi := range w.Items {
				e := filtered[vi.Index]
				frame.Items = append(frame.Items, Placed{
					Index: vi.Index,
					Top:   vi.Top,
					Entry: e,
					View:  r.renderItem(e, vi.Index, mode, in.Width, in),
				})
			}
			return frame
		}
	}

	height := max(r.opts.ItemHeight, 1)
	if mode == storage.ViewModeGrid {
		frame.CellWidth = r.opts.GridCellWidth
		frame.Columns = max(1, in.Width/r.opts.GridCellWidth)
	}

	frame.Items = make([]Placed, 0, len(filtered))
	for i, e := range filtered {
		row, col := i/frame.Columns, i%frame.Columns
		frame.Items = append(frame.Items, Placed{
			Index:  i,
			Top:    row * height,
			Column: col,
			Entry:  e,
			View:   r.renderItem(e, i, mode, frame.CellWidth, in),
		})
	}
	rows := (len(filtered) + frame.Columns - 1) / frame.Columns
	frame.TotalHeight = rows * height
	return frame
}

func (r *Renderer) renderItem(e *storage.Entry, index int, mode storage.ViewMode, width int, in Input) string {
	ctx := ItemContext{
		Entry:     e,
		Index:     index,
		Mode:      mode,
		Width:     width,
		Height:    r.opts.ItemHeight,
		Selected:  e.ID == in.SelectedID,
		Editing:   e.ID == in.EditingID,
		Callbacks: r.callbacks,
	}

	key := r.memoKey(ctx)
	if m, ok := r.cache[e.ID]; ok && m.key == key {
		r.stats.Hits++
		return m.view
	}

	view := r.opts.Render(ctx)
	r.cache[e.ID] = memoEntry{key: key, view: view}
	r.stats.Renders++
	return view
}

// memoKey digests the mutable entry fields and render context. Index is
// left out on purpose: filtering shifts positions without changing output.
func (r *Renderer) memoKey(ctx ItemContext) [32]byte {
	e := ctx.Entry
	var b strings.Builder
	for _, s := range []string{e.Title, string(e.Status), e.MediaType, e.AddedBy, e.Link, string(ctx.Mode)} {
		b.WriteString(s)
		b.WriteByte(0)
	}
	b.WriteString(strconv.Itoa(len(e.Tags)))
	for _, t := range e.Tags {
		b.WriteByte(0)
		b.WriteString(t)
	}
	b.WriteByte(1)
	b.WriteString(strconv.Itoa(e.Year))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(ctx.Width))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(ctx.Height))
	b.WriteByte(0)
	b.WriteString(strconv.FormatBool(ctx.Selected))
	b.WriteString(strconv.FormatBool(ctx.Editing))
	b.WriteByte(0)
	b.WriteString(strconv.FormatUint(r.callGen, 10))
	return blake3.Sum256([]byte(b.String()))
}

// prune drops cached renders for entries that left the filtered set.
func (r *Renderer) prune() {
	live := make(map[string]struct{}, len(r.filtered))
	for _, e := range r.filtered {
		live[e.ID] = struct{}{}
	}
	for id := range r.cache {
		if _, ok := live[id]; !ok {
			delete(r.cache, id)
		}
	}
}

func sameSlice(a, b []*storage.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

// PlainItem renders an entry as "Title (Year) [status]" with no styling.
func PlainItem(ctx ItemContext) string {
	e := ctx.Entry
	var b strings.Builder
	if ctx.Selected {
		b.WriteString("> ")
	}
	b.WriteString(e.Title)
	if e.Year > 0 {
		b.WriteString(" (" + strconv.Itoa(e.Year) + ")")
	}
	if e.Status != "" {
		b.WriteString(" [" + string(e.Status) + "]")
	}
	if len(e.Tags) > 0 {
		b.WriteString(" #" + strings.Join(e.Tags, " #"))
	}
	return b.String()
}
