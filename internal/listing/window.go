package listing

// VisibleItem is one mounted index and its absolute offset.
type VisibleItem struct {
	Index int
	Top   int
}

// Window is the slice of a uniform-height list that must be rendered for a
// scroll position. Start and End are inclusive; End < Start means empty.
type Window struct {
	Start       int
	End         int
	Items       []VisibleItem
	TotalHeight int
}

func (w Window) Len() int {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start + 1
}

func (w Window) Contains(i int) bool {
	return i >= w.Start && i <= w.End
}

// ComputeWindow returns the indices to mount for a viewport scrolled to
// scrollOffset, with buffer extra rows on either side.
//
// It reports false for degenerate geometry (non-positive item or viewport
// height); callers then render the full list. Every row that intersects
// [scrollOffset, scrollOffset+viewportHeight] is always included.
func ComputeWindow(itemCount, itemHeight, viewportHeight, scrollOffset, buffer int) (Window, bool) {
	if itemHeight <= 0 || viewportHeight <= 0 {
		return Window{End: -1}, false
	}
	if itemCount <= 0 {
		return Window{End: -1}, true
	}
	if buffer < 0 {
		buffer = 0
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}

	start := min(scrollOffset/itemHeight, itemCount-1)
	visibleCount := (viewportHeight + itemHeight - 1) / itemHeight

	// end is exclusive here.
	end := min(start+visibleCount+buffer, itemCount)
	lastVisible := (scrollOffset + viewportHeight) / itemHeight
	end = max(end, min(lastVisible+1, itemCount))

	first := max(0, start-buffer)
	items := make([]VisibleItem, 0, end-first)
	for i := first; i < end; i++ {
		items = append(items, VisibleItem{Index: i, Top: i * itemHeight})
	}

	return Window{
		Start:       first,
		End:         end - 1,
		Items:       items,
		TotalHeight: itemCount * itemHeight,
	}, true
}
