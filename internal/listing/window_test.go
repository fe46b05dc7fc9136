package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indices(w Window) []int {
	out := make([]int, 0, len(w.Items))
	for _, it := range w.Items {
		out = append(out, it.Index)
	}
	return out
}

func TestComputeWindowTallItems(t *testing.T) {
	w, ok := ComputeWindow(80, 400, 600, 0, 5)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, indices(w))
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 6, w.End)
	assert.Equal(t, 7, w.Len())
	assert.Equal(t, 32000, w.TotalHeight)
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name                          string
		count, height, viewport, off  int
		buffer                        int
		wantStart, wantEnd, wantTotal int
	}{
		{"top of list", 100, 3, 30, 0, 5, 0, 14, 300},
		{"middle", 100, 3, 30, 150, 5, 45, 64, 300},
		{"near bottom clamps", 100, 3, 30, 290, 5, 91, 99, 300},
		{"offset past end", 100, 3, 30, 10000, 5, 94, 99, 300},
		{"negative offset is top", 100, 3, 30, -40, 5, 0, 14, 300},
		{"no buffer", 100, 10, 25, 55, 0, 5, 8, 1000},
		{"fewer items than viewport", 4, 3, 30, 0, 5, 0, 3, 12},
		{"unaligned offset", 60, 4, 10, 7, 2, 0, 5, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := ComputeWindow(tt.count, tt.height, tt.viewport, tt.off, tt.buffer)
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, w.Start, "start")
			assert.Equal(t, tt.wantEnd, w.End, "end")
			assert.Equal(t, tt.wantTotal, w.TotalHeight, "total")
			for _, it := range w.Items {
				assert.Equal(t, it.Index*tt.height, it.Top)
			}
		})
	}
}

func TestComputeWindowEmpty(t *testing.T) {
	w, ok := ComputeWindow(0, 3, 30, 0, 5)
	require.True(t, ok)
	assert.Empty(t, w.Items)
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0, w.TotalHeight)
}

func TestComputeWindowDegenerate(t *testing.T) {
	for _, tc := range []struct{ height, viewport int }{{0, 30}, {-1, 30}, {3, 0}, {3, -10}} {
		w, ok := ComputeWindow(100, tc.height, tc.viewport, 0, 5)
		assert.False(t, ok, "height=%d viewport=%d", tc.height, tc.viewport)
		assert.Empty(t, w.Items)
	}
}

// Every row that intersects the viewport must be mounted, and all mounted
// indices must be in range and contiguous.
func TestComputeWindowCoversViewport(t *testing.T) {
	for _, count := range []int{1, 7, 51, 200} {
		for _, height := range []int{1, 3, 7, 400} {
			for _, viewport := range []int{1, 5, 24, 600} {
				for _, buffer := range []int{0, 1, 5} {
					total := count * height
					for off := 0; off <= total; off += max(1, total/37) {
						w, ok := ComputeWindow(count, height, viewport, off, buffer)
						require.True(t, ok)

						for i := 0; i < count; i++ {
							top := i * height
							if top >= off && top <= off+viewport {
								if !w.Contains(i) {
									t.Fatalf("count=%d h=%d vh=%d off=%d buf=%d: row %d missing from [%d,%d]",
										count, height, viewport, off, buffer, i, w.Start, w.End)
								}
							}
						}

						prev := -1
						for _, it := range w.Items {
							if it.Index < 0 || it.Index >= count {
								t.Fatalf("index %d out of range [0,%d)", it.Index, count)
							}
							if prev >= 0 && it.Index != prev+1 {
								t.Fatalf("gap between %d and %d", prev, it.Index)
							}
							prev = it.Index
						}
					}
				}
			}
		}
	}
}
