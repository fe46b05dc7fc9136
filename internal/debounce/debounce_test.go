package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestBurstConvergesToLastValue(t *testing.T) {
	clock := newClock()
	d := New("search", 300*time.Millisecond, "")

	var seqs []uint64
	for _, v := range []string{"c", "ca", "cat", "cats", "cat"} {
		seqs = append(seqs, d.Set(v, clock.now))
		clock.advance(50 * time.Millisecond)
	}

	// Every tick from the burst arrives; only the last one may fire.
	clock.advance(300 * time.Millisecond)
	emissions := 0
	var got string
	for _, seq := range seqs {
		if v, ok := d.Fire(seq, clock.now); ok {
			emissions++
			got = v
		}
	}

	assert.Equal(t, 1, emissions)
	assert.Equal(t, "cat", got)
	assert.Equal(t, "cat", d.Value())
	assert.False(t, d.Pending())
}

func TestFireBeforeDeadlineIsIgnored(t *testing.T) {
	clock := newClock()
	d := New("search", 300*time.Millisecond, "")

	seq := d.Set("x", clock.now)
	_, ok := d.Fire(seq, clock.advance(299*time.Millisecond))
	assert.False(t, ok)
	assert.True(t, d.Pending())

	v, ok := d.Fire(seq, clock.advance(time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestChangeRestartsTimer(t *testing.T) {
	clock := newClock()
	d := New("search", 300*time.Millisecond, "")

	d.Set("a", clock.now)
	clock.advance(250 * time.Millisecond)
	d.Set("ab", clock.now)

	// The original deadline has passed but the restart pushed it out.
	_, ok := d.Due(clock.advance(100 * time.Millisecond))
	assert.False(t, ok)

	v, ok := d.Due(clock.advance(200 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "ab", v)
}

func TestStopCancelsPendingAndLateTicks(t *testing.T) {
	clock := newClock()
	d := New("search", 300*time.Millisecond, "")

	seq := d.Set("late", clock.now)
	d.Stop()

	_, ok := d.Fire(seq, clock.advance(time.Second))
	assert.False(t, ok)
	assert.False(t, d.Pending())
	assert.True(t, d.Deadline().IsZero())
	assert.Equal(t, "", d.Value())
	assert.Nil(t, d.Tick(seq))

	// Set after Stop is inert.
	d.Set("ignored", clock.now)
	assert.False(t, d.Pending())
}

func TestCancelAndFlush(t *testing.T) {
	clock := newClock()
	d := New("tags", time.Second, 0)

	d.Set(1, clock.now)
	d.Cancel()
	_, ok := d.Due(clock.advance(2 * time.Second))
	assert.False(t, ok)

	d.Set(2, clock.now)
	v, ok := d.Flush()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = d.Flush()
	assert.False(t, ok)
}

func TestHandleChecksID(t *testing.T) {
	clock := newClock()
	d := New("search", 10*time.Millisecond, "")
	seq := d.Set("q", clock.now)
	clock.advance(20 * time.Millisecond)

	_, ok := d.Handle(FireMsg{ID: "other", Seq: seq}, clock.now)
	assert.False(t, ok)

	v, ok := d.Handle(FireMsg{ID: "search", Seq: seq}, clock.now)
	require.True(t, ok)
	assert.Equal(t, "q", v)
}

func TestTickDeliversFireMsg(t *testing.T) {
	d := New("search", time.Millisecond, "")
	seq := d.Set("q", time.Now())

	cmd := d.Tick(seq)
	require.NotNil(t, cmd)

	msg := cmd()
	fire, ok := msg.(FireMsg)
	require.True(t, ok)
	assert.Equal(t, FireMsg{ID: "search", Seq: seq}, fire)
}
