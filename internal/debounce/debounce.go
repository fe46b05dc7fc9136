// Package debounce delays a rapidly changing value until input goes quiet.
//
// Debouncer is a pure state machine: callers pass the current time in, so it
// can be driven by a real clock, by bubbletea ticks, or by a fake clock in tests.
// It holds at most one pending timer; every Set replaces it.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FireMsg is delivered by the command returned from Tick when the quiet
// period of the given sequence has elapsed.
type FireMsg struct {
	ID  string
	Seq uint64
}

type Debouncer[T any] struct {
	id    string
	delay time.Duration

	seq      uint64
	pending  bool
	deadline time.Time
	latest   T

	value   T
	stopped bool
}

// New returns a debouncer that emits initial until the first settled change.
func New[T any](id string, delay time.Duration, initial T) *Debouncer[T] {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{id: id, delay: delay, latest: initial, value: initial}
}

func (d *Debouncer[T]) ID() string           { return d.id }
func (d *Debouncer[T]) Delay() time.Duration { return d.delay }

// Set records v as the latest input and restarts the quiet period from now.
// The returned sequence identifies the timer; older sequences become stale.
func (d *Debouncer[T]) Set(v T, now time.Time) uint64 {
	if d.stopped {
		return d.seq
	}
	d.seq++
	d.latest = v
	d.pending = true
	d.deadline = now.Add(d.delay)
	return d.seq
}

// Fire emits the latest value if seq is the live timer and its deadline has
// passed. Stale or early fires report false and leave the state untouched.
func (d *Debouncer[T]) Fire(seq uint64, now time.Time) (T, bool) {
	var zero T
	if d.stopped || !d.pending || seq != d.seq || now.Before(d.deadline) {
		return zero, false
	}
	d.pending = false
	d.value = d.latest
	return d.value, true
}

// Due fires the live timer if its deadline has passed.
func (d *Debouncer[T]) Due(now time.Time) (T, bool) {
	return d.Fire(d.seq, now)
}

// Flush emits the pending value immediately, ignoring the deadline.
func (d *Debouncer[T]) Flush() (T, bool) {
	var zero T
	if d.stopped || !d.pending {
		return zero, false
	}
	d.pending = false
	d.value = d.latest
	return d.value, true
}

// Pending reports whether a timer is armed.
func (d *Debouncer[T]) Pending() bool { return d.pending && !d.stopped }

// Deadline is the expiry of the armed timer; zero when none is armed.
func (d *Debouncer[T]) Deadline() time.Time {
	if !d.Pending() {
		return time.Time{}
	}
	return d.deadline
}

// Value is the last emitted value.
func (d *Debouncer[T]) Value() T { return d.value }

// Cancel drops the armed timer without emitting.
func (d *Debouncer[T]) Cancel() {
	d.pending = false
}

// Stop tears the debouncer down. Nothing fires after Stop, including ticks
// that are already in flight.
func (d *Debouncer[T]) Stop() {
	d.pending = false
	d.stopped = true
}

func (d *Debouncer[T]) Stopped() bool { return d.stopped }

// Tick schedules delivery of a FireMsg for seq after the delay.
func (d *Debouncer[T]) Tick(seq uint64) tea.Cmd {
	if d.stopped {
		return nil
	}
	id := d.id
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return FireMsg{ID: id, Seq: seq}
	})
}

// Handle consumes a FireMsg addressed to this debouncer.
func (d *Debouncer[T]) Handle(msg FireMsg, now time.Time) (T, bool) {
	var zero T
	if msg.ID != d.id {
		return zero, false
	}
	return d.Fire(msg.Seq, now)
}
