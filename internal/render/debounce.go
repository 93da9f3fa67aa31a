package render

import "time"

// DefaultResizeDelay is how long the viewport must stay still before a
// resize re-renders.
const DefaultResizeDelay = 200 * time.Millisecond

// Debouncer collapses bursts of events into the last one. Each event bumps a
// generation; a timer armed for that generation fires through Settled, and
// only the newest generation passes. The timer itself belongs to the caller
// (a tea.Tick in the terminal UI).
type Debouncer struct {
	delay time.Duration
	gen   uint64
}

// NewDebouncer returns a debouncer with the given delay; non-positive means
// DefaultResizeDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultResizeDelay
	}
	return &Debouncer{delay: delay}
}

// Delay is the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Bump registers an event and returns its generation.
func (d *Debouncer) Bump() uint64 {
	d.gen++
	return d.gen
}

// Settled reports whether gen is still the newest event.
func (d *Debouncer) Settled(gen uint64) bool {
	return gen == d.gen
}
