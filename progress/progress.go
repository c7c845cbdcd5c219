// Package progress renders per-task completion events from the parlane
// engine as a terminal progress bar. The engine itself only emits
// advance-by-one notifications; everything about drawing lives here.
package progress

import (
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Bar is a parlane.Reporter drawing a terminal progress bar. The zero value
// is ready to use; the underlying bar is created on Start with the total the
// engine reports. A Bar may be reused across runs: each Start begins a fresh
// bar.
//
// The progressbar type serializes its own updates, so concurrent Advance
// calls from async execution are safe.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar returns an empty Bar ready to be passed to parlane.WithProgress.
func NewBar() *Bar {
	return &Bar{}
}

// Start begins a fresh bar for a run of total tasks.
func (b *Bar) Start(total int, label string) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Advance moves the bar forward by n completed tasks.
func (b *Bar) Advance(n int) {
	if b.bar != nil {
		_ = b.bar.Add(n)
	}
}

// Finish closes out the current bar. Called by the engine on every exit
// path, including failures.
func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Counter is a parlane.Reporter that only counts completions, useful in
// tests and in programs that render progress their own way. Safe for
// concurrent use.
type Counter struct {
	mu        sync.Mutex
	total     int
	label     string
	completed int
	finished  bool
}

func (c *Counter) Start(total int, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.label = label
	c.completed = 0
	c.finished = false
}

func (c *Counter) Advance(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed += n
}

func (c *Counter) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = true
}

// Completed returns how many completions have been reported.
func (c *Counter) Completed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Finished reports whether Finish has been called since the last Start.
func (c *Counter) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}
