package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/JakeFAU/paper-harvester/internal/paper"
)

// Bar draws one terminal progress bar per period.
type Bar struct {
	mu      sync.Mutex
	w       io.Writer
	venue   string
	width   int
	current *progressbar.ProgressBar
	failed  int
}

// BarOption customizes a Bar.
type BarOption func(*Bar)

// WithWidth sets the bar width in cells.
func WithWidth(n int) BarOption {
	return func(b *Bar) {
		if n > 0 {
			b.width = n
		}
	}
}

// NewBar draws on w and labels bars with venue.
func NewBar(w io.Writer, venue string, opts ...BarOption) *Bar {
	b := &Bar{w: w, venue: venue, width: 40}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// StartPeriod starts a fresh bar sized to the period's task count.
func (b *Bar) StartPeriod(period, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = 0
	b.current = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(fmt.Sprintf("%s %d", b.venue, period)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("papers"),
		progressbar.OptionSetWidth(b.width),
		progressbar.OptionThrottle(0),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// TaskDone advances the bar and shows the failure count so far.
func (b *Bar) TaskDone(period, completed, _ int, _ paper.Record, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	if !ok {
		b.failed++
		b.current.Describe(fmt.Sprintf("%s %d (%d failed)", b.venue, period, b.failed))
	}
	_ = b.current.Set(completed)
}

// FinishPeriod completes the bar.
func (b *Bar) FinishPeriod(_ int, _ paper.Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	_ = b.current.Finish()
	fmt.Fprintln(b.w)
	b.current = nil
}

// Completed reports the value of the active bar, or -1 when none is active.
func (b *Bar) Completed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return -1
	}
	return int(b.current.State().CurrentNum)
}
