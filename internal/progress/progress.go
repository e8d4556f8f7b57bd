package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Reporter receives progress updates from long-running fetch and
// analysis work. Implementations must tolerate total == 0 when the
// amount of work is not known up front.
type Reporter interface {
	Report(current, total int, message string)
}

// Func adapts a function to the Reporter interface.
type Func func(current, total int, message string)

func (f Func) Report(current, total int, message string) {
	f(current, total, message)
}

// Discard ignores all progress reports.
var Discard Reporter = Func(func(int, int, string) {})

// Indicator renders progress to a terminal. With a known total it draws
// a bar with an ETA, otherwise a spinner with a running count.
type Indicator struct {
	out        io.Writer
	enabled    bool
	message    string
	total      int
	current    int
	startTime  time.Time
	lastUpdate time.Time
}

// NewIndicator creates an indicator writing to stderr.
func NewIndicator(message string, total int, enabled bool) *Indicator {
	return &Indicator{
		out:       os.Stderr,
		enabled:   enabled,
		message:   message,
		total:     total,
		startTime: time.Now(),
	}
}

// Simple creates an indeterminate indicator.
func Simple(message string, quiet bool) *Indicator {
	return NewIndicator(message, 0, !quiet)
}

// WithTotal creates an indicator with a known amount of work.
func WithTotal(message string, total int, quiet bool) *Indicator {
	return NewIndicator(message, total, !quiet)
}

// SetOutput redirects the indicator's output.
func (p *Indicator) SetOutput(w io.Writer) {
	p.out = w
}

// Start announces the operation.
func (p *Indicator) Start() {
	if !p.enabled {
		return
	}

	p.startTime = time.Now()
	p.lastUpdate = p.startTime
	fmt.Fprintf(p.out, "%s...\n", p.message)
}

// Report implements Reporter. A non-zero total replaces the one the
// indicator was built with, so callers that discover the amount of work
// late still get a bar.
func (p *Indicator) Report(current, total int, message string) {
	if total > 0 {
		p.total = total
	}
	if message != "" {
		p.message = message
	}
	p.Update(current)
}

// Update advances the indicator and redraws at most every 100ms.
func (p *Indicator) Update(current int) {
	if !p.enabled {
		return
	}

	p.current = current
	now := time.Now()

	if now.Sub(p.lastUpdate) < 100*time.Millisecond && current < p.total {
		return
	}
	p.lastUpdate = now

	elapsed := now.Sub(p.startTime)

	if p.total > 0 {
		percentage := float64(current) / float64(p.total) * 100
		bar := p.bar(percentage)

		var eta string
		if current > 0 {
			rate := float64(current) / elapsed.Seconds()
			remaining := float64(p.total-current) / rate
			eta = fmt.Sprintf(" ETA: %s", formatDuration(time.Duration(remaining)*time.Second))
		}

		fmt.Fprintf(p.out, "\r%s [%s] %d/%d (%.1f%%)%s",
			p.message, bar, current, p.total, percentage, eta)
	} else {
		fmt.Fprintf(p.out, "\r%s %s (%d processed)", p.message, p.spinner(elapsed), current)
	}
}

// Finish reports completion with the elapsed time.
func (p *Indicator) Finish() {
	if !p.enabled {
		return
	}

	elapsed := time.Since(p.startTime)
	count := p.total
	if count == 0 {
		count = p.current
	}
	fmt.Fprintf(p.out, "\r%s ✓ Completed %d items in %s\n",
		p.message, count, formatDuration(elapsed))
}

// FinishWithError reports failure with the elapsed time.
func (p *Indicator) FinishWithError(err error) {
	if !p.enabled {
		return
	}

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(p.out, "\r%s ✗ Failed after %s: %v\n",
		p.message, formatDuration(elapsed), err)
}

func (p *Indicator) bar(percentage float64) string {
	const width = 30
	filled := int(percentage / 100.0 * width)

	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && percentage < 100 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String()
}

func (p *Indicator) spinner(elapsed time.Duration) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[int(elapsed.Milliseconds()/100)%len(spinners)]
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
