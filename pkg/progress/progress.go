// Package progress reports maintenance step progress on the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/DEVBOX10/microsoft-scalar/pkg/color"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

// Callback receives progress updates as steps start and finish.
type Callback func(current, total int, message string, result model.StepResult)

// Noop is a no-op callback for default behavior.
func Noop(current, total int, message string, result model.StepResult) {}

// Terminal prints one line per step:
//
//	[1/3] Updating commit-graph...Succeeded
type Terminal struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	open    bool
}

// NewTerminal creates a progress printer writing to stderr.
func NewTerminal(enabled bool) *Terminal {
	return &Terminal{writer: os.Stderr, enabled: enabled}
}

// SetWriter redirects output.
func (t *Terminal) SetWriter(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writer = w
}

// SetEnabled enables or disables output.
func (t *Terminal) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// IsEnabled returns whether output is enabled.
func (t *Terminal) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Start prints the step message without a trailing newline.
func (t *Terminal) Start(current, total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	if t.open {
		fmt.Fprintln(t.writer)
	}
	if total > 1 {
		fmt.Fprintf(t.writer, "%s ", color.Dim(fmt.Sprintf("[%d/%d]", current, total)))
	}
	fmt.Fprintf(t.writer, "%s...", message)
	t.open = true
}

// Finish completes the current line with the step result.
func (t *Terminal) Finish(result model.StepResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || !t.open {
		return
	}
	fmt.Fprintln(t.writer, resultLabel(result))
	t.open = false
}

// Callback adapts the terminal to a Callback. An empty result starts a line,
// anything else finishes it.
func (t *Terminal) Callback() Callback {
	return func(current, total int, message string, result model.StepResult) {
		if result == "" {
			t.Start(current, total, message)
			return
		}
		t.Finish(result)
	}
}

func resultLabel(result model.StepResult) string {
	switch result {
	case model.StepSucceeded:
		return color.Success("Succeeded")
	case model.StepFailed:
		return color.Error("Failed")
	case model.StepSkipped:
		return color.Warning("Skipped")
	default:
		return string(result)
	}
}
