package display

import (
	"fmt"
	"io"
)

// ProgressIndicator manages multi-step progress display with ANSI colors
// for a wave of dispatched tasks.
type ProgressIndicator struct {
	writer     io.Writer
	totalTasks int
	current    int
}

// NewProgressIndicator creates a new progress indicator for a wave of the
// given size.
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		totalTasks: total,
		current:    0,
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "Dispatching %d task(s)...\n", p.totalTasks)
}

// Step displays progress for the current task: [N/Total] taskID (blue)
func (p *ProgressIndicator) Step(taskID string) {
	p.current++
	fmt.Fprintf(p.writer, "\x1b[34m  [%d/%d] %s\x1b[0m\n", p.current, p.totalTasks, taskID)
}

// Complete displays a success message with a green checkmark
func (p *ProgressIndicator) Complete() {
	fmt.Fprintf(p.writer, "\x1b[32m✓\x1b[0m wave complete: %d task(s) dispatched\n", p.totalTasks)
}

// DisplaySingleTask shows a simple message for a single dispatched task
func DisplaySingleTask(w io.Writer, taskID string) {
	fmt.Fprintf(w, "Dispatching task: %s...\n", taskID)
}
