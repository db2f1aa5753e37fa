// Package oscillation keeps a short per-task failure-fingerprint history
// and reports when a task is oscillating: repeating the same failure
// reason instead of converging (spec.md §4.6).
package oscillation

// historyWindow bounds how many recent fingerprints are kept per task.
const historyWindow = 5

// repeatThreshold: a fingerprint seen this many times within the window
// also counts as oscillating, even if not the two most recent entries.
const repeatThreshold = 3

// Detector tracks bounded per-task failure history. The zero value is
// ready to use.
type Detector struct {
	history map[string][]string
}

// NewDetector returns a ready-to-use Detector.
func NewDetector() *Detector {
	return &Detector{history: make(map[string][]string)}
}

// Record appends reason to taskID's history, trimming to historyWindow,
// and reports whether the task is now oscillating: the two most recent
// reasons are identical, or the same fingerprint appears repeatThreshold
// times within the window.
func (d *Detector) Record(taskID, reason string) bool {
	if d.history == nil {
		d.history = make(map[string][]string)
	}

	hist := append(d.history[taskID], reason)
	if len(hist) > historyWindow {
		hist = hist[len(hist)-historyWindow:]
	}
	d.history[taskID] = hist

	return isOscillating(hist)
}

func isOscillating(hist []string) bool {
	n := len(hist)
	if n >= 2 && hist[n-1] == hist[n-2] {
		return true
	}

	counts := make(map[string]int, n)
	for _, r := range hist {
		counts[r]++
		if counts[r] >= repeatThreshold {
			return true
		}
	}
	return false
}

// History returns a copy of taskID's recorded fingerprints, most recent
// last.
func (d *Detector) History(taskID string) []string {
	hist := d.history[taskID]
	out := make([]string, len(hist))
	copy(out, hist)
	return out
}

// Reset discards taskID's history, used when a task is reset to pending
// by a merge-conflict (not a gate-denied retry, which should keep
// accumulating fingerprints to detect oscillation across attempts).
func (d *Detector) Reset(taskID string) {
	delete(d.history, taskID)
}
