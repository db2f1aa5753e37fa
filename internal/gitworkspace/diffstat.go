package gitworkspace

import (
	"strconv"
	"strings"

	"github.com/worldmind/orchestrator/internal/models"
)

// ParseNumstat parses `git diff --numstat` output into FileChange records
// with LinesChanged populated (added+deleted) but Action left empty.
// Format per line: "<added>\t<deleted>\t<path>"; binary files show "-"
// for both counts, grounded on the teacher's loc_tracker_hook.go parser.
func ParseNumstat(output string) []models.FileChange {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil
	}

	var changes []models.FileChange
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}

		added := parseCount(parts[0])
		deleted := parseCount(parts[1])

		changes = append(changes, models.FileChange{
			Path:         parts[2],
			LinesChanged: added + deleted,
		})
	}
	return changes
}

func parseCount(field string) int {
	if field == "-" {
		return 0
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0
	}
	return n
}

// ParseNameStatus parses `git diff --name-status` output into a
// path -> action map ("created" | "modified" | "deleted"), using git's
// single-letter status codes (A/M/D; renames R### are treated as
// modified on the destination path).
func ParseNameStatus(output string) map[string]string {
	actions := make(map[string]string)
	output = strings.TrimSpace(output)
	if output == "" {
		return actions
	}

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		status := fields[0]
		path := fields[len(fields)-1]

		switch status[0] {
		case 'A':
			actions[path] = models.FileCreated
		case 'D':
			actions[path] = models.FileDeleted
		default: // M, R###, C### and anything else
			actions[path] = models.FileModified
		}
	}
	return actions
}

// BuildFileChanges combines a numstat parse with a name-status parse into
// complete FileChange records (spec.md §3 File-change record), defaulting
// to "modified" for any path numstat reports but name-status omits.
func BuildFileChanges(numstatOutput, nameStatusOutput string) []models.FileChange {
	actions := ParseNameStatus(nameStatusOutput)
	changes := ParseNumstat(numstatOutput)

	for i := range changes {
		if action, ok := actions[changes[i].Path]; ok {
			changes[i].Action = action
		} else {
			changes[i].Action = models.FileModified
		}
	}
	return changes
}

// FormatNumstatLine renders a single FileChange back into a numstat-style
// line, used only by tests to exercise the round-trip property.
func FormatNumstatLine(fc models.FileChange) string {
	return strconv.Itoa(fc.LinesChanged) + "\t0\t" + fc.Path
}
