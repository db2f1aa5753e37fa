package gitworkspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldmind/orchestrator/internal/models"
)

func TestParseNumstat(t *testing.T) {
	output := "10\t4\tsrc/a.go\n0\t0\tsrc/b.go\n-\t-\tassets/logo.png\n"

	changes := ParseNumstat(output)
	require.Len(t, changes, 3)
	assert.Equal(t, "src/a.go", changes[0].Path)
	assert.Equal(t, 14, changes[0].LinesChanged)
	assert.Equal(t, 0, changes[2].LinesChanged)
}

func TestParseNameStatus(t *testing.T) {
	output := "A\tsrc/new.go\nM\tsrc/existing.go\nD\tsrc/gone.go\n"

	actions := ParseNameStatus(output)
	assert.Equal(t, models.FileCreated, actions["src/new.go"])
	assert.Equal(t, models.FileModified, actions["src/existing.go"])
	assert.Equal(t, models.FileDeleted, actions["src/gone.go"])
}

func TestBuildFileChanges(t *testing.T) {
	numstat := "10\t4\tsrc/a.go\n"
	nameStatus := "A\tsrc/a.go\n"

	changes := BuildFileChanges(numstat, nameStatus)
	require.Len(t, changes, 1)
	assert.Equal(t, models.FileChange{Path: "src/a.go", Action: models.FileCreated, LinesChanged: 14}, changes[0])
}

// TestRoundTrip asserts parsing a synthesised stat line yields the
// original path and lines-changed (spec.md §8 Testable properties).
func TestRoundTrip(t *testing.T) {
	original := models.FileChange{Path: "src/round_trip.go", LinesChanged: 7}

	line := FormatNumstatLine(original)
	parsed := ParseNumstat(line)

	require.Len(t, parsed, 1)
	assert.Equal(t, original.Path, parsed[0].Path)
	assert.Equal(t, original.LinesChanged, parsed[0].LinesChanged)
}
