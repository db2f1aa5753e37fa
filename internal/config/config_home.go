package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Home returns the orchestrator's home directory for a mission's working
// copy, used for resume-state JSON and merge workspaces.
//
// Priority order:
//  1. WORLDMIND_HOME environment variable, if set.
//  2. The repository root containing this module (detected via go.mod),
//     so missions run from a subdirectory still share one home.
//  3. The current working directory, as a fallback.
//
// The directory is created if it does not already exist.
func Home() (string, error) {
	if home := os.Getenv("WORLDMIND_HOME"); home != "" {
		return ensureDir(home)
	}

	if root, err := findModuleRoot(); err == nil && root != "" {
		return ensureDir(filepath.Join(root, ".worldmind"))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return ensureDir(filepath.Join(cwd, ".worldmind"))
}

func ensureDir(path string) (string, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create orchestrator home directory: %w", err)
	}
	return path, nil
}

// findModuleRoot walks up from the working directory looking for a go.mod
// that declares this module, or a .worldmind-root marker file.
func findModuleRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		if _, err := os.Stat(filepath.Join(current, ".worldmind-root")); err == nil {
			return current, nil
		}

		if data, err := os.ReadFile(filepath.Join(current, "go.mod")); err == nil {
			if strings.Contains(string(data), "github.com/worldmind/orchestrator") {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("module root not found")
}

// MissionsDir returns $WORLDMIND_HOME/missions, creating it if necessary.
// This is where resumable mission JSON dumps are written (see the resume
// feature in SPEC_FULL.md §9).
func MissionsDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(home, "missions"))
}
