// Package claude provides utilities for invoking Claude CLI.
package llmclient

import (
	"os"
	"os/exec"
	"path/filepath"
)

// cleanTmpDir is the clean temp directory for coding-tool CLI invocations.
// Using a dedicated directory avoids stray editor socket files that crash
// some CLI tools when a --settings flag is used.
var cleanTmpDir string

func init() {
	cleanTmpDir = filepath.Join(os.TempDir(), "worldmind-agent")
	os.MkdirAll(cleanTmpDir, 0755)
}

// SetCleanEnv configures a command to use a clean TMPDIR without editor
// sockets, preventing CLI crashes when using --settings.
func SetCleanEnv(cmd *exec.Cmd) {
	// Copy current environment
	cmd.Env = os.Environ()

	// Override TMPDIR to avoid stray socket files
	found := false
	for i, env := range cmd.Env {
		if len(env) > 7 && env[:7] == "TMPDIR=" {
			cmd.Env[i] = "TMPDIR=" + cleanTmpDir
			found = true
			break
		}
	}
	if !found {
		cmd.Env = append(cmd.Env, "TMPDIR="+cleanTmpDir)
	}
}

// GetCleanTmpDir returns the clean temp directory path for CLI invocations.
func GetCleanTmpDir() string {
	return cleanTmpDir
}
