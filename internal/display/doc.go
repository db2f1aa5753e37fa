// Package display provides terminal UI utilities for displaying progress, warnings, and status messages.
//
// This package centralizes all terminal output formatting, ANSI color codes, and user-facing display logic
// for the orchestrator CLI. It provides two main categories of functionality:
//
// # Progress Indicators
//
// Use ProgressIndicator to render a wave of dispatched tasks:
//
//	progress := display.NewProgressIndicator(os.Stdout, len(wave))
//	progress.Start()
//	for _, task := range wave {
//	    progress.Step(task.ID)
//	    // ... dispatch task ...
//	}
//	progress.Complete()
//
// For a single dispatched task:
//
//	display.DisplaySingleTask(os.Stdout, task.ID)
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Wave Merge Conflict",
//	    Message:    "2 task(s) could not be merged onto main",
//	    Files:      []string{"TASK-002", "TASK-004"},
//	    Suggestion: "Inspect the conflicted worktrees and resolve manually",
//	}
//	warning.Display(os.Stderr)
//
// # ANSI Colors
//
// The package uses ANSI escape codes for terminal colors:
//   - Blue (\x1b[34m) for progress indicators
//   - Green (\x1b[32m) for success messages
//   - Yellow (\x1b[33m) for warnings
//   - Reset (\x1b[0m) after each colored section
//
// All functions accept io.Writer interfaces for testability and flexibility.
//
// # Design Principles
//
//   - Single source of truth for all display logic
//   - Consistent formatting across all commands
//   - Testable via io.Writer abstraction
//   - No global state or side effects
//   - Minimal dependencies (standard library only)
package display
