package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_Name(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "worldmind" {
		t.Errorf("expected Use to be %q, got %q", "worldmind", cmd.Use)
	}
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	want := []string{"run", "resume", "status", "config", "budget"}
	got := map[string]bool{}
	for _, c := range cmd.Commands() {
		got[c.Name()] = true
	}

	for _, name := range want {
		if !got[name] {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestRootCommand_HelpMentionsWorldmind(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(strings.ToLower(buf.String()), "worldmind") {
		t.Errorf("expected help output to mention worldmind, got: %s", buf.String())
	}
}
