package commands

import "testing"

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "a0" {
		t.Errorf("expected Use to be 'a0', got %s", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	expectedCommands := []string{"version", "run", "check", "fmt", "trace", "help", "policy", "lsp"}
	for _, expected := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2026-01-01"
	GoVersion = "go1.23"

	cmd := NewVersionCommand()
	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %s", cmd.Use)
	}
	if cmd.Run == nil {
		t.Fatal("version command Run function is nil")
	}
	cmd.Run(cmd, []string{})
}

func TestExecuteReturnsZeroForVersion(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("expected version command to succeed, got %v", err)
	}
}

func TestExecuteReturnsOneForUnknownCommand(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs([]string{"does-not-exist"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected an error for an unknown subcommand")
	}
}
