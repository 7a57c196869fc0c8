package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Pretty {
		t.Errorf("expected default pretty to be false")
	}
	if cfg.UnsafeAllowAll {
		t.Errorf("expected default unsafe_allow_all to be false")
	}
	if cfg.TracePath != "" {
		t.Errorf("expected default trace_path to be empty, got %s", cfg.TracePath)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	configContent := `
pretty: true
unsafe_allow_all: false
trace_path: ./trace.ndjson
no_color: true
`
	if err := os.WriteFile("a0.yml", []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if !cfg.Pretty {
		t.Errorf("expected pretty true from config file")
	}
	if cfg.TracePath != "./trace.ndjson" {
		t.Errorf("expected trace_path from config file, got %s", cfg.TracePath)
	}
	if !cfg.NoColor {
		t.Errorf("expected no_color true from config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.Setenv("A0_PRETTY", "true")
	defer os.Unsetenv("A0_PRETTY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.Pretty {
		t.Errorf("expected A0_PRETTY env var to override pretty to true")
	}
}

func TestGetProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.WriteFile(filepath.Join(tmpDir, "a0.yml"), []byte(""), 0644); err != nil {
		t.Fatalf("failed to write marker file: %v", err)
	}

	subDir := filepath.Join(tmpDir, "src", "deep", "nested")
	os.MkdirAll(subDir, 0755)
	os.Chdir(subDir)

	root, err := GetProjectRoot()
	if err != nil {
		t.Fatalf("expected to find project root, got error: %v", err)
	}

	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedTmpDir, _ := filepath.EvalSymlinks(tmpDir)
	if resolvedRoot != resolvedTmpDir {
		t.Errorf("expected project root to be %s, got %s", resolvedTmpDir, resolvedRoot)
	}
}

func TestGetProjectRootNotInProject(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	_, err := GetProjectRoot()
	if err == nil {
		t.Error("expected error when not in a project, got nil")
	}
}
