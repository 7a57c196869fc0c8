package format

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".a0-format.yml")

	config := &Config{IndentSize: 4}

	err := SaveConfig(configPath, config)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.IndentSize != 4 {
		t.Errorf("Expected indent size 4, got %d", loaded.IndentSize)
	}
}

func TestConfigLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".a0-format.yml")

	err := os.WriteFile(configPath, []byte("invalid: yaml: content:\n  - bad"), 0644)
	if err != nil {
		t.Fatalf("Failed to write invalid yaml: %v", err)
	}

	_, err = LoadConfig(configPath)
	if err == nil {
		t.Errorf("Expected error loading invalid YAML")
	}
}

func TestConfigPartialSettings(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".a0-format.yml")

	yamlContent := `format:
  indent_size: 3
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to write yaml: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.IndentSize != 3 {
		t.Errorf("Expected indent size 3, got %d", loaded.IndentSize)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.IndentSize != 2 {
		t.Errorf("Default indent size should be 2, got %d", config.IndentSize)
	}
}

func TestConfigLoadWithZeroValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".a0-format.yml")

	yamlContent := `format:
  indent_size: 0
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to write yaml: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.IndentSize != 2 {
		t.Errorf("Expected default indent size 2 for zero value, got %d", loaded.IndentSize)
	}
}

func TestConfigSaveError(t *testing.T) {
	err := SaveConfig("/nonexistent/directory/.a0-format.yml", DefaultConfig())
	if err == nil {
		t.Errorf("SaveConfig should return error for invalid path")
	}
}
