// Package config loads A0's CLI-level configuration: viper-backed
// defaults, an optional project config file, and environment
// overrides, exactly as the donor's config package does. This is
// distinct from capability policy resolution (internal/runtime/
// capability), which is a separate spec-mandated lookup and is never
// routed through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents A0's CLI-level configuration.
type Config struct {
	Pretty         bool   `mapstructure:"pretty"`
	UnsafeAllowAll bool   `mapstructure:"unsafe_allow_all"`
	TracePath      string `mapstructure:"trace_path"`
	EvidencePath   string `mapstructure:"evidence_path"`
	NoColor        bool   `mapstructure:"no_color"`
}

// Load loads configuration from a0.yml/a0.yaml in the current
// directory, falling back to defaults, with A0_-prefixed environment
// variables able to override any field.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("pretty", false)
	v.SetDefault("unsafe_allow_all", false)
	v.SetDefault("trace_path", "")
	v.SetDefault("evidence_path", "")
	v.SetDefault("no_color", false)

	v.SetConfigName("a0")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("A0")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// GetProjectRoot walks up from the current directory looking for
// a0.yml/a0.yaml or a .a0policy.json, the two markers of an A0
// project root (A0 programs otherwise have no project structure of
// their own — a single .a0 file is a complete program).
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{"a0.yml", "a0.yaml", ".a0policy.json"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in an A0 project (no a0.yml or .a0policy.json found)")
		}
		dir = parent
	}
}
