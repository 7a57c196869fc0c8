package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatError(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "UNKNOWN CAPABILITY",
				Problem: "'fs.reed' is not a known capability.",
			},
			contains: []string{
				"❌",
				"UNKNOWN CAPABILITY",
				"'fs.reed' is not a known capability.",
			},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "UNKNOWN CAPABILITY",
				Problem:     "'fs.reed' is not a known capability.",
				Suggestions: []string{"fs.read", "fs.write"},
			},
			contains: []string{
				"Did you mean: fs.read, fs.write?",
			},
		},
		{
			name: "error with help commands",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "CAPABILITY DENIED",
				Problem: "'fs.write' is not allowed by the current policy.",
				HelpCommands: []string{
					"See the effective policy: a0 policy",
					"Bypass policy for local development: a0 run --unsafe-allow-all",
				},
			},
			contains: []string{
				"→ See the effective policy: a0 policy",
				"→ Bypass policy for local development: a0 run --unsafe-allow-all",
			},
		},
		{
			name: "warning message",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "Deprecated feature used",
			},
			contains: []string{
				"⚠️",
				"Deprecated feature used",
			},
		},
		{
			name: "info message",
			opts: ErrorOptions{
				Level:   ErrorLevelInfo,
				Problem: "Run completed successfully",
			},
			contains: []string{
				"ℹ️",
				"Run completed successfully",
			},
		},
		{
			name: "error with consequence",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "BUDGET EXCEEDED",
				Problem:     "time budget of 5000ms exceeded",
				Consequence: "evaluation was aborted mid-statement",
			},
			contains: []string{
				"time budget of 5000ms exceeded",
				"evaluation was aborted mid-statement",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestUnknownCapabilityError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := UnknownCapabilityError("fs.reed", []string{"fs.read", "fs.write"}, true)

	expected := []string{
		"UNKNOWN CAPABILITY",
		"'fs.reed' is not a known capability.",
		"Did you mean: fs.read, fs.write?",
		"See all capabilities: a0 policy",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("UnknownCapabilityError() missing expected string: %q", exp)
		}
	}
}

func TestCapabilityDeniedError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := CapabilityDeniedError("fs.write", true)

	expected := []string{
		"CAPABILITY DENIED",
		"'fs.write' is not allowed by the current policy.",
		"See the effective policy: a0 policy",
		"Bypass policy for local development: a0 run --unsafe-allow-all",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("CapabilityDeniedError() missing expected string: %q", exp)
		}
	}
}

func TestBudgetExceededError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := BudgetExceededError("time budget of 5000ms exceeded", true)

	expected := []string{
		"BUDGET EXCEEDED",
		"time budget of 5000ms exceeded",
		"Inspect the trace: a0 trace <file.jsonl>",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("BudgetExceededError() missing expected string: %q", exp)
		}
	}
}

func TestWriteError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Context: "TEST ERROR",
		Problem: "This is a test",
	}

	WriteError(&buf, opts)

	output := buf.String()
	if !strings.Contains(output, "TEST ERROR") {
		t.Errorf("WriteError() did not write to buffer correctly")
	}
}

func TestFormatSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := FormatSuccess("Run completed", true)

	if !strings.Contains(result, "✓") {
		t.Errorf("FormatSuccess() missing checkmark")
	}
	if !strings.Contains(result, "Run completed") {
		t.Errorf("FormatSuccess() missing message")
	}
}

func TestWriteSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteSuccess(&buf, "Test success", true)

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Errorf("WriteSuccess() missing checkmark")
	}
	if !strings.Contains(output, "Test success") {
		t.Errorf("WriteSuccess() missing message")
	}
}

func TestWarning(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := Warning("Deprecated feature", []string{"Use new API"}, true)

	expected := []string{
		"⚠️",
		"Deprecated feature",
		"Did you mean: Use new API?",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("Warning() missing expected string: %q", exp)
		}
	}
}

func TestInfo(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := Info("Process starting", true)

	expected := []string{
		"ℹ️",
		"Process starting",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("Info() missing expected string: %q", exp)
		}
	}
}

func TestConfigError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := ConfigError("Invalid YAML syntax", []string{"Check indentation"}, true)

	expected := []string{
		"CONFIGURATION ERROR",
		"Invalid YAML syntax",
		"Did you mean: Check indentation?",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("ConfigError() missing expected string: %q", exp)
		}
	}
}
