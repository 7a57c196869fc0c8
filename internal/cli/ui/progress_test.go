package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestSpinnerStartStop tests basic spinner lifecycle and goroutine cleanup
func TestSpinnerStartStop(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message:  "Testing",
		NoColor:  true,
		Interval: 50 * time.Millisecond,
	})

	spinner.Start()
	time.Sleep(150 * time.Millisecond)
	spinner.Stop()

	if !strings.Contains(buf.String(), "Testing") {
		t.Errorf("Expected spinner to show message 'Testing', got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "\r\033[K") {
		t.Error("Expected spinner to clear the line on stop")
	}
}

// TestSpinnerSuccess tests the Success method
func TestSpinnerSuccess(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Processing",
		NoColor: true,
	})

	spinner.Start()
	time.Sleep(50 * time.Millisecond)
	spinner.Success("Operation completed")

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Error("Expected success symbol ✓")
	}
	if !strings.Contains(output, "Operation completed") {
		t.Errorf("Expected success message, got: %s", output)
	}
}

// TestSpinnerError tests the Error method
func TestSpinnerError(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Processing",
		NoColor: true,
	})

	spinner.Start()
	time.Sleep(50 * time.Millisecond)
	spinner.Error("Operation failed")

	output := buf.String()
	if !strings.Contains(output, "❌") {
		t.Error("Expected error symbol ❌")
	}
	if !strings.Contains(output, "Operation failed") {
		t.Errorf("Expected error message, got: %s", output)
	}
}

// TestSpinnerNoColor verifies NoColor flag disables colors
func TestSpinnerNoColor(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Testing",
		NoColor: true,
	})

	spinner.Start()
	time.Sleep(100 * time.Millisecond)
	spinner.Stop()

	output := buf.String()
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		if line == "\r\033[K" || line == "" {
			continue
		}
		if strings.Contains(line, "\x1b[3") && !strings.Contains(line, "\x1b[K") {
			t.Errorf("Expected no color codes with NoColor=true, but found them in: %q", line)
		}
	}
}

// TestSpinnerUpdateMessage tests changing the spinner message
func TestSpinnerUpdateMessage(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Initial message",
		NoColor: true,
	})

	spinner.Start()
	time.Sleep(50 * time.Millisecond)

	spinner.UpdateMessage("Updated message")
	time.Sleep(50 * time.Millisecond)

	spinner.Stop()

	output := buf.String()
	if !strings.Contains(output, "Updated message") {
		t.Errorf("Expected updated message in output, got: %s", output)
	}
}

// TestWithSpinner tests the helper function for success case
func TestWithSpinner(t *testing.T) {
	var buf bytes.Buffer
	called := false

	err := WithSpinner(&buf, "Processing task", true, func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if !called {
		t.Error("Expected function to be called")
	}

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Error("Expected success symbol in output")
	}
	if !strings.Contains(output, "Processing task") {
		t.Errorf("Expected task message in output, got: %s", output)
	}
}

// TestWithSpinnerError tests the helper function for error case
func TestWithSpinnerError(t *testing.T) {
	var buf bytes.Buffer
	testErr := &testError{msg: "test error"}

	err := WithSpinner(&buf, "Failing task", true, func() error {
		return testErr
	})

	if err != testErr {
		t.Errorf("Expected error to be returned, got: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "❌") {
		t.Error("Expected error symbol in output")
	}
	if !strings.Contains(output, "failed") {
		t.Errorf("Expected 'failed' in output, got: %s", output)
	}
}

// testError is a simple error type for testing
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

// TestSpinnerStopWithoutStart tests edge case of stopping before starting
func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Testing",
		NoColor: true,
	})

	spinner.Stop()

	if buf.Len() > 0 {
		t.Errorf("Expected no output when stopping inactive spinner, got: %s", buf.String())
	}
}

// TestSpinnerMultipleStops tests calling stop multiple times
func TestSpinnerMultipleStops(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Testing",
		NoColor: true,
	})

	spinner.Start()
	time.Sleep(50 * time.Millisecond)

	spinner.Stop()
	firstLen := buf.Len()

	spinner.Stop()
	secondLen := buf.Len()

	if secondLen != firstLen {
		t.Error("Expected multiple stops to not produce additional output")
	}
}

// TestSpinnerDefaultInterval tests default interval is set
func TestSpinnerDefaultInterval(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message: "Testing",
		NoColor: true,
	})

	if spinner.interval != 100*time.Millisecond {
		t.Errorf("Expected default interval of 100ms, got: %v", spinner.interval)
	}
}
