package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Spinner represents a simple text-based spinner for indeterminate operations
type Spinner struct {
	writer   io.Writer
	message  string
	frames   []string
	interval time.Duration
	active   bool
	done     chan bool
	noColor  bool
	mu       sync.RWMutex // Protects message field
}

// SpinnerOptions configures spinner behavior
type SpinnerOptions struct {
	Message  string
	NoColor  bool
	Interval time.Duration // Default: 100ms
}

var defaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, opts SpinnerOptions) *Spinner {
	interval := opts.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}

	return &Spinner{
		writer:   w,
		message:  opts.Message,
		frames:   defaultFrames,
		interval: interval,
		done:     make(chan bool),
		noColor:  opts.NoColor,
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.active = true
	go s.animate()
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	s.active = false
	s.done <- true
	// Clear the line
	fmt.Fprint(s.writer, "\r\033[K")
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(message string) {
	s.Stop()
	green := color.New(color.FgGreen, color.Bold)
	if s.noColor {
		green.DisableColor()
	}
	green.Fprintf(s.writer, "✓ %s\n", message)
}

// Error stops the spinner and shows an error message
func (s *Spinner) Error(message string) {
	s.Stop()
	red := color.New(color.FgRed, color.Bold)
	if s.noColor {
		red.DisableColor()
	}
	red.Fprintf(s.writer, "❌ %s\n", message)
}

// UpdateMessage changes the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

func (s *Spinner) animate() {
	frameIndex := 0
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	if s.noColor {
		cyan.DisableColor()
	}

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			frame := s.frames[frameIndex]
			s.mu.RLock()
			msg := s.message
			s.mu.RUnlock()
			cyan.Fprintf(s.writer, "\r%s %s", frame, msg)
			frameIndex = (frameIndex + 1) % len(s.frames)
		}
	}
}

// WithSpinner runs a function with a spinner indicator, used for `a0
// run --pretty`'s evaluation phase: lex/parse/validate are fast enough
// not to need one, but a program's tool calls (sh.exec, http.get) have
// no bounded duration.
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	spinner := NewSpinner(w, SpinnerOptions{
		Message: message,
		NoColor: noColor,
	})
	spinner.Start()
	defer spinner.Stop()

	err := fn()
	if err != nil {
		spinner.Error(fmt.Sprintf("%s failed", message))
		return err
	}

	spinner.Success(message)
	return nil
}
