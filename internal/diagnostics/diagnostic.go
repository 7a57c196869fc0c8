// Package diagnostics defines A0's stable error-code taxonomy and the
// Diagnostic type used to report lexer, parser, validator, and
// runtime faults. The shape — a severity enum with JSON marshaling, a
// source span, an optional hint, and a builder-style constructor — is
// adapted from the donor compiler's error package; A0 replaces its
// numeric phase-coded errors with the spec's stable symbolic codes.
package diagnostics

import (
	"encoding/json"

	"github.com/a0-lang/a0/internal/runtime/ast"
)

// Severity is the severity level of a Diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Diagnostic is a single stable-coded A0 error or warning.
type Diagnostic struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Span     ast.Span `json:"span"`
	Severity Severity `json:"severity"`
	Hint     string   `json:"hint,omitempty"`
}

// Error implements the error interface so a Diagnostic can be
// returned/wrapped like any other Go error.
func (d *Diagnostic) Error() string {
	return d.Code + ": " + d.Message
}

// New creates an Error-severity Diagnostic.
func New(code, message string, span ast.Span) *Diagnostic {
	return &Diagnostic{Code: code, Message: message, Span: span, Severity: Error}
}

// WithHint attaches a short remediation hint.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

// WithSeverity overrides the default Error severity.
func (d *Diagnostic) WithSeverity(s Severity) *Diagnostic {
	d.Severity = s
	return d
}

// ExitCode returns the stable process exit code for d.Code, per the
// propagation policy in SPEC_FULL.md §7.
func ExitCode(code string) int {
	switch code {
	case "":
		return 0
	case E_CAP_DENIED:
		return 3
	case E_BUDGET:
		return 4
	case E_ASSERT:
		return 5
	case E_LEX, E_PARSE, E_AST, E_NO_RETURN, E_RETURN_NOT_LAST,
		E_UNKNOWN_CAP, E_UNDECLARED_CAP, E_UNKNOWN_BUDGET, E_DUP_BINDING,
		E_UNBOUND, E_CALL_EFFECT, E_FN_DUP:
		return 2
	default:
		return 4
	}
}

// Recoverable reports whether code may be caught by an A0 try/catch.
// Capability denial, budget exceedance, and assertion failure are
// deliberately excluded — a recoverable try/catch around those would
// silently defeat the guarantees they exist to enforce.
func Recoverable(code string) bool {
	switch code {
	case E_CAP_DENIED, E_BUDGET, E_ASSERT:
		return false
	case E_LEX, E_PARSE, E_AST, E_NO_RETURN, E_RETURN_NOT_LAST,
		E_UNKNOWN_CAP, E_UNDECLARED_CAP, E_UNKNOWN_BUDGET, E_DUP_BINDING,
		E_UNBOUND, E_CALL_EFFECT, E_FN_DUP:
		return false
	default:
		return true
	}
}
