package lsp

import (
	"testing"

	"go.uber.org/zap"

	"github.com/a0-lang/a0/internal/diagnostics"
)

func TestNewServerSetsCapabilities(t *testing.T) {
	s := NewServer(zap.NewNop().Sugar())
	if !s.capabilities.TextDocumentSync.OpenClose {
		t.Errorf("expected OpenClose sync capability to be enabled")
	}
}

func TestDiagnosticsForValidProgramIsEmpty(t *testing.T) {
	diags := diagnosticsFor("test.a0", "return 1")
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics for a valid program, got %v", diags)
	}
}

func TestDiagnosticsForLexErrorReportsELex(t *testing.T) {
	diags := diagnosticsFor("test.a0", "let x = \"unterminated")
	if len(diags) == 0 {
		t.Fatalf("expected a lex diagnostic")
	}
	if diags[0].Code != diagnostics.E_LEX {
		t.Errorf("expected %s, got %s", diagnostics.E_LEX, diags[0].Code)
	}
}

func TestDiagnosticsForUnboundIdentifierReportsEUnbound(t *testing.T) {
	diags := diagnosticsFor("test.a0", "return missing")
	if len(diags) == 0 {
		t.Fatalf("expected a validator diagnostic")
	}
	if diags[0].Code != diagnostics.E_UNBOUND {
		t.Errorf("expected %s, got %s", diagnostics.E_UNBOUND, diags[0].Code)
	}
}
