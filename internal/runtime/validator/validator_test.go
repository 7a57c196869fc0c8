package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a0-lang/a0/internal/diagnostics"
	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/lexer"
	"github.com/a0-lang/a0/internal/runtime/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	toks := lexer.New("test.a0", src).ScanAll()
	prog, err := parser.New("test.a0", toks).Parse()
	require.Nil(t, err, "unexpected parse error: %v", err)
	return prog
}

func codesOf(diags []*diagnostics.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestValidProgramHasNoDiagnostics(t *testing.T) {
	prog := parseProgram(t, `
let x = 1
return x
`)
	assert.Empty(t, Validate(prog))
}

func TestDuplicateBindingInSameScope(t *testing.T) {
	prog := parseProgram(t, `
let x = 1
let x = 2
return x
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_DUP_BINDING)
}

func TestUnboundIdentifier(t *testing.T) {
	prog := parseProgram(t, `
return missing
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_UNBOUND)
}

func TestReturnNotLast(t *testing.T) {
	prog := parseProgram(t, `
return 1
let x = 2
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_RETURN_NOT_LAST)
}

func TestUnknownCapability(t *testing.T) {
	prog := parseProgram(t, `
cap { net.connect: true }
return 1
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_UNKNOWN_CAP)
}

func TestUndeclaredCapabilityUsedByToolCall(t *testing.T) {
	prog := parseProgram(t, `
do fs.write { path: "x", content: "y" } -> result
return result
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_UNDECLARED_CAP)
}

func TestCallQOnEffectToolIsRejected(t *testing.T) {
	prog := parseProgram(t, `
cap { fs.write: true }
call? fs.write { path: "x", content: "y" } -> result
return result
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_CALL_EFFECT)
}

func TestDuplicateFnName(t *testing.T) {
	prog := parseProgram(t, `
fn double(x) {
  return x
}
fn double(x) {
  return x
}
return 1
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_FN_DUP)
}

func TestFnNameCollidesWithStdlib(t *testing.T) {
	prog := parseProgram(t, `
fn len(value) {
  return value
}
return 1
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_FN_DUP)
}

func TestUnknownFnCall(t *testing.T) {
	prog := parseProgram(t, `
mystery { x: 1 } -> result
return result
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_UNKNOWN_FN)
}

func TestMissingTerminalReturnIsReported(t *testing.T) {
	prog := parseProgram(t, `
let x = 42
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_NO_RETURN)
}

func TestUnknownBudgetFieldIsReported(t *testing.T) {
	prog := parseProgram(t, `
budget { maxWidgets: 3 }
return 1
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_UNKNOWN_BUDGET)
}

func TestFnBodyMissingTerminalReturnIsReported(t *testing.T) {
	prog := parseProgram(t, `
fn broken(x) {
  let y = x
}
return 1
`)
	assert.Contains(t, codesOf(Validate(prog)), diagnostics.E_NO_RETURN)
}

func TestForBindingScopedToBody(t *testing.T) {
	prog := parseProgram(t, `
let items = [1, 2, 3]
for { in: items, as: "item" } {
  return item
}
return 0
`)
	assert.Empty(t, Validate(prog))
}
