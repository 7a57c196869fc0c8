package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New("t.a0", src)
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	p := New("t.a0", tokens)
	prog, err := p.Parse()
	require.Nil(t, err, "%v", err)
	return prog
}

func TestParseHello(t *testing.T) {
	prog := parse(t, `let x = 42
return { value: x }`)
	require.Len(t, prog.Body, 2)
	let, ok := prog.Body[0].(*ast.LetStmt)
	require.True(t, ok)
	assert.Equal(t, "x", let.Name)
	ret, ok := prog.Body[1].(*ast.ReturnStmt)
	require.True(t, ok)
	rec, ok := ret.Value.(*ast.RecordExpr)
	require.True(t, ok)
	require.Len(t, rec.Fields, 1)
	assert.Equal(t, "value", rec.Fields[0].Key)
}

func TestParseSpread(t *testing.T) {
	prog := parse(t, `let base = {a:1,b:2}
return {...base, b:3}`)
	ret := prog.Body[1].(*ast.ReturnStmt)
	rec := ret.Value.(*ast.RecordExpr)
	require.Len(t, rec.Fields, 2)
	assert.NotNil(t, rec.Fields[0].Spread)
	assert.Equal(t, "b", rec.Fields[1].Key)
}

func TestParseArrowBind(t *testing.T) {
	prog := parse(t, `1 + 1 -> total
return { total: total }`)
	arrow, ok := prog.Body[0].(*ast.ArrowStmt)
	require.True(t, ok)
	assert.Equal(t, "total", arrow.Name)
}

func TestArrowBindRejectsDottedTarget(t *testing.T) {
	l := lexer.New("t.a0", `1 -> a.b
return {}`)
	p := New("t.a0", l.ScanAll())
	_, err := p.Parse()
	require.NotNil(t, err)
}

func TestParsePrecedence(t *testing.T) {
	prog := parse(t, `return 1 + 2 * 3`)
	ret := prog.Body[0].(*ast.ReturnStmt)
	bin := ret.Value.(*ast.BinaryExpr)
	assert.Equal(t, "+", bin.Op)
	right := bin.Right.(*ast.BinaryExpr)
	assert.Equal(t, "*", right.Op)
}

func TestParseCapAndBudgetHeaders(t *testing.T) {
	prog := parse(t, `cap { fs.read: true }
budget { maxIterations: 3 }
return {}`)
	require.NotNil(t, prog.Cap)
	assert.Equal(t, []string{"fs.read"}, prog.Cap.Names)
	require.NotNil(t, prog.Budget)
	require.NotNil(t, prog.Budget.MaxIterations)
	assert.Equal(t, 3, *prog.Budget.MaxIterations)
}

func TestParseToolCallAndAssert(t *testing.T) {
	prog := parse(t, `cap { fs.read: true }
let content = call? fs.read { path: "x.txt" }
assert { that: true, msg: "ok" }
return { content: content }`)
	let := prog.Body[1].(*ast.LetStmt)
	tc, ok := let.Value.(*ast.ToolCallExpr)
	require.True(t, ok)
	assert.Equal(t, "fs.read", tc.Tool)
	assert.False(t, tc.Effect)

	exprStmt := prog.Body[2].(*ast.ExprStmt)
	_, ok = exprStmt.Expr.(*ast.AssertExpr)
	require.True(t, ok)
}

func TestParseIfBlockForm(t *testing.T) {
	prog := parse(t, `return if true { return 1 } else { return 2 }`)
	ret := prog.Body[0].(*ast.ReturnStmt)
	ifExpr := ret.Value.(*ast.IfExpr)
	require.Len(t, ifExpr.Then, 1)
	require.Len(t, ifExpr.Else, 1)
}

func TestParseForLoopMatchTryFilter(t *testing.T) {
	prog := parse(t, `let xs = [1,2,3]
let ys = for { in: xs, as: "i" } { return i }
let z = loop { in: 0, times: 3, as: "acc" } { return acc }
let r = match {ok: 1} { ok v { return v } err e { return e } }
let t = try { return 1 } catch e { return e.code }
let f = filter { in: xs, as: "i" } { return i }
return {}`)
	require.Len(t, prog.Body, 7)
	_, ok := prog.Body[1].(*ast.LetStmt).Value.(*ast.ForExpr)
	assert.True(t, ok)
	_, ok = prog.Body[2].(*ast.LetStmt).Value.(*ast.LoopExpr)
	assert.True(t, ok)
	_, ok = prog.Body[3].(*ast.LetStmt).Value.(*ast.MatchExpr)
	assert.True(t, ok)
	_, ok = prog.Body[4].(*ast.LetStmt).Value.(*ast.TryExpr)
	assert.True(t, ok)
	_, ok = prog.Body[5].(*ast.LetStmt).Value.(*ast.FilterExpr)
	assert.True(t, ok)
}

func TestParseFnDecl(t *testing.T) {
	prog := parse(t, `fn double(x) {
  return x * 2
}
return double { x: 21 }`)
	require.Len(t, prog.Fns, 1)
	assert.Equal(t, "double", prog.Fns[0].Name)
	assert.Equal(t, []string{"x"}, prog.Fns[0].Params)
	ret := prog.Body[0].(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.FnCallExpr)
	require.True(t, ok)
	assert.Equal(t, "double", call.Name)
}

func TestParseUnknownBudgetFieldIsDeferredToValidator(t *testing.T) {
	prog := parse(t, `budget { maxWidgets: 3 }
return 1`)
	require.NotNil(t, prog.Budget)
	require.Len(t, prog.Budget.Unknown, 1)
	assert.Equal(t, "maxWidgets", prog.Budget.Unknown[0].Name)
}

func TestParseNeverReturnsNilProgramAndNilError(t *testing.T) {
	// A malformed token stream that would index past the end of
	// p.tokens if the parser weren't careful; Parse must recover any
	// such panic into a ParseError rather than returning (nil, nil).
	l := lexer.New("t.a0", `fn`)
	p := New("t.a0", l.ScanAll())
	prog, err := p.Parse()
	if prog == nil {
		require.NotNil(t, err, "Parse must not return (nil, nil)")
	}
}
