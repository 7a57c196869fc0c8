// Package validator performs A0's static validation pass: a walk of
// the parsed AST that never executes anything, checking structural
// and scoping rules the grammar itself cannot enforce. It is
// structured as the donor type checker's two-pass scoped walk
// (register top-level names, then check bodies against a scope
// stack), with the nullable type-inference machinery dropped — A0 has
// no static type system, only binding and capability scoping.
package validator

import (
	"fmt"

	"github.com/a0-lang/a0/internal/diagnostics"
	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/capability"
	"github.com/a0-lang/a0/internal/runtime/stdlib"
)

// scope is a single lexical block's set of bound names, chained to its
// parent for identifier resolution.
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: map[string]bool{}}
}

func (s *scope) declare(name string) bool {
	if _, exists := s.names[name]; exists {
		return false
	}
	s.names[name] = true
	return true
}

func (s *scope) resolves(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

// Validator walks a *ast.Program and collects diagnostics without
// executing any statement or expression.
type Validator struct {
	diags       []*diagnostics.Diagnostic
	fnNames     map[string]bool
	fns         map[string]*ast.FnDecl
	declaredCap map[string]bool
	usedCap     map[string]bool
	stdlibNames map[string]bool
}

// New creates a Validator.
func New() *Validator {
	v := &Validator{
		fnNames:     map[string]bool{},
		fns:         map[string]*ast.FnDecl{},
		declaredCap: map[string]bool{},
		usedCap:     map[string]bool{},
		stdlibNames: map[string]bool{},
	}
	for _, n := range stdlib.Names() {
		v.stdlibNames[n] = true
	}
	return v
}

// Validate runs the full pass and returns every diagnostic found, in
// the order encountered. An empty slice means the program is
// structurally sound and safe to evaluate.
func Validate(prog *ast.Program) []*diagnostics.Diagnostic {
	v := New()
	return v.Validate(prog)
}

func (v *Validator) Validate(prog *ast.Program) []*diagnostics.Diagnostic {
	v.checkCapHeader(prog.Cap)
	v.checkBudgetHeader(prog.Budget)
	v.registerFns(prog.Fns)

	top := newScope(nil)
	for _, fn := range prog.Fns {
		v.checkFnDecl(fn)
	}
	v.checkBlock(prog.Body, top, true, prog.Sp)

	headerSpan := prog.Sp
	if prog.Cap != nil {
		headerSpan = prog.Cap.Sp
	}
	for used := range v.usedCap {
		if !v.declaredCap[used] {
			v.add(diagnostics.E_UNDECLARED_CAP,
				fmt.Sprintf("capability %q is used but not declared in cap {}", used),
				headerSpan)
		}
	}

	return v.diags
}

func (v *Validator) add(code, message string, sp ast.Span) {
	v.diags = append(v.diags, diagnostics.New(code, message, sp))
}

func (v *Validator) checkCapHeader(cap *ast.CapHeader) {
	if cap == nil {
		return
	}
	for _, name := range cap.Names {
		if !capability.Known[name] {
			v.add(diagnostics.E_UNKNOWN_CAP, fmt.Sprintf("unknown capability %q", name), cap.Sp)
			continue
		}
		v.declaredCap[name] = true
	}
}

func (v *Validator) checkBudgetHeader(b *ast.BudgetHeader) {
	if b == nil {
		return
	}
	for _, f := range b.Unknown {
		v.add(diagnostics.E_UNKNOWN_BUDGET, fmt.Sprintf("unknown budget field %q", f.Name), f.Sp)
	}
}

func (v *Validator) registerFns(fns []*ast.FnDecl) {
	for _, fn := range fns {
		if v.fnNames[fn.Name] {
			v.add(diagnostics.E_FN_DUP, fmt.Sprintf("function %q is declared more than once", fn.Name), fn.Sp)
			continue
		}
		if v.stdlibNames[fn.Name] {
			v.add(diagnostics.E_FN_DUP, fmt.Sprintf("function %q shadows a stdlib function of the same name", fn.Name), fn.Sp)
			continue
		}
		v.fnNames[fn.Name] = true
		v.fns[fn.Name] = fn
	}
}

func (v *Validator) checkFnDecl(fn *ast.FnDecl) {
	s := newScope(nil)
	for _, p := range fn.Params {
		if !s.declare(p) {
			v.add(diagnostics.E_DUP_BINDING, fmt.Sprintf("duplicate parameter %q", p), fn.Sp)
		}
	}
	v.checkBlock(fn.Body, s, true, fn.Sp)
}

// checkBlock validates a statement list as a block: return must
// appear at most once, and if present must be the last statement.
// requireReturn enforces the top-level/fn/match-arm invariant that
// the block must end in a return; for/loop/if/try/filter bodies may
// legitimately fall off the end (the evaluator yields null), so they
// pass false. fallbackSp anchors the E_NO_RETURN diagnostic when
// stmts is empty and there is no statement span to point at.
func (v *Validator) checkBlock(stmts []ast.StmtNode, s *scope, requireReturn bool, fallbackSp ast.Span) {
	sawReturn := false
	sp := fallbackSp
	for i, stmt := range stmts {
		if sawReturn {
			v.add(diagnostics.E_RETURN_NOT_LAST, "statement follows a return in the same block", stmt.Span())
		}
		if _, ok := stmt.(*ast.ReturnStmt); ok {
			sawReturn = true
		}
		v.checkStmt(stmt, s)
		sp = stmt.Span()
		_ = i
	}
	if requireReturn && !sawReturn {
		v.add(diagnostics.E_NO_RETURN, "block has no terminal return", sp)
	}
}

func (v *Validator) checkStmt(stmt ast.StmtNode, s *scope) {
	switch n := stmt.(type) {
	case *ast.LetStmt:
		v.checkExpr(n.Value, s)
		if !s.declare(n.Name) {
			v.add(diagnostics.E_DUP_BINDING, fmt.Sprintf("%q is already bound in this scope", n.Name), n.Sp)
		}
	case *ast.ArrowStmt:
		v.checkExpr(n.Value, s)
		if !s.declare(n.Name) {
			v.add(diagnostics.E_DUP_BINDING, fmt.Sprintf("%q is already bound in this scope", n.Name), n.Sp)
		}
	case *ast.ExprStmt:
		v.checkExpr(n.Expr, s)
	case *ast.ReturnStmt:
		v.checkExpr(n.Value, s)
	default:
		v.add(diagnostics.E_AST, "unknown statement node", stmt.Span())
	}
}

func (v *Validator) checkExpr(expr ast.ExprNode, s *scope) {
	switch n := expr.(type) {
	case nil:
		return
	case *ast.LiteralExpr:
		return
	case *ast.IdentPathExpr:
		if len(n.Path) == 0 {
			return
		}
		if !s.resolves(n.Path[0]) {
			v.add(diagnostics.E_UNBOUND, fmt.Sprintf("%q is not bound in this scope", n.Path[0]), n.Sp)
		}
	case *ast.ListExpr:
		for _, e := range n.Elements {
			v.checkExpr(e, s)
		}
	case *ast.RecordExpr:
		for _, f := range n.Fields {
			if f.Spread != nil {
				v.checkExpr(f.Spread, s)
			} else {
				v.checkExpr(f.Value, s)
			}
		}
	case *ast.BinaryExpr:
		v.checkExpr(n.Left, s)
		v.checkExpr(n.Right, s)
	case *ast.UnaryExpr:
		v.checkExpr(n.Operand, s)
	case *ast.ParenExpr:
		v.checkExpr(n.Inner, s)
	case *ast.ToolCallExpr:
		v.checkToolCall(n, s)
	case *ast.AssertExpr:
		v.checkExpr(n.That, s)
		v.checkExpr(n.Msg, s)
		v.checkExpr(n.Details, s)
	case *ast.CheckExpr:
		v.checkExpr(n.That, s)
		v.checkExpr(n.Msg, s)
		v.checkExpr(n.Details, s)
	case *ast.FnCallExpr:
		v.checkFnCall(n, s)
	case *ast.IfExpr:
		v.checkExpr(n.Cond, s)
		v.checkBlock(n.Then, newScope(s), false, n.Sp)
		if n.Else != nil {
			v.checkBlock(n.Else, newScope(s), false, n.Sp)
		}
	case *ast.ForExpr:
		v.checkExpr(n.In, s)
		child := newScope(s)
		child.declare(n.As)
		v.checkBlock(n.Body, child, false, n.Sp)
	case *ast.LoopExpr:
		v.checkExpr(n.In, s)
		v.checkExpr(n.Times, s)
		child := newScope(s)
		child.declare(n.As)
		v.checkBlock(n.Body, child, false, n.Sp)
	case *ast.MatchExpr:
		v.checkExpr(n.Subject, s)
		if n.OkBody != nil {
			child := newScope(s)
			child.declare(n.OkName)
			v.checkBlock(n.OkBody, child, true, n.Sp)
		}
		if n.ErrBody != nil {
			child := newScope(s)
			child.declare(n.ErrName)
			v.checkBlock(n.ErrBody, child, true, n.Sp)
		}
	case *ast.TryExpr:
		v.checkBlock(n.Body, newScope(s), false, n.Sp)
		child := newScope(s)
		child.declare(n.CatchName)
		v.checkBlock(n.CatchBody, child, false, n.Sp)
	case *ast.FilterExpr:
		v.checkExpr(n.In, s)
		switch {
		case n.Body != nil:
			child := newScope(s)
			child.declare(n.As)
			v.checkBlock(n.Body, child, false, n.Sp)
		case n.Fn != "":
			v.checkFnReference(n.Fn, n.Sp)
		case n.By != "":
			// a record key name, not a binding; nothing to resolve.
		}
	default:
		v.add(diagnostics.E_AST, "unknown expression node", expr.Span())
	}
}

func (v *Validator) checkToolCall(n *ast.ToolCallExpr, s *scope) {
	tc, known := capability.ToolCapability[n.Tool]
	if !known {
		v.add(diagnostics.E_UNKNOWN_TOOL, fmt.Sprintf("unknown tool %q", n.Tool), n.Sp)
	} else {
		v.usedCap[tc.Capability] = true
		if !n.Effect && tc.Mode == capability.Effect {
			v.add(diagnostics.E_CALL_EFFECT,
				fmt.Sprintf("tool %q is effectful and cannot be used with call?", n.Tool), n.Sp)
		}
	}
	if n.Args != nil {
		v.checkExpr(n.Args, s)
	}
}

func (v *Validator) checkFnCall(n *ast.FnCallExpr, s *scope) {
	if !v.fnNames[n.Name] && !v.stdlibNames[n.Name] {
		v.add(diagnostics.E_UNKNOWN_FN, fmt.Sprintf("unknown function %q", n.Name), n.Sp)
	}
	if n.Args != nil {
		v.checkExpr(n.Args, s)
	}
}

func (v *Validator) checkFnReference(name string, sp ast.Span) {
	if !v.fnNames[name] && !v.stdlibNames[name] {
		v.add(diagnostics.E_UNKNOWN_FN, fmt.Sprintf("unknown function %q", name), sp)
	}
}
