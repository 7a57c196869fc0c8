// Package evaluator tree-walks a validated A0 program. It is new code
// — the donor compiler only ever produced Go source, it never
// interpreted anything — grounded on the scope-tracking idiom already
// established in internal/runtime/validator and on the execution
// semantics of SPEC_FULL.md §4.4.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/a0-lang/a0/internal/diagnostics"
	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/capability"
	"github.com/a0-lang/a0/internal/runtime/stdlib"
	"github.com/a0-lang/a0/internal/runtime/trace"
	"github.com/a0-lang/a0/internal/runtime/values"
)

// Fault is a runtime error carrying a stable diagnostic code. It
// unwinds through eval* calls like a Go error; try/catch inspects
// diagnostics.Recoverable(Code) before deciding whether to absorb it.
type Fault struct {
	Code    string
	Message string
	Span    ast.Span
	Details values.Value
}

func (f *Fault) Error() string { return f.Code + ": " + f.Message }

func fault(code string, sp ast.Span, format string, args ...interface{}) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...), Span: sp}
}

// Tool is the interface every reference and user-supplied tool
// implements. BytesWritten lets fs.write report its contribution to
// the maxBytesWritten budget without the evaluator knowing anything
// about file I/O.
type Tool interface {
	Call(ctx context.Context, args *values.Record) (result values.Value, bytesWritten int, err error)
}

// Registry maps a tool name to its implementation.
type Registry map[string]Tool

// Env is a parent-chained, immutable-binding environment. Bindings
// are never mutated once defined — only new child scopes are created
// — matching A0's let/arrow semantics.
type Env struct {
	parent *Env
	vars   map[string]values.Value
}

// NewEnv creates a child environment of parent (nil for the top-level
// program scope).
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: map[string]values.Value{}}
}

// Define binds name in this scope.
func (e *Env) Define(name string, v values.Value) { e.vars[name] = v }

// Resolve walks the parent chain for the first segment of path, then
// descends into records for the remaining segments.
func (e *Env) Resolve(path []string) (values.Value, bool) {
	if len(path) == 0 {
		return values.Null, false
	}
	cur := e
	var v values.Value
	found := false
	for cur != nil {
		if val, ok := cur.vars[path[0]]; ok {
			v, found = val, true
			break
		}
		cur = cur.parent
	}
	if !found {
		return values.Null, false
	}
	for _, seg := range path[1:] {
		if v.Kind != values.KRecord {
			return values.Null, false
		}
		next, ok := v.R.Get(seg)
		if !ok {
			return values.Null, false
		}
		v = next
	}
	return v, true
}

// Budget tracks the resource ceilings declared by a program's budget
// header and is checked at statement and iteration boundaries.
type Budget struct {
	start time.Time

	tracer *trace.Tracer

	timeMs *int

	toolCalls    int
	maxToolCalls *int

	bytesWritten    int
	maxBytesWritten *int

	iterations    int
	maxIterations *int
}

// NewBudget builds a Budget from a program's declared header (nil for
// an undeclared ceiling, meaning unlimited). Exceedance is reported
// through tracer as a budget_exceeded event.
func NewBudget(h *ast.BudgetHeader, tracer *trace.Tracer) *Budget {
	b := &Budget{start: time.Now(), tracer: tracer}
	if h == nil {
		return b
	}
	b.timeMs = h.TimeMs
	b.maxToolCalls = h.MaxToolCalls
	b.maxBytesWritten = h.MaxBytesWritten
	b.maxIterations = h.MaxIterations
	return b
}

func (b *Budget) exceeded(sp ast.Span, format string, args ...interface{}) *Fault {
	b.tracer.Emit(trace.Event{Tag: trace.BudgetExceeded, Span: sp})
	return fault(diagnostics.E_BUDGET, sp, format, args...)
}

func (b *Budget) checkTime(sp ast.Span) *Fault {
	if b.timeMs == nil {
		return nil
	}
	if time.Since(b.start) > time.Duration(*b.timeMs)*time.Millisecond {
		return b.exceeded(sp, "time budget of %dms exceeded", *b.timeMs)
	}
	return nil
}

func (b *Budget) recordToolCall(sp ast.Span) *Fault {
	b.toolCalls++
	if b.maxToolCalls != nil && b.toolCalls > *b.maxToolCalls {
		return b.exceeded(sp, "tool call budget of %d exceeded", *b.maxToolCalls)
	}
	return nil
}

func (b *Budget) recordBytesWritten(n int, sp ast.Span) *Fault {
	b.bytesWritten += n
	if b.maxBytesWritten != nil && b.bytesWritten > *b.maxBytesWritten {
		return b.exceeded(sp, "bytes-written budget of %d exceeded", *b.maxBytesWritten)
	}
	return nil
}

func (b *Budget) recordIteration(sp ast.Span) *Fault {
	b.iterations++
	if b.maxIterations != nil && b.iterations > *b.maxIterations {
		return b.exceeded(sp, "iteration budget of %d exceeded", *b.maxIterations)
	}
	return nil
}

// Evaluator runs one validated A0 program. It is not safe for
// concurrent use by multiple goroutines against the same run.
type Evaluator struct {
	prog    *ast.Program
	fns     map[string]*ast.FnDecl
	topEnv  *Env
	stdlib  stdlib.Registry
	tools   Registry
	policy  *capability.Policy
	budget  *Budget
	tracer  *trace.Tracer
	ctx     context.Context
}

// Options configures a run.
type Options struct {
	Tools  Registry
	Policy *capability.Policy
	Tracer *trace.Tracer
}

// New prepares an Evaluator for prog. prog is assumed to have already
// passed validator.Validate with no diagnostics.
func New(ctx context.Context, prog *ast.Program, opts Options) *Evaluator {
	fns := map[string]*ast.FnDecl{}
	for _, fn := range prog.Fns {
		fns[fn.Name] = fn
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.NewTracer(nil)
	}
	policy := opts.Policy
	if policy == nil {
		policy = &capability.Policy{}
	}
	ev := &Evaluator{
		prog:   prog,
		fns:    fns,
		stdlib: stdlib.Default(),
		tools:  opts.Tools,
		policy: policy,
		budget: NewBudget(prog.Budget, tracer),
		tracer: tracer,
		ctx:    ctx,
	}
	ev.topEnv = NewEnv(nil)
	return ev
}

// Run executes the program body against the top-level scope and
// returns its return value. If the policy does not grant a capability
// declared in the program's cap header, the body never runs and Run
// fails with E_CAP_DENIED.
func (ev *Evaluator) Run() (values.Value, *Fault) {
	ev.tracer.Emit(trace.Event{Tag: trace.RunStart})
	if ev.prog.Cap != nil {
		effective := ev.policy.Effective()
		for _, name := range ev.prog.Cap.Names {
			if !effective[name] {
				f := fault(diagnostics.E_CAP_DENIED, ev.prog.Cap.Sp, "capability %q is declared but not granted", name)
				ev.tracer.Emit(trace.Event{Tag: trace.RunEnd, Code: f.Code})
				return values.Null, f
			}
		}
	}
	v, f := ev.evalBlock(ev.prog.Body, ev.topEnv)
	if f != nil {
		ev.tracer.Emit(trace.Event{Tag: trace.RunEnd, Code: f.Code})
		return values.Null, f
	}
	ev.tracer.Emit(trace.Event{Tag: trace.RunEnd})
	return v, nil
}

// evalBlock runs stmts in order against scope, returning the value of
// its terminating return statement. A block with no return yields
// null — the validator guarantees every reachable top-level/fn/arm
// block ends in exactly one return, but nested control-flow bodies
// (for/loop/if) may legitimately fall off the end.
func (ev *Evaluator) evalBlock(stmts []ast.StmtNode, scope *Env) (values.Value, *Fault) {
	result := values.Null
	for _, stmt := range stmts {
		if f := ev.budget.checkTime(stmt.Span()); f != nil {
			return values.Null, f
		}
		ev.tracer.Emit(trace.Event{Tag: trace.StmtStart})
		v, f := ev.evalStmt(stmt, scope)
		ev.tracer.Emit(trace.Event{Tag: trace.StmtEnd})
		if f != nil {
			return values.Null, f
		}
		if _, ok := stmt.(*ast.ReturnStmt); ok {
			return v, nil
		}
		result = v
	}
	return result, nil
}

func (ev *Evaluator) evalStmt(stmt ast.StmtNode, scope *Env) (values.Value, *Fault) {
	switch n := stmt.(type) {
	case *ast.LetStmt:
		v, f := ev.evalExpr(n.Value, scope)
		if f != nil {
			return values.Null, f
		}
		scope.Define(n.Name, v)
		return v, nil
	case *ast.ArrowStmt:
		v, f := ev.evalExpr(n.Value, scope)
		if f != nil {
			return values.Null, f
		}
		scope.Define(n.Name, v)
		return v, nil
	case *ast.ExprStmt:
		return ev.evalExpr(n.Expr, scope)
	case *ast.ReturnStmt:
		return ev.evalExpr(n.Value, scope)
	default:
		return values.Null, fault(diagnostics.E_AST, stmt.Span(), "unknown statement node")
	}
}

func (ev *Evaluator) evalExpr(expr ast.ExprNode, scope *Env) (values.Value, *Fault) {
	switch n := expr.(type) {
	case nil:
		return values.Null, nil
	case *ast.LiteralExpr:
		return literalValue(n), nil
	case *ast.IdentPathExpr:
		v, ok := scope.Resolve(n.Path)
		if !ok {
			return values.Null, fault(diagnostics.E_PATH, n.Sp, "path %v does not resolve", n.Path)
		}
		return v, nil
	case *ast.ListExpr:
		out := make([]values.Value, len(n.Elements))
		for i, e := range n.Elements {
			v, f := ev.evalExpr(e, scope)
			if f != nil {
				return values.Null, f
			}
			out[i] = v
		}
		return values.List(out), nil
	case *ast.RecordExpr:
		return ev.evalRecordExpr(n, scope)
	case *ast.BinaryExpr:
		return ev.evalBinary(n, scope)
	case *ast.UnaryExpr:
		return ev.evalUnary(n, scope)
	case *ast.ParenExpr:
		return ev.evalExpr(n.Inner, scope)
	case *ast.ToolCallExpr:
		return ev.evalToolCall(n, scope)
	case *ast.AssertExpr:
		return ev.evalAssertOrCheck(n.That, n.Msg, n.Details, n.Sp, scope, true)
	case *ast.CheckExpr:
		return ev.evalAssertOrCheck(n.That, n.Msg, n.Details, n.Sp, scope, false)
	case *ast.FnCallExpr:
		return ev.evalFnCall(n, scope)
	case *ast.IfExpr:
		return ev.evalIf(n, scope)
	case *ast.ForExpr:
		return ev.evalFor(n, scope)
	case *ast.LoopExpr:
		return ev.evalLoop(n, scope)
	case *ast.MatchExpr:
		return ev.evalMatch(n, scope)
	case *ast.TryExpr:
		return ev.evalTry(n, scope)
	case *ast.FilterExpr:
		return ev.evalFilter(n, scope)
	default:
		return values.Null, fault(diagnostics.E_AST, expr.Span(), "unknown expression node")
	}
}

func literalValue(n *ast.LiteralExpr) values.Value {
	switch v := n.Value.(type) {
	case nil:
		return values.Null
	case bool:
		return values.Bool(v)
	case float64:
		return values.Number(v)
	case string:
		return values.String(v)
	default:
		return values.Null
	}
}

func (ev *Evaluator) evalRecordExpr(n *ast.RecordExpr, scope *Env) (values.Value, *Fault) {
	rec := values.NewRecord()
	for _, field := range n.Fields {
		if field.Spread != nil {
			v, f := ev.evalExpr(field.Spread, scope)
			if f != nil {
				return values.Null, f
			}
			if v.Kind != values.KRecord {
				return values.Null, fault(diagnostics.E_TYPE, field.Sp, "spread target is not a record")
			}
			v.R.Each(func(k string, val values.Value) { rec.Set(k, val) })
			continue
		}
		v, f := ev.evalExpr(field.Value, scope)
		if f != nil {
			return values.Null, f
		}
		rec.Set(field.Key, v)
	}
	return values.RecordVal(rec), nil
}

func (ev *Evaluator) evalBinary(n *ast.BinaryExpr, scope *Env) (values.Value, *Fault) {
	l, f := ev.evalExpr(n.Left, scope)
	if f != nil {
		return values.Null, f
	}
	r, f := ev.evalExpr(n.Right, scope)
	if f != nil {
		return values.Null, f
	}
	switch n.Op {
	case "==":
		return values.Bool(values.Equal(l, r)), nil
	case "!=":
		return values.Bool(!values.Equal(l, r)), nil
	case ">", "<", ">=", "<=":
		if l.Kind == values.KString && r.Kind == values.KString {
			switch n.Op {
			case ">":
				return values.Bool(l.S > r.S), nil
			case "<":
				return values.Bool(l.S < r.S), nil
			case ">=":
				return values.Bool(l.S >= r.S), nil
			default:
				return values.Bool(l.S <= r.S), nil
			}
		}
		if l.Kind != values.KNumber || r.Kind != values.KNumber {
			return values.Null, fault(diagnostics.E_TYPE, n.Sp, "comparison operands must be two numbers or two strings")
		}
		switch n.Op {
		case ">":
			return values.Bool(l.N > r.N), nil
		case "<":
			return values.Bool(l.N < r.N), nil
		case ">=":
			return values.Bool(l.N >= r.N), nil
		default:
			return values.Bool(l.N <= r.N), nil
		}
	case "+":
		if l.Kind == values.KString && r.Kind == values.KString {
			return values.String(l.S + r.S), nil
		}
		if l.Kind == values.KNumber && r.Kind == values.KNumber {
			return values.Number(l.N + r.N), nil
		}
		return values.Null, fault(diagnostics.E_TYPE, n.Sp, "'+' requires two numbers or two strings")
	case "-", "*", "/", "%":
		if l.Kind != values.KNumber || r.Kind != values.KNumber {
			return values.Null, fault(diagnostics.E_TYPE, n.Sp, "arithmetic operands must be numbers")
		}
		switch n.Op {
		case "-":
			return values.Number(l.N - r.N), nil
		case "*":
			return values.Number(l.N * r.N), nil
		case "/":
			if r.N == 0 {
				return values.Null, fault(diagnostics.E_TYPE, n.Sp, "division by zero")
			}
			return values.Number(l.N / r.N), nil
		default:
			if r.N == 0 {
				return values.Null, fault(diagnostics.E_TYPE, n.Sp, "modulo by zero")
			}
			return values.Number(float64(int64(l.N) % int64(r.N))), nil
		}
	default:
		return values.Null, fault(diagnostics.E_AST, n.Sp, "unknown operator %q", n.Op)
	}
}

func (ev *Evaluator) evalUnary(n *ast.UnaryExpr, scope *Env) (values.Value, *Fault) {
	v, f := ev.evalExpr(n.Operand, scope)
	if f != nil {
		return values.Null, f
	}
	if n.Op == "-" {
		if v.Kind != values.KNumber {
			return values.Null, fault(diagnostics.E_TYPE, n.Sp, "unary '-' requires a number")
		}
		return values.Number(-v.N), nil
	}
	return values.Null, fault(diagnostics.E_AST, n.Sp, "unknown unary operator %q", n.Op)
}

func (ev *Evaluator) evalToolCall(n *ast.ToolCallExpr, scope *Env) (values.Value, *Fault) {
	tc, known := capability.ToolCapability[n.Tool]
	if !known {
		return values.Null, fault(diagnostics.E_UNKNOWN_TOOL, n.Sp, "unknown tool %q", n.Tool)
	}
	if !ev.policy.Effective()[tc.Capability] {
		return values.Null, fault(diagnostics.E_CAP_DENIED, n.Sp, "capability %q is not granted", tc.Capability)
	}
	args, f := ev.evalRecordExpr(n.Args, scope)
	if f != nil {
		return values.Null, f
	}
	if f := ev.budget.recordToolCall(n.Sp); f != nil {
		return values.Null, f
	}
	tool, ok := ev.tools[n.Tool]
	if !ok {
		return values.Null, fault(diagnostics.E_UNKNOWN_TOOL, n.Sp, "no implementation registered for tool %q", n.Tool)
	}
	ev.tracer.Emit(trace.Event{Tag: trace.ToolStart, Tool: n.Tool})
	result, bytesWritten, err := tool.Call(ev.ctx, args.R)
	ev.tracer.Emit(trace.Event{Tag: trace.ToolEnd, Tool: n.Tool})
	if err != nil {
		return values.Null, fault(diagnostics.E_TOOL, n.Sp, "%s: %v", n.Tool, err)
	}
	if bytesWritten > 0 {
		if f := ev.budget.recordBytesWritten(bytesWritten, n.Sp); f != nil {
			return values.Null, f
		}
	}
	return result, nil
}

func (ev *Evaluator) evalAssertOrCheck(that, msg, details ast.ExprNode, sp ast.Span, scope *Env, isAssert bool) (values.Value, *Fault) {
	thatV, f := ev.evalExpr(that, scope)
	if f != nil {
		return values.Null, f
	}
	var msgV, detailsV values.Value
	if msg != nil {
		msgV, f = ev.evalExpr(msg, scope)
		if f != nil {
			return values.Null, f
		}
	}
	if details != nil {
		detailsV, f = ev.evalExpr(details, scope)
		if f != nil {
			return values.Null, f
		}
	}

	kind := "check"
	if isAssert {
		kind = "assert"
	}
	detailsJSON, err := values.MarshalJSON(detailsV)
	if err != nil {
		detailsJSON = []byte("null")
	}
	ev.tracer.Emit(trace.Event{
		Tag:     trace.Evidence,
		Kind:    kind,
		Ok:      thatV.Truthy(),
		Msg:     msgV.String(),
		Details: detailsJSON,
		Span:    sp,
	})

	result := values.NewRecord()
	result.Set("ok", values.Bool(thatV.Truthy()))

	if !thatV.Truthy() && isAssert {
		f := fault(diagnostics.E_ASSERT, sp, "%s", msgV.String())
		f.Details = detailsV
		return values.Null, f
	}
	return values.RecordVal(result), nil
}

func (ev *Evaluator) evalFnCall(n *ast.FnCallExpr, scope *Env) (values.Value, *Fault) {
	args, f := ev.evalRecordExpr(n.Args, scope)
	if f != nil {
		return values.Null, f
	}
	return ev.callNamed(n.Name, args.R, n.Sp)
}

// callNamed dispatches a call to a user fn or stdlib fn by name. User
// functions always run against the program's top-level scope, never
// the caller's — A0 functions do not close over lexical scope.
func (ev *Evaluator) callNamed(name string, args *values.Record, sp ast.Span) (values.Value, *Fault) {
	if decl, ok := ev.fns[name]; ok {
		ev.tracer.Emit(trace.Event{Tag: trace.FnCallStart, Fn: name})
		defer ev.tracer.Emit(trace.Event{Tag: trace.FnCallEnd, Fn: name})
		callScope := NewEnv(ev.topEnv)
		for _, p := range decl.Params {
			v, _ := args.Get(p)
			callScope.Define(p, v)
		}
		return ev.evalBlock(decl.Body, callScope)
	}
	if name == "map" {
		return ev.evalMapFn(args, sp)
	}
	if name == "reduce" {
		return ev.evalReduceFn(args, sp)
	}
	fn, ok := ev.stdlib[name]
	if !ok {
		return values.Null, fault(diagnostics.E_UNKNOWN_FN, sp, "unknown function %q", name)
	}
	v, err := fn(args)
	if err != nil {
		return values.Null, fault(diagnostics.E_FN, sp, "%v", err)
	}
	return v, nil
}

func (ev *Evaluator) evalMapFn(args *values.Record, sp ast.Span) (values.Value, *Fault) {
	in, ok := args.Get("in")
	if !ok || in.Kind != values.KList {
		return values.Null, fault(diagnostics.E_TOOL_ARGS, sp, "map requires a list argument 'in'")
	}
	fnName, ok := args.Get("fn")
	if !ok || fnName.Kind != values.KString {
		return values.Null, fault(diagnostics.E_TOOL_ARGS, sp, "map requires a string argument 'fn'")
	}
	ev.tracer.Emit(trace.Event{Tag: trace.MapStart})
	defer ev.tracer.Emit(trace.Event{Tag: trace.MapEnd})
	out := make([]values.Value, len(in.L))
	for i, item := range in.L {
		callArgs := values.NewRecord()
		callArgs.Set("item", item)
		callArgs.Set("index", values.Number(float64(i)))
		v, f := ev.callNamed(fnName.S, callArgs, sp)
		if f != nil {
			return values.Null, f
		}
		out[i] = v
	}
	return values.List(out), nil
}

func (ev *Evaluator) evalReduceFn(args *values.Record, sp ast.Span) (values.Value, *Fault) {
	in, ok := args.Get("in")
	if !ok || in.Kind != values.KList {
		return values.Null, fault(diagnostics.E_TOOL_ARGS, sp, "reduce requires a list argument 'in'")
	}
	fnName, ok := args.Get("fn")
	if !ok || fnName.Kind != values.KString {
		return values.Null, fault(diagnostics.E_TOOL_ARGS, sp, "reduce requires a string argument 'fn'")
	}
	acc, ok := args.Get("init")
	if !ok {
		acc = values.Null
	}
	for i, item := range in.L {
		callArgs := values.NewRecord()
		callArgs.Set("acc", acc)
		callArgs.Set("item", item)
		callArgs.Set("index", values.Number(float64(i)))
		v, f := ev.callNamed(fnName.S, callArgs, sp)
		if f != nil {
			return values.Null, f
		}
		acc = v
	}
	return acc, nil
}

func (ev *Evaluator) evalIf(n *ast.IfExpr, scope *Env) (values.Value, *Fault) {
	cond, f := ev.evalExpr(n.Cond, scope)
	if f != nil {
		return values.Null, f
	}
	if cond.Truthy() {
		return ev.evalBlock(n.Then, NewEnv(scope))
	}
	if n.Else != nil {
		return ev.evalBlock(n.Else, NewEnv(scope))
	}
	return values.Null, nil
}

func (ev *Evaluator) evalFor(n *ast.ForExpr, scope *Env) (values.Value, *Fault) {
	in, f := ev.evalExpr(n.In, scope)
	if f != nil {
		return values.Null, f
	}
	if in.Kind != values.KList {
		return values.Null, fault(diagnostics.E_FOR_NOT_LIST, n.Sp, "for.in must be a list")
	}
	out := make([]values.Value, 0, len(in.L))
	for _, item := range in.L {
		if f := ev.budget.recordIteration(n.Sp); f != nil {
			return values.Null, f
		}
		child := NewEnv(scope)
		child.Define(n.As, item)
		ev.tracer.Emit(trace.Event{Tag: trace.ForStart})
		v, f := ev.evalBlock(n.Body, child)
		ev.tracer.Emit(trace.Event{Tag: trace.ForEnd})
		if f != nil {
			return values.Null, f
		}
		out = append(out, v)
	}
	return values.List(out), nil
}

func (ev *Evaluator) evalLoop(n *ast.LoopExpr, scope *Env) (values.Value, *Fault) {
	cur, f := ev.evalExpr(n.In, scope)
	if f != nil {
		return values.Null, f
	}
	timesV, f := ev.evalExpr(n.Times, scope)
	if f != nil {
		return values.Null, f
	}
	if timesV.Kind != values.KNumber {
		return values.Null, fault(diagnostics.E_TYPE, n.Sp, "loop.times must be a number")
	}
	for i := 0; i < int(timesV.N); i++ {
		if f := ev.budget.recordIteration(n.Sp); f != nil {
			return values.Null, f
		}
		child := NewEnv(scope)
		child.Define(n.As, cur)
		v, f := ev.evalBlock(n.Body, child)
		if f != nil {
			return values.Null, f
		}
		cur = v
	}
	return cur, nil
}

func (ev *Evaluator) evalMatch(n *ast.MatchExpr, scope *Env) (values.Value, *Fault) {
	subject, f := ev.evalExpr(n.Subject, scope)
	if f != nil {
		return values.Null, f
	}
	if subject.Kind != values.KRecord {
		return values.Null, fault(diagnostics.E_MATCH_NOT_RECORD, n.Sp, "match subject must be a record")
	}
	ev.tracer.Emit(trace.Event{Tag: trace.MatchStart})
	defer ev.tracer.Emit(trace.Event{Tag: trace.MatchEnd})
	if v, ok := subject.R.Get("ok"); ok {
		if n.OkBody == nil {
			return values.Null, fault(diagnostics.E_MATCH_NO_ARM, n.Sp, "match subject is 'ok' but no ok arm is present")
		}
		child := NewEnv(scope)
		child.Define(n.OkName, v)
		return ev.evalBlock(n.OkBody, child)
	}
	if v, ok := subject.R.Get("err"); ok {
		if n.ErrBody == nil {
			return values.Null, fault(diagnostics.E_MATCH_NO_ARM, n.Sp, "match subject is 'err' but no err arm is present")
		}
		child := NewEnv(scope)
		child.Define(n.ErrName, v)
		return ev.evalBlock(n.ErrBody, child)
	}
	return values.Null, fault(diagnostics.E_MATCH_NO_ARM, n.Sp, "match subject has neither 'ok' nor 'err'")
}

func (ev *Evaluator) evalTry(n *ast.TryExpr, scope *Env) (values.Value, *Fault) {
	ev.tracer.Emit(trace.Event{Tag: trace.TryStart})
	defer ev.tracer.Emit(trace.Event{Tag: trace.TryEnd})
	v, f := ev.evalBlock(n.Body, NewEnv(scope))
	if f == nil {
		return v, nil
	}
	if !diagnostics.Recoverable(f.Code) {
		return values.Null, f
	}
	errRec := values.NewRecord()
	errRec.Set("code", values.String(f.Code))
	errRec.Set("message", values.String(f.Message))
	child := NewEnv(scope)
	child.Define(n.CatchName, values.RecordVal(errRec))
	return ev.evalBlock(n.CatchBody, child)
}

func (ev *Evaluator) evalFilter(n *ast.FilterExpr, scope *Env) (values.Value, *Fault) {
	in, f := ev.evalExpr(n.In, scope)
	if f != nil {
		return values.Null, f
	}
	if in.Kind != values.KList {
		return values.Null, fault(diagnostics.E_FOR_NOT_LIST, n.Sp, "filter.in must be a list")
	}
	var out []values.Value
	switch {
	case n.Body != nil:
		for _, item := range in.L {
			child := NewEnv(scope)
			child.Define(n.As, item)
			v, f := ev.evalBlock(n.Body, child)
			if f != nil {
				return values.Null, f
			}
			if v.Truthy() {
				out = append(out, item)
			}
		}
	case n.Fn != "":
		for i, item := range in.L {
			callArgs := values.NewRecord()
			callArgs.Set("item", item)
			callArgs.Set("index", values.Number(float64(i)))
			v, f := ev.callNamed(n.Fn, callArgs, n.Sp)
			if f != nil {
				return values.Null, f
			}
			if v.Truthy() {
				out = append(out, item)
			}
		}
	case n.By != "":
		for _, item := range in.L {
			if item.Kind != values.KRecord {
				return values.Null, fault(diagnostics.E_TYPE, n.Sp, "filter.by requires a list of records")
			}
			v, ok := item.R.Get(n.By)
			if ok && v.Truthy() {
				out = append(out, item)
			}
		}
	}
	return values.List(out), nil
}
