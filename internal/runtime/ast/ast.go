// Package ast defines the Abstract Syntax Tree node types for the A0
// language. Every node carries a Span identifying the source text it
// was parsed from; the validator and evaluator both walk this tree
// without needing to re-consult the token stream.
package ast

// Span identifies a range of source text.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Span() Span
	node()
}

// StmtNode is implemented by statement nodes.
type StmtNode interface {
	Node
	stmtNode()
}

// ExprNode is implemented by expression nodes.
type ExprNode interface {
	Node
	exprNode()
}

// Program is the root of the AST: optional capability/budget headers,
// any number of top-level function declarations, and a body of
// statements ending in a return.
type Program struct {
	Cap    *CapHeader
	Budget *BudgetHeader
	Fns    []*FnDecl
	Body   []StmtNode
	Sp     Span
}

func (p *Program) node()      {}
func (p *Program) Span() Span { return p.Sp }

// CapHeader declares the set of capabilities the program requires.
type CapHeader struct {
	Names []string
	Sp    Span
}

func (c *CapHeader) node()      {}
func (c *CapHeader) Span() Span { return c.Sp }

// BudgetHeader declares resource ceilings for the program run.
// Unknown carries field names the parser doesn't recognize, with
// their own spans, so the validator can report E_UNKNOWN_BUDGET
// pointing at the offending key rather than failing to parse at all.
type BudgetHeader struct {
	TimeMs          *int
	MaxToolCalls    *int
	MaxBytesWritten *int
	MaxIterations   *int
	Unknown         []BudgetField
	Sp              Span
}

// BudgetField names one key of a budget {} header, with its span.
type BudgetField struct {
	Name string
	Sp   Span
}

func (b *BudgetHeader) node()      {}
func (b *BudgetHeader) Span() Span { return b.Sp }

// FnDecl is a top-level function declaration. Functions never capture
// their defining scope; they run against the program's top-level
// environment at call time (see Env in the evaluator package).
type FnDecl struct {
	Name   string
	Params []string
	Body   []StmtNode
	Sp     Span
}

func (f *FnDecl) node()      {}
func (f *FnDecl) Span() Span { return f.Sp }

// LetStmt binds the result of Value to Name in the current scope.
type LetStmt struct {
	Name  string
	Value ExprNode
	Sp    Span
}

func (l *LetStmt) node()     {}
func (l *LetStmt) stmtNode() {}
func (l *LetStmt) Span() Span { return l.Sp }

// ArrowStmt is `expr -> name`: evaluate Value, bind the result to Name.
type ArrowStmt struct {
	Name  string
	Value ExprNode
	Sp    Span
}

func (a *ArrowStmt) node()     {}
func (a *ArrowStmt) stmtNode() {}
func (a *ArrowStmt) Span() Span { return a.Sp }

// ExprStmt is a bare expression used as a statement (its value is
// discarded unless it is the final return).
type ExprStmt struct {
	Expr ExprNode
	Sp   Span
}

func (e *ExprStmt) node()     {}
func (e *ExprStmt) stmtNode() {}
func (e *ExprStmt) Span() Span { return e.Sp }

// ReturnStmt terminates the current frame with Value.
type ReturnStmt struct {
	Value ExprNode
	Sp    Span
}

func (r *ReturnStmt) node()     {}
func (r *ReturnStmt) stmtNode() {}
func (r *ReturnStmt) Span() Span { return r.Sp }

// LiteralExpr is a null, bool, number, or string literal.
type LiteralExpr struct {
	Value interface{}
	Sp    Span
}

func (l *LiteralExpr) node()     {}
func (l *LiteralExpr) exprNode() {}
func (l *LiteralExpr) Span() Span { return l.Sp }

// IdentPathExpr is a dotted identifier path (`a.b.c`).
type IdentPathExpr struct {
	Path []string
	Sp   Span
}

func (i *IdentPathExpr) node()     {}
func (i *IdentPathExpr) exprNode() {}
func (i *IdentPathExpr) Span() Span { return i.Sp }

// ListExpr is a list literal.
type ListExpr struct {
	Elements []ExprNode
	Sp       Span
}

func (l *ListExpr) node()     {}
func (l *ListExpr) exprNode() {}
func (l *ListExpr) Span() Span { return l.Sp }

// RecordField is one entry in a record literal: either a Key/Value
// pair, or a Spread expression that must evaluate to a record.
type RecordField struct {
	Key    string
	Value  ExprNode
	Spread ExprNode
	Sp     Span
}

// RecordExpr is a record literal, in source order.
type RecordExpr struct {
	Fields []RecordField
	Sp     Span
}

func (r *RecordExpr) node()     {}
func (r *RecordExpr) exprNode() {}
func (r *RecordExpr) Span() Span { return r.Sp }

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Op    string
	Left  ExprNode
	Right ExprNode
	Sp    Span
}

func (b *BinaryExpr) node()     {}
func (b *BinaryExpr) exprNode() {}
func (b *BinaryExpr) Span() Span { return b.Sp }

// UnaryExpr is unary minus.
type UnaryExpr struct {
	Op      string
	Operand ExprNode
	Sp      Span
}

func (u *UnaryExpr) node()     {}
func (u *UnaryExpr) exprNode() {}
func (u *UnaryExpr) Span() Span { return u.Sp }

// ParenExpr is a parenthesized expression, kept distinct so the
// formatter can reproduce the source's grouping.
type ParenExpr struct {
	Inner ExprNode
	Sp    Span
}

func (p *ParenExpr) node()     {}
func (p *ParenExpr) exprNode() {}
func (p *ParenExpr) Span() Span { return p.Sp }

// ToolCallExpr is `call? tool { args }` (read-mode only) or
// `do tool { args }` (read or effect mode).
type ToolCallExpr struct {
	Tool   string
	Args   *RecordExpr
	Effect bool // true for `do`, false for `call?`
	Sp     Span
}

func (t *ToolCallExpr) node()     {}
func (t *ToolCallExpr) exprNode() {}
func (t *ToolCallExpr) Span() Span { return t.Sp }

// AssertExpr raises E_ASSERT and halts the program when That is
// falsy; it always records an evidence event.
type AssertExpr struct {
	That    ExprNode
	Msg     ExprNode
	Details ExprNode // optional
	Sp      Span
}

func (a *AssertExpr) node()     {}
func (a *AssertExpr) exprNode() {}
func (a *AssertExpr) Span() Span { return a.Sp }

// CheckExpr records an evidence event but never halts execution.
type CheckExpr struct {
	That    ExprNode
	Msg     ExprNode
	Details ExprNode // optional
	Sp      Span
}

func (c *CheckExpr) node()     {}
func (c *CheckExpr) exprNode() {}
func (c *CheckExpr) Span() Span { return c.Sp }

// FnCallExpr is a stdlib or user function call `name { args }`.
type FnCallExpr struct {
	Name string
	Args *RecordExpr
	Sp   Span
}

func (f *FnCallExpr) node()     {}
func (f *FnCallExpr) exprNode() {}
func (f *FnCallExpr) Span() Span { return f.Sp }

// IfExpr covers both the record form (`if { cond, then, else }`) and
// the block form (`if cond { } else { }`); the parser normalizes both
// into this single node.
type IfExpr struct {
	Cond ExprNode
	Then []StmtNode
	Else []StmtNode // nil if absent
	Sp   Span
}

func (i *IfExpr) node()     {}
func (i *IfExpr) exprNode() {}
func (i *IfExpr) Span() Span { return i.Sp }

// ForExpr iterates In, binding each element to As in a child scope;
// it yields the list of per-iteration body results.
type ForExpr struct {
	In   ExprNode
	As   string
	Body []StmtNode
	Sp   Span
}

func (f *ForExpr) node()     {}
func (f *ForExpr) exprNode() {}
func (f *ForExpr) Span() Span { return f.Sp }

// LoopExpr threads As, starting at In, through Times iterations of
// Body; it yields the final value of As.
type LoopExpr struct {
	In    ExprNode
	Times ExprNode
	As    string
	Body  []StmtNode
	Sp    Span
}

func (l *LoopExpr) node()     {}
func (l *LoopExpr) exprNode() {}
func (l *LoopExpr) Span() Span { return l.Sp }

// MatchExpr inspects Subject, which must be a record with exactly one
// of the keys `ok` or `err`, and evaluates the matching arm.
type MatchExpr struct {
	Subject ExprNode
	OkName  string
	OkBody  []StmtNode // nil if arm absent
	ErrName string
	ErrBody []StmtNode // nil if arm absent
	Sp      Span
}

func (m *MatchExpr) node()     {}
func (m *MatchExpr) exprNode() {}
func (m *MatchExpr) Span() Span { return m.Sp }

// TryExpr runs Body; on a recoverable runtime fault it binds CatchName
// to `{code, message}` and runs CatchBody instead.
type TryExpr struct {
	Body      []StmtNode
	CatchName string
	CatchBody []StmtNode
	Sp        Span
}

func (t *TryExpr) node()     {}
func (t *TryExpr) exprNode() {}
func (t *TryExpr) Span() Span { return t.Sp }

// FilterExpr covers all three filter forms: block (`Body` set), `fn`
// (`Fn` set to a function name), and `by` (`By` set to a record key).
// Exactly one of Body, Fn, By is set.
type FilterExpr struct {
	In   ExprNode
	As   string
	Body []StmtNode
	Fn   string
	By   string
	Sp   Span
}

func (f *FilterExpr) node()     {}
func (f *FilterExpr) exprNode() {}
func (f *FilterExpr) Span() Span { return f.Sp }
