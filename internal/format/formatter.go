// Package format implements A0's canonical formatter: parse to an AST,
// then re-render it in one fixed layout. The formatter never tries to
// preserve the input's whitespace or parenthesization choices beyond
// what the AST records (ParenExpr nodes survive; everything else is
// laid out fresh), which is what makes repeated formatting idempotent.
//
// The buffer/indent-counter walking style and the Config/LoadConfig/
// SaveConfig shape are carried over from the donor's resource-DSL
// formatter; the tree being walked is now A0's statement/expression
// AST instead of a resource/field/relationship tree.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/lexer"
	"github.com/a0-lang/a0/internal/runtime/parser"
)

// Formatter renders a parsed A0 program back to canonical source text.
type Formatter struct {
	config *Config
	buf    *bytes.Buffer
	indent int
}

// New creates a Formatter using config (IndentSize controls the
// per-level indent width; the spec fixes this at two spaces, but the
// knob is kept so a project can opt into a wider indent).
func New(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{config: config}
}

// HasComments reports whether src contains a `#` comment marker. The
// formatter drops comments (the lexer never tokenizes them), so
// callers should warn the user when this is true.
func HasComments(src string) bool {
	inString := false
	escaped := false
	for _, r := range src {
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch r {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '#':
			return true
		}
	}
	return false
}

// Format parses source and re-renders it in canonical form.
func (f *Formatter) Format(source string) (string, error) {
	lx := lexer.New("<format>", source)
	tokens := lx.ScanAll()
	if errs := lx.Errors(); len(errs) > 0 {
		return "", fmt.Errorf("%s", errs[0].Error())
	}
	p := parser.New("<format>", tokens)
	prog, perr := p.Parse()
	if perr != nil {
		return "", fmt.Errorf("%s", perr.Error())
	}

	f.buf = &bytes.Buffer{}
	f.indent = 0
	f.formatProgram(prog)
	return f.buf.String(), nil
}

func (f *Formatter) writeIndent() {
	f.buf.WriteString(strings.Repeat(" ", f.indent*f.config.IndentSize))
}

func (f *Formatter) writeLine(s string) {
	f.writeIndent()
	f.buf.WriteString(s)
	f.buf.WriteByte('\n')
}

func (f *Formatter) formatProgram(prog *ast.Program) {
	wroteHeader := false
	if prog.Cap != nil {
		f.writeLine(f.formatCapHeader(prog.Cap))
		wroteHeader = true
	}
	if prog.Budget != nil {
		f.writeLine(f.formatBudgetHeader(prog.Budget))
		wroteHeader = true
	}
	if wroteHeader && (len(prog.Fns) > 0 || len(prog.Body) > 0) {
		f.buf.WriteByte('\n')
	}

	for i, fn := range prog.Fns {
		f.formatFnDecl(fn)
		if i < len(prog.Fns)-1 || len(prog.Body) > 0 {
			f.buf.WriteByte('\n')
		}
	}

	f.formatStmts(prog.Body)
}

func (f *Formatter) formatCapHeader(c *ast.CapHeader) string {
	var b strings.Builder
	b.WriteString("cap { ")
	for i, name := range c.Names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": true")
	}
	b.WriteString(" }")
	return b.String()
}

func (f *Formatter) formatBudgetHeader(h *ast.BudgetHeader) string {
	var fields []string
	if h.TimeMs != nil {
		fields = append(fields, fmt.Sprintf("timeMs: %d", *h.TimeMs))
	}
	if h.MaxToolCalls != nil {
		fields = append(fields, fmt.Sprintf("maxToolCalls: %d", *h.MaxToolCalls))
	}
	if h.MaxBytesWritten != nil {
		fields = append(fields, fmt.Sprintf("maxBytesWritten: %d", *h.MaxBytesWritten))
	}
	if h.MaxIterations != nil {
		fields = append(fields, fmt.Sprintf("maxIterations: %d", *h.MaxIterations))
	}
	return "budget { " + strings.Join(fields, ", ") + " }"
}

func (f *Formatter) formatFnDecl(fn *ast.FnDecl) {
	f.writeLine(fmt.Sprintf("fn %s(%s) {", fn.Name, strings.Join(fn.Params, ", ")))
	f.indent++
	f.formatStmts(fn.Body)
	f.indent--
	f.writeLine("}")
}

func (f *Formatter) formatStmts(stmts []ast.StmtNode) {
	for _, s := range stmts {
		f.writeLine(f.formatStmt(s))
	}
}

func (f *Formatter) formatStmt(s ast.StmtNode) string {
	switch n := s.(type) {
	case *ast.LetStmt:
		return fmt.Sprintf("let %s = %s", n.Name, f.formatExpr(n.Value))
	case *ast.ArrowStmt:
		return fmt.Sprintf("%s -> %s", f.formatExpr(n.Value), n.Name)
	case *ast.ReturnStmt:
		return fmt.Sprintf("return %s", f.formatExpr(n.Value))
	case *ast.ExprStmt:
		return f.formatExpr(n.Expr)
	default:
		return fmt.Sprintf("/* unknown statement %T */", s)
	}
}

func (f *Formatter) formatExpr(e ast.ExprNode) string {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return formatLiteral(n.Value)
	case *ast.IdentPathExpr:
		return strings.Join(n.Path, ".")
	case *ast.ListExpr:
		return f.formatList(n)
	case *ast.RecordExpr:
		return f.formatRecord(n)
	case *ast.BinaryExpr:
		return fmt.Sprintf("%s %s %s", f.formatExpr(n.Left), n.Op, f.formatExpr(n.Right))
	case *ast.UnaryExpr:
		return n.Op + f.formatExpr(n.Operand)
	case *ast.ParenExpr:
		return "(" + f.formatExpr(n.Inner) + ")"
	case *ast.ToolCallExpr:
		kw := "call?"
		if n.Effect {
			kw = "do"
		}
		return fmt.Sprintf("%s %s %s", kw, n.Tool, f.formatRecord(n.Args))
	case *ast.AssertExpr:
		return "assert " + f.formatAssertFields(n.That, n.Msg, n.Details)
	case *ast.CheckExpr:
		return "check " + f.formatAssertFields(n.That, n.Msg, n.Details)
	case *ast.FnCallExpr:
		return fmt.Sprintf("%s %s", n.Name, f.formatRecord(n.Args))
	case *ast.IfExpr:
		return f.formatIf(n)
	case *ast.ForExpr:
		return f.formatFor(n)
	case *ast.LoopExpr:
		return f.formatLoop(n)
	case *ast.MatchExpr:
		return f.formatMatch(n)
	case *ast.TryExpr:
		return f.formatTry(n)
	case *ast.FilterExpr:
		return f.formatFilter(n)
	default:
		return fmt.Sprintf("/* unknown expression %T */", e)
	}
}

func formatLiteral(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(val)
	case string:
		return quoteString(val)
	default:
		return fmt.Sprintf("/* unknown literal %T */", v)
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quoteString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

func (f *Formatter) formatList(n *ast.ListExpr) string {
	if len(n.Elements) == 0 {
		return "[]"
	}
	parts := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		parts[i] = f.formatExpr(el)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (f *Formatter) formatRecord(n *ast.RecordExpr) string {
	if len(n.Fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(n.Fields))
	for i, field := range n.Fields {
		if field.Spread != nil {
			parts[i] = "..." + f.formatExpr(field.Spread)
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", field.Key, f.formatExpr(field.Value))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (f *Formatter) formatAssertFields(that, msg, details ast.ExprNode) string {
	parts := []string{"that: " + f.formatExpr(that)}
	if msg != nil {
		parts = append(parts, "msg: "+f.formatExpr(msg))
	}
	if details != nil {
		parts = append(parts, "details: "+f.formatExpr(details))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (f *Formatter) formatBlockBody(stmts []ast.StmtNode) string {
	f.indent++
	inner := &Formatter{config: f.config, buf: &bytes.Buffer{}, indent: f.indent}
	inner.formatStmts(stmts)
	f.indent--
	return inner.buf.String()
}

func (f *Formatter) formatIf(n *ast.IfExpr) string {
	var b strings.Builder
	b.WriteString("if ")
	b.WriteString(f.formatExpr(n.Cond))
	b.WriteString(" {\n")
	b.WriteString(f.formatBlockBody(n.Then))
	f.writeClosingIndentInto(&b)
	b.WriteString("}")
	if n.Else != nil {
		b.WriteString(" else {\n")
		b.WriteString(f.formatBlockBody(n.Else))
		f.writeClosingIndentInto(&b)
		b.WriteString("}")
	}
	return b.String()
}

func (f *Formatter) writeClosingIndentInto(b *strings.Builder) {
	b.WriteString(strings.Repeat(" ", f.indent*f.config.IndentSize))
}

func (f *Formatter) formatFor(n *ast.ForExpr) string {
	var b strings.Builder
	fmt.Fprintf(&b, "for { in: %s, as: %s } {\n", f.formatExpr(n.In), quoteString(n.As))
	b.WriteString(f.formatBlockBody(n.Body))
	f.writeClosingIndentInto(&b)
	b.WriteString("}")
	return b.String()
}

func (f *Formatter) formatLoop(n *ast.LoopExpr) string {
	var b strings.Builder
	fmt.Fprintf(&b, "loop { in: %s, times: %s, as: %s } {\n", f.formatExpr(n.In), f.formatExpr(n.Times), quoteString(n.As))
	b.WriteString(f.formatBlockBody(n.Body))
	f.writeClosingIndentInto(&b)
	b.WriteString("}")
	return b.String()
}

func (f *Formatter) formatMatch(n *ast.MatchExpr) string {
	var b strings.Builder
	armIndent := strings.Repeat(" ", (f.indent+1)*f.config.IndentSize)
	fmt.Fprintf(&b, "match %s {\n", f.formatExpr(n.Subject))
	if n.OkBody != nil {
		b.WriteString(armIndent)
		fmt.Fprintf(&b, "ok %s {\n", n.OkName)
		f.indent++
		b.WriteString(f.formatBlockBody(n.OkBody))
		f.indent--
		b.WriteString(armIndent)
		b.WriteString("}\n")
	}
	if n.ErrBody != nil {
		b.WriteString(armIndent)
		fmt.Fprintf(&b, "err %s {\n", n.ErrName)
		f.indent++
		b.WriteString(f.formatBlockBody(n.ErrBody))
		f.indent--
		b.WriteString(armIndent)
		b.WriteString("}\n")
	}
	f.writeClosingIndentInto(&b)
	b.WriteString("}")
	return b.String()
}

func (f *Formatter) formatTry(n *ast.TryExpr) string {
	var b strings.Builder
	b.WriteString("try {\n")
	b.WriteString(f.formatBlockBody(n.Body))
	f.writeClosingIndentInto(&b)
	fmt.Fprintf(&b, "} catch %s {\n", n.CatchName)
	b.WriteString(f.formatBlockBody(n.CatchBody))
	f.writeClosingIndentInto(&b)
	b.WriteString("}")
	return b.String()
}

func (f *Formatter) formatFilter(n *ast.FilterExpr) string {
	switch {
	case n.Fn != "":
		return fmt.Sprintf("filter { in: %s, as: %s, fn: %s }", f.formatExpr(n.In), quoteString(n.As), quoteString(n.Fn))
	case n.By != "":
		return fmt.Sprintf("filter { in: %s, as: %s, by: %s }", f.formatExpr(n.In), quoteString(n.As), quoteString(n.By))
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "filter { in: %s, as: %s } {\n", f.formatExpr(n.In), quoteString(n.As))
		b.WriteString(f.formatBlockBody(n.Body))
		f.writeClosingIndentInto(&b)
		b.WriteString("}")
		return b.String()
	}
}

// FormatFile formats source read from a file at the call site; kept
// as a thin wrapper so callers needn't construct a Formatter directly
// for a one-shot format.
func FormatFile(source string, config *Config) (string, error) {
	return New(config).Format(source)
}
