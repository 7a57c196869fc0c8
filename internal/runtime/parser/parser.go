package parser

import (
	"fmt"

	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/lexer"
)

// Parser transforms a token stream into an A0 AST by recursive
// descent. It has a fixed, unambiguous precedence ladder and stops at
// the first syntax error rather than attempting recovery.
type Parser struct {
	file    string
	tokens  []lexer.Token
	current int
	errors  []*ParseError
}

// New creates a Parser over tokens, attributing spans to file.
func New(file string, tokens []lexer.Token) *Parser {
	return &Parser{file: file, tokens: tokens}
}

// Parse parses the token stream and returns the Program AST and the
// first error encountered, if any. A panic partway through (an
// out-of-bounds token read from a malformed stream, say) is recovered
// into a ParseError rather than propagating, so callers always get a
// diagnosable result instead of a crash.
func (p *Parser) Parse() (prog *ast.Program, perr *ParseError) {
	defer func() {
		if r := recover(); r != nil {
			prog = nil
			perr = newParseError(fmt.Sprintf("internal parser error: %v", r), p.safePeek(), p.file)
		}
	}()
	prog = &ast.Program{Sp: p.spanFrom(p.peek())}

	for p.check(lexer.KW_CAP) || p.check(lexer.KW_BUDGET) {
		if p.check(lexer.KW_CAP) {
			h, err := p.parseCapHeader()
			if err != nil {
				return nil, err
			}
			prog.Cap = h
		} else {
			h, err := p.parseBudgetHeader()
			if err != nil {
				return nil, err
			}
			prog.Budget = h
		}
	}

	for p.check(lexer.KW_FN) {
		fn, err := p.parseFnDecl()
		if err != nil {
			return nil, err
		}
		prog.Fns = append(prog.Fns, fn)
	}

	for !p.isAtEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}

	return prog, nil
}

func (p *Parser) parseCapHeader() (*ast.CapHeader, *ParseError) {
	start := p.advance() // 'cap'
	if _, err := p.consume(lexer.LBRACE, "expected '{' after cap"); err != nil {
		return nil, err
	}
	h := &ast.CapHeader{}
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		name, err := p.parseCapName()
		if err != nil {
			return nil, err
		}
		h.Names = append(h.Names, name)
		if _, err := p.consume(lexer.COLON, "expected ':' after capability name"); err != nil {
			return nil, err
		}
		if _, err := p.parsePrimaryLiteralBool(); err != nil {
			return nil, err
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	end, err := p.consume(lexer.RBRACE, "expected '}' to close cap header")
	if err != nil {
		return nil, err
	}
	h.Sp = p.spanBetween(start, end)
	return h, nil
}

func (p *Parser) parseCapName() (string, *ParseError) {
	// Capability names are dotted idents (fs.read) lexed as IDENT DOT IDENT...
	tok, err := p.consume(lexer.IDENT, "expected capability name")
	if err != nil {
		return "", err
	}
	name := tok.Lexeme
	for p.match(lexer.DOT) {
		part, err := p.consume(lexer.IDENT, "expected identifier after '.'")
		if err != nil {
			return "", err
		}
		name += "." + part.Lexeme
	}
	return name, nil
}

func (p *Parser) parsePrimaryLiteralBool() (bool, *ParseError) {
	if p.match(lexer.KW_TRUE) {
		return true, nil
	}
	if p.match(lexer.KW_FALSE) {
		return false, nil
	}
	return false, newParseError("expected true or false", p.peek(), p.file)
}

func (p *Parser) parseBudgetHeader() (*ast.BudgetHeader, *ParseError) {
	start := p.advance() // 'budget'
	if _, err := p.consume(lexer.LBRACE, "expected '{' after budget"); err != nil {
		return nil, err
	}
	h := &ast.BudgetHeader{}
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		name, err := p.consume(lexer.IDENT, "expected budget field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.COLON, "expected ':' after budget field name"); err != nil {
			return nil, err
		}
		val, err := p.consume(lexer.INT, "expected integer budget value")
		if err != nil {
			return nil, err
		}
		n := int(val.Literal.(float64))
		switch name.Lexeme {
		case "timeMs":
			h.TimeMs = &n
		case "maxToolCalls":
			h.MaxToolCalls = &n
		case "maxBytesWritten":
			h.MaxBytesWritten = &n
		case "maxIterations":
			h.MaxIterations = &n
		default:
			// Unknown keys are a semantic error (E_UNKNOWN_BUDGET), not a
			// syntax error: the header still parses, and the validator
			// reports it against the key's own span.
			h.Unknown = append(h.Unknown, ast.BudgetField{Name: name.Lexeme, Sp: spanFromToken(p.file, name)})
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	end, err := p.consume(lexer.RBRACE, "expected '}' to close budget header")
	if err != nil {
		return nil, err
	}
	h.Sp = p.spanBetween(start, end)
	return h, nil
}

func (p *Parser) parseFnDecl() (*ast.FnDecl, *ParseError) {
	start := p.advance() // 'fn'
	name, err := p.consume(lexer.IDENT, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	fn := &ast.FnDecl{Name: name.Lexeme}
	for !p.check(lexer.RPAREN) && !p.isAtEnd() {
		param, err := p.consume(lexer.IDENT, "expected parameter name")
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param.Lexeme)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.consume(lexer.RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' to start function body"); err != nil {
		return nil, err
	}
	body, endTok, err := p.parseBlockUntilRBrace()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.Sp = p.spanBetween(start, endTok)
	return fn, nil
}

// parseBlockUntilRBrace parses statements until it consumes a closing
// '}', returning the statements and the closing brace token.
func (p *Parser) parseBlockUntilRBrace() ([]ast.StmtNode, lexer.Token, *ParseError) {
	var stmts []ast.StmtNode
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, lexer.Token{}, err
		}
		stmts = append(stmts, stmt)
	}
	end, err := p.consume(lexer.RBRACE, "expected '}' to close block")
	if err != nil {
		return nil, lexer.Token{}, err
	}
	return stmts, end, nil
}

func (p *Parser) parseStmt() (ast.StmtNode, *ParseError) {
	switch {
	case p.check(lexer.KW_LET):
		return p.parseLetStmt()
	case p.check(lexer.KW_RETURN):
		return p.parseReturnStmt()
	default:
		return p.parseExprOrArrowStmt()
	}
}

func (p *Parser) parseLetStmt() (ast.StmtNode, *ParseError) {
	start := p.advance() // 'let'
	name, err := p.consume(lexer.IDENT, "expected identifier after let")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.EQ, "expected '=' after let target"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Lexeme, Value: value, Sp: p.spanBetween(start, p.previous())}, nil
}

func (p *Parser) parseReturnStmt() (ast.StmtNode, *ParseError) {
	start := p.advance() // 'return'
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value, Sp: p.spanBetween(start, p.previous())}, nil
}

func (p *Parser) parseExprOrArrowStmt() (ast.StmtNode, *ParseError) {
	start := p.peek()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.ARROW) {
		name, err := p.consume(lexer.IDENT, "arrow-bind target must be a bare identifier")
		if err != nil {
			return nil, err
		}
		return &ast.ArrowStmt{Name: name.Lexeme, Value: expr, Sp: p.spanBetween(start, p.previous())}, nil
	}
	return &ast.ExprStmt{Expr: expr, Sp: p.spanBetween(start, p.previous())}, nil
}

// --- expression precedence ladder ---

func (p *Parser) parseExpr() (ast.ExprNode, *ParseError) { return p.parseOr() }

func (p *Parser) parseOr() (ast.ExprNode, *ParseError) { return p.parseAnd() }

func (p *Parser) parseAnd() (ast.ExprNode, *ParseError) { return p.parseEquality() }

func (p *Parser) parseEquality() (ast.ExprNode, *ParseError) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.EQEQ) || p.check(lexer.NEQ) {
		op := p.advance()
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Lexeme, Left: left, Right: right, Sp: p.spanBetween(spanTokenOf(left), p.previous())}
	}
	return left, nil
}

func (p *Parser) parseCompare() (ast.ExprNode, *ParseError) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.GT) || p.check(lexer.LT) || p.check(lexer.GE) || p.check(lexer.LE) {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Lexeme, Left: left, Right: right, Sp: p.spanBetween(spanTokenOf(left), p.previous())}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.ExprNode, *ParseError) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.PLUS) || p.check(lexer.MINUS) {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Lexeme, Left: left, Right: right, Sp: p.spanBetween(spanTokenOf(left), p.previous())}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.ExprNode, *ParseError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.STAR) || p.check(lexer.SLASH) || p.check(lexer.PERCENT) {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op.Lexeme, Left: left, Right: right, Sp: p.spanBetween(spanTokenOf(left), p.previous())}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.ExprNode, *ParseError) {
	if p.check(lexer.MINUS) {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op.Lexeme, Operand: operand, Sp: p.spanBetween(op, p.previous())}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.ExprNode, *ParseError) {
	start := p.peek()
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		if p.check(lexer.DOT) {
			// Dotted paths after a bare identifier are consumed by
			// parseIdentOrFnCall; here a '.' only extends an identifier
			// path. A '.' after any other primary (e.g. a record
			// literal) is not consumed.
			if ip, ok := expr.(*ast.IdentPathExpr); ok {
				p.advance()
				name, err := p.consume(lexer.IDENT, "expected identifier after '.'")
				if err != nil {
					return nil, err
				}
				ip.Path = append(ip.Path, name.Lexeme)
				ip.Sp = p.spanBetween(start, p.previous())
				continue
			}
			break
		}
		break
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.ExprNode, *ParseError) {
	start := p.peek()
	switch {
	case p.match(lexer.KW_NULL):
		return &ast.LiteralExpr{Value: nil, Sp: p.spanBetween(start, p.previous())}, nil
	case p.match(lexer.KW_TRUE):
		return &ast.LiteralExpr{Value: true, Sp: p.spanBetween(start, p.previous())}, nil
	case p.match(lexer.KW_FALSE):
		return &ast.LiteralExpr{Value: false, Sp: p.spanBetween(start, p.previous())}, nil
	case p.check(lexer.INT), p.check(lexer.FLOAT):
		tok := p.advance()
		return &ast.LiteralExpr{Value: tok.Literal, Sp: p.spanBetween(start, p.previous())}, nil
	case p.check(lexer.STRING):
		tok := p.advance()
		return &ast.LiteralExpr{Value: tok.Literal, Sp: p.spanBetween(start, p.previous())}, nil
	case p.check(lexer.LPAREN):
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end, err := p.consume(lexer.RPAREN, "expected ')' to close parenthesized expression")
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Inner: inner, Sp: p.spanBetween(start, end)}, nil
	case p.check(lexer.LBRACKET):
		return p.parseListLit()
	case p.check(lexer.LBRACE):
		return p.parseRecordLit()
	case p.check(lexer.KW_CALL_Q):
		return p.parseToolCall(false)
	case p.check(lexer.KW_DO):
		return p.parseToolCall(true)
	case p.check(lexer.KW_ASSERT):
		return p.parseAssertOrCheck(true)
	case p.check(lexer.KW_CHECK):
		return p.parseAssertOrCheck(false)
	case p.check(lexer.KW_IF):
		return p.parseIf()
	case p.check(lexer.KW_FOR):
		return p.parseFor()
	case p.check(lexer.KW_LOOP):
		return p.parseLoop()
	case p.check(lexer.KW_MATCH):
		return p.parseMatch()
	case p.check(lexer.KW_TRY):
		return p.parseTry()
	case p.check(lexer.KW_FILTER):
		return p.parseFilter()
	case p.check(lexer.IDENT):
		return p.parseIdentOrFnCall()
	}
	return nil, newParseError("unexpected token in expression position", p.peek(), p.file)
}

func (p *Parser) parseIdentOrFnCall() (ast.ExprNode, *ParseError) {
	start := p.peek()
	first := p.advance()
	// `name { args }` is a stdlib/user function call only when the
	// identifier is immediately followed by '{'. Dotted paths (a.b.c)
	// are plain identifier references.
	if p.check(lexer.LBRACE) {
		args, err := p.parseRecordLit()
		if err != nil {
			return nil, err
		}
		return &ast.FnCallExpr{Name: first.Lexeme, Args: args.(*ast.RecordExpr), Sp: p.spanBetween(start, p.previous())}, nil
	}
	path := &ast.IdentPathExpr{Path: []string{first.Lexeme}, Sp: p.spanBetween(start, p.previous())}
	for p.check(lexer.DOT) {
		p.advance()
		name, err := p.consume(lexer.IDENT, "expected identifier after '.'")
		if err != nil {
			return nil, err
		}
		path.Path = append(path.Path, name.Lexeme)
		path.Sp = p.spanBetween(start, p.previous())
	}
	return path, nil
}

func (p *Parser) parseListLit() (ast.ExprNode, *ParseError) {
	start := p.advance() // '['
	list := &ast.ListExpr{}
	for !p.check(lexer.RBRACKET) && !p.isAtEnd() {
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, el)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	end, err := p.consume(lexer.RBRACKET, "expected ']' to close list literal")
	if err != nil {
		return nil, err
	}
	list.Sp = p.spanBetween(start, end)
	return list, nil
}

func (p *Parser) parseRecordLit() (ast.ExprNode, *ParseError) {
	start := p.advance() // '{'
	rec := &ast.RecordExpr{}
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		fieldStart := p.peek()
		if p.match(lexer.ELLIPSIS) {
			spread, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, ast.RecordField{Spread: spread, Sp: p.spanBetween(fieldStart, p.previous())})
		} else {
			key, err := p.consume(lexer.IDENT, "expected field name in record literal")
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(lexer.COLON, "expected ':' after field name"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, ast.RecordField{Key: key.Lexeme, Value: val, Sp: p.spanBetween(fieldStart, p.previous())})
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	end, err := p.consume(lexer.RBRACE, "expected '}' to close record literal")
	if err != nil {
		return nil, err
	}
	rec.Sp = p.spanBetween(start, end)
	return rec, nil
}

func (p *Parser) parseToolCall(effect bool) (ast.ExprNode, *ParseError) {
	start := p.advance() // 'call?' or 'do'
	name, err := p.parseCapName()
	if err != nil {
		return nil, err
	}
	args, err := p.parseRecordLit()
	if err != nil {
		return nil, err
	}
	return &ast.ToolCallExpr{Tool: name, Args: args.(*ast.RecordExpr), Effect: effect, Sp: p.spanBetween(start, p.previous())}, nil
}

func (p *Parser) parseAssertOrCheck(isAssert bool) (ast.ExprNode, *ParseError) {
	start := p.advance() // 'assert' or 'check'
	rec, err := p.parseRecordLit()
	if err != nil {
		return nil, err
	}
	r := rec.(*ast.RecordExpr)
	var that, msg, details ast.ExprNode
	for _, f := range r.Fields {
		switch f.Key {
		case "that":
			that = f.Value
		case "msg":
			msg = f.Value
		case "details":
			details = f.Value
		}
	}
	sp := p.spanBetween(start, p.previous())
	if isAssert {
		return &ast.AssertExpr{That: that, Msg: msg, Details: details, Sp: sp}, nil
	}
	return &ast.CheckExpr{That: that, Msg: msg, Details: details, Sp: sp}, nil
}

func (p *Parser) parseIf() (ast.ExprNode, *ParseError) {
	start := p.advance() // 'if'
	if p.check(lexer.LBRACE) {
		return p.parseIfRecordForm(start)
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' after if condition"); err != nil {
		return nil, err
	}
	then, end, err := p.parseBlockUntilRBrace()
	if err != nil {
		return nil, err
	}
	ifExpr := &ast.IfExpr{Cond: cond, Then: then, Sp: p.spanBetween(start, end)}
	if p.match(lexer.KW_ELSE) {
		if _, err := p.consume(lexer.LBRACE, "expected '{' after else"); err != nil {
			return nil, err
		}
		elseBody, elseEnd, err := p.parseBlockUntilRBrace()
		if err != nil {
			return nil, err
		}
		ifExpr.Else = elseBody
		ifExpr.Sp = p.spanBetween(start, elseEnd)
	}
	return ifExpr, nil
}

func (p *Parser) parseIfRecordForm(start lexer.Token) (ast.ExprNode, *ParseError) {
	rec, err := p.parseRecordLit()
	if err != nil {
		return nil, err
	}
	r := rec.(*ast.RecordExpr)
	ifExpr := &ast.IfExpr{}
	for _, f := range r.Fields {
		switch f.Key {
		case "cond":
			ifExpr.Cond = f.Value
		case "then":
			ifExpr.Then = blockFromExpr(f.Value)
		case "else":
			ifExpr.Else = blockFromExpr(f.Value)
		}
	}
	ifExpr.Sp = p.spanBetween(start, p.previous())
	return ifExpr, nil
}

// blockFromExpr wraps a single expression (as used by the record form
// of `if`, whose `then`/`else` are values, not statement lists) in an
// implicit single-statement return body.
func blockFromExpr(e ast.ExprNode) []ast.StmtNode {
	return []ast.StmtNode{&ast.ReturnStmt{Value: e, Sp: e.Span()}}
}

func (p *Parser) parseFor() (ast.ExprNode, *ParseError) {
	start := p.advance() // 'for'
	rec, err := p.parseRecordLit()
	if err != nil {
		return nil, err
	}
	r := rec.(*ast.RecordExpr)
	forExpr := &ast.ForExpr{}
	for _, f := range r.Fields {
		switch f.Key {
		case "in":
			forExpr.In = f.Value
		case "as":
			forExpr.As = literalStringOf(f.Value)
		}
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' to start for body"); err != nil {
		return nil, err
	}
	body, end, err := p.parseBlockUntilRBrace()
	if err != nil {
		return nil, err
	}
	forExpr.Body = body
	forExpr.Sp = p.spanBetween(start, end)
	return forExpr, nil
}

func (p *Parser) parseLoop() (ast.ExprNode, *ParseError) {
	start := p.advance() // 'loop'
	rec, err := p.parseRecordLit()
	if err != nil {
		return nil, err
	}
	r := rec.(*ast.RecordExpr)
	loopExpr := &ast.LoopExpr{}
	for _, f := range r.Fields {
		switch f.Key {
		case "in":
			loopExpr.In = f.Value
		case "times":
			loopExpr.Times = f.Value
		case "as":
			loopExpr.As = literalStringOf(f.Value)
		}
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' to start loop body"); err != nil {
		return nil, err
	}
	body, end, err := p.parseBlockUntilRBrace()
	if err != nil {
		return nil, err
	}
	loopExpr.Body = body
	loopExpr.Sp = p.spanBetween(start, end)
	return loopExpr, nil
}

func (p *Parser) parseMatch() (ast.ExprNode, *ParseError) {
	start := p.advance() // 'match'
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' to start match body"); err != nil {
		return nil, err
	}
	m := &ast.MatchExpr{Subject: subject}
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		if p.check(lexer.IDENT) && p.peek().Lexeme == "ok" {
			p.advance()
			name, err := p.consume(lexer.IDENT, "expected bind name after ok")
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(lexer.LBRACE, "expected '{' after ok arm name"); err != nil {
				return nil, err
			}
			body, _, err := p.parseBlockUntilRBrace()
			if err != nil {
				return nil, err
			}
			m.OkName = name.Lexeme
			m.OkBody = body
		} else if p.check(lexer.IDENT) && p.peek().Lexeme == "err" {
			p.advance()
			name, err := p.consume(lexer.IDENT, "expected bind name after err")
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(lexer.LBRACE, "expected '{' after err arm name"); err != nil {
				return nil, err
			}
			body, _, err := p.parseBlockUntilRBrace()
			if err != nil {
				return nil, err
			}
			m.ErrName = name.Lexeme
			m.ErrBody = body
		} else {
			return nil, newParseError("expected 'ok' or 'err' match arm", p.peek(), p.file)
		}
	}
	end, err := p.consume(lexer.RBRACE, "expected '}' to close match")
	if err != nil {
		return nil, err
	}
	m.Sp = p.spanBetween(start, end)
	return m, nil
}

func (p *Parser) parseTry() (ast.ExprNode, *ParseError) {
	start := p.advance() // 'try'
	if _, err := p.consume(lexer.LBRACE, "expected '{' to start try body"); err != nil {
		return nil, err
	}
	body, _, err := p.parseBlockUntilRBrace()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.KW_CATCH, "expected catch after try block"); err != nil {
		return nil, err
	}
	name, err := p.consume(lexer.IDENT, "expected bind name after catch")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' to start catch body"); err != nil {
		return nil, err
	}
	catchBody, end, err := p.parseBlockUntilRBrace()
	if err != nil {
		return nil, err
	}
	return &ast.TryExpr{Body: body, CatchName: name.Lexeme, CatchBody: catchBody, Sp: p.spanBetween(start, end)}, nil
}

func (p *Parser) parseFilter() (ast.ExprNode, *ParseError) {
	start := p.advance() // 'filter'
	rec, err := p.parseRecordLit()
	if err != nil {
		return nil, err
	}
	r := rec.(*ast.RecordExpr)
	f := &ast.FilterExpr{}
	for _, field := range r.Fields {
		switch field.Key {
		case "in":
			f.In = field.Value
		case "as":
			f.As = literalStringOf(field.Value)
		case "fn":
			f.Fn = literalStringOf(field.Value)
		case "by":
			f.By = literalStringOf(field.Value)
		}
	}
	if f.Fn == "" && f.By == "" {
		if _, err := p.consume(lexer.LBRACE, "expected '{' to start filter body"); err != nil {
			return nil, err
		}
		body, end, err := p.parseBlockUntilRBrace()
		if err != nil {
			return nil, err
		}
		f.Body = body
		f.Sp = p.spanBetween(start, end)
		return f, nil
	}
	f.Sp = p.spanBetween(start, p.previous())
	return f, nil
}

func literalStringOf(e ast.ExprNode) string {
	if lit, ok := e.(*ast.LiteralExpr); ok {
		if s, ok := lit.Value.(string); ok {
			return s
		}
	}
	return ""
}

// --- token navigation helpers ---

func (p *Parser) isAtEnd() bool { return p.peek().Type == lexer.EOF }

func (p *Parser) peek() lexer.Token { return p.tokens[p.current] }

// safePeek is peek without the out-of-bounds panic, for use from the
// panic-recovery path where p.current's validity is exactly what may
// have been violated.
func (p *Parser) safePeek() lexer.Token {
	if p.current >= 0 && p.current < len(p.tokens) {
		return p.tokens[p.current]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return lexer.Token{}
}

func (p *Parser) previous() lexer.Token { return p.tokens[p.current-1] }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return t == lexer.EOF
	}
	return p.peek().Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, message string) (lexer.Token, *ParseError) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, newParseError(message, p.peek(), p.file)
}

func (p *Parser) spanFrom(t lexer.Token) ast.Span {
	return ast.Span{File: p.file, StartLine: t.Line, StartCol: t.Column, EndLine: t.Line, EndCol: t.Column}
}

func (p *Parser) spanBetween(start, end lexer.Token) ast.Span {
	return ast.Span{File: p.file, StartLine: start.Line, StartCol: start.Column, EndLine: end.EndLine, EndCol: end.EndCol}
}

func spanTokenOf(e ast.ExprNode) lexer.Token {
	sp := e.Span()
	return lexer.Token{Line: sp.StartLine, Column: sp.StartCol, EndLine: sp.EndLine, EndCol: sp.EndCol}
}
