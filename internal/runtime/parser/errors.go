// Package parser implements the A0 language parser: recursive-descent
// over the lexer's token stream, producing a typed AST with a span on
// every node. The grammar is unambiguous, so the parser does not
// attempt error recovery — it stops at the first ParseError.
package parser

import (
	"fmt"

	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/lexer"
)

// ParseError is a single E_PARSE diagnostic.
type ParseError struct {
	Message string
	Span    ast.Span
	Token   lexer.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s (near %q)",
		e.Span.StartLine, e.Span.StartCol, e.Message, e.Token.Lexeme)
}

func newParseError(message string, token lexer.Token, file string) *ParseError {
	return &ParseError{
		Message: message,
		Span:    spanFromToken(file, token),
		Token:   token,
	}
}

func spanFromToken(file string, t lexer.Token) ast.Span {
	return ast.Span{
		File:      file,
		StartLine: t.Line,
		StartCol:  t.Column,
		EndLine:   t.EndLine,
		EndCol:    t.EndCol,
	}
}
