package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, t := range tokens {
		types[i] = t.Type
	}
	return types
}

func TestScanKeywordsAndCallQ(t *testing.T) {
	l := New("t.a0", `cap budget let return do call? assert check true false null if else for fn match try catch filter loop`)
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	want := []TokenType{
		KW_CAP, KW_BUDGET, KW_LET, KW_RETURN, KW_DO, KW_CALL_Q, KW_ASSERT,
		KW_CHECK, KW_TRUE, KW_FALSE, KW_NULL, KW_IF, KW_ELSE, KW_FOR, KW_FN,
		KW_MATCH, KW_TRY, KW_CATCH, KW_FILTER, KW_LOOP, EOF,
	}
	assert.Equal(t, want, tokenTypes(tokens))
}

func TestCapitalIsIdentifierNotKeyword(t *testing.T) {
	l := New("t.a0", "capital")
	tokens := l.ScanAll()
	require.Len(t, tokens, 2)
	assert.Equal(t, IDENT, tokens[0].Type)
	assert.Equal(t, "capital", tokens[0].Lexeme)
}

func TestOperatorDisambiguation(t *testing.T) {
	l := New("t.a0", "-> ... == != >= <= > < = . -")
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	want := []TokenType{ARROW, ELLIPSIS, EQEQ, NEQ, GE, LE, GT, LT, EQ, DOT, MINUS, EOF}
	assert.Equal(t, want, tokenTypes(tokens))
}

func TestNumberFollowedByEllipsisDoesNotConsumeDots(t *testing.T) {
	l := New("t.a0", "1...3")
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	require.Len(t, tokens, 4)
	assert.Equal(t, INT, tokens[0].Type)
	assert.Equal(t, float64(1), tokens[0].Literal)
	assert.Equal(t, ELLIPSIS, tokens[1].Type)
	assert.Equal(t, INT, tokens[2].Type)
	assert.Equal(t, float64(3), tokens[2].Literal)
}

func TestFloatRequiresDigitAfterDot(t *testing.T) {
	l := New("t.a0", "3.14 2.5e10 1e5")
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	assert.Equal(t, FLOAT, tokens[0].Type)
	assert.Equal(t, 3.14, tokens[0].Literal)
	assert.Equal(t, FLOAT, tokens[1].Type)
	assert.Equal(t, 2.5e10, tokens[1].Literal)
	assert.Equal(t, FLOAT, tokens[2].Type)
	assert.Equal(t, 1e5, tokens[2].Literal)
}

func TestStringEscapesIncludingUnicode(t *testing.T) {
	l := New("t.a0", `"a\nb\t\u0041"`)
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	require.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, "a\nb\tA", tokens[0].Literal)
}

func TestCommentsAreSkipped(t *testing.T) {
	l := New("t.a0", "let x = 1 # trailing comment\nreturn x")
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	assert.Equal(t, KW_LET, tokens[0].Type)
	assert.NotContains(t, tokenTypes(tokens), STRING)
}

func TestCRLFLineCounting(t *testing.T) {
	l := New("t.a0", "let x = 1\r\nreturn x")
	tokens := l.ScanAll()
	require.Empty(t, l.Errors())
	var returnTok Token
	for _, tok := range tokens {
		if tok.Type == KW_RETURN {
			returnTok = tok
		}
	}
	assert.Equal(t, 2, returnTok.Line)
}

func TestUnterminatedStringProducesErrorNotPanic(t *testing.T) {
	l := New("t.a0", `"unterminated`)
	assert.NotPanics(t, func() {
		l.ScanAll()
	})
	assert.NotEmpty(t, l.Errors())
}

func TestUnexpectedCharacterRecordsErrorAndContinues(t *testing.T) {
	l := New("t.a0", "let x = 1 ~ return x")
	tokens := l.ScanAll()
	assert.NotEmpty(t, l.Errors())
	assert.Equal(t, EOF, tokens[len(tokens)-1].Type)
}
