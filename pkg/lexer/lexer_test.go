package lexer

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/vslc/pkg/token"
)

func types(toks []token.Token) []token.Type {
	var out []token.Type
	for _, tok := range toks {
		out = append(out, tok.Type)
	}
	return out
}

func TestTokenizeForms(t *testing.T) {
	toks, err := Tokenize([]rune("(func main (a) ; comment\n (return (* a -2)))"), 0)
	be.Err(t, err, nil)
	be.Equal(t, types(toks), []token.Type{
		token.LParen, token.Func, token.Ident, token.LParen, token.Ident, token.RParen,
		token.LParen, token.Return, token.LParen, token.Star, token.Ident, token.Number,
		token.RParen, token.RParen, token.RParen, token.EOF,
	})
	be.Equal(t, toks[11].Value, "-2")
	be.Equal(t, toks[6].Line, 2)
	be.Equal(t, toks[6].Column, 2)
}

func TestTokenizeOperators(t *testing.T) {
	toks, err := Tokenize([]rune("+ - * / == != < > <= >= !"), 0)
	be.Err(t, err, nil)
	be.Equal(t, types(toks), []token.Type{
		token.Plus, token.Minus, token.Star, token.Slash, token.EqEq, token.Neq,
		token.Lt, token.Gt, token.Lte, token.Gte, token.Not, token.EOF,
	})
}

func TestMinusBeforeDigitIsNumber(t *testing.T) {
	toks, err := Tokenize([]rune("(- 5) -5"), 0)
	be.Err(t, err, nil)
	be.Equal(t, types(toks), []token.Type{token.LParen, token.Minus, token.Number, token.RParen, token.Number, token.EOF})
}

func TestStringEscapes(t *testing.T) {
	toks, err := Tokenize([]rune(`"a\tb\n\"c\"\\"`), 0)
	be.Err(t, err, nil)
	be.Equal(t, toks[0].Type, token.String)
	be.Equal(t, toks[0].Value, "a\tb\n\"c\"\\")
	be.Equal(t, toks[0].Len, 15)
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"open`, "unterminated string literal"},
		{"\"a\nb\"", "newline in string literal"},
		{`"\q"`, "unrecognized escape sequence"},
		{"12ab", "malformed number literal"},
		{"99999999999999999999", "integer constant out of range"},
		{"=", "unknown operator '='"},
		{"[", "unexpected character: '['"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Tokenize([]rune(tt.src), 0)
			be.Err(t, err, tt.want)
		})
	}
}
