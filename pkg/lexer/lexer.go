package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/xplshn/vslc/pkg/token"
	"github.com/xplshn/vslc/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
}

func NewLexer(source []rune, fileIndex int) *Lexer {
	return &Lexer{source: source, fileIndex: fileIndex, line: 1, column: 1}
}

// Tokenize lexes the whole input, ending with an EOF token.
func Tokenize(source []rune, fileIndex int) ([]token.Token, error) {
	l := NewLexer(source, fileIndex)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine), nil
	}

	ch := l.peek()
	switch {
	case unicode.IsLetter(ch) || ch == '_':
		return l.identifierOrKeyword(startPos, startCol, startLine), nil
	case unicode.IsDigit(ch), ch == '-' && unicode.IsDigit(l.peekNext()):
		return l.numberLiteral(startPos, startCol, startLine)
	case isOperatorChar(ch):
		return l.operator(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '(': return l.makeToken(token.LParen, "", startPos, startCol, startLine), nil
	case ')': return l.makeToken(token.RParen, "", startPos, startCol, startLine), nil
	case '"': return l.stringLiteral(startPos, startCol, startLine)
	}
	return token.Token{}, util.NewError(l.makeToken(token.EOF, "", startPos, startCol, startLine), "unexpected character: '%c'", ch)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		case ';':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func isOperatorChar(ch rune) bool { return strings.ContainsRune("+-*/=!<>", ch) }

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		return l.makeToken(tokType, value, startPos, startCol, startLine)
	}
	return l.makeToken(token.Ident, value, startPos, startCol, startLine)
}

func (l *Lexer) operator(startPos, startCol, startLine int) (token.Token, error) {
	for isOperatorChar(l.peek()) {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	tok := l.makeToken(token.EOF, value, startPos, startCol, startLine)
	tokType, ok := token.OperatorMap[value]
	if !ok {
		return tok, util.NewError(tok, "unknown operator '%s'", value)
	}
	tok.Type = tokType
	return tok, nil
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) (token.Token, error) {
	if l.peek() == '-' {
		l.advance()
	}
	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	valueStr := string(l.source[startPos:l.pos])
	tok := l.makeToken(token.Number, valueStr, startPos, startCol, startLine)
	if unicode.IsLetter(l.peek()) || l.peek() == '_' {
		return tok, util.NewError(tok, "malformed number literal: %s%c", valueStr, l.peek())
	}
	if _, err := strconv.ParseInt(valueStr, 10, 64); err != nil {
		return tok, util.NewError(tok, "integer constant out of range: %s", valueStr)
	}
	return tok, nil
}

func (l *Lexer) stringLiteral(startPos, startCol, startLine int) (token.Token, error) {
	var sb strings.Builder
	for !l.isAtEnd() {
		c := l.advance()
		switch c {
		case '"':
			return l.makeToken(token.String, sb.String(), startPos, startCol, startLine), nil
		case '\n':
			return token.Token{}, util.NewError(l.makeToken(token.String, "", startPos, startCol, startLine), "newline in string literal")
		case '\\':
			escTok := l.makeToken(token.String, "", l.pos-1, l.column-1, l.line)
			val, ok := decodeEscape(l.advance())
			if !ok {
				return token.Token{}, util.NewError(escTok, "unrecognized escape sequence")
			}
			sb.WriteByte(val)
		default:
			sb.WriteRune(c)
		}
	}
	return token.Token{}, util.NewError(l.makeToken(token.String, "", startPos, startCol, startLine), "unterminated string literal")
}

func decodeEscape(c rune) (byte, bool) {
	switch c {
	case 'n': return '\n', true
	case 't': return '\t', true
	case 'r': return '\r', true
	case '0': return 0, true
	case '\\': return '\\', true
	case '"': return '"', true
	}
	return 0, false
}
