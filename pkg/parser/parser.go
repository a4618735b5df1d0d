// Package parser rebuilds a resolved program from its AST interchange form.
//
// The reader runs in two passes over the token stream. The first pass declares
// every global so that functions may be referenced before their definition;
// the second builds array bounds and function bodies, binding each name to
// the innermost visible symbol.
package parser

import (
	"strconv"

	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/lexer"
	"github.com/xplshn/vslc/pkg/token"
	"github.com/xplshn/vslc/pkg/util"
)

type scope struct {
	names  map[string]*ast.Symbol
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{names: make(map[string]*ast.Symbol), parent: parent}
}

func (s *scope) lookup(name string) *ast.Symbol {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.names[name]; ok {
			return sym
		}
	}
	return nil
}

// deferred records where a global's second-pass form starts
type deferred struct {
	sym *ast.Symbol
	pos int
}

// Parser holds the state for the reading process
type Parser struct {
	tokens  []token.Token
	pos     int
	current token.Token
	prog    *ast.Program
	globals *scope
	scope   *scope
	fn      *ast.Symbol
}

// NewParser creates and initializes a new Parser from a token stream
func NewParser(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens, prog: ast.NewProgram(), globals: newScope(nil)}
	p.scope = p.globals
	p.seek(0)
	return p
}

// ParseSource tokenizes and reads one interchange file.
func ParseSource(source []rune, fileIndex int) (*ast.Program, error) {
	toks, err := lexer.Tokenize(source, fileIndex)
	if err != nil {
		return nil, err
	}
	return NewParser(toks).Parse()
}

// Parser helpers
func (p *Parser) seek(pos int) {
	p.pos = min(pos, len(p.tokens)-1)
	if len(p.tokens) > 0 {
		p.current = p.tokens[p.pos]
	}
}

func (p *Parser) advance() token.Token {
	tok := p.current
	p.seek(p.pos + 1)
	return tok
}

func (p *Parser) check(tokType token.Type) bool { return p.current.Type == tokType }

func (p *Parser) expect(tokType token.Type, what string) (token.Token, error) {
	if !p.check(tokType) {
		return p.current, p.errorf("expected %s, found %s", what, describe(p.current))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return util.NewError(p.current, format, args...)
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.Ident, token.Number:
		return "'" + tok.Value + "'"
	case token.String:
		return "string literal"
	}
	return tok.Type.String()
}

// skipForm moves past one atom or one balanced parenthesized form.
func (p *Parser) skipForm() error {
	if !p.check(token.LParen) {
		if p.check(token.EOF) || p.check(token.RParen) {
			return p.errorf("expected a form, found %s", describe(p.current))
		}
		p.advance()
		return nil
	}
	depth := 0
	for {
		switch p.current.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		case token.EOF:
			return p.errorf("unbalanced parentheses")
		}
		p.advance()
		if depth == 0 {
			return nil
		}
	}
}

// Parse reads a whole program.
func (p *Parser) Parse() (*ast.Program, error) {
	if len(p.tokens) == 0 {
		return nil, util.NewError(token.Token{}, "empty input")
	}
	if _, err := p.expect(token.LParen, "'(program'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Program, "'program'"); err != nil {
		return nil, err
	}

	later, err := p.declareGlobals()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')' closing program"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EOF, "end of file"); err != nil {
		return nil, err
	}

	for _, d := range later {
		p.seek(d.pos)
		if err := p.defineGlobal(d.sym); err != nil {
			return nil, err
		}
	}
	return p.prog, nil
}

// --- First pass ---

func (p *Parser) declareGlobals() ([]deferred, error) {
	var later []deferred
	for p.check(token.LParen) {
		start := p.pos
		p.advance()
		head := p.advance()
		switch head.Type {
		case token.Var:
			for p.check(token.Ident) {
				if _, err := p.declare(p.globals, p.advance(), ast.SymGlobalVar, 0); err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(token.RParen, "')' closing var"); err != nil {
				return nil, err
			}
			continue
		case token.Array:
			nameTok, err := p.expect(token.Ident, "array name")
			if err != nil {
				return nil, err
			}
			sym, err := p.declare(p.globals, nameTok, ast.SymGlobalArray, 0)
			if err != nil {
				return nil, err
			}
			later = append(later, deferred{sym, start})
		case token.Func:
			nameTok, err := p.expect(token.Ident, "function name")
			if err != nil {
				return nil, err
			}
			sym, err := p.declare(p.globals, nameTok, ast.SymFunction, 0)
			if err != nil {
				return nil, err
			}
			if err := p.declareParams(sym); err != nil {
				return nil, err
			}
			later = append(later, deferred{sym, start})
		default:
			p.seek(start + 1)
			return nil, p.errorf("expected 'var', 'array' or 'func' at top level, found %s", describe(p.current))
		}
		p.seek(start)
		if err := p.skipForm(); err != nil {
			return nil, err
		}
	}
	return later, nil
}

func (p *Parser) declare(sc *scope, tok token.Token, kind ast.SymbolKind, seq int) (*ast.Symbol, error) {
	if prev, ok := sc.names[tok.Value]; ok {
		return nil, util.NewError(tok, "'%s' redeclared in this scope (previous declaration as %s)", tok.Value, prev.Kind)
	}
	sym := &ast.Symbol{Name: tok.Value, Kind: kind, Seq: seq, Tok: tok}
	sc.names[tok.Value] = sym
	switch kind {
	case ast.SymLocalVar, ast.SymParameter:
		p.fn.Locals.Insert(sym)
	default:
		p.prog.Globals.Insert(sym)
	}
	return sym, nil
}

func (p *Parser) declareParams(fn *ast.Symbol) error {
	fn.Locals = ast.NewSymbolTable()
	if _, err := p.expect(token.LParen, "parameter list"); err != nil {
		return err
	}
	p.fn = fn
	defer func() { p.fn = nil }()
	seen := newScope(nil)
	for p.check(token.Ident) {
		param, err := p.declare(seen, p.advance(), ast.SymParameter, len(fn.Params))
		if err != nil {
			return err
		}
		fn.Params = append(fn.Params, param)
	}
	_, err := p.expect(token.RParen, "')' closing parameter list")
	return err
}

// --- Second pass ---

func (p *Parser) defineGlobal(sym *ast.Symbol) error {
	p.advance() // (
	p.advance() // head
	p.advance() // name
	var err error
	switch sym.Kind {
	case ast.SymGlobalArray:
		sym.Length, err = p.parseExpr()
	case ast.SymFunction:
		err = p.defineFunc(sym)
	}
	if err != nil {
		return err
	}
	_, err = p.expect(token.RParen, "')' closing declaration of '"+sym.Name+"'")
	return err
}

func (p *Parser) defineFunc(fn *ast.Symbol) error {
	if err := p.skipForm(); err != nil {
		return err
	}
	p.fn = fn
	p.scope = newScope(p.globals)
	for _, param := range fn.Params {
		p.scope.names[param.Name] = param
	}
	defer func() { p.fn, p.scope = nil, p.globals }()

	if !p.check(token.LParen) || p.tokens[p.pos+1].Type != token.Block {
		return p.errorf("function body of '%s' must be a block", fn.Name)
	}
	body, err := p.parseStmt()
	if err != nil {
		return err
	}
	fn.Body = body
	return nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	if !p.check(token.LParen) {
		return nil, p.errorf("expected a statement, found %s", describe(p.current))
	}
	p.advance()
	head := p.advance()

	var node *ast.Node
	var err error
	switch head.Type {
	case token.Block:
		node, err = p.parseBlock(head)
	case token.Assign:
		node, err = p.parseAssign(head)
	case token.Print:
		node, err = p.parsePrint(head)
	case token.Return:
		var expr *ast.Node
		if expr, err = p.parseExpr(); err == nil {
			node = ast.NewReturn(head, expr)
		}
	case token.If:
		node, err = p.parseIf(head)
	case token.While:
		var cond, body *ast.Node
		if cond, err = p.parseExpr(); err == nil {
			if body, err = p.parseStmt(); err == nil {
				node = ast.NewWhile(head, cond, body)
			}
		}
	case token.Break:
		node = ast.NewBreak(head)
	case token.Call:
		node, err = p.parseCall(head)
	default:
		return nil, util.NewError(head, "expected a statement, found %s", describe(head))
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')' closing "+head.Type.String()); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseBlock(head token.Token) (*ast.Node, error) {
	p.scope = newScope(p.scope)
	defer func() { p.scope = p.scope.parent }()

	var stmts []*ast.Node
	for !p.check(token.RParen) {
		if p.check(token.LParen) && p.tokens[p.pos+1].Type == token.Var {
			if err := p.parseLocals(); err != nil {
				return nil, err
			}
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return ast.NewBlock(head, stmts), nil
}

// parseLocals numbers locals after all parameters, in declaration order.
func (p *Parser) parseLocals() error {
	p.advance()
	p.advance()
	for p.check(token.Ident) {
		seq := p.fn.Locals.Len()
		if _, err := p.declare(p.scope, p.advance(), ast.SymLocalVar, seq); err != nil {
			return err
		}
	}
	_, err := p.expect(token.RParen, "')' closing var")
	return err
}

func (p *Parser) parseAssign(head token.Token) (*ast.Node, error) {
	var lhs *ast.Node
	var err error
	switch {
	case p.check(token.Ident):
		lhs, err = p.parseIdent()
	case p.check(token.LParen) && p.tokens[p.pos+1].Type == token.Index:
		lhs, err = p.parseExpr()
	default:
		err = p.errorf("expected a variable or array element, found %s", describe(p.current))
	}
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewAssign(head, lhs, rhs), nil
}

func (p *Parser) parsePrint(head token.Token) (*ast.Node, error) {
	var items []*ast.Node
	for !p.check(token.RParen) {
		if p.check(token.String) {
			tok := p.advance()
			items = append(items, ast.NewStringRef(tok, p.prog.AddString(tok.Value)))
			continue
		}
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, util.NewError(head, "print needs at least one item")
	}
	return ast.NewPrint(head, items), nil
}

func (p *Parser) parseIf(head token.Token) (*ast.Node, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var elseBody *ast.Node
	if !p.check(token.RParen) {
		if elseBody, err = p.parseStmt(); err != nil {
			return nil, err
		}
	}
	return ast.NewIf(head, cond, thenBody, elseBody), nil
}

func (p *Parser) parseCall(head token.Token) (*ast.Node, error) {
	callee, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	var args []*ast.Node
	for !p.check(token.RParen) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return ast.NewFuncCall(head, callee, args), nil
}

func (p *Parser) parseIdent() (*ast.Node, error) {
	tok, err := p.expect(token.Ident, "identifier")
	if err != nil {
		return nil, err
	}
	sym := p.scope.lookup(tok.Value)
	if sym == nil {
		return nil, util.NewError(tok, "undeclared identifier '%s'", tok.Value)
	}
	return ast.NewIdent(tok, tok.Value, sym), nil
}

func (p *Parser) parseExpr() (*ast.Node, error) {
	switch p.current.Type {
	case token.Number:
		tok := p.advance()
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, util.NewError(tok, "integer constant out of range: %s", tok.Value)
		}
		return ast.NewNumber(tok, val), nil
	case token.Ident:
		return p.parseIdent()
	case token.LParen:
	default:
		return nil, p.errorf("expected an expression, found %s", describe(p.current))
	}

	p.advance()
	head := p.advance()
	var node *ast.Node
	var err error
	switch {
	case head.Type == token.Call:
		node, err = p.parseCall(head)
	case head.Type == token.Index:
		var array, index *ast.Node
		if array, err = p.parseIdent(); err == nil {
			if index, err = p.parseExpr(); err == nil {
				node = ast.NewSubscript(head, array, index)
			}
		}
	case head.Type.IsOperator():
		node, err = p.parseOperator(head)
	default:
		return nil, util.NewError(head, "expected an expression, found %s", describe(head))
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')' closing "+head.Type.String()); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseOperator(head token.Token) (*ast.Node, error) {
	var operands []*ast.Node
	for !p.check(token.RParen) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}

	switch {
	case len(operands) == 1 && (head.Type == token.Minus || head.Type == token.Not):
		return ast.NewUnaryOp(head, head.Type, operands[0]), nil
	case len(operands) == 2 && head.Type != token.Not:
		return ast.NewBinaryOp(head, head.Type, operands[0], operands[1]), nil
	}
	return nil, util.NewError(head, "operator '%s' does not take %d operands", head.Type, len(operands))
}
