package ast

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/vslc/pkg/token"
)

var tok token.Token

func TestChildrenOrder(t *testing.T) {
	a, b, c := NewNumber(tok, 1), NewNumber(tok, 2), NewNumber(tok, 3)
	fn := NewIdent(tok, "f", nil)

	be.Equal(t, NewBinaryOp(tok, token.Plus, a, b).Children(), []*Node{a, b})
	be.Equal(t, NewFuncCall(tok, fn, []*Node{a, b, c}).Children(), []*Node{fn, a, b, c})
	be.Equal(t, NewIf(tok, a, b, nil).Children(), []*Node{a, b})
	be.Equal(t, NewIf(tok, a, b, c).Children(), []*Node{a, b, c})
	be.Equal(t, len(NewBreak(tok).Children()), 0)
	be.Equal(t, len(a.Children()), 0)
}

func TestNodeString(t *testing.T) {
	v := NewIdent(tok, "v", nil)
	body := NewBlock(tok, []*Node{
		NewAssign(tok, NewSubscript(tok, v, NewNumber(tok, 0)), NewUnaryOp(tok, token.Minus, NewNumber(tok, 5))),
		NewPrint(tok, []*Node{NewStringRef(tok, 0), NewBinaryOp(tok, token.Gte, v, NewNumber(tok, 1))}),
		NewWhile(tok, NewNumber(tok, 1), NewBreak(tok)),
		NewReturn(tok, NewNumber(tok, 0)),
	})
	be.Equal(t, body.String(), "(block (assign (index v 0) (- 5)) (print string0 (>= v 1)) (while 1 (break)) (return 0))")
}

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	outer := &Symbol{Name: "x", Kind: SymLocalVar, Seq: 1}
	inner := &Symbol{Name: "x", Kind: SymLocalVar, Seq: 2}
	fn := &Symbol{Name: "f", Kind: SymFunction, Params: []*Symbol{{Name: "a"}}}
	st.Insert(outer)
	st.Insert(fn)
	st.Insert(inner)

	got, ok := st.Lookup("x")
	be.True(t, ok)
	be.Equal(t, got, inner)
	_, ok = st.Lookup("y")
	be.True(t, !ok)

	be.Equal(t, st.Len(), 3)
	be.Equal(t, st.Symbols(), []*Symbol{outer, fn, inner})
	be.Equal(t, st.Functions(), []*Symbol{fn})
	be.Equal(t, fn.ParamCount(), 1)
}

func TestProgramStrings(t *testing.T) {
	p := NewProgram()
	be.Equal(t, p.AddString("a"), 0)
	be.Equal(t, p.AddString("a"), 1)
	be.Equal(t, p.Strings, []string{"a", "a"})
}
