package parser

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/vslc/pkg/ast"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseSource([]rune(src), 0)
	be.Err(t, err, nil)
	return prog
}

func TestGlobalsInDeclarationOrder(t *testing.T) {
	prog := parse(t, `
(program
  (var x y)
  (array v 10)
  (func main (a) (block (return a)))
  (func helper () (block (return 0))))`)

	var names []string
	var kinds []ast.SymbolKind
	for _, sym := range prog.Globals.Symbols() {
		names = append(names, sym.Name)
		kinds = append(kinds, sym.Kind)
	}
	be.Equal(t, names, []string{"x", "y", "v", "main", "helper"})
	be.Equal(t, kinds, []ast.SymbolKind{ast.SymGlobalVar, ast.SymGlobalVar, ast.SymGlobalArray, ast.SymFunction, ast.SymFunction})

	v, ok := prog.Globals.Lookup("v")
	be.True(t, ok)
	be.Equal(t, v.Length.String(), "10")

	fns := prog.Globals.Functions()
	be.Equal(t, len(fns), 2)
	be.Equal(t, fns[0].Name, "main")
}

func TestSequenceNumbers(t *testing.T) {
	prog := parse(t, `
(program
  (func f (a b c)
    (block
      (var x)
      (block (var y z) (return y))
      (var w)
      (return x))))`)

	f, _ := prog.Globals.Lookup("f")
	be.Equal(t, f.ParamCount(), 3)
	seqs := map[string]int{}
	for _, sym := range f.Locals.Symbols() {
		seqs[sym.Name] = sym.Seq
	}
	be.Equal(t, seqs, map[string]int{"a": 0, "b": 1, "c": 2, "x": 3, "y": 4, "z": 5, "w": 6})
}

func TestForwardCallAndShadowing(t *testing.T) {
	prog := parse(t, `
(program
  (var x)
  (func main (x)
    (block
      (var y)
      (assign y x)
      (block
        (var x)
        (assign x (call later y)))
      (return x)))
  (func later (n) (block (return n))))`)

	main, _ := prog.Globals.Lookup("main")
	stmts := main.Body.Data.(ast.BlockNode).Stmts
	be.Equal(t, len(stmts), 3)

	assignY := stmts[0].Data.(ast.AssignNode)
	be.Equal(t, assignY.Rhs.Data.(ast.IdentNode).Sym.Kind, ast.SymParameter)

	inner := stmts[1].Data.(ast.BlockNode).Stmts[0].Data.(ast.AssignNode)
	innerX := inner.Lhs.Data.(ast.IdentNode).Sym
	be.Equal(t, innerX.Kind, ast.SymLocalVar)
	be.Equal(t, innerX.Seq, 2)

	call := inner.Rhs.Data.(ast.FuncCallNode)
	be.Equal(t, call.Func.Data.(ast.IdentNode).Sym.Kind, ast.SymFunction)

	ret := stmts[2].Data.(ast.ReturnNode)
	be.Equal(t, ret.Expr.Data.(ast.IdentNode).Sym.Kind, ast.SymParameter)
}

func TestStatementsAndExpressions(t *testing.T) {
	prog := parse(t, `
(program
  (array v 4)
  (func main ()
    (block
      (var i)
      (print "i=" i "!")
      (if (! i) (assign (index v 0) (- i)) (break))
      (while (< i 3) (block (assign i (+ i 1)) (break)))
      (call main)
      (return (/ (index v 1) 2)))))`)

	main, _ := prog.Globals.Lookup("main")
	be.Equal(t, main.Body.String(), "(block (print string0 i string1) (if (! i) (assign (index v 0) (- i)) (break)) "+
		"(while (< i 3) (block (assign i (+ i 1)) (break))) (call main) (return (/ (index v 1) 2)))")
	be.Equal(t, prog.Strings, []string{"i=", "!"})
}

func TestKindMismatchesReachTheGenerator(t *testing.T) {
	prog := parse(t, `
(program
  (var x)
  (func main () (block (assign main (call x 1 2)) (return (index x 0)))))`)
	main, _ := prog.Globals.Lookup("main")
	be.Equal(t, len(main.Body.Data.(ast.BlockNode).Stmts), 2)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "expected '(program'"},
		{"not a program", "(func f () (block))", "expected 'program'"},
		{"trailing", "(program) x", "expected end of file"},
		{"undeclared", "(program (func f () (block (return y))))", "1:36: undeclared identifier 'y'"},
		{"duplicate global", "(program (var x) (var x))", "'x' redeclared in this scope (previous declaration as global variable)"},
		{"duplicate param", "(program (func f (a a) (block)))", "'a' redeclared"},
		{"duplicate local", "(program (func f () (block (var a a))))", "'a' redeclared"},
		{"body not block", "(program (func f () (return 1)))", "function body of 'f' must be a block"},
		{"bad top level", "(program (assign x 1))", "expected 'var', 'array' or 'func' at top level"},
		{"bad statement", "(program (func f () (block 1)))", "expected a statement"},
		{"bad expression", "(program (func f () (block (return (block)))))", "expected an expression"},
		{"unary arity", "(program (func f () (block (return (* 1)))))", "operator '*' does not take 1 operands"},
		{"not arity", "(program (func f () (block (return (! 1 2)))))", "operator '!' does not take 2 operands"},
		{"empty print", "(program (func f () (block (print))))", "print needs at least one item"},
		{"unbalanced", "(program (func f () (block)", "unbalanced parentheses"},
		{"assign target", "(program (func f () (block (assign 1 2))))", "expected a variable or array element"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource([]rune(tt.src), 0)
			be.Err(t, err, tt.want)
		})
	}
}
