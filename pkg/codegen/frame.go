package codegen

import (
	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/ir"
)

// NumRegisterParams is how many arguments travel in registers.
const NumRegisterParams = len(ir.ParamRegs)

const wordSize = 8

// FrameOffset returns the %rbp-relative offset of a parameter or local of fn.
//
// The first NumRegisterParams parameters are spilled by the prologue right
// below the saved %rbp, followed by the locals. Parameters past the register
// limit stay where the caller pushed them, above the return address.
func FrameOffset(fn, sym *ast.Symbol) (int64, error) {
	if fn == nil || sym == nil {
		return 0, newError(Internal, zeroTok, "frame lookup without a function or symbol")
	}
	n := fn.ParamCount()
	switch sym.Kind {
	case ast.SymParameter:
		p := sym.Seq
		if p < 0 || p >= n {
			return 0, newError(Internal, sym.Tok, "parameter '%s' of '%s' has sequence number %d, arity is %d", sym.Name, fn.Name, p, n)
		}
		if p < NumRegisterParams {
			return -int64(p+1) * wordSize, nil
		}
		return 16 + int64(p-NumRegisterParams)*wordSize, nil
	case ast.SymLocalVar:
		s := sym.Seq
		locals := localCount(fn)
		if s < n || s >= n+locals {
			return 0, newError(Internal, sym.Tok, "local '%s' of '%s' has sequence number %d outside [%d, %d)", sym.Name, fn.Name, s, n, n+locals)
		}
		eff := s
		if n > NumRegisterParams {
			eff = s - (n - NumRegisterParams)
		}
		return -int64(eff+1) * wordSize, nil
	}
	return 0, newError(Internal, sym.Tok, "%s '%s' has no frame slot", sym.Kind, sym.Name)
}

func localCount(fn *ast.Symbol) int {
	if fn.Locals == nil {
		return 0
	}
	count := 0
	for _, sym := range fn.Locals.Symbols() {
		if sym.Kind == ast.SymLocalVar {
			count++
		}
	}
	return count
}

// genPrologue saves %rbp, spills the register parameters and reserves one
// zeroed word per local.
func (ctx *Context) genPrologue(fn *ast.Symbol) error {
	ctx.emit(ir.OpPush, ir.RBP)
	ctx.emit(ir.OpMov, ir.RSP, ir.RBP)

	for i := 0; i < min(fn.ParamCount(), NumRegisterParams); i++ {
		ctx.emit(ir.OpPush, ir.ParamRegs[i])
	}
	for _, sym := range fn.Locals.Symbols() {
		if sym.Kind != ast.SymLocalVar {
			continue
		}
		if _, err := FrameOffset(fn, sym); err != nil {
			return err
		}
		ctx.emit(ir.OpPush, ir.Const{Value: 0})
	}
	return nil
}

// variableAccess returns the operand of a scalar variable or parameter.
func (ctx *Context) variableAccess(n *ast.Node) (ir.Value, error) {
	sym, err := identSymbol(n)
	if err != nil {
		return nil, err
	}
	switch sym.Kind {
	case ast.SymGlobalVar:
		return ir.Global{Name: "." + sym.Name}, nil
	case ast.SymLocalVar, ast.SymParameter:
		if ctx.currentFunc == nil {
			return nil, newError(Internal, n.Tok, "'%s' used outside a function", sym.Name)
		}
		off, err := FrameOffset(ctx.currentFunc, sym)
		if err != nil {
			return nil, err
		}
		return ir.Mem{Base: ir.RBP, Offset: off}, nil
	case ast.SymFunction, ast.SymGlobalArray:
		return nil, newError(NotAVariable, n.Tok, "'%s' is a %s, not a variable", sym.Name, sym.Kind)
	}
	return nil, newError(Internal, n.Tok, "unknown symbol kind for '%s'", sym.Name)
}

// arrayAccess evaluates the index and leaves the element address in %rcx.
func (ctx *Context) arrayAccess(n *ast.Node) (ir.Value, error) {
	d, ok := n.Data.(ast.SubscriptNode)
	if !ok {
		return nil, newError(Internal, n.Tok, "expected an array element, found %s", n.Type)
	}
	sym, err := identSymbol(d.Array)
	if err != nil {
		return nil, err
	}
	if sym.Kind != ast.SymGlobalArray {
		return nil, newError(NotAnArray, d.Array.Tok, "'%s' is a %s, not an array", sym.Name, sym.Kind)
	}

	if err := ctx.genExpr(d.Index); err != nil {
		return nil, err
	}
	ctx.emit(ir.OpLea, ir.Global{Name: "." + sym.Name}, ir.RCX)
	ctx.emit(ir.OpLea, ir.Indexed{Base: ir.RCX, Index: ir.RAX, Scale: wordSize}, ir.RCX)
	return ir.Mem{Base: ir.RCX}, nil
}

func identSymbol(n *ast.Node) (*ast.Symbol, error) {
	if n == nil {
		return nil, newError(Internal, zeroTok, "missing identifier")
	}
	d, ok := n.Data.(ast.IdentNode)
	if !ok {
		return nil, newError(Internal, n.Tok, "expected an identifier, found %s", n.Type)
	}
	if d.Sym == nil {
		return nil, newError(Internal, n.Tok, "identifier '%s' is not bound to a symbol", d.Name)
	}
	return d.Sym, nil
}
