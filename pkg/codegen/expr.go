package codegen

import (
	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/ir"
	"github.com/xplshn/vslc/pkg/token"
)

var setOps = map[token.Type]ir.Op{
	token.EqEq: ir.OpSete,
	token.Neq:  ir.OpSetne,
	token.Lt:   ir.OpSetl,
	token.Lte:  ir.OpSetle,
	token.Gt:   ir.OpSetg,
	token.Gte:  ir.OpSetge,
}

// genExpr evaluates n into %rax. Any register may be clobbered.
func (ctx *Context) genExpr(n *ast.Node) error {
	if n == nil {
		return newError(Internal, zeroTok, "missing expression")
	}
	switch n.Type {
	case ast.Number:
		d, ok := n.Data.(ast.NumberNode)
		if !ok {
			return newError(Internal, n.Tok, "malformed number node")
		}
		ctx.emit(ir.OpMov, ir.Const{Value: d.Value}, ir.RAX)
	case ast.Ident:
		src, err := ctx.variableAccess(n)
		if err != nil {
			return err
		}
		ctx.emit(ir.OpMov, src, ir.RAX)
	case ast.Subscript:
		src, err := ctx.arrayAccess(n)
		if err != nil {
			return err
		}
		ctx.emit(ir.OpMov, src, ir.RAX)
	case ast.FuncCall:
		return ctx.genCall(n)
	case ast.BinaryOp:
		return ctx.genBinaryOp(n)
	case ast.UnaryOp:
		return ctx.genUnaryOp(n)
	default:
		return newError(Internal, n.Tok, "%s node is not an expression", n.Type)
	}
	return nil
}

// genOperands evaluates first, then second, and leaves the first result in
// %rcx and the second in %rax.
func (ctx *Context) genOperands(first, second *ast.Node) error {
	if err := ctx.genExpr(first); err != nil {
		return err
	}
	ctx.emit(ir.OpPush, ir.RAX)
	if err := ctx.genExpr(second); err != nil {
		return err
	}
	ctx.emit(ir.OpPop, ir.RCX)
	return nil
}

func (ctx *Context) genBinaryOp(n *ast.Node) error {
	d, ok := n.Data.(ast.BinaryOpNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed binary operator node")
	}

	switch d.Op {
	case token.Plus, token.Star:
		if err := ctx.genOperands(d.Left, d.Right); err != nil {
			return err
		}
		op := ir.OpAdd
		if d.Op == token.Star {
			op = ir.OpImul
		}
		ctx.emit(op, ir.RCX, ir.RAX)
	case token.Minus:
		if err := ctx.genOperands(d.Right, d.Left); err != nil {
			return err
		}
		ctx.emit(ir.OpSub, ir.RCX, ir.RAX)
	case token.Slash:
		if err := ctx.genExpr(d.Right); err != nil {
			return err
		}
		ctx.emit(ir.OpPush, ir.RAX)
		if err := ctx.genExpr(d.Left); err != nil {
			return err
		}
		ctx.emit(ir.OpCqo)
		ctx.emit(ir.OpPop, ir.RCX)
		ctx.emit(ir.OpIdiv, ir.RCX)
	case token.EqEq, token.Neq, token.Lt, token.Lte, token.Gt, token.Gte:
		if err := ctx.genOperands(d.Left, d.Right); err != nil {
			return err
		}
		ctx.emit(ir.OpCmp, ir.RAX, ir.RCX)
		ctx.emit(setOps[d.Op], ir.AL)
		ctx.emit(ir.OpMovzb, ir.AL, ir.RAX)
	default:
		return newError(Internal, n.Tok, "unknown binary operator '%s'", d.Op)
	}
	return nil
}

func (ctx *Context) genUnaryOp(n *ast.Node) error {
	d, ok := n.Data.(ast.UnaryOpNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed unary operator node")
	}
	if d.Op != token.Minus && d.Op != token.Not {
		return newError(Internal, n.Tok, "unknown unary operator '%s'", d.Op)
	}

	if err := ctx.genExpr(d.Expr); err != nil {
		return err
	}
	if d.Op == token.Minus {
		ctx.emit(ir.OpNeg, ir.RAX)
		return nil
	}
	ctx.emit(ir.OpCmp, ir.Const{Value: 0}, ir.RAX)
	ctx.emit(ir.OpSete, ir.AL)
	ctx.emit(ir.OpMovzb, ir.AL, ir.RAX)
	return nil
}

// genCall pushes the arguments right to left, pops the first
// NumRegisterParams of them into the argument registers, and removes the
// remaining stack words after the call returns.
func (ctx *Context) genCall(n *ast.Node) error {
	d, ok := n.Data.(ast.FuncCallNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed call node")
	}
	fn, err := identSymbol(d.Func)
	if err != nil {
		return err
	}
	if fn.Kind != ast.SymFunction {
		return newError(NotAFunction, d.Func.Tok, "'%s' is a %s, not a function", fn.Name, fn.Kind)
	}
	if len(d.Args) != fn.ParamCount() {
		return newError(ArityMismatch, n.Tok, "'%s' expects %d arguments, got %d", fn.Name, fn.ParamCount(), len(d.Args))
	}
	ctx.comment("call %s/%d", fn.Name, len(d.Args))

	for i := len(d.Args) - 1; i >= 0; i-- {
		if err := ctx.genExpr(d.Args[i]); err != nil {
			return err
		}
		ctx.emit(ir.OpPush, ir.RAX)
	}
	for i := 0; i < min(len(d.Args), NumRegisterParams); i++ {
		ctx.emit(ir.OpPop, ir.ParamRegs[i])
	}
	ctx.emit(ir.OpCall, ir.Label{Name: "." + fn.Name})
	if extra := len(d.Args) - NumRegisterParams; extra > 0 {
		ctx.emit(ir.OpAdd, ir.Const{Value: int64(extra * wordSize)}, ir.RSP)
	}
	return nil
}
