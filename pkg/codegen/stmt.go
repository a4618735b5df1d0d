package codegen

import (
	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/ir"
	"github.com/xplshn/vslc/pkg/util"
)

const newline = '\n'

func (ctx *Context) genStmt(n *ast.Node) error {
	if n == nil {
		return newError(Internal, zeroTok, "missing statement")
	}
	switch n.Type {
	case ast.Block:
		return ctx.genBlock(n)
	case ast.Assign:
		return ctx.genAssign(n)
	case ast.Print:
		return ctx.genPrint(n)
	case ast.Return:
		return ctx.genReturn(n)
	case ast.If:
		return ctx.genIf(n)
	case ast.While:
		return ctx.genWhile(n)
	case ast.Break:
		return ctx.genBreak(n)
	case ast.FuncCall:
		return ctx.genCall(n)
	}
	return newError(Internal, n.Tok, "%s node is not a statement", n.Type)
}

func (ctx *Context) genBlock(n *ast.Node) error {
	d, ok := n.Data.(ast.BlockNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed block node")
	}
	warned := false
	for i, stmt := range d.Stmts {
		if i > 0 && !warned && isJump(d.Stmts[i-1]) {
			util.Warn(ctx.cfg, config.WarnUnreachableCode, stmt.Tok, "unreachable statement after %s", d.Stmts[i-1].Type)
			warned = true
		}
		if err := ctx.genStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func isJump(n *ast.Node) bool { return n != nil && (n.Type == ast.Return || n.Type == ast.Break) }

func (ctx *Context) genAssign(n *ast.Node) error {
	d, ok := n.Data.(ast.AssignNode)
	if !ok || d.Lhs == nil {
		return newError(Internal, n.Tok, "malformed assignment node")
	}

	switch d.Lhs.Type {
	case ast.Ident:
		dest, err := ctx.variableAccess(d.Lhs)
		if err != nil {
			return err
		}
		if err := ctx.genExpr(d.Rhs); err != nil {
			return err
		}
		ctx.emit(ir.OpMov, ir.RAX, dest)
	case ast.Subscript:
		if err := ctx.genExpr(d.Rhs); err != nil {
			return err
		}
		ctx.emit(ir.OpPush, ir.RAX)
		dest, err := ctx.arrayAccess(d.Lhs)
		if err != nil {
			return err
		}
		ctx.emit(ir.OpPop, ir.RAX)
		ctx.emit(ir.OpMov, ir.RAX, dest)
	default:
		return newError(Internal, d.Lhs.Tok, "cannot assign to %s node", d.Lhs.Type)
	}
	return nil
}

func (ctx *Context) genPrint(n *ast.Node) error {
	d, ok := n.Data.(ast.PrintNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed print node")
	}
	for _, item := range d.Items {
		if item == nil {
			return newError(Internal, n.Tok, "missing print item")
		}
		if ref, isString := item.Data.(ast.StringRefNode); isString {
			if ref.Index < 0 || ref.Index >= len(ctx.src.Strings) {
				return newError(Internal, item.Tok, "string reference %d outside the string table", ref.Index)
			}
			ctx.emit(ir.OpLea, ir.Global{Name: "strout"}, ir.RDI)
			ctx.emit(ir.OpLea, ir.Global{Name: stringLabel(ref.Index)}, ir.RSI)
		} else {
			if err := ctx.genExpr(item); err != nil {
				return err
			}
			ctx.emit(ir.OpMov, ir.RAX, ir.RSI)
			ctx.emit(ir.OpLea, ir.Global{Name: "intout"}, ir.RDI)
		}
		ctx.emit(ir.OpCall, ir.Label{Name: "safe_printf"})
	}
	ctx.emit(ir.OpMov, ir.Const{Value: newline}, ir.RDI)
	ctx.emit(ir.OpCall, ir.Label{Name: "safe_putchar"})
	return nil
}

func (ctx *Context) genReturn(n *ast.Node) error {
	d, ok := n.Data.(ast.ReturnNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed return node")
	}
	if ctx.currentFunc == nil {
		return newError(Internal, n.Tok, "return outside a function")
	}
	if err := ctx.genExpr(d.Expr); err != nil {
		return err
	}
	ctx.emit(ir.OpJmp, ir.Label{Name: "." + ctx.currentFunc.Name + ".epilogue"})
	return nil
}

func (ctx *Context) genIf(n *ast.Node) error {
	d, ok := n.Data.(ast.IfNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed if node")
	}
	k := ctx.ifCount
	ctx.ifCount++
	ctx.comment("if %d", k)

	if err := ctx.genExpr(d.Cond); err != nil {
		return err
	}
	ctx.emit(ir.OpCmp, ir.Const{Value: 0}, ir.RAX)

	if d.ElseBody == nil {
		ctx.emit(ir.OpJe, label("ENDIF", k))
		if err := ctx.genStmt(d.ThenBody); err != nil {
			return err
		}
		ctx.prog.Label("ENDIF%d", k)
		return nil
	}

	ctx.emit(ir.OpJe, label("ELSE", k))
	if err := ctx.genStmt(d.ThenBody); err != nil {
		return err
	}
	ctx.emit(ir.OpJmp, label("ENDIF", k))
	ctx.prog.Label("ELSE%d", k)
	if err := ctx.genStmt(d.ElseBody); err != nil {
		return err
	}
	ctx.prog.Label("ENDIF%d", k)
	return nil
}

func (ctx *Context) genWhile(n *ast.Node) error {
	d, ok := n.Data.(ast.WhileNode)
	if !ok {
		return newError(Internal, n.Tok, "malformed while node")
	}
	k := ctx.whileCount
	ctx.whileCount++
	ctx.comment("while %d", k)

	ctx.prog.Label("WHILE%d", k)
	if err := ctx.genExpr(d.Cond); err != nil {
		return err
	}
	ctx.emit(ir.OpCmp, ir.Const{Value: 0}, ir.RAX)
	ctx.emit(ir.OpJe, label("ENDWHILE", k))

	ctx.loopLabels = append(ctx.loopLabels, k)
	if err := ctx.genStmt(d.Body); err != nil {
		return err
	}
	ctx.loopLabels = ctx.loopLabels[:len(ctx.loopLabels)-1]

	ctx.emit(ir.OpJmp, label("WHILE", k))
	ctx.prog.Label("ENDWHILE%d", k)
	return nil
}

func (ctx *Context) genBreak(n *ast.Node) error {
	if len(ctx.loopLabels) == 0 {
		return newError(BreakOutsideLoop, n.Tok, "break is not inside a while loop")
	}
	ctx.emit(ir.OpJmp, label("ENDWHILE", ctx.loopLabels[len(ctx.loopLabels)-1]))
	return nil
}
