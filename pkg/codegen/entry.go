package codegen

import (
	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/ir"
)

// genMain synthesizes the C entry point. It checks argc against the arity of
// first, converts every argv entry with strtol, calls first and exits with
// its result. A wrong argument count prints errout and exits with status 1.
func (ctx *Context) genMain(first *ast.Symbol) {
	n := first.ParamCount()
	argc, argv := ir.RDI, ir.RSI

	ctx.prog.Label("main")
	ctx.emit(ir.OpPush, ir.RBP)
	ctx.emit(ir.OpMov, ir.RSP, ir.RBP)

	ctx.emit(ir.OpSub, ir.Const{Value: 1}, argc)
	ctx.emit(ir.OpCmp, ir.Const{Value: int64(n)}, argc)
	ctx.emit(ir.OpJne, ir.Label{Name: "ABORT"})

	if n > 0 {
		ctx.comment("parse %d arguments, last one first", n)
		ctx.emit(ir.OpAdd, ir.Const{Value: int64(n * wordSize)}, argv)
		ctx.emit(ir.OpMov, argc, ir.RCX)
		ctx.prog.Label("PARSE_ARGV")
		ctx.emit(ir.OpPush, argv)
		ctx.emit(ir.OpPush, ir.RCX)

		ctx.emit(ir.OpMov, ir.Mem{Base: argv}, ir.RDI)
		ctx.emit(ir.OpMov, ir.Const{Value: 0}, ir.RSI)
		ctx.emit(ir.OpMov, ir.Const{Value: 10}, ir.RDX)
		ctx.emit(ir.OpCall, ir.Label{Name: "strtol"})

		ctx.emit(ir.OpPop, ir.RCX)
		ctx.emit(ir.OpPop, argv)
		ctx.emit(ir.OpPush, ir.RAX)
		ctx.emit(ir.OpSub, ir.Const{Value: wordSize}, argv)
		ctx.emit(ir.OpLoop, ir.Label{Name: "PARSE_ARGV"})

		for i := 0; i < min(n, NumRegisterParams); i++ {
			ctx.emit(ir.OpPop, ir.ParamRegs[i])
		}
	}

	ctx.emit(ir.OpCall, ir.Label{Name: "." + first.Name})
	ctx.emit(ir.OpMov, ir.RAX, ir.RDI)
	ctx.emit(ir.OpCall, ir.Label{Name: "exit"})

	ctx.prog.Label("ABORT")
	ctx.emit(ir.OpLea, ir.Global{Name: "errout"}, ir.RDI)
	ctx.emit(ir.OpCall, ir.Label{Name: "puts"})
	ctx.emit(ir.OpMov, ir.Const{Value: 1}, ir.RDI)
	ctx.emit(ir.OpCall, ir.Label{Name: "exit"})

	ctx.genAlignedWrapper("safe_printf", "printf")
	ctx.genAlignedWrapper("safe_putchar", "putchar")

	ctx.prog.DeclareSymbols()
}

// genAlignedWrapper emits name, which rounds %rsp down to the target's stack
// alignment before calling the C function callee.
func (ctx *Context) genAlignedWrapper(name, callee string) {
	ctx.prog.Label("%s", name)
	ctx.emit(ir.OpPush, ir.RBP)
	ctx.emit(ir.OpMov, ir.RSP, ir.RBP)
	ctx.emit(ir.OpAnd, ir.Const{Value: -int64(ctx.cfg.Target.StackAlignment)}, ir.RSP)
	ctx.emit(ir.OpCall, ir.Label{Name: callee})
	ctx.emit(ir.OpMov, ir.RBP, ir.RSP)
	ctx.emit(ir.OpPop, ir.RBP)
	ctx.emit(ir.OpRet)
}
