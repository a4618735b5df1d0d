package codegen

import (
	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/ir"
	"github.com/xplshn/vslc/pkg/token"
	"github.com/xplshn/vslc/pkg/util"
)

// Context carries all mutable state of one compilation. The if and while
// counters only grow, so every control-flow label in the output is unique.
type Context struct {
	prog        *ir.Program
	src         *ast.Program
	cfg         *config.Config
	currentFunc *ast.Symbol
	loopLabels  []int
	ifCount     int
	whileCount  int
}

func NewContext(cfg *config.Config) *Context {
	return &Context{cfg: cfg}
}

// GenerateIR lowers a resolved program to an instruction stream. Generation
// stops at the first error and no partial stream is returned.
func (ctx *Context) GenerateIR(prog *ast.Program) (*ir.Program, error) {
	ctx.prog, ctx.src = &ir.Program{}, prog

	fns := prog.Globals.Functions()
	if len(fns) == 0 {
		return nil, newError(NoFunctions, token.Token{}, "program contains no functions")
	}

	util.Info("emitting static data for %d globals and %d strings", prog.Globals.Len()-len(fns), len(prog.Strings))
	ctx.genStringTable()
	if err := ctx.genGlobalStorage(); err != nil {
		return nil, err
	}

	ctx.prog.Section(ir.SectionText)
	for _, fn := range fns {
		util.Info("generating function '%s' (%d parameters)", fn.Name, fn.ParamCount())
		if err := ctx.genFunction(fn); err != nil {
			return nil, err
		}
	}

	util.Info("synthesizing entry point for '%s'", fns[0].Name)
	ctx.genMain(fns[0])
	return ctx.prog, nil
}

// Compile generates prog and renders it with the AMD64 backend.
func Compile(prog *ast.Program, cfg *config.Config) (string, error) {
	irProg, err := NewContext(cfg).GenerateIR(prog)
	if err != nil {
		return "", err
	}
	buf, err := NewAMD64Backend().Generate(irProg, cfg)
	if err != nil {
		return "", newError(Internal, zeroTok, "backend: %v", err)
	}
	return buf.String(), nil
}

func (ctx *Context) emit(op ir.Op, args ...ir.Value) { ctx.prog.Instr(op, args...) }

func (ctx *Context) comment(format string, args ...interface{}) {
	if ctx.cfg.IsFeatureEnabled(config.FeatAsmComments) {
		ctx.prog.Comment(format, args...)
	}
}

func (ctx *Context) genFunction(fn *ast.Symbol) error {
	if len(ctx.loopLabels) != 0 {
		return newError(Internal, fn.Tok, "loop stack not empty entering '%s'", fn.Name)
	}
	if fn.Body == nil || fn.Locals == nil {
		return newError(Internal, fn.Tok, "function '%s' has no body", fn.Name)
	}
	ctx.currentFunc = fn
	defer func() { ctx.currentFunc = nil }()

	ctx.prog.Label(".%s", fn.Name)
	if err := ctx.genPrologue(fn); err != nil {
		return err
	}

	if err := ctx.genStmt(fn.Body); err != nil {
		return err
	}
	if !containsReturn(fn.Body) {
		util.Warn(ctx.cfg, config.WarnMissingReturn, fn.Tok, "function '%s' never returns a value; its result is undefined", fn.Name)
	}
	if len(ctx.loopLabels) != 0 {
		return newError(Internal, fn.Tok, "loop stack not empty leaving '%s'", fn.Name)
	}

	ctx.prog.Label(".%s.epilogue", fn.Name)
	ctx.emit(ir.OpMov, ir.RBP, ir.RSP)
	ctx.emit(ir.OpPop, ir.RBP)
	ctx.emit(ir.OpRet)
	return nil
}

func containsReturn(n *ast.Node) bool {
	if n == nil {
		return false
	}
	if n.Type == ast.Return {
		return true
	}
	for _, c := range n.Children() {
		if containsReturn(c) {
			return true
		}
	}
	return false
}
