package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/ir"
)

func stringLabel(i int) string { return fmt.Sprintf("string%d", i) }

func label(prefix string, k int) ir.Label { return ir.Label{Name: fmt.Sprintf("%s%d", prefix, k)} }

// genStringTable emits the printf formats, the argument error message and
// one entry per string literal.
func (ctx *Context) genStringTable() {
	ctx.prog.Section(ir.SectionStrings)
	ctx.prog.Directive("intout: .asciz %s", QuoteAsm("%ld"))
	ctx.prog.Directive("strout: .asciz %s", QuoteAsm("%s"))
	ctx.prog.Directive("errout: .asciz %s", QuoteAsm("Wrong number of arguments"))
	for i, s := range ctx.src.Strings {
		ctx.prog.Directive("%s: .asciz %s", stringLabel(i), QuoteAsm(s))
	}
}

// genGlobalStorage reserves zeroed storage for every global scalar and array.
func (ctx *Context) genGlobalStorage() error {
	ctx.prog.Section(ir.SectionZero)
	ctx.prog.Directive(".align %d", wordSize)
	for _, sym := range ctx.src.Globals.Symbols() {
		switch sym.Kind {
		case ast.SymGlobalVar:
			ctx.prog.Directive(".%s: .zero %d", sym.Name, wordSize)
		case ast.SymGlobalArray:
			length, err := arrayLength(sym)
			if err != nil {
				return err
			}
			ctx.prog.Directive(".%s: .zero %d", sym.Name, length*wordSize)
		case ast.SymFunction:
		default:
			return newError(Internal, sym.Tok, "%s '%s' in the global table", sym.Kind, sym.Name)
		}
	}
	return nil
}

func arrayLength(sym *ast.Symbol) (int64, error) {
	if sym.Length == nil {
		return 0, newError(NonConstantBound, sym.Tok, "array '%s' has no length", sym.Name)
	}
	d, ok := sym.Length.Data.(ast.NumberNode)
	if !ok {
		return 0, newError(NonConstantBound, sym.Length.Tok, "length of array '%s' must be an integer literal, found %s", sym.Name, sym.Length)
	}
	if d.Value < 0 {
		return 0, newError(NonConstantBound, sym.Length.Tok, "length of array '%s' is negative: %d", sym.Name, d.Value)
	}
	return d.Value, nil
}

// QuoteAsm renders s as a double-quoted GNU assembler string. Bytes outside
// printable ASCII become three-digit octal escapes.
func QuoteAsm(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
