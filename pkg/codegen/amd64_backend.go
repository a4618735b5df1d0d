package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/ir"
)

type amd64Backend struct {
	out *bytes.Buffer
}

// NewAMD64Backend returns the GNU assembler backend for AT&T syntax x86-64.
func NewAMD64Backend() Backend { return &amd64Backend{} }

func (b *amd64Backend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	b.out = new(bytes.Buffer)
	for i, line := range prog.Lines {
		if err := b.genLine(line, cfg.Target); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return b.out, nil
}

func (b *amd64Backend) genLine(line ir.Line, target config.Target) error {
	switch line.Kind {
	case ir.LineInstr:
		if line.Op < 0 || line.Op > ir.OpLoop {
			return fmt.Errorf("unknown instruction %s", line.Op)
		}
		if line.Op.IsJump() || line.Op == ir.OpCall {
			if len(line.Args) != 1 {
				return fmt.Errorf("%s takes one label operand, got %d", line.Op, len(line.Args))
			}
			if _, ok := line.Args[0].(ir.Label); !ok {
				return fmt.Errorf("%s target %s is not a label", line.Op, line.Args[0])
			}
		}
		fmt.Fprintf(b.out, "\t%s\n", line)
	case ir.LineLabel:
		fmt.Fprintf(b.out, "%s\n", line)
	case ir.LineDirective:
		fmt.Fprintf(b.out, "%s\n", line.Text)
	case ir.LineComment:
		fmt.Fprintf(b.out, "\t%s\n", line)
	case ir.LineSection:
		switch line.Section {
		case ir.SectionStrings:
			fmt.Fprintf(b.out, ".section %s\n", target.StringSection)
		case ir.SectionZero:
			fmt.Fprintf(b.out, ".section %s\n", target.ZeroSection)
		case ir.SectionText:
			b.out.WriteString(".text\n")
		default:
			return fmt.Errorf("unknown section %d", line.Section)
		}
	case ir.LineDeclareSymbols:
		for _, decl := range target.Declarations {
			fmt.Fprintf(b.out, "%s\n", decl)
		}
	default:
		return fmt.Errorf("unknown line kind %d", line.Kind)
	}
	return nil
}
