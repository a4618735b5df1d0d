package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"
)

func TestOperandSyntax(t *testing.T) {
	be.Equal(t, RAX.String(), "%rax")
	be.Equal(t, AL.String(), "%al")
	be.Equal(t, Const{Value: -16}.String(), "$-16")
	be.Equal(t, Mem{Base: RBP, Offset: -24}.String(), "-24(%rbp)")
	be.Equal(t, Mem{Base: RCX}.String(), "(%rcx)")
	be.Equal(t, Indexed{Base: RCX, Index: RAX, Scale: 8}.String(), "(%rcx,%rax,8)")
	be.Equal(t, Global{Name: ".counter"}.String(), ".counter(%rip)")
	be.Equal(t, Label{Name: "ENDWHILE3"}.String(), "ENDWHILE3")
}

func TestProgramLines(t *testing.T) {
	var p Program
	p.Section(SectionText)
	p.Label(".%s", "f")
	p.Instr(OpPush, RBP)
	p.Instr(OpMov, RSP, RBP)
	p.Comment("while %d", 0)
	p.Label("WHILE%d", 0)
	p.Instr(OpCqo)
	p.Label(".f.epilogue")
	p.Instr(OpRet)
	p.Instr(OpJmp, Label{Name: "after"})
	p.DeclareSymbols()

	be.Equal(t, p.Labels(), []string{".f", "WHILE0", ".f.epilogue"})
	want := []string{"pushq %rbp", "movq %rsp, %rbp", "cqo", "ret"}
	if diff := cmp.Diff(want, p.Instructions(".f")); diff != "" {
		t.Errorf("Instructions mismatch (-want +got):\n%s", diff)
	}
	be.Equal(t, p.Lines[4].String(), "# while 0")
	be.Equal(t, p.Lines[5].String(), "WHILE0:")
}

func TestOps(t *testing.T) {
	be.Equal(t, OpMovzb.String(), "movzbq")
	be.Equal(t, Op(-1).String(), "Op(-1)")
	be.True(t, OpLoop.IsJump())
	be.True(t, !OpCall.IsJump())
	be.Equal(t, ParamRegs[5].String(), "%r9")
}
