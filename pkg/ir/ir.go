// Package ir holds the ordered x86-64 instruction stream built by the code
// generator. Backends render it to assembly text for a target flavor.
package ir

import (
	"fmt"
	"strings"
)

type Op int

const (
	OpPush Op = iota
	OpPop
	OpMov
	OpLea
	OpAdd
	OpSub
	OpImul
	OpIdiv
	OpNeg
	OpCqo
	OpCmp
	OpSete
	OpSetne
	OpSetl
	OpSetle
	OpSetg
	OpSetge
	OpMovzb
	OpAnd
	OpJmp
	OpJe
	OpJne
	OpCall
	OpRet
	OpLoop
	opCount
)

var mnemonics = [opCount]string{
	OpPush: "pushq", OpPop: "popq", OpMov: "movq", OpLea: "leaq",
	OpAdd: "addq", OpSub: "subq", OpImul: "imulq", OpIdiv: "idivq", OpNeg: "negq", OpCqo: "cqo",
	OpCmp: "cmpq", OpSete: "sete", OpSetne: "setne", OpSetl: "setl", OpSetle: "setle",
	OpSetg: "setg", OpSetge: "setge", OpMovzb: "movzbq", OpAnd: "andq",
	OpJmp: "jmp", OpJe: "je", OpJne: "jne", OpCall: "call", OpRet: "ret", OpLoop: "loop",
}

func (o Op) String() string {
	if o >= 0 && o < opCount {
		return mnemonics[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsJump reports whether the op transfers control to a label operand.
func (o Op) IsJump() bool {
	switch o {
	case OpJmp, OpJe, OpJne, OpLoop:
		return true
	}
	return false
}

type Reg int

const (
	RAX Reg = iota
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	AL
)

var regNames = [...]string{"rax", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp", "r8", "r9", "al"}

// ParamRegs are the System V integer argument registers in order.
var ParamRegs = [...]Reg{RDI, RSI, RDX, RCX, R8, R9}

type Value interface {
	isValue()
	String() string
}

type Const struct{ Value int64 }
type Mem struct{ Base Reg; Offset int64 }
type Indexed struct{ Base, Index Reg; Scale int }
type Global struct{ Name string }
type Label struct{ Name string }

func (r Reg) isValue()     {}
func (c Const) isValue()   {}
func (m Mem) isValue()     {}
func (x Indexed) isValue() {}
func (g Global) isValue()  {}
func (l Label) isValue()   {}

func (r Reg) String() string {
	if r >= 0 && int(r) < len(regNames) {
		return "%" + regNames[r]
	}
	return fmt.Sprintf("%%reg%d", int(r))
}
func (c Const) String() string { return fmt.Sprintf("$%d", c.Value) }
func (m Mem) String() string {
	if m.Offset == 0 {
		return fmt.Sprintf("(%s)", m.Base)
	}
	return fmt.Sprintf("%d(%s)", m.Offset, m.Base)
}
func (x Indexed) String() string { return fmt.Sprintf("(%s,%s,%d)", x.Base, x.Index, x.Scale) }
func (g Global) String() string  { return g.Name + "(%rip)" }
func (l Label) String() string   { return l.Name }

type LineKind int

const (
	LineInstr LineKind = iota
	LineLabel
	LineDirective
	LineSection
	LineComment
	LineDeclareSymbols
)

type Section int

const (
	SectionStrings Section = iota
	SectionZero
	SectionText
)

// Line is one entry of the stream. Text holds the label name, directive or
// comment depending on Kind.
type Line struct {
	Kind    LineKind
	Op      Op
	Args    []Value
	Text    string
	Section Section
}

func (l Line) String() string {
	switch l.Kind {
	case LineInstr:
		if len(l.Args) == 0 {
			return l.Op.String()
		}
		args := make([]string, len(l.Args))
		for i, a := range l.Args {
			args[i] = a.String()
		}
		return l.Op.String() + " " + strings.Join(args, ", ")
	case LineLabel:
		return l.Text + ":"
	case LineComment:
		return "# " + l.Text
	}
	return l.Text
}

type Program struct {
	Lines []Line
}

func (p *Program) Instr(op Op, args ...Value) {
	p.Lines = append(p.Lines, Line{Kind: LineInstr, Op: op, Args: args})
}

func (p *Program) Label(format string, args ...interface{}) {
	p.Lines = append(p.Lines, Line{Kind: LineLabel, Text: fmt.Sprintf(format, args...)})
}

func (p *Program) Directive(format string, args ...interface{}) {
	p.Lines = append(p.Lines, Line{Kind: LineDirective, Text: fmt.Sprintf(format, args...)})
}

func (p *Program) Section(s Section) {
	p.Lines = append(p.Lines, Line{Kind: LineSection, Section: s})
}

func (p *Program) Comment(format string, args ...interface{}) {
	p.Lines = append(p.Lines, Line{Kind: LineComment, Text: fmt.Sprintf(format, args...)})
}

func (p *Program) DeclareSymbols() {
	p.Lines = append(p.Lines, Line{Kind: LineDeclareSymbols})
}

// Labels returns every defined label in stream order.
func (p *Program) Labels() []string {
	var labels []string
	for _, l := range p.Lines {
		if l.Kind == LineLabel {
			labels = append(labels, l.Text)
		}
	}
	return labels
}

// Instructions returns the rendered instructions from label start through
// the first ret that follows it. Labels in between are skipped.
func (p *Program) Instructions(start string) []string {
	var out []string
	inside := false
	for _, l := range p.Lines {
		switch {
		case l.Kind == LineLabel && l.Text == start:
			inside = true
		case inside && l.Kind == LineInstr:
			out = append(out, l.String())
			if l.Op == OpRet {
				return out
			}
		}
	}
	return out
}
