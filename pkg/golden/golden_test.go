package golden

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"
)

const doc = "# Programs\n\nIntro text with an untagged fence:\n\n```\nignored\n```\n\n" +
	"## Test: double\n\n```vast\n(program (func f (x) (block (return (* x 2)))))\n```\n\n" +
	"```args\n21\n```\n\n```exit\n42\n```\n\n" +
	"## Test: layout\n\n```flags\n-Fasm-comments -Wno-missing-return\n```\n\n" +
	"```vast\n(program (func f () (block)))\n```\n\n```asm\n.f:\n  pushq %rbp\n\n.f.epilogue:\n```\n\n" +
	"## Test: empty output\n\n```vast\n(program (func f () (block (return 0))))\n```\n\n```stdout\n```\n"

func TestExtract(t *testing.T) {
	cases, err := Extract([]byte(doc))
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 3)

	double := cases[0]
	be.Equal(t, double.Name, "double")
	be.Equal(t, double.Source, "(program (func f (x) (block (return (* x 2)))))\n")
	be.Equal(t, double.Args, []string{"21"})
	be.Equal(t, double.Exit, 42)
	be.True(t, double.Runs())
	be.Equal(t, double.Line, 9)

	layout := cases[1]
	be.Equal(t, layout.Flags, []string{"-Fasm-comments", "-Wno-missing-return"})
	if diff := cmp.Diff([]string{".f:", "pushq %rbp", ".f.epilogue:"}, layout.Asm); diff != "" {
		t.Errorf("asm fence mismatch (-want +got):\n%s", diff)
	}
	be.True(t, !layout.Runs())

	empty := cases[2]
	be.True(t, empty.Runs())
	be.Equal(t, empty.Stdout, "")
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name, doc, err string
	}{
		{"no vast", "## Test: a\n\n```exit\n0\n```\n", "test 'a' has no vast fence"},
		{"no assertion", "## Test: a\n\n```vast\n(program)\n```\n", "test 'a' has no assertion fences"},
		{"duplicate", "## Test: a\n\n```vast\nx\n```\n\n```vast\ny\n```\n", "duplicate vast fence"},
		{"unknown", "## Test: a\n\n```python\nx\n```\n", "unknown fence kind 'python'"},
		{"bad exit", "## Test: a\n\n```vast\nx\n```\n\n```exit\nlots\n```\n", "exit fence"},
		{"stray", "```vast\nx\n```\n", "vast fence outside of a test case"},
		{"conflict", "## Test: a\n\n```vast\nx\n```\n\n```exit\n1\n```\n\n```compile-error\nboom\n```\n", "expects a compile error and also output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.doc))
			be.Err(t, err, tt.err)
		})
	}
}

func TestMatchAsm(t *testing.T) {
	asm := ".text\n.f:\n\tpushq %rbp\n\tmovq %rsp, %rbp\n.f.epilogue:\n\tret\n"

	missing, ok := MatchAsm(asm, []string{".f:", "movq %rsp, %rbp", "ret"})
	be.True(t, ok)
	be.Equal(t, missing, "")

	missing, ok = MatchAsm(asm, []string{"movq %rsp, %rbp", "pushq %rbp"})
	be.True(t, !ok)
	be.Equal(t, missing, "pushq %rbp")
}

func TestLoadTestdata(t *testing.T) {
	for _, path := range []string{"../../testdata/programs.md", "../../testdata/errors.md", "../../testdata/layout.md"} {
		cases, err := LoadFile(path)
		be.Err(t, err, nil)
		be.True(t, len(cases) > 0)
		for _, c := range cases {
			be.Equal(t, c.File, path)
		}
	}
}
