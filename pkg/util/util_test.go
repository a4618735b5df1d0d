package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/token"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOutput, oldExit := output, exit
	SetOutput(&buf)
	t.Cleanup(func() {
		output, exit = oldOutput, oldExit
		SetSourceFiles(nil)
		SetVerbose(false)
	})
	return &buf
}

func TestCompileError(t *testing.T) {
	SetSourceFiles([]SourceFileRecord{{Name: "prog.vast", Content: []rune("(program\n  (bogus))")}})
	defer SetSourceFiles(nil)

	err := NewError(token.Token{Line: 2, Column: 4, FileIndex: 0}, "unexpected '%s'", "bogus")
	be.Equal(t, err.Error(), "prog.vast:2:4: unexpected 'bogus'")

	err = NewError(token.Token{Line: 1, Column: 1, FileIndex: -1}, "empty input")
	be.Equal(t, err.Error(), "<input>:1:1: empty input")

	err = NewError(token.Token{}, "no position")
	be.Equal(t, err.Error(), "no position")
}

func TestFatal(t *testing.T) {
	buf := capture(t)
	SetSourceFiles([]SourceFileRecord{{Name: "prog.vast", Content: []rune("(program\n  (bogus x))")}})
	var status int
	exit = func(code int) { status = code }

	Fatal(13, token.Token{Line: 2, Column: 4, Len: 5, FileIndex: 0}, "'%s' is not a variable", "f")
	be.Equal(t, status, 13)
	want := "prog.vast:2:4: error: 'f' is not a variable\n  " + "  (bogus x))\n" + "     ^~~~~\n"
	be.Equal(t, buf.String(), want)

	buf.Reset()
	Error(token.Token{FileIndex: -1}, "expected exactly one input file")
	be.Equal(t, status, 1)
	be.Equal(t, buf.String(), "vslc: error: expected exactly one input file\n")
}

func TestWarn(t *testing.T) {
	buf := capture(t)
	cfg := config.NewConfig()
	tok := token.Token{Line: 3, Column: 7, FileIndex: -1}

	Warn(cfg, config.WarnMissingReturn, tok, "function '%s' never returns", "f")
	be.Equal(t, buf.String(), "<input>:3:7: warning: function 'f' never returns [-Wmissing-return]\n")

	buf.Reset()
	cfg.SetWarning(config.WarnMissingReturn, false)
	Warn(cfg, config.WarnMissingReturn, tok, "silent")
	be.Equal(t, buf.Len(), 0)
}

func TestInfo(t *testing.T) {
	buf := capture(t)
	Info("hidden")
	be.Equal(t, buf.Len(), 0)
	SetVerbose(true)
	Info("generating function '%s'", "main")
	be.True(t, strings.HasPrefix(buf.String(), "vslc: info: generating function 'main'"))
}
