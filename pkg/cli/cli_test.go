package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func newTestSet() (*FlagSet, *string, *bool, *[]string) {
	var (
		out  string
		asm  bool
		args []string
	)
	fs := NewFlagSet("vslc")
	fs.String(&out, "output", "o", "a.out", "Place the output into <file>.", "file")
	fs.Bool(&asm, "asm", "S", false, "Write assembly.")
	fs.List(&args, "linker-arg", "L", []string{}, "Pass an argument to the linker.", "arg")
	return fs, &out, &asm, &args
}

func TestParse(t *testing.T) {
	fs, out, asm, args := newTestSet()
	err := fs.Parse([]string{"-S", "-oprog.s", "--linker-arg=-lm", "-L", "-static", "in.vast", "--", "-x"})
	be.Err(t, err, nil)
	be.Equal(t, *out, "prog.s")
	be.True(t, *asm)
	be.Equal(t, *args, []string{"-lm", "-static"})
	be.Equal(t, fs.Args(), []string{"in.vast", "-x"})
}

func TestParseLongSingleDash(t *testing.T) {
	fs, out, _, _ := newTestSet()
	be.Err(t, fs.Parse([]string{"-output", "x"}), nil)
	be.Equal(t, *out, "x")
	be.Equal(t, fs.Lookup("output").DefValue, "a.out")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		args []string
		err  string
	}{
		{[]string{"--nope"}, "unknown flag: --nope"},
		{[]string{"-q"}, "unknown shorthand flag: -q"},
		{[]string{"--output"}, "flag needs an argument: --output"},
		{[]string{"-o"}, "flag needs an argument: -o"},
		{[]string{"--asm=maybe"}, "invalid boolean value 'maybe'"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			fs, _, _, _ := newTestSet()
			be.Err(t, fs.Parse(tt.args), tt.err)
		})
	}
}

func TestFlagGroup(t *testing.T) {
	fs := NewFlagSet("vslc")
	entries := []FlagGroupEntry{{Name: "unreachable-code", Prefix: "W", Usage: "Unreachable statements.", Enabled: new(bool), Disabled: new(bool)}}
	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", entries)

	be.Err(t, fs.Parse([]string{"-Wno-unreachable-code"}), nil)
	be.True(t, !*entries[0].Enabled)
	be.True(t, *entries[0].Disabled)
}

func TestAppRun(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := NewApp("vslc")
	app.Synopsis = "[options] <input.vast>"
	app.Description = "An x86-64 code generator."
	app.Stdout, app.Stderr = &stdout, &stderr
	var got []string
	app.Action = func(args []string) error { got = args; return nil }

	be.Err(t, app.Run([]string{"a.vast"}), nil)
	be.Equal(t, got, []string{"a.vast"})

	app = NewApp("vslc")
	app.Synopsis = "[options] <input.vast>"
	app.Stdout, app.Stderr = &stdout, &stderr
	be.Err(t, app.Run([]string{"--bogus"}), "unknown flag")
	be.True(t, strings.Contains(stderr.String(), "Run 'vslc --help'"))

	sentinel := errors.New("boom")
	app = NewApp("vslc")
	app.Stdout, app.Stderr = &stdout, &stderr
	app.Action = func([]string) error { return sentinel }
	be.Err(t, app.Run(nil), sentinel)
}

func TestHelpPage(t *testing.T) {
	app := NewApp("vslc")
	app.Synopsis = "[options] <input.vast>"
	app.Description = "An x86-64 code generator for VSL that reads the resolved syntax tree."
	var out string
	app.FlagSet.String(&out, "output", "o", "a.out", "Place the output into <file>.", "file")
	app.FlagSet.AddFlagGroup("Feature Flags", "Enable or disable code generation features", "feature", "Available Features:",
		[]FlagGroupEntry{{Name: "asm-comments", Prefix: "F", Usage: "Annotate the assembly.", Enabled: new(bool), Disabled: new(bool)}})

	page := app.HelpPage(60)
	for _, want := range []string{"Synopsis", "vslc [options] <input.vast>", "Options", "|a.out|", "Feature Flags", "-Fno-<feature>", "asm-comments"} {
		be.True(t, strings.Contains(page, want))
	}
	be.True(t, !strings.Contains(page, "-Fno-asm-comments"))
}

func TestWrapText(t *testing.T) {
	be.Equal(t, wrapText("one two three four", 9), []string{"one two", "three", "four"})
}
