package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/token"
	"golang.org/x/term"
)

// SourceFileRecord tracks the name and content of a single input file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var (
	sourceFiles []SourceFileRecord
	output      io.Writer = os.Stderr
	useColor              = term.IsTerminal(int(os.Stderr.Fd()))
	verbose     bool
	exit                  = os.Exit
)

// SetSourceFiles stores the input files for rich error messages
func SetSourceFiles(files []SourceFileRecord) { sourceFiles = files }

// SetOutput redirects diagnostics. Colors are disabled unless w is a terminal.
func SetOutput(w io.Writer) {
	output = w
	useColor = false
	if f, ok := w.(*os.File); ok {
		useColor = term.IsTerminal(int(f.Fd()))
	}
}

func SetVerbose(v bool) { verbose = v }

// CompileError is a positioned diagnostic returned by the interchange reader.
type CompileError struct {
	Tok token.Token
	Msg string
}

func NewError(tok token.Token, format string, args ...interface{}) *CompileError {
	return &CompileError{Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

func (e *CompileError) Error() string {
	if e.Tok.Line == 0 {
		return e.Msg
	}
	filename, line, col := findFileAndLine(e.Tok)
	return fmt.Sprintf("%s:%d:%d: %s", filename, line, col, e.Msg)
}

func paint(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + "\033[0m"
}

func findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) {
		return "<input>", tok.Line, tok.Column
	}
	return sourceFiles[tok.FileIndex].Name, tok.Line, tok.Column
}

// printErrorLine prints the source line and a caret under the offending token
func printErrorLine(w io.Writer, tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) || tok.Line == 0 {
		return
	}

	content := sourceFiles[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(w, "  %s\n", string(content[lineStart:lineEnd]))
	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", max(tok.Column-1, 0)), paint("\033[32m", caret))
}

func report(tok token.Token, format string, args ...interface{}) {
	if tok.Line == 0 {
		fmt.Fprintf(output, "vslc: %s ", paint("\033[31m", "error:"))
	} else {
		filename, line, col := findFileAndLine(tok)
		fmt.Fprintf(output, "%s:%d:%d: %s ", filename, line, col, paint("\033[31m", "error:"))
	}
	fmt.Fprintf(output, format, args...)
	fmt.Fprintln(output)
	printErrorLine(output, tok)
}

// Error prints a formatted error message and exits with status 1
func Error(tok token.Token, format string, args ...interface{}) {
	Fatal(1, tok, format, args...)
}

// Fatal prints a formatted error message and exits with the given status
func Fatal(status int, tok token.Token, format string, args ...interface{}) {
	report(tok, format, args...)
	exit(status)
}

// Warn prints a formatted warning if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if !cfg.IsWarningEnabled(wt) {
		return
	}
	filename, line, col := findFileAndLine(tok)
	fmt.Fprintf(output, "%s:%d:%d: %s ", filename, line, col, paint("\033[33m", "warning:"))
	fmt.Fprintf(output, format, args...)
	fmt.Fprintf(output, " [-W%s]\n", cfg.Warnings[wt].Name)
	printErrorLine(output, tok)
}

// Info prints a progress line in verbose mode
func Info(format string, args ...interface{}) {
	if !verbose {
		return
	}
	fmt.Fprintf(output, "vslc: info: "+format+"\n", args...)
}
