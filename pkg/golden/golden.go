// Package golden extracts end-to-end compiler test cases from Markdown files.
//
// A case starts at a heading of the form "Test: <name>" and is made of fenced
// code blocks tagged with a fence kind:
//
//	vast           the program in AST interchange form (required)
//	flags          -W and -F flags applied before generation
//	args           command line arguments for the compiled program
//	stdout         expected standard output of the program
//	exit           expected exit status of the program
//	asm            lines that must appear, in order, in the generated assembly
//	compile-error  text that must appear in the generation error
package golden

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type FenceKind string

const (
	FenceVast         FenceKind = "vast"
	FenceFlags        FenceKind = "flags"
	FenceArgs         FenceKind = "args"
	FenceStdout       FenceKind = "stdout"
	FenceExit         FenceKind = "exit"
	FenceAsm          FenceKind = "asm"
	FenceCompileError FenceKind = "compile-error"
)

var knownFences = map[FenceKind]bool{
	FenceVast: true, FenceFlags: true, FenceArgs: true, FenceStdout: true,
	FenceExit: true, FenceAsm: true, FenceCompileError: true,
}

// Case is one test case. Has reports which fences were present, so that an
// empty stdout fence still asserts empty output.
type Case struct {
	Name         string
	File         string
	Line         int
	Source       string
	Flags        []string
	Args         []string
	Stdout       string
	Exit         int
	Asm          []string
	CompileError string
	Has          map[FenceKind]bool
}

// Runs reports whether the case needs the compiled program to be executed.
func (c *Case) Runs() bool {
	return c.Has[FenceStdout] || c.Has[FenceExit]
}

// LoadFile reads and extracts every case in a Markdown file.
func LoadFile(path string) ([]Case, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cases, err := Extract(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range cases {
		cases[i].File = path
	}
	return cases, nil
}

// Extract parses a Markdown document and returns its cases in order.
func Extract(source []byte) ([]Case, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case
	finish := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &Case{
				Name: strings.TrimSpace(strings.TrimPrefix(heading, "Test: ")),
				Line: lineNumber(n, source),
				Has:  make(map[FenceKind]bool),
			}
		case *ast.FencedCodeBlock:
			kind := FenceKind(n.Language(source))
			line := lineNumber(n, source)
			if current == nil {
				if kind != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test case", line, kind)
				}
				return ast.WalkContinue, nil
			}
			if kind == "" {
				return ast.WalkContinue, nil
			}
			if err := current.addFence(kind, blockContent(n, source)); err != nil {
				return ast.WalkStop, fmt.Errorf("line %d: test '%s': %w", line, current.Name, err)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Case) addFence(kind FenceKind, content string) error {
	if !knownFences[kind] {
		return fmt.Errorf("unknown fence kind '%s'", kind)
	}
	if c.Has[kind] {
		return fmt.Errorf("duplicate %s fence", kind)
	}
	c.Has[kind] = true

	switch kind {
	case FenceVast:
		c.Source = content
	case FenceFlags:
		c.Flags = strings.Fields(content)
	case FenceArgs:
		c.Args = strings.Fields(content)
	case FenceStdout:
		c.Stdout = content
	case FenceExit:
		status, err := strconv.Atoi(strings.TrimSpace(content))
		if err != nil {
			return fmt.Errorf("exit fence: %w", err)
		}
		c.Exit = status
	case FenceAsm:
		for _, line := range strings.Split(content, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				c.Asm = append(c.Asm, line)
			}
		}
	case FenceCompileError:
		c.CompileError = strings.TrimSpace(content)
	}
	return nil
}

func validate(c *Case) error {
	if !c.Has[FenceVast] {
		return fmt.Errorf("test '%s' has no vast fence", c.Name)
	}
	if c.Has[FenceCompileError] && (c.Runs() || c.Has[FenceAsm]) {
		return fmt.Errorf("test '%s' expects a compile error and also output", c.Name)
	}
	if !c.Has[FenceCompileError] && !c.Runs() && !c.Has[FenceAsm] {
		return fmt.Errorf("test '%s' has no assertion fences", c.Name)
	}
	return nil
}

// MatchAsm checks that want appears in asm as an ordered subsequence of
// trimmed lines. It returns the first line that could not be found.
func MatchAsm(asm string, want []string) (string, bool) {
	lines := strings.Split(asm, "\n")
	i := 0
	for _, w := range want {
		for i < len(lines) && strings.TrimSpace(lines[i]) != w {
			i++
		}
		if i == len(lines) {
			return w, false
		}
		i++
	}
	return "", true
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	start := 0
	if node.Lines().Len() > 0 {
		start = node.Lines().At(0).Start
	}
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
