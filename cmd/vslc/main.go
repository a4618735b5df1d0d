package main

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"

	"github.com/xplshn/vslc/pkg/ast"
	"github.com/xplshn/vslc/pkg/cli"
	"github.com/xplshn/vslc/pkg/codegen"
	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/parser"
	"github.com/xplshn/vslc/pkg/token"
	"github.com/xplshn/vslc/pkg/util"
)

func main() {
	app := cli.NewApp("vslc")
	app.Synopsis = "[options] <input.vast>"
	app.Description = "An x86-64 code generator for VSL. Reads the resolved syntax tree written by the front end and produces AT&T assembly for the System V ABI, or a linked executable."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/vslc>"

	var (
		outFile    string
		target     string
		linkerArgs []string
		asmOnly    bool
		verbose    bool
		allWarn    bool
		noWarn     bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "a.out", "Place the output into <file>.", "file")
	fs.String(&target, "target", "t", "", "Set the target ABI ("+strings.Join(config.TargetNames(), ", ")+"). Defaults to the host.", "target")
	fs.List(&linkerArgs, "linker-arg", "L", []string{}, "Pass an argument to the linker.", "arg")
	fs.Bool(&asmOnly, "asm", "S", false, "Write the assembly to the output file instead of linking.")
	fs.Bool(&verbose, "verbose", "v", false, "Report each compilation stage.")
	fs.Bool(&allWarn, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&noWarn, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	// Main compilation pipeline
	app.Action = func(inputFiles []string) error {
		util.SetVerbose(verbose)
		if len(inputFiles) != 1 {
			util.Error(token.Token{FileIndex: -1}, "expected exactly one input file, got %d", len(inputFiles))
		}

		if allWarn {
			cfg.SetAllWarnings(true)
		}
		if noWarn {
			cfg.SetAllWarnings(false)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)

		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
			util.Error(token.Token{FileIndex: -1}, "%v", err)
		}
		cfg.LinkerArgs = append(cfg.LinkerArgs, linkerArgs...)

		util.Info("reading '%s'", inputFiles[0])
		prog := readProgram(inputFiles[0])

		util.Info("generating code for target '%s'", cfg.Target.Name)
		asm, err := codegen.Compile(prog, cfg)
		if err != nil {
			reportCodegenError(err)
		}

		if asmOnly {
			util.Info("writing assembly to '%s'", outFile)
			if err := os.WriteFile(outFile, []byte(asm), 0o644); err != nil {
				util.Error(token.Token{FileIndex: -1}, "could not write '%s': %v", outFile, err)
			}
			return nil
		}

		util.Info("linking '%s'", outFile)
		if err := codegen.AssembleAndLink(context.Background(), cfg, outFile, asm); err != nil {
			util.Error(token.Token{FileIndex: -1}, "assembler/linker failed: %v", err)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func readProgram(path string) *ast.Program {
	content, err := os.ReadFile(path)
	if err != nil {
		util.Error(token.Token{FileIndex: -1}, "could not read file '%s': %v", path, err)
	}
	source := []rune(string(content))
	util.SetSourceFiles([]util.SourceFileRecord{{Name: path, Content: source}})

	prog, err := parser.ParseSource(source, 0)
	if err != nil {
		var ce *util.CompileError
		if errors.As(err, &ce) {
			util.Error(ce.Tok, "%s", ce.Msg)
		}
		util.Error(token.Token{FileIndex: -1}, "%v", err)
	}
	return prog
}

// reportCodegenError exits with the status assigned to the error kind.
func reportCodegenError(err error) {
	var ge *codegen.Error
	if !errors.As(err, &ge) {
		util.Fatal(codegen.Internal.ExitStatus(), token.Token{FileIndex: -1}, "%v", err)
	}
	util.Fatal(ge.Kind.ExitStatus(), ge.Tok, "%s: %s", ge.Kind, ge.Msg)
}
