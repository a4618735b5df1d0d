// vtest runs the Markdown golden suite against the code generator. Cases are
// generated in-process; cases that assert on program behavior are linked with
// cc and executed when the host can run x86-64 System V binaries.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/vslc/pkg/cli"
	"github.com/xplshn/vslc/pkg/codegen"
	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/golden"
	"github.com/xplshn/vslc/pkg/parser"
	"github.com/xplshn/vslc/pkg/util"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

type CaseResult struct {
	Name        string     `json:"name"`
	File        string     `json:"file"`
	Status      string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message     string     `json:"message,omitempty"`
	Diff        string     `json:"diff,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Run         *Execution `json:"run,omitempty"`
}

type SuiteResults map[string]*CaseResult

type options struct {
	patterns   []string
	outputJSON string
	filter     string
	timeout    time.Duration
	jobs       int
	verbose    bool
	useCache   bool
}

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	log.SetFlags(0)
	app := cli.NewApp("vtest")
	app.Synopsis = "[options]"
	app.Description = "Run the vslc golden test suite."

	var (
		opts       options
		timeoutStr string
		jobsStr    string
	)
	fs := app.FlagSet
	fs.List(&opts.patterns, "test-files", "f", []string{}, "Glob pattern for Markdown case files. Defaults to testdata/*.md.", "glob")
	fs.String(&opts.outputJSON, "output", "o", ".vtest_results.json", "Output file for the JSON test report.", "file")
	fs.String(&opts.filter, "run", "r", "", "Only run cases whose name contains this text.", "text")
	fs.String(&timeoutStr, "timeout", "", "5s", "Timeout for each link and run.", "duration")
	fs.String(&jobsStr, "jobs", "j", "4", "Number of parallel test jobs.", "n")
	fs.Bool(&opts.verbose, "verbose", "v", false, "List passing cases.")
	fs.Bool(&opts.useCache, "cached", "c", false, "Skip cases whose fingerprint passed in the previous report.")

	app.Action = func(args []string) error {
		var err error
		if opts.timeout, err = time.ParseDuration(timeoutStr); err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		if _, err := fmt.Sscan(jobsStr, &opts.jobs); err != nil || opts.jobs < 1 {
			return fmt.Errorf("invalid --jobs '%s'", jobsStr)
		}
		if len(opts.patterns) == 0 {
			opts.patterns = []string{"testdata/*.md"}
		}
		opts.patterns = append(opts.patterns, args...)
		// Warnings from the cases themselves are not test output.
		util.SetOutput(io.Discard)
		if !runSuite(opts) {
			os.Exit(1)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
	}
}

// setupInterruptHandler is used to clean up on CTRL+C
func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func runSuite(opts options) bool {
	tempDir, err := os.MkdirTemp("", "vtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)
	setupInterruptHandler(tempDir)

	files, err := expandGlobPatterns(opts.patterns)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}

	var cases []golden.Case
	for _, file := range files {
		fileCases, err := golden.LoadFile(file)
		if err != nil {
			log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
		}
		for _, c := range fileCases {
			if strings.Contains(c.Name, opts.filter) {
				cases = append(cases, c)
			}
		}
	}
	if len(cases) == 0 {
		log.Println("No test cases found matching the pattern(s).")
		return true
	}

	previous := make(SuiteResults)
	if prevData, err := os.ReadFile(opts.outputJSON); err == nil {
		if json.Unmarshal(prevData, &previous) != nil {
			log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, opts.outputJSON)
			previous = make(SuiteResults)
		}
	}

	canRun := runtime.GOOS == "linux" && runtime.GOARCH == "amd64"
	if _, err := exec.LookPath("cc"); err != nil {
		canRun = false
	}
	if !canRun {
		log.Printf("%s[WARN]%s No linux/amd64 cc toolchain. Cases will only be checked up to code generation.\n", cYellow, cNone)
	}

	tasks := make(chan golden.Case, len(cases))
	resultsChan := make(chan *CaseResult, len(cases))
	var wg sync.WaitGroup
	for i := 0; i < opts.jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range tasks {
				resultsChan <- testCase(c, opts, tempDir, canRun, previous)
			}
		}()
	}
	for _, c := range cases {
		tasks <- c
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var all []*CaseResult
	for r := range resultsChan {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Name < all[j].Name
	})

	printSummary(all, opts.verbose)
	return !hasFailures(writeJSONReport(all, opts.outputJSON))
}

func caseKey(c golden.Case) string { return c.File + "#" + c.Name }

// fingerprint hashes everything that decides a case's outcome: the case
// itself and the assembly it produced.
func fingerprint(c golden.Case, asm string) string {
	h := xxhash.New()
	for _, part := range []string{c.Source, strings.Join(c.Flags, " "), strings.Join(c.Args, " "), c.Stdout, fmt.Sprint(c.Exit), asm} {
		h.WriteString(part)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum64())
}

func testCase(c golden.Case, opts options, tempDir string, canRun bool, previous SuiteResults) *CaseResult {
	res := &CaseResult{Name: c.Name, File: c.File}

	cfg := config.NewConfig()
	for _, flag := range c.Flags {
		if err := cfg.ApplyFlag(flag); err != nil {
			res.Status, res.Message = "ERROR", err.Error()
			return res
		}
	}
	cfg.SetTarget(runtime.GOOS, runtime.GOARCH, "amd64_sysv")

	prog, err := parser.ParseSource([]rune(c.Source), -1)
	if err != nil {
		res.Status, res.Message = "ERROR", "interchange read failed: "+err.Error()
		return res
	}

	asm, err := codegen.Compile(prog, cfg)
	if c.Has[golden.FenceCompileError] {
		switch {
		case err == nil:
			res.Status, res.Message = "FAIL", "expected a compile error, generation succeeded"
		case !strings.Contains(err.Error(), c.CompileError):
			res.Status, res.Message = "FAIL", "compile error mismatch"
			res.Diff = cmp.Diff(c.CompileError, err.Error())
		default:
			res.Status, res.Message = "PASS", "compile error matched"
		}
		return res
	}
	if err != nil {
		res.Status, res.Message = "FAIL", "generation failed: "+err.Error()
		return res
	}

	if missing, ok := golden.MatchAsm(asm, c.Asm); !ok {
		res.Status, res.Message = "FAIL", "assembly mismatch"
		res.Diff = fmt.Sprintf("line not found in order: %q\n", missing)
		return res
	}
	if !c.Runs() {
		res.Status, res.Message = "PASS", "assembly matched"
		return res
	}
	if !canRun {
		res.Status, res.Message = "SKIP", "assembly matched, cannot run on this host"
		return res
	}

	res.Fingerprint = fingerprint(c, asm)
	if prev, ok := previous[caseKey(c)]; opts.useCache && ok && prev.Status == "PASS" && prev.Fingerprint == res.Fingerprint {
		res.Status, res.Message, res.Run = "PASS", "cached", prev.Run
		return res
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	binaryPath := filepath.Join(tempDir, res.Fingerprint)
	if err := codegen.AssembleAndLink(ctx, cfg, binaryPath, asm); err != nil {
		res.Status, res.Message = "ERROR", err.Error()
		return res
	}
	run := executeCommand(ctx, binaryPath, c.Args...)
	res.Run = &run

	var diffs strings.Builder
	if run.TimedOut {
		diffs.WriteString("program timed out\n")
	}
	if c.Has[golden.FenceExit] && run.ExitCode != c.Exit {
		fmt.Fprintf(&diffs, "Exit Code mismatch:\n  - Want: %d\n  - Got:  %d\n", c.Exit, run.ExitCode)
	}
	if c.Has[golden.FenceStdout] && run.Stdout != c.Stdout {
		fmt.Fprintf(&diffs, "STDOUT mismatch:\n%s", cmp.Diff(c.Stdout, run.Stdout))
	}
	if diffs.Len() > 0 {
		res.Status, res.Message, res.Diff = "FAIL", "runtime output or exit code mismatch", diffs.String()
		return res
	}
	res.Status, res.Message = "PASS", "program output matched"
	return res
}

// executeCommand runs a command under ctx and captures its output
func executeCommand(ctx context.Context, command string, args ...string) Execution {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Execution{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(startTime)}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitCode = -1
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err != nil:
		result.ExitCode = -2
		result.Stderr += "\nExecution error: " + err.Error()
	}
	return result
}

func printSummary(results []*CaseResult, verbose bool) {
	var passed, failed, skipped, errored int
	file := ""
	for _, r := range results {
		if r.File != file {
			file = r.File
			fmt.Println("----------------------------------------------------------------------")
			fmt.Printf("Testing %s%s%s...\n", cCyan, file, cNone)
		}
		switch r.Status {
		case "PASS":
			passed++
			if verbose {
				fmt.Printf("  [%sPASS%s] %s: %s\n", cGreen, cNone, r.Name, r.Message)
			}
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s: %s\n", cRed, cNone, r.Name, r.Message)
			fmt.Print(formatDiff(r.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s: %s\n", cYellow, cNone, r.Name, r.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s: %s\n", cRed, cNone, r.Name, r.Message)
		}
	}
	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmed, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line + cNone + "\n")
	}
	return builder.String()
}

func writeJSONReport(results []*CaseResult, outputFile string) SuiteResults {
	resultsMap := make(SuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File+"#"+r.Name] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}
	if err := os.WriteFile(outputFile, jsonData, 0o644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results SuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() && !seen[file] {
				allFiles = append(allFiles, file)
				seen[file] = true
			}
		}
	}
	return allFiles, nil
}
