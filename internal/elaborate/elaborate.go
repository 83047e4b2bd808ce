// Package elaborate drives the external elaboration toolchains for
// generative dialects.
//
// Chisel and Bluespec sources are not directly synthesizable: an
// external tool must first elaborate them into Verilog. The orchestrator
// invokes that tool as a subprocess bounded by a timeout and classifies
// the result into exactly one of four outcomes. A failing tool never
// raises an error through this package: the outcome value is the whole
// contract, so a single project's elaboration failure can never unwind
// a batch of independent analyses.
package elaborate

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hdlci/hdlscan/internal/scan"
)

// Outcome classifies one elaboration attempt.
type Outcome string

const (
	Success      Outcome = "success"
	NonZeroExit  Outcome = "non_zero_exit"
	Timeout      Outcome = "timeout"
	ToolNotFound Outcome = "tool_not_found"
)

// DefaultTimeout bounds a single elaboration subprocess.
const DefaultTimeout = 120 * time.Second

// maxDiagnosticBytes caps how much tool output is preserved in the
// diagnostic string.
const maxDiagnosticBytes = 2048

// Result is the classified outcome of one elaboration run.
type Result struct {
	// Outcome is exactly one of the four classifications.
	Outcome Outcome

	// Diagnostic preserves the failure detail (tool output tail, missing
	// tool name, timeout duration). Empty on Success.
	Diagnostic string

	// GeneratedFiles are the synthesizable outputs the tool produced,
	// relative to the project root.
	GeneratedFiles []string
}

// Tool commands per generative dialect.
var dialectTools = map[scan.Dialect]string{
	scan.DialectChisel:   "sbt",
	scan.DialectBluespec: "bsc",
}

// ToolFor returns the elaboration tool command for a generative
// dialect, or empty for dialects that need no elaboration.
func ToolFor(d scan.Dialect) string { return dialectTools[d] }

// Available reports whether the elaboration tool for the dialect is
// reachable. It is a stateless query, never a cached global: toolchain
// availability can change between invocations in a long-lived batch
// runner, and concurrent workers may call it without coordination.
func Available(d scan.Dialect) bool {
	tool := ToolFor(d)
	if tool == "" {
		return false
	}
	_, err := exec.LookPath(tool)
	return err == nil
}

// Runner invokes elaboration toolchains with a fixed timeout.
type Runner struct {
	// Timeout bounds each subprocess; DefaultTimeout when zero.
	Timeout time.Duration
}

// Run elaborates the project's inferred top module.
//
// preexisting holds the relative paths of sources already present
// before the run; anything synthesizable that appears afterwards is
// reported as a generated file. Run returns a Result for every failure
// mode; the error return covers only dialects that need no elaboration
// at all.
func (r *Runner) Run(ctx context.Context, dialect scan.Dialect, root, top string, preexisting map[string]struct{}) (Result, error) {
	tool := ToolFor(dialect)
	if tool == "" {
		return Result{}, fmt.Errorf("dialect %s requires no elaboration", dialect)
	}

	toolPath, err := exec.LookPath(tool)
	if err != nil {
		return Result{
			Outcome:    ToolNotFound,
			Diagnostic: fmt.Sprintf("elaboration tool %q not found in PATH", tool),
		}, nil
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, toolPath, toolArgs(dialect, top)...)
	cmd.Dir = root
	// Orphaned children of a killed tool must not hold the output pipes
	// open past the deadline.
	cmd.WaitDelay = 5 * time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{
			Outcome:    Timeout,
			Diagnostic: fmt.Sprintf("%s timed out after %s", tool, timeout),
		}, nil
	}
	if runErr != nil {
		return Result{
			Outcome:    NonZeroExit,
			Diagnostic: fmt.Sprintf("%s failed: %v: %s", tool, runErr, tailOf(output.Bytes())),
		}, nil
	}

	generated, err := findGenerated(root, preexisting)
	if err != nil {
		// The tool succeeded; a scan hiccup afterwards only costs the
		// generated-file listing.
		generated = nil
	}

	return Result{Outcome: Success, GeneratedFiles: generated}, nil
}

func toolArgs(dialect scan.Dialect, top string) []string {
	switch dialect {
	case scan.DialectChisel:
		return []string{"runMain " + top}
	case scan.DialectBluespec:
		return []string{"-verilog", "-g", top, "-u"}
	default:
		return nil
	}
}

// findGenerated walks the project for synthesizable outputs that were
// not part of the original inventory.
func findGenerated(root string, preexisting map[string]struct{}) ([]string, error) {
	var generated []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".v" && ext != ".sv" {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if _, ok := preexisting[rel]; ok {
			return nil
		}
		generated = append(generated, rel)
		return nil
	})
	return generated, err
}

func tailOf(out []byte) string {
	if len(out) > maxDiagnosticBytes {
		out = out[len(out)-maxDiagnosticBytes:]
	}
	return strings.TrimSpace(string(out))
}
