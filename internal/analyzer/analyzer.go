// Package analyzer runs the full analysis pipeline for one project:
// scan, classify, extract, graph, top inference, optional elaboration,
// and configuration emission.
//
// The pipeline is strictly sequential: each stage's output is the next
// stage's complete input. Errors local to one file are recorded and
// recovered; errors that would make the emitted configuration describe
// the wrong design (mixed dialects, ambiguous top module, failed write)
// abort the project's analysis with no configuration emitted.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hdlci/hdlscan/internal/buildcfg"
	"github.com/hdlci/hdlscan/internal/elaborate"
	"github.com/hdlci/hdlscan/internal/extract"
	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// Options configures one analysis run.
type Options struct {
	// Root is the project root directory.
	Root string

	// Name is the declared project name; defaults to the root's base name.
	Name string

	// Top, when set, short-circuits top-module inference. It is
	// validated only for existence in the graph.
	Top string

	// Output is the path the configuration document is written to.
	// Empty means the document is returned but not persisted.
	Output string

	// Timeout bounds the elaboration subprocess.
	Timeout time.Duration

	// NoElaborate skips the external elaboration step; generative
	// projects then emit a degraded configuration.
	NoElaborate bool

	// Repository overrides origin detection when set.
	Repository string
}

// Report summarizes one analysis run.
type Report struct {
	Files           int
	Unrecognized    int
	Modules         int
	Edges           int
	UnresolvedEdges int
	Warnings        []string
	FileErrors      []string
	Elaboration     string
	DurationSecs    float64
}

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Analyze runs the full pipeline for one project.
//
// Independent projects share no mutable state, so callers may run
// Analyze concurrently, one worker per project, with no extra
// synchronization.
func Analyze(ctx context.Context, opts Options, progress ProgressCallback) (*buildcfg.BuildConfig, *Report, error) {
	start := time.Now()
	report := &Report{}

	step := func(phase string, pct float64) {
		if progress != nil {
			progress(phase, pct)
		}
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(root)
	}

	// Phase 1: scan
	step("Scanning sources", 0.0)
	inv, err := scan.WalkProject(root)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	report.Files = len(inv.Files)
	report.Unrecognized = len(inv.Unrecognized)
	for _, fe := range inv.Errors {
		report.FileErrors = append(report.FileErrors, fe.Error())
	}
	step("Scanning sources", 1.0)

	// Phase 2: classify
	step("Classifying dialect", 0.0)
	dialect, err := scan.Classify(inv)
	if err != nil {
		return nil, nil, fmt.Errorf("classifying %s: %w", name, err)
	}
	step("Classifying dialect", 1.0)

	// Phase 3: extract
	step("Extracting modules", 0.0)
	extractor := extract.ForDialect(dialect)
	sources := inv.ByDialect(dialect)
	var modules []graph.Module
	for i, sf := range sources {
		content, readErr := os.ReadFile(filepath.Join(root, sf.Path))
		if readErr != nil {
			report.FileErrors = append(report.FileErrors,
				(&scan.FileSystemError{Path: sf.Path, Err: readErr}).Error())
			continue
		}

		decls := extractor.ExtractModules(sf.Path, content)
		if len(decls) == 0 {
			w := &extract.ParseWarning{File: sf.Path, Reason: "no declaration pattern matched"}
			report.Warnings = append(report.Warnings, w.Error())
			continue
		}
		decls = extract.MergeInstances(decls, extractor.ExtractInstances(content))
		modules = append(modules, decls...)

		step("Extracting modules", float64(i+1)/float64(len(sources)))
	}
	report.Modules = len(modules)
	step("Extracting modules", 1.0)

	// Phase 4: graph
	step("Building graph", 0.0)
	g := graph.Build(modules)
	report.Edges = len(g.Edges())
	report.UnresolvedEdges = g.UnresolvedCount()
	step("Building graph", 1.0)

	// Phase 5: top inference
	step("Inferring top module", 0.0)
	topIdx, err := graph.InferTop(g, dialect, opts.Top)
	if err != nil {
		return nil, nil, fmt.Errorf("inferring top module for %s: %w", name, err)
	}
	top := g.Module(topIdx)
	step("Inferring top module", 1.0)

	repository := opts.Repository
	if repository == "" {
		repository = detectOrigin(root)
	}

	cfg := &buildcfg.BuildConfig{
		Name:        name,
		Folder:      root,
		Language:    dialect,
		TopModule:   top.Name,
		SourceFiles: sourcePaths(sources),
		Interfaces:  top.Ports,
		Repository:  repository,
		IsSimulable: true,
	}

	// Phase 6: elaboration (generative dialects only)
	if dialect.Generative() {
		switch {
		case opts.NoElaborate:
			cfg.IsSimulable = false
			cfg.Diagnostic = "elaboration skipped"
			report.Elaboration = "skipped"
		default:
			step("Elaborating", 0.0)
			runner := &elaborate.Runner{Timeout: opts.Timeout}
			res, runErr := runner.Run(ctx, dialect, root, top.Name, preexistingSet(inv))
			if runErr != nil {
				return nil, nil, fmt.Errorf("elaborating %s: %w", name, runErr)
			}
			report.Elaboration = string(res.Outcome)
			if res.Outcome == elaborate.Success {
				cfg.GeneratedFiles = res.GeneratedFiles
			} else {
				cfg.IsSimulable = false
				cfg.Diagnostic = res.Diagnostic
			}
			step("Elaborating", 1.0)
		}
	}

	// Phase 7: emit
	if opts.Output != "" {
		step("Writing configuration", 0.0)
		if err := cfg.Write(opts.Output); err != nil {
			return nil, nil, err
		}
		step("Writing configuration", 1.0)
	}

	report.DurationSecs = time.Since(start).Seconds()
	return cfg, report, nil
}

func sourcePaths(files []scan.SourceFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// preexistingSet collects every path the scanner saw, recognized or
// not, so post-elaboration discovery only reports genuinely new files.
func preexistingSet(inv *scan.Inventory) map[string]struct{} {
	set := make(map[string]struct{}, len(inv.Files)+len(inv.Unrecognized))
	for _, f := range inv.Files {
		set[f.Path] = struct{}{}
	}
	for _, p := range inv.Unrecognized {
		set[p] = struct{}{}
	}
	return set
}
