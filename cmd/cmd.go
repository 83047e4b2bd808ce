// Package cmd provides CLI command implementations for hdlscan.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/hdlci/hdlscan/internal/analyzer"
	"github.com/hdlci/hdlscan/internal/buildcfg"
	"github.com/hdlci/hdlscan/internal/registry"
	"github.com/hdlci/hdlscan/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// AnalyzeCmd analyzes one project and emits its build configuration.
type AnalyzeCmd struct {
	Path        string        `arg:"" optional:"" default:"." help:"Path to project root"`
	Top         string        `help:"Explicit top module, skips inference"`
	Output      string        `short:"o" help:"Configuration output path (default: <root>/build_config.json)"`
	Timeout     time.Duration `default:"120s" help:"Elaboration subprocess timeout"`
	NoElaborate bool          `help:"Skip external elaboration"`
	Store       bool          `help:"Also store the result in the registry"`
	DB          string        `name:"db" help:"Registry path"`
}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run() error {
	ctx := context.Background()

	root, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("accessing %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	output := c.Output
	if output == "" {
		output = filepath.Join(root, "build_config.json")
	}

	color.Green("Analyzing %s", root)

	progress := func(phase string, pct float64) {
		fmt.Printf("\r\033[K%s (%.0f%%)", phase, pct*100)
	}

	cfg, report, err := analyzer.Analyze(ctx, analyzer.Options{
		Root:        root,
		Top:         c.Top,
		Output:      output,
		Timeout:     c.Timeout,
		NoElaborate: c.NoElaborate,
	}, progress)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}

	if c.Store {
		reg, err := registry.Open(registryPath(c.DB), false)
		if err != nil {
			return err
		}
		defer func() { _ = reg.Close() }()
		if err := reg.Put(cfg, metaFor(report)); err != nil {
			return fmt.Errorf("storing result: %w", err)
		}
	}

	printSummary(cfg, report)
	return nil
}

// BatchCmd analyzes every project directory under a root, concurrently.
type BatchCmd struct {
	Path        string        `arg:"" help:"Directory containing one subdirectory per project"`
	Workers     int           `short:"j" default:"4" help:"Concurrent analyses"`
	Timeout     time.Duration `default:"120s" help:"Elaboration subprocess timeout per project"`
	NoElaborate bool          `help:"Skip external elaboration"`
	DB          string        `name:"db" help:"Registry path"`
}

// Run executes the batch command. Per-project failures are reported and
// the batch continues; the command fails only when every project fails.
func (c *BatchCmd) Run() error {
	ctx := context.Background()

	entries, err := os.ReadDir(c.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Path, err)
	}

	var projects []string
	for _, e := range entries {
		if e.IsDir() {
			projects = append(projects, filepath.Join(c.Path, e.Name()))
		}
	}
	if len(projects) == 0 {
		fmt.Println("No project directories found")
		return nil
	}

	reg, err := registry.Open(registryPath(c.DB), false)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		name string
		err  error
	}

	sem := make(chan struct{}, workers)
	results := make(chan outcome, len(projects))
	var wg sync.WaitGroup

	// Projects share no mutable state; one worker per project needs no
	// synchronization beyond the registry's own transactions.
	for _, proj := range projects {
		wg.Add(1)
		go func(proj string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			name := filepath.Base(proj)
			cfg, report, runErr := analyzer.Analyze(ctx, analyzer.Options{
				Root:        proj,
				Name:        name,
				Output:      filepath.Join(proj, "build_config.json"),
				Timeout:     c.Timeout,
				NoElaborate: c.NoElaborate,
			}, nil)
			if runErr == nil {
				runErr = reg.Put(cfg, metaFor(report))
			}
			results <- outcome{name: name, err: runErr}
		}(proj)
	}

	wg.Wait()
	close(results)

	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", res.name, res.err)
		} else {
			fmt.Printf("  ✓ %s\n", res.name)
		}
	}

	color.Green("\nBatch complete: %d analyzed, %d failed", len(projects)-failed, failed)
	if failed == len(projects) {
		return fmt.Errorf("all %d projects failed", failed)
	}
	return nil
}

// ListCmd lists all projects stored in the registry.
type ListCmd struct {
	DB string `name:"db" help:"Registry path"`
}

// Run executes the list command.
func (c *ListCmd) Run() error {
	reg, err := registry.Open(registryPath(c.DB), true)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	summaries, err := reg.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No analyzed projects found")
		return nil
	}

	fmt.Println("Analyzed projects:")
	for _, s := range summaries {
		simulable := "simulable"
		if !s.IsSimulable {
			simulable = "degraded"
		}
		fmt.Printf("\n  %s\n", s.Name)
		fmt.Printf("    Language:  %s\n", s.Language)
		fmt.Printf("    Top:       %s\n", s.TopModule)
		fmt.Printf("    Status:    %s\n", simulable)
		if !s.AnalyzedAt.IsZero() {
			fmt.Printf("    Analyzed:  %s\n", s.AnalyzedAt.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// ShowCmd prints the stored configuration for one project.
type ShowCmd struct {
	Name string `arg:"" help:"Project name"`
	DB   string `name:"db" help:"Registry path"`
}

// Run executes the show command.
func (c *ShowCmd) Run() error {
	reg, err := registry.Open(registryPath(c.DB), true)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	cfg, _, err := reg.Get(c.Name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// ValidateCmd validates a configuration document against the schema.
type ValidateCmd struct {
	Path string `arg:"" help:"Path to configuration JSON"`
}

// Run executes the validate command.
func (c *ValidateCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Path, err)
	}
	if err := buildcfg.Validate(data); err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	color.Green("✓ %s is a valid build configuration", c.Path)
	return nil
}

// WatchCmd re-analyzes a project whenever its sources change.
type WatchCmd struct {
	Path        string        `arg:"" optional:"" default:"." help:"Path to project root"`
	Top         string        `help:"Explicit top module, skips inference"`
	Timeout     time.Duration `default:"120s" help:"Elaboration subprocess timeout"`
	NoElaborate bool          `help:"Skip external elaboration"`
}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	root, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n\n", root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	opts := analyzer.Options{
		Root:        root,
		Top:         c.Top,
		Output:      filepath.Join(root, "build_config.json"),
		Timeout:     c.Timeout,
		NoElaborate: c.NoElaborate,
	}

	err = analyzer.Watch(ctx, opts, func(cfg *buildcfg.BuildConfig, report *analyzer.Report, runErr error) {
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Re-analysis failed: %v\n", runErr)
			return
		}
		color.Green("Re-analyzed: top=%s modules=%d", cfg.TopModule, report.Modules)
	})
	if err != nil && err != context.Canceled {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// CleanCmd deletes the registry.
type CleanCmd struct {
	Force bool   `short:"f" help:"Skip confirmation"`
	DB    string `name:"db" help:"Registry path"`
}

// Run executes the clean command.
func (c *CleanCmd) Run() error {
	path := registryPath(c.DB)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no registry found at %s. Nothing to clean", path)
	}

	if !c.Force {
		fmt.Printf("Delete registry at %s? [y/N] ", path)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("deleting registry: %w", err)
	}

	color.Green("Deleted %s", path)
	return nil
}

// MCPCmd starts the MCP server on stdio.
type MCPCmd struct {
	DB string `name:"db" help:"Registry path"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run() error {
	ctx := context.Background()

	reg, err := registry.Open(registryPath(c.DB), false)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	// stdio carries JSON-RPC only; anything else would corrupt the
	// transport.
	server := mcp.NewServer(reg)
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// osSignalChannel returns a channel that receives SIGINT and SIGTERM.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// registryPath resolves the registry location, defaulting to
// ~/.hdlscan/registry.
func registryPath(override string) string {
	if override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".hdlscan", "registry")
}

func metaFor(report *analyzer.Report) registry.Meta {
	return registry.Meta{
		AnalyzedAt:   time.Now().UTC(),
		Files:        report.Files,
		Modules:      report.Modules,
		Warnings:     len(report.Warnings),
		DurationSecs: report.DurationSecs,
	}
}

func printSummary(cfg *buildcfg.BuildConfig, report *analyzer.Report) {
	color.Green("\n✓ Analysis complete")
	fmt.Printf("  Language:       %s\n", cfg.Language)
	fmt.Printf("  Top module:     %s\n", cfg.TopModule)
	fmt.Printf("  Source files:   %d\n", report.Files)
	fmt.Printf("  Modules:        %d\n", report.Modules)
	fmt.Printf("  Edges:          %d (%d unresolved)\n", report.Edges, report.UnresolvedEdges)
	if len(cfg.GeneratedFiles) > 0 {
		fmt.Printf("  Generated:      %d\n", len(cfg.GeneratedFiles))
	}
	if !cfg.IsSimulable {
		fmt.Printf("  Simulable:      no (%s)\n", cfg.Diagnostic)
	}
	for _, w := range report.Warnings {
		fmt.Printf("  Warning:        %s\n", w)
	}
	fmt.Printf("  Duration:       %.2fs\n", report.DurationSecs)
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	// Commands
	Analyze  AnalyzeCmd  `cmd:"" help:"Analyze a project and emit its build configuration"`
	Batch    BatchCmd    `cmd:"" help:"Analyze every project under a directory"`
	List     ListCmd     `cmd:"" help:"List analyzed projects in the registry"`
	Show     ShowCmd     `cmd:"" help:"Print a stored build configuration"`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration document against the schema"`
	Watch    WatchCmd    `cmd:"" help:"Re-analyze a project on source changes"`
	Clean    CleanCmd    `cmd:"" help:"Delete the analysis registry"`
	MCP      MCPCmd      `cmd:"" help:"Start MCP server (stdio transport)"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("hdlscan"),
		kong.Description("HDL project analyzer: dialect detection, module graph, and build configuration"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	return kongCtx.Run()
}
