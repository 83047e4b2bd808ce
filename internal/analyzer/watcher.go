package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hdlci/hdlscan/internal/buildcfg"
)

// debounceInterval batches filesystem events before re-analysis, so an
// editor save burst triggers one run instead of many.
const debounceInterval = 2 * time.Second

// Directories never worth watching.
var watchIgnoredDirs = map[string]bool{
	".git":     true,
	".hdlscan": true,
	"target":   true,
	"work":     true,
}

// Extensions that trigger a re-analysis when touched.
var watchedExtensions = map[string]bool{
	".v": true, ".vh": true, ".sv": true, ".svh": true,
	".vhd": true, ".vhdl": true, ".scala": true, ".bsv": true,
}

// ResultFunc receives the outcome of each re-analysis in watch mode.
type ResultFunc func(cfg *buildcfg.BuildConfig, report *Report, err error)

// Watch monitors the project for source changes and re-runs the
// analysis after each debounced batch of events. Blocks until the
// context is cancelled.
func Watch(ctx context.Context, opts Options, onResult ResultFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	// Watch the project tree recursively.
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if watchIgnoredDirs[info.Name()] {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	batchTimer := time.NewTimer(debounceInterval)
	batchTimer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				// New directories must be added to the watch set.
				if event.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				continue
			}
			pending = true
			batchTimer.Reset(debounceInterval)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", watchErr)

		case <-batchTimer.C:
			if !pending {
				continue
			}
			pending = false
			cfg, report, runErr := Analyze(ctx, opts, nil)
			if onResult != nil {
				onResult(cfg, report, runErr)
			}
		}
	}
}
