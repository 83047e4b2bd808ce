// Package buildcfg defines the build configuration document emitted by
// the analyzer and consumed by downstream synthesis and test stages.
//
// The document is the sole artifact crossing the analyzer's output
// boundary. Writing is all-or-nothing: either the complete record is
// persisted or a ConfigWriteError is raised, so downstream consumers can
// never observe a partially written configuration.
package buildcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// BuildConfig is the normalized build configuration for one project.
// It is created once per analysis run and immutable afterwards.
type BuildConfig struct {
	// Name is the declared project name.
	Name string `json:"name"`

	// Folder is the project root directory.
	Folder string `json:"folder"`

	// Language is the governing dialect tag.
	Language scan.Dialect `json:"language"`

	// TopModule is the chosen synthesis entry point.
	TopModule string `json:"top_module"`

	// SourceFiles are the original source paths, relative to Folder.
	SourceFiles []string `json:"source_files"`

	// GeneratedFiles are elaboration-tool outputs, empty when the
	// dialect needs no elaboration.
	GeneratedFiles []string `json:"generated_files,omitempty"`

	// Interfaces is the top module's port list.
	Interfaces []graph.Port `json:"interfaces,omitempty"`

	// Repository is the origin URL of the project, when known.
	Repository string `json:"repository,omitempty"`

	// IsSimulable reports whether downstream stages may run
	// simulation-dependent steps.
	IsSimulable bool `json:"is_simulable"`

	// Diagnostic preserves the degradation reason. Present only on
	// degraded results.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// ConfigWriteError reports a failed configuration write. The target
// path is left untouched.
type ConfigWriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigWriteError) Error() string {
	return "writing config " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ConfigWriteError) Unwrap() error { return e.Err }

// Write persists the configuration to path atomically: the document is
// marshaled into a temp file in the target directory and renamed into
// place, so a crash mid-write leaves no partial file behind.
func (c *BuildConfig) Write(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &ConfigWriteError{Path: path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ConfigWriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".hdlscan-cfg-*")
	if err != nil {
		return &ConfigWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &ConfigWriteError{Path: path, Err: err}
	}
	return nil
}

// Read loads and validates a configuration document.
func Read(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	var cfg BuildConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
