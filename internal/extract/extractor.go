// Package extract provides pattern-based module extractors for each HDL dialect.
//
// Extractors deliberately do not build an abstract syntax tree: they
// match declaration and instantiation patterns line by line, so macro
// expansion, generate-loops, and conditional compilation are handled on
// a best-effort basis. A malformed file yields zero modules and a
// ParseWarning, never a failed analysis.
package extract

import (
	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// Instance is one instantiation reference found in a source file.
type Instance struct {
	// Owner is the name of the enclosing module, or empty when the
	// enclosing declaration could not be determined.
	Owner string

	// Name is the instantiated module's name, possibly unresolved.
	Name string

	// Line is the 1-based line number of the reference.
	Line int
}

// Extractor is the per-dialect extraction strategy.
//
// ExtractModules and ExtractInstances are two independent pattern passes
// over the same file content; instantiation references are not required
// to resolve at extraction time.
type Extractor interface {
	// ExtractModules extracts module/entity declarations and their port
	// lists from one source file.
	ExtractModules(relPath string, content []byte) []graph.Module

	// ExtractInstances extracts instantiation references from the file.
	ExtractInstances(content []byte) []Instance

	// Dialect returns the dialect this extractor handles.
	Dialect() scan.Dialect
}

// ParseWarning records a source file that matched no declaration
// pattern. It is per-file and non-fatal: the file contributes zero
// modules and analysis continues.
type ParseWarning struct {
	File   string
	Reason string
}

// Error implements the error interface.
func (w *ParseWarning) Error() string {
	return "parse warning in " + w.File + ": " + w.Reason
}

// ForDialect returns the extractor strategy for the given dialect, or
// nil when the dialect has no extractor.
func ForDialect(d scan.Dialect) Extractor {
	switch d {
	case scan.DialectVerilog:
		return NewVerilogExtractor()
	case scan.DialectVHDL:
		return NewVHDLExtractor()
	case scan.DialectChisel:
		return NewChiselExtractor()
	case scan.DialectBluespec:
		return NewBluespecExtractor()
	default:
		return nil
	}
}

// MergeInstances attaches instantiation references to their declaring
// modules by owner name. References whose owner is unknown attach to the
// file's only module when the file declares exactly one.
func MergeInstances(modules []graph.Module, instances []Instance) []graph.Module {
	byName := make(map[string]int, len(modules))
	for i, m := range modules {
		byName[m.Name] = i
	}

	for _, inst := range instances {
		idx := -1
		if inst.Owner != "" {
			if i, ok := byName[inst.Owner]; ok {
				idx = i
			}
		} else if len(modules) == 1 {
			idx = 0
		}
		if idx < 0 {
			continue
		}
		modules[idx].Instances = append(modules[idx].Instances, inst.Name)
	}

	return modules
}
