package graph

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hdlci/hdlscan/internal/scan"
)

// TopAmbiguousError reports that top-module inference could not narrow
// the candidate set to a single module. Guessing the entry point would
// silently produce a build against the wrong design, which is worse than
// a reported failure, so ambiguity is always surfaced.
type TopAmbiguousError struct {
	Candidates []string
}

// Error implements the error interface.
func (e *TopAmbiguousError) Error() string {
	if len(e.Candidates) == 0 {
		return "top module ambiguous: no root module found"
	}
	return "top module ambiguous: candidates [" + strings.Join(e.Candidates, ", ") + "]"
}

// ErrEmptyGraph is returned when inference runs on a graph with no modules.
var ErrEmptyGraph = fmt.Errorf("no modules in graph")

// Naming conventions that mark a synthesis entry point, per dialect.
// Matched case-insensitively as prefix or suffix of the module name.
var topNameHints = map[scan.Dialect][]string{
	scan.DialectVerilog:  {"top", "toplevel", "main", "soc"},
	scan.DialectVHDL:     {"top", "toplevel", "main"},
	scan.DialectChisel:   {"top", "main", "system"},
	scan.DialectBluespec: {"mktop", "mkmain", "mksoc"},
}

// InferTop selects the synthesis entry point of the project.
//
// An explicit override short-circuits inference entirely and is
// validated only for existence. Otherwise the candidate set starts as
// the roots (modules with zero incoming resolved edges) and narrows in
// order: dialect naming conventions, then minimal declaring-file path
// depth (integration files live near the project root), then ambiguity
// is reported rather than guessed.
func InferTop(g *ModuleGraph, dialect scan.Dialect, override string) (int, error) {
	if override != "" {
		i, ok := g.Lookup(override)
		if !ok {
			return -1, fmt.Errorf("top module override %q not declared in project", override)
		}
		return i, nil
	}

	if g.Len() == 0 {
		return -1, ErrEmptyGraph
	}

	candidates := g.Roots()
	if len(candidates) == 0 {
		// Every module sits on a cycle. No root can be inferred.
		return -1, &TopAmbiguousError{Candidates: g.names(allIndices(g.Len()))}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	// Naming conventions.
	if narrowed := filterByNameHints(g, candidates, dialect); len(narrowed) > 0 {
		candidates = narrowed
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	// Prefer the shallowest declaring file.
	candidates = filterByPathDepth(g, candidates)
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	return -1, &TopAmbiguousError{Candidates: g.names(candidates)}
}

func filterByNameHints(g *ModuleGraph, candidates []int, dialect scan.Dialect) []int {
	hints := topNameHints[dialect]
	var out []int
	for _, i := range candidates {
		name := strings.ToLower(g.Module(i).Name)
		for _, h := range hints {
			if strings.HasPrefix(name, h) || strings.HasSuffix(name, h) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func filterByPathDepth(g *ModuleGraph, candidates []int) []int {
	best := -1
	var out []int
	for _, i := range candidates {
		d := pathDepth(g.Module(i).File)
		switch {
		case best == -1 || d < best:
			best = d
			out = []int{i}
		case d == best:
			out = append(out, i)
		}
	}
	return out
}

// pathDepth is the number of directories between the project root and
// the declaring file.
func pathDepth(relPath string) int {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return 0
	}
	return strings.Count(dir, string(filepath.Separator)) + 1
}

func (g *ModuleGraph) names(indices []int) []string {
	names := make([]string, 0, len(indices))
	for _, i := range indices {
		names = append(names, g.Module(i).Name)
	}
	sort.Strings(names)
	return names
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
