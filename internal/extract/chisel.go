package extract

import (
	"regexp"
	"strings"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// ChiselExtractor extracts hardware generator classes from Chisel
// (Scala-embedded) sources. Only classes extending a Module base type
// count as modules; plain Scala classes are ignored.
type ChiselExtractor struct {
	classRegex    *regexp.Regexp
	ioRegex       *regexp.Regexp
	instanceRegex *regexp.Regexp
	commentRegex  *regexp.Regexp
}

// NewChiselExtractor creates a new Chisel extractor.
func NewChiselExtractor() *ChiselExtractor {
	return &ChiselExtractor{
		classRegex:    regexp.MustCompile(`^\s*(?:abstract\s+)?class\s+(\w+)\s*(?:\([^)]*\))?\s+extends\s+(\w*Module)\b`),
		ioRegex:       regexp.MustCompile(`val\s+(\w+)\s*=\s*(?:IO\s*\(\s*)?(Input|Output|Analog)\s*\((.+)\)`),
		instanceRegex: regexp.MustCompile(`Module\s*\(\s*new\s+(\w+)`),
		commentRegex:  regexp.MustCompile(`//.*$`),
	}
}

// Dialect returns the dialect this extractor handles.
func (e *ChiselExtractor) Dialect() scan.Dialect { return scan.DialectChisel }

// ExtractModules extracts Module subclasses and their IO bundle fields.
// The IO element type expression (UInt(8.W) and the like) is kept
// verbatim as the width expression. Fields built inside generate-style
// loops or conditionals are extracted best-effort.
func (e *ChiselExtractor) ExtractModules(relPath string, content []byte) []graph.Module {
	var modules []graph.Module
	current := -1

	for _, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.classRegex.FindStringSubmatch(line); m != nil {
			modules = append(modules, graph.Module{
				Name:    m[1],
				Dialect: scan.DialectChisel,
				File:    relPath,
			})
			current = len(modules) - 1
			continue
		}

		if current < 0 {
			continue
		}

		if m := e.ioRegex.FindStringSubmatch(line); m != nil {
			dir := graph.PortInOut
			switch m[2] {
			case "Input":
				dir = graph.PortIn
			case "Output":
				dir = graph.PortOut
			}
			// The greedy capture may drag along closing parens of the
			// enclosing IO(...) wrapper; trim until balanced.
			width := strings.TrimSpace(m[3])
			for strings.Count(width, ")") > strings.Count(width, "(") {
				width = strings.TrimSuffix(width, ")")
			}
			modules[current].Ports = append(modules[current].Ports, graph.Port{
				Name:      m[1],
				Direction: dir,
				Width:     width,
			})
		}
	}

	return modules
}

// ExtractInstances extracts Module(new Foo) references; the owner is
// the nearest preceding Module subclass declaration.
func (e *ChiselExtractor) ExtractInstances(content []byte) []Instance {
	var instances []Instance
	owner := ""

	for lineNum, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.classRegex.FindStringSubmatch(line); m != nil {
			owner = m[1]
			continue
		}

		for _, m := range e.instanceRegex.FindAllStringSubmatch(line, -1) {
			instances = append(instances, Instance{Owner: owner, Name: m[1], Line: lineNum + 1})
		}
	}

	return instances
}
