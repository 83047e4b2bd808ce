package extract

import (
	"regexp"
	"strings"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// BluespecExtractor extracts modules from Bluespec SystemVerilog
// sources. Module interfaces in BSV are method-based, so the port list
// is approximated from method declarations: Action-typed methods carry
// data in, value methods carry data out.
type BluespecExtractor struct {
	moduleRegex   *regexp.Regexp
	endRegex      *regexp.Regexp
	methodRegex   *regexp.Regexp
	instanceRegex *regexp.Regexp
	commentRegex  *regexp.Regexp
}

// NewBluespecExtractor creates a new Bluespec extractor.
func NewBluespecExtractor() *BluespecExtractor {
	return &BluespecExtractor{
		moduleRegex:   regexp.MustCompile(`^\s*module\s+(\w+)`),
		endRegex:      regexp.MustCompile(`^\s*endmodule\b`),
		methodRegex:   regexp.MustCompile(`^\s*method\s+(\w+(?:#\([^)]*\))?)\s+(\w+)`),
		instanceRegex: regexp.MustCompile(`<-\s*(mk\w+)\s*[(;]`),
		commentRegex:  regexp.MustCompile(`//.*$`),
	}
}

// Dialect returns the dialect this extractor handles.
func (e *BluespecExtractor) Dialect() scan.Dialect { return scan.DialectBluespec }

// ExtractModules extracts module declarations. Method declarations
// inside the module body become best-effort ports with the method's
// type expression kept verbatim as the width expression.
func (e *BluespecExtractor) ExtractModules(relPath string, content []byte) []graph.Module {
	var modules []graph.Module
	current := -1

	for _, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.moduleRegex.FindStringSubmatch(line); m != nil {
			modules = append(modules, graph.Module{
				Name:    m[1],
				Dialect: scan.DialectBluespec,
				File:    relPath,
			})
			current = len(modules) - 1
			continue
		}

		if current < 0 {
			continue
		}

		if m := e.methodRegex.FindStringSubmatch(line); m != nil {
			dir := graph.PortOut
			if strings.HasPrefix(m[1], "Action") {
				dir = graph.PortIn
			}
			modules[current].Ports = append(modules[current].Ports, graph.Port{
				Name:      m[2],
				Direction: dir,
				Width:     m[1],
			})
		}

		if e.endRegex.MatchString(line) {
			current = -1
		}
	}

	return modules
}

// ExtractInstances extracts "<- mkFoo" module bindings; the owner is the
// nearest preceding module declaration.
func (e *BluespecExtractor) ExtractInstances(content []byte) []Instance {
	var instances []Instance
	owner := ""

	for lineNum, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.moduleRegex.FindStringSubmatch(line); m != nil {
			owner = m[1]
			continue
		}
		if e.endRegex.MatchString(line) {
			owner = ""
			continue
		}

		for _, m := range e.instanceRegex.FindAllStringSubmatch(line, -1) {
			if m[1] == owner {
				continue
			}
			instances = append(instances, Instance{Owner: owner, Name: m[1], Line: lineNum + 1})
		}
	}

	return instances
}
