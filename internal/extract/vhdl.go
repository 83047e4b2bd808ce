package extract

import (
	"regexp"
	"strings"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// VHDLExtractor extracts entities from VHDL sources using a
// line-oriented regex approach. Only entity declarations produce
// modules; component declarations are references, not declarations.
type VHDLExtractor struct {
	entityRegex     *regexp.Regexp
	endRegex        *regexp.Regexp
	portOpenRegex   *regexp.Regexp
	portRegex       *regexp.Regexp
	archRegex       *regexp.Regexp
	directInstRegex *regexp.Regexp
	compInstRegex   *regexp.Regexp
	commentRegex    *regexp.Regexp
}

// VHDL keywords that the component-instantiation pattern must not
// mistake for component names.
var vhdlKeywords = map[string]bool{
	"process": true, "block": true, "generate": true, "for": true,
	"if": true, "when": true, "entity": true, "component": true,
	"configuration": true, "signal": true, "variable": true, "constant": true,
}

// NewVHDLExtractor creates a new VHDL extractor.
func NewVHDLExtractor() *VHDLExtractor {
	return &VHDLExtractor{
		entityRegex:     regexp.MustCompile(`(?i)^\s*entity\s+(\w+)\s+is`),
		endRegex:        regexp.MustCompile(`(?i)^\s*end\b`),
		portOpenRegex:   regexp.MustCompile(`(?i)^\s*port\s*\(`),
		portRegex:       regexp.MustCompile(`(?i)^\s*([\w\s,]+?)\s*:\s*(in|out|inout)\s+([\w.]+(?:\s*\([^)]*\))?)`),
		archRegex:       regexp.MustCompile(`(?i)^\s*architecture\s+\w+\s+of\s+(\w+)\s+is`),
		directInstRegex: regexp.MustCompile(`(?i)^\s*\w+\s*:\s*entity\s+(?:\w+\.)?(\w+)`),
		compInstRegex:   regexp.MustCompile(`(?i)^\s*\w+\s*:\s*(\w+)\s+(?:port|generic)\s+map`),
		commentRegex:    regexp.MustCompile(`--.*$`),
	}
}

// Dialect returns the dialect this extractor handles.
func (e *VHDLExtractor) Dialect() scan.Dialect { return scan.DialectVHDL }

// ExtractModules extracts entity declarations and their port lists.
// Port type expressions (std_logic_vector ranges and the like) are kept
// verbatim as the width expression.
func (e *VHDLExtractor) ExtractModules(relPath string, content []byte) []graph.Module {
	var modules []graph.Module
	current := -1
	inPorts := false

	for _, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.entityRegex.FindStringSubmatch(line); m != nil {
			modules = append(modules, graph.Module{
				Name:    m[1],
				Dialect: scan.DialectVHDL,
				File:    relPath,
			})
			current = len(modules) - 1
			inPorts = false
			continue
		}

		if current < 0 {
			continue
		}

		if e.portOpenRegex.MatchString(line) {
			inPorts = true
		}

		if inPorts {
			if m := e.portRegex.FindStringSubmatch(line); m != nil {
				dir := portDirection(strings.ToLower(m[2]))
				width := strings.TrimSpace(m[3])
				for _, name := range strings.Split(m[1], ",") {
					name = strings.TrimSpace(name)
					if name == "" || strings.EqualFold(name, "port") {
						continue
					}
					modules[current].Ports = append(modules[current].Ports, graph.Port{
						Name:      name,
						Direction: dir,
						Width:     width,
					})
				}
			}
		}

		if e.endRegex.MatchString(line) {
			current = -1
			inPorts = false
		}
	}

	return modules
}

// ExtractInstances extracts instantiation references. Direct entity
// instantiation ("u0 : entity work.foo") and component instantiation
// ("u0 : foo port map") are both matched; the owner is the entity named
// by the enclosing architecture.
func (e *VHDLExtractor) ExtractInstances(content []byte) []Instance {
	var instances []Instance
	owner := ""

	for lineNum, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.archRegex.FindStringSubmatch(line); m != nil {
			owner = m[1]
			continue
		}

		if m := e.directInstRegex.FindStringSubmatch(line); m != nil {
			instances = append(instances, Instance{Owner: owner, Name: m[1], Line: lineNum + 1})
			continue
		}

		if m := e.compInstRegex.FindStringSubmatch(line); m != nil {
			name := m[1]
			if vhdlKeywords[strings.ToLower(name)] {
				continue
			}
			instances = append(instances, Instance{Owner: owner, Name: name, Line: lineNum + 1})
		}
	}

	return instances
}
