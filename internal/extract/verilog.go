package extract

import (
	"regexp"
	"strings"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

// VerilogExtractor extracts modules from Verilog and SystemVerilog
// sources using a line-oriented regex approach.
type VerilogExtractor struct {
	moduleRegex   *regexp.Regexp
	endRegex      *regexp.Regexp
	portRegex     *regexp.Regexp
	instanceRegex *regexp.Regexp
	commentRegex  *regexp.Regexp
}

// Verilog keywords that the instantiation pattern must not mistake for
// module type names.
var verilogKeywords = map[string]bool{
	"module": true, "endmodule": true, "input": true, "output": true,
	"inout": true, "wire": true, "reg": true, "logic": true, "var": true,
	"assign": true, "always": true, "always_ff": true, "always_comb": true,
	"initial": true, "if": true, "else": true, "for": true, "while": true,
	"case": true, "casez": true, "casex": true, "begin": true, "end": true,
	"function": true, "task": true, "generate": true, "endgenerate": true,
	"parameter": true, "localparam": true, "integer": true, "genvar": true,
	"typedef": true, "enum": true, "struct": true, "interface": true,
	"posedge": true, "negedge": true, "default": true, "return": true,
}

// NewVerilogExtractor creates a new Verilog/SystemVerilog extractor.
func NewVerilogExtractor() *VerilogExtractor {
	return &VerilogExtractor{
		moduleRegex:   regexp.MustCompile(`^\s*module\s+([A-Za-z_]\w*)`),
		endRegex:      regexp.MustCompile(`^\s*endmodule\b`),
		portRegex:     regexp.MustCompile(`\b(input|output|inout)\s+(?:wire\s+|reg\s+|logic\s+|var\s+)?(?:signed\s+)?(\[[^\]]+\]\s*)?([A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)`),
		instanceRegex: regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*(?:#\s*\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`),
		commentRegex:  regexp.MustCompile(`//.*$`),
	}
}

// Dialect returns the dialect this extractor handles.
func (e *VerilogExtractor) Dialect() scan.Dialect { return scan.DialectVerilog }

// ExtractModules extracts module declarations and their port lists.
// Ports declared ANSI-style in the header and non-ANSI style in the body
// are both matched; width expressions are kept verbatim.
func (e *VerilogExtractor) ExtractModules(relPath string, content []byte) []graph.Module {
	var modules []graph.Module
	current := -1

	for _, line := range strings.Split(string(content), "\n") {
		line = e.commentRegex.ReplaceAllString(line, "")

		if m := e.moduleRegex.FindStringSubmatch(line); m != nil {
			modules = append(modules, graph.Module{
				Name:    m[1],
				Dialect: scan.DialectVerilog,
				File:    relPath,
			})
			current = len(modules) - 1
			// The header line itself may carry ANSI port declarations.
		}

		if current >= 0 {
			for _, pm := range e.portRegex.FindAllStringSubmatch(line, -1) {
				dir := portDirection(pm[1])
				width := strings.TrimSpace(pm[2])
				for _, name := range strings.Split(pm[3], ",") {
					modules[current].Ports = append(modules[current].Ports, graph.Port{
						Name:      strings.TrimSpace(name),
						Direction: dir,
						Width:     width,
					})
				}
			}
		}

		if e.endRegex.MatchString(line) {
			current = -1
		}
	}

	return modules
}

// ExtractInstances extracts instantiation references in a second,
// independent pass. The pattern is the classic "Type instName (" shape
// with a keyword filter; owner is the nearest preceding module header.
func (e *VerilogExtractor) ExtractInstances(content []byte) []Instance {
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

		m := e.instanceRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		typeName, instName := m[1], m[2]
		if verilogKeywords[typeName] || verilogKeywords[instName] {
			continue
		}
		instances = append(instances, Instance{
			Owner: owner,
			Name:  typeName,
			Line:  lineNum + 1,
		})
	}

	return instances
}

func portDirection(s string) graph.PortDirection {
	switch s {
	case "input", "in":
		return graph.PortIn
	case "output", "out":
		return graph.PortOut
	default:
		return graph.PortInOut
	}
}
