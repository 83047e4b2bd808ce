// Package graph provides the module dependency graph for hdlscan.
//
// It defines the core Module and Edge types that represent HDL design
// units (modules, entities, interfaces) and the "instantiates" edges
// between them, plus the top-module inference that selects the synthesis
// entry point for a project.
package graph

import "github.com/hdlci/hdlscan/internal/scan"

// PortDirection is the direction of a module port.
type PortDirection string

const (
	PortIn    PortDirection = "in"
	PortOut   PortDirection = "out"
	PortInOut PortDirection = "inout"
)

// Port is a single port declaration on a module.
type Port struct {
	// Name is the port name.
	Name string `json:"name"`

	// Direction is in, out, or inout.
	Direction PortDirection `json:"direction"`

	// Width is the width or type expression exactly as written in the
	// source. Widths are never constant-folded.
	Width string `json:"width,omitempty"`
}

// Module is one extracted design unit declaration.
//
// A Module belongs to exactly one declaring source file and is never
// mutated after extraction, only referenced by index.
type Module struct {
	// Name is the declared module/entity name.
	Name string

	// Dialect is the dialect the declaration was extracted from.
	Dialect scan.Dialect

	// File is the declaring source file, relative to the project root.
	File string

	// Ports is the ordered port list.
	Ports []Port

	// Instances are the names of modules instantiated by this module.
	// Names are not required to resolve within the project.
	Instances []string
}

// Edge is one "instantiates" relationship.
//
// Caller is always a valid module index. Callee is the index of the
// resolved target module, or -1 when CalleeName matches no declaration
// in the project. Unresolved edges are retained: they usually point at
// vendor primitives or black boxes and are diagnostic signal, not an
// error.
type Edge struct {
	Caller     int
	CalleeName string
	Callee     int
}

// Resolved reports whether the edge's callee was found in the project.
func (e Edge) Resolved() bool { return e.Callee >= 0 }
