// Package scan provides the source scanner and dialect classifier for hdlscan.
//
// It walks a hardware project tree, groups candidate source files by
// extension family, and decides which single HDL dialect governs the
// project before any extraction takes place.
package scan

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect identifies one of the mutually exclusive HDL source families.
type Dialect string

const (
	DialectVerilog  Dialect = "verilog"
	DialectVHDL     Dialect = "vhdl"
	DialectChisel   Dialect = "chisel"
	DialectBluespec Dialect = "bluespec"
)

// Generative reports whether sources of this dialect must be elaborated
// by an external toolchain before they are synthesizable.
func (d Dialect) Generative() bool {
	return d == DialectChisel || d == DialectBluespec
}

// Supported file extensions and their dialects.
var dialectExtensions = map[string]Dialect{
	".v":     DialectVerilog,
	".vh":    DialectVerilog,
	".sv":    DialectVerilog,
	".svh":   DialectVerilog,
	".vhd":   DialectVHDL,
	".vhdl":  DialectVHDL,
	".scala": DialectChisel,
	".bsv":   DialectBluespec,
}

// MixedDialectError reports that no single dialect governs the project.
// It carries the competing tags so the caller can surface them.
type MixedDialectError struct {
	Dialects []Dialect
	Reason   string
}

// Error implements the error interface.
func (e *MixedDialectError) Error() string {
	tags := make([]string, len(e.Dialects))
	for i, d := range e.Dialects {
		tags[i] = string(d)
	}
	return fmt.Sprintf("mixed dialects [%s]: %s", strings.Join(tags, ", "), e.Reason)
}

// ErrNoSources is returned by Classify when the inventory contains no
// recognized source files at all.
var ErrNoSources = fmt.Errorf("no recognized HDL sources in project")

// Classify decides which single dialect governs the project.
//
// Decision rule, in priority order:
//  1. A generative dialect present in the tree wins outright, even when
//     outnumbered: generated outputs of another dialect must never be
//     mistaken for the governing source dialect. Two different generative
//     dialects in one tree is a mixed-dialect failure.
//  2. Otherwise the dialect with the largest file count wins.
//  3. Ties are reported as mixed, never silently resolved.
//
// The result depends only on the per-dialect counts, so it is stable
// under any permutation of the file list.
func Classify(inv *Inventory) (Dialect, error) {
	counts := make(map[Dialect]int)
	for _, f := range inv.Files {
		counts[f.Dialect]++
	}
	if len(counts) == 0 {
		return "", ErrNoSources
	}

	var generative []Dialect
	for d := range counts {
		if d.Generative() {
			generative = append(generative, d)
		}
	}
	sortDialects(generative)

	if len(generative) == 1 {
		return generative[0], nil
	}
	if len(generative) > 1 {
		return "", &MixedDialectError{
			Dialects: generative,
			Reason:   "more than one generative dialect present",
		}
	}

	// Plain dialects only: largest family wins, ties are fatal.
	best := -1
	var winners []Dialect
	for d, n := range counts {
		switch {
		case n > best:
			best = n
			winners = []Dialect{d}
		case n == best:
			winners = append(winners, d)
		}
	}
	if len(winners) > 1 {
		sortDialects(winners)
		return "", &MixedDialectError{
			Dialects: winners,
			Reason:   fmt.Sprintf("dialects tied at %d files each", best),
		}
	}
	return winners[0], nil
}

func sortDialects(ds []Dialect) {
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
}
