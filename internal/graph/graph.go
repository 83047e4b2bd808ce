package graph

import "sort"

// ModuleGraph is the directed module graph for one project.
//
// Modules live in an arena slice and are addressed by stable integer
// index; edges are index pairs. Cycles (mutually recursive instantiation
// templates, generate-block self-reference) are representable and safe:
// no traversal in this package follows an edge twice.
//
// Resolution of an instantiation name to a module is by exact name match
// within the project. Cross-project and vendor-library references stay
// unresolved by design.
type ModuleGraph struct {
	modules  []Module
	byName   map[string]int
	edges    []Edge
	incoming []int   // resolved incoming edge count per module index
	outgoing [][]int // resolved callee indices per module index
}

// Build assembles the module graph from all extracted declarations.
//
// When two files declare the same module name, the first declaration
// wins the name index; later duplicates still get nodes but cannot be
// targeted by resolution. Building is O(total instantiation references).
func Build(modules []Module) *ModuleGraph {
	g := &ModuleGraph{
		modules:  modules,
		byName:   make(map[string]int, len(modules)),
		incoming: make([]int, len(modules)),
		outgoing: make([][]int, len(modules)),
	}

	for i, m := range modules {
		if _, exists := g.byName[m.Name]; !exists {
			g.byName[m.Name] = i
		}
	}

	for i, m := range modules {
		for _, inst := range m.Instances {
			callee := -1
			if j, ok := g.byName[inst]; ok && j != i {
				callee = j
			}
			g.edges = append(g.edges, Edge{Caller: i, CalleeName: inst, Callee: callee})
			if callee >= 0 {
				g.incoming[callee]++
				g.outgoing[i] = append(g.outgoing[i], callee)
			}
		}
	}

	return g
}

// Len returns the number of modules in the graph.
func (g *ModuleGraph) Len() int { return len(g.modules) }

// Module returns the module at the given index.
func (g *ModuleGraph) Module(i int) *Module { return &g.modules[i] }

// Lookup returns the index of the module with the given name.
func (g *ModuleGraph) Lookup(name string) (int, bool) {
	i, ok := g.byName[name]
	return i, ok
}

// Edges returns all instantiation edges, resolved and unresolved.
func (g *ModuleGraph) Edges() []Edge { return g.edges }

// UnresolvedCount returns the number of edges whose callee name matched
// no declaration in the project.
func (g *ModuleGraph) UnresolvedCount() int {
	n := 0
	for _, e := range g.edges {
		if !e.Resolved() {
			n++
		}
	}
	return n
}

// Roots returns the indices of modules with zero incoming resolved
// edges, in ascending index order. Traversal order of the underlying
// edge list never changes the result.
func (g *ModuleGraph) Roots() []int {
	var roots []int
	for i := range g.modules {
		if g.incoming[i] == 0 {
			roots = append(roots, i)
		}
	}
	sort.Ints(roots)
	return roots
}

// Callees returns the resolved modules instantiated by module i.
func (g *ModuleGraph) Callees(i int) []int { return g.outgoing[i] }

// Depth returns the length of the longest resolved instantiation chain
// starting at module i. Edges that close a cycle contribute nothing, so
// cyclic graphs terminate; results are memoized, keeping the walk
// linear in edges.
func (g *ModuleGraph) Depth(i int) int {
	memo := make([]int, len(g.modules))
	for k := range memo {
		memo[k] = -1
	}
	onStack := make([]bool, len(g.modules))
	return g.depth(i, memo, onStack)
}

func (g *ModuleGraph) depth(i int, memo []int, onStack []bool) int {
	if onStack[i] {
		return 0
	}
	if memo[i] >= 0 {
		return memo[i]
	}
	onStack[i] = true

	max := 0
	for _, j := range g.outgoing[i] {
		if d := g.depth(j, memo, onStack) + 1; d > max {
			max = d
		}
	}

	onStack[i] = false
	memo[i] = max
	return max
}
