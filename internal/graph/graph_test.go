package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlci/hdlscan/internal/scan"
)

func mod(name, file string, instances ...string) Module {
	return Module{Name: name, Dialect: scan.DialectVerilog, File: file, Instances: instances}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("ResolvesEdgesByName", func(t *testing.T) {
		g := Build([]Module{
			mod("top", "top.v", "alu", "regfile"),
			mod("alu", "alu.v"),
			mod("regfile", "regfile.v"),
		})

		require.Equal(t, 3, g.Len())
		require.Len(t, g.Edges(), 2)
		for _, e := range g.Edges() {
			assert.True(t, e.Resolved())
			assert.Equal(t, 0, e.Caller)
		}
		assert.Equal(t, 0, g.UnresolvedCount())
	})

	t.Run("UnresolvedEdgesRetained", func(t *testing.T) {
		g := Build([]Module{
			mod("top", "top.v", "alu", "VENDOR_RAM"),
			mod("alu", "alu.v"),
		})

		require.Len(t, g.Edges(), 2)
		assert.Equal(t, 1, g.UnresolvedCount())

		var unresolved Edge
		for _, e := range g.Edges() {
			if !e.Resolved() {
				unresolved = e
			}
		}
		assert.Equal(t, "VENDOR_RAM", unresolved.CalleeName)
		assert.Equal(t, -1, unresolved.Callee)
	})

	t.Run("DuplicateNameFirstDeclarationWins", func(t *testing.T) {
		g := Build([]Module{
			mod("alu", "rtl/alu.v"),
			mod("alu", "backup/alu.v"),
			mod("top", "top.v", "alu"),
		})

		i, ok := g.Lookup("alu")
		require.True(t, ok)
		assert.Equal(t, 0, i)
		assert.Equal(t, "rtl/alu.v", g.Module(i).File)
	})

	t.Run("SelfInstantiationStaysUnresolved", func(t *testing.T) {
		g := Build([]Module{mod("rec", "rec.v", "rec")})
		require.Len(t, g.Edges(), 1)
		assert.False(t, g.Edges()[0].Resolved())
	})

	t.Run("EmptyGraph", func(t *testing.T) {
		g := Build(nil)
		assert.Equal(t, 0, g.Len())
		assert.Empty(t, g.Roots())
	})
}

func TestRoots(t *testing.T) {
	t.Parallel()

	t.Run("SingleRoot", func(t *testing.T) {
		g := Build([]Module{
			mod("top", "top.v", "alu"),
			mod("alu", "alu.v", "full_adder"),
			mod("full_adder", "fa.v"),
		})
		assert.Equal(t, []int{0}, g.Roots())
	})

	t.Run("DisconnectedComponents", func(t *testing.T) {
		g := Build([]Module{
			mod("top_a", "a.v", "shared"),
			mod("top_b", "b.v", "shared"),
			mod("shared", "s.v"),
		})
		assert.Equal(t, []int{0, 1}, g.Roots())
	})

	t.Run("UnresolvedEdgesDoNotCreateIncoming", func(t *testing.T) {
		// A module referenced only by name from outside the project is
		// still a root.
		g := Build([]Module{
			mod("top", "top.v", "missing"),
			mod("leaf", "leaf.v"),
		})
		assert.Equal(t, []int{0, 1}, g.Roots())
	})

	t.Run("CycleHasNoRoots", func(t *testing.T) {
		g := Build([]Module{
			mod("a", "a.v", "b"),
			mod("b", "b.v", "a"),
		})
		assert.Empty(t, g.Roots())
	})
}

func TestDepth(t *testing.T) {
	t.Parallel()

	t.Run("LinearChain", func(t *testing.T) {
		g := Build([]Module{
			mod("top", "top.v", "mid"),
			mod("mid", "mid.v", "leaf"),
			mod("leaf", "leaf.v"),
		})
		assert.Equal(t, 2, g.Depth(0))
		assert.Equal(t, 1, g.Depth(1))
		assert.Equal(t, 0, g.Depth(2))
	})

	t.Run("DiamondCountsLongestPath", func(t *testing.T) {
		g := Build([]Module{
			mod("top", "top.v", "left", "right"),
			mod("left", "l.v", "leaf"),
			mod("right", "r.v", "mid"),
			mod("mid", "m.v", "leaf"),
			mod("leaf", "leaf.v"),
		})
		assert.Equal(t, 3, g.Depth(0))
	})

	t.Run("CycleTerminates", func(t *testing.T) {
		g := Build([]Module{
			mod("a", "a.v", "b"),
			mod("b", "b.v", "a"),
		})
		assert.Equal(t, 1, g.Depth(0))
	})

	t.Run("WideDiamondStaysFast", func(t *testing.T) {
		// Layered graph where naive exponential traversal would blow up.
		var modules []Module
		const layers = 40
		for i := 0; i < layers; i++ {
			a := name(i, "a")
			b := name(i, "b")
			var nextA, nextB []string
			if i+1 < layers {
				nextA = []string{name(i+1, "a"), name(i+1, "b")}
				nextB = []string{name(i+1, "a"), name(i+1, "b")}
			}
			modules = append(modules,
				Module{Name: a, File: a + ".v", Instances: nextA},
				Module{Name: b, File: b + ".v", Instances: nextB},
			)
		}
		g := Build(modules)
		assert.Equal(t, layers-1, g.Depth(0))
	})
}

func name(layer int, side string) string {
	return "l" + string(rune('0'+layer/10)) + string(rune('0'+layer%10)) + side
}
