package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

func TestBluespecExtractor_ExtractModules(t *testing.T) {
	t.Parallel()

	e := NewBluespecExtractor()

	t.Run("ModuleWithMethods", func(t *testing.T) {
		content := []byte(`
module mkCounter (Counter);
    Reg#(Bit#(8)) count <- mkReg(0);

    method Action increment();
        count <= count + 1;
    endmethod

    method Bit#(8) value();
        return count;
    endmethod
endmodule
`)
		modules := e.ExtractModules("src/Counter.bsv", content)
		require.Len(t, modules, 1)

		m := modules[0]
		assert.Equal(t, "mkCounter", m.Name)
		assert.Equal(t, scan.DialectBluespec, m.Dialect)
		require.Len(t, m.Ports, 2)
		assert.Equal(t, "increment", m.Ports[0].Name)
		assert.Equal(t, graph.PortIn, m.Ports[0].Direction)
		assert.Equal(t, "value", m.Ports[1].Name)
		assert.Equal(t, graph.PortOut, m.Ports[1].Direction)
		assert.Equal(t, "Bit#(8)", m.Ports[1].Width)
	})

	t.Run("MalformedFileYieldsNothing", func(t *testing.T) {
		modules := e.ExtractModules("junk.bsv", []byte("nothing to see here\n"))
		assert.Empty(t, modules)
	})
}

func TestBluespecExtractor_ExtractInstances(t *testing.T) {
	t.Parallel()

	e := NewBluespecExtractor()

	t.Run("ModuleBindings", func(t *testing.T) {
		content := []byte(`
module mkTop (Top);
    Counter c <- mkCounter();
    Fifo f <- mkFifo;
endmodule
`)
		instances := e.ExtractInstances(content)
		require.Len(t, instances, 2)
		assert.Equal(t, "mkCounter", instances[0].Name)
		assert.Equal(t, "mkTop", instances[0].Owner)
		assert.Equal(t, "mkFifo", instances[1].Name)
	})

	t.Run("LibraryRegBindingsAreReferences", func(t *testing.T) {
		// mkReg resolves to nothing in the project and stays an
		// unresolved edge; extraction still reports it.
		content := []byte(`
module mkCounter (Counter);
    Reg#(Bit#(8)) count <- mkReg(0);
endmodule
`)
		instances := e.ExtractInstances(content)
		require.Len(t, instances, 1)
		assert.Equal(t, "mkReg", instances[0].Name)
	})
}

func TestMergeInstances(t *testing.T) {
	t.Parallel()

	t.Run("AttachesByOwner", func(t *testing.T) {
		modules := []graph.Module{
			{Name: "top"},
			{Name: "alu"},
		}
		instances := []Instance{
			{Owner: "top", Name: "alu", Line: 3},
			{Owner: "alu", Name: "full_adder", Line: 9},
		}
		merged := MergeInstances(modules, instances)
		assert.Equal(t, []string{"alu"}, merged[0].Instances)
		assert.Equal(t, []string{"full_adder"}, merged[1].Instances)
	})

	t.Run("OwnerlessAttachesToSoleModule", func(t *testing.T) {
		modules := []graph.Module{{Name: "top"}}
		merged := MergeInstances(modules, []Instance{{Name: "alu", Line: 1}})
		assert.Equal(t, []string{"alu"}, merged[0].Instances)
	})

	t.Run("OwnerlessDroppedWhenAmbiguous", func(t *testing.T) {
		modules := []graph.Module{{Name: "a"}, {Name: "b"}}
		merged := MergeInstances(modules, []Instance{{Name: "x", Line: 1}})
		assert.Empty(t, merged[0].Instances)
		assert.Empty(t, merged[1].Instances)
	})

	t.Run("UnknownOwnerDropped", func(t *testing.T) {
		modules := []graph.Module{{Name: "a"}, {Name: "b"}}
		merged := MergeInstances(modules, []Instance{{Owner: "ghost", Name: "x", Line: 1}})
		assert.Empty(t, merged[0].Instances)
	})
}

func TestForDialect(t *testing.T) {
	t.Parallel()

	for _, d := range []scan.Dialect{
		scan.DialectVerilog, scan.DialectVHDL, scan.DialectChisel, scan.DialectBluespec,
	} {
		e := ForDialect(d)
		require.NotNil(t, e, string(d))
		assert.Equal(t, d, e.Dialect())
	}
	assert.Nil(t, ForDialect("fortran"))
}
