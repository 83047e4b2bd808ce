package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

func TestVerilogExtractor_ExtractModules(t *testing.T) {
	t.Parallel()

	e := NewVerilogExtractor()

	t.Run("AnsiPorts", func(t *testing.T) {
		content := []byte(`
module alu (
    input  wire [7:0] a,
    input  wire [7:0] b,
    output reg  [7:0] result
);
endmodule
`)
		modules := e.ExtractModules("rtl/alu.v", content)
		require.Len(t, modules, 1)

		m := modules[0]
		assert.Equal(t, "alu", m.Name)
		assert.Equal(t, scan.DialectVerilog, m.Dialect)
		assert.Equal(t, "rtl/alu.v", m.File)
		require.Len(t, m.Ports, 3)
		assert.Equal(t, "a", m.Ports[0].Name)
		assert.Equal(t, graph.PortIn, m.Ports[0].Direction)
		assert.Equal(t, "[7:0]", m.Ports[0].Width)
		assert.Equal(t, graph.PortOut, m.Ports[2].Direction)
	})

	t.Run("NonAnsiPorts", func(t *testing.T) {
		content := []byte(`
module counter(clk, rst, count);
    input clk;
    input rst;
    output [3:0] count;
endmodule
`)
		modules := e.ExtractModules("counter.v", content)
		require.Len(t, modules, 1)
		require.Len(t, modules[0].Ports, 3)
		assert.Equal(t, "count", modules[0].Ports[2].Name)
		assert.Equal(t, "[3:0]", modules[0].Ports[2].Width)
	})

	t.Run("ParameterizedWidthKeptVerbatim", func(t *testing.T) {
		content := []byte(`
module fifo #(parameter WIDTH = 8) (
    input  [WIDTH-1:0] din,
    output [WIDTH-1:0] dout
);
endmodule
`)
		modules := e.ExtractModules("fifo.v", content)
		require.Len(t, modules, 1)
		require.Len(t, modules[0].Ports, 2)
		assert.Equal(t, "[WIDTH-1:0]", modules[0].Ports[0].Width)
	})

	t.Run("MultipleModulesPerFile", func(t *testing.T) {
		content := []byte(`
module first;
endmodule

module second;
endmodule
`)
		modules := e.ExtractModules("both.v", content)
		require.Len(t, modules, 2)
		assert.Equal(t, "first", modules[0].Name)
		assert.Equal(t, "second", modules[1].Name)
	})

	t.Run("CommentedDeclarationsIgnored", func(t *testing.T) {
		content := []byte(`
// module ghost;
module real_one;
    // input fake;
endmodule
`)
		modules := e.ExtractModules("c.v", content)
		require.Len(t, modules, 1)
		assert.Equal(t, "real_one", modules[0].Name)
		assert.Empty(t, modules[0].Ports)
	})

	t.Run("MalformedFileYieldsNothing", func(t *testing.T) {
		modules := e.ExtractModules("junk.v", []byte("this is not verilog at all\n"))
		assert.Empty(t, modules)
	})
}

func TestVerilogExtractor_ExtractInstances(t *testing.T) {
	t.Parallel()

	e := NewVerilogExtractor()

	t.Run("PlainInstantiation", func(t *testing.T) {
		content := []byte(`
module top;
    alu u_alu (.a(a), .b(b), .result(r));
    counter u_cnt (clk, rst, c);
endmodule
`)
		instances := e.ExtractInstances(content)
		require.Len(t, instances, 2)
		assert.Equal(t, "alu", instances[0].Name)
		assert.Equal(t, "top", instances[0].Owner)
		assert.Equal(t, "counter", instances[1].Name)
	})

	t.Run("ParameterOverrideInstantiation", func(t *testing.T) {
		content := []byte(`
module top;
    fifo #(.WIDTH(16)) u_fifo (din, dout);
endmodule
`)
		instances := e.ExtractInstances(content)
		require.Len(t, instances, 1)
		assert.Equal(t, "fifo", instances[0].Name)
	})

	t.Run("KeywordsNotMistakenForInstances", func(t *testing.T) {
		content := []byte(`
module top;
    always @(posedge clk) begin
        if (rst) q <= 0;
    end
    assign w = f(x);
endmodule
`)
		instances := e.ExtractInstances(content)
		assert.Empty(t, instances)
	})

	t.Run("LineNumbersAreOneBased", func(t *testing.T) {
		content := []byte("module top;\nalu u0 (a);\nendmodule\n")
		instances := e.ExtractInstances(content)
		require.Len(t, instances, 1)
		assert.Equal(t, 2, instances[0].Line)
	})
}
