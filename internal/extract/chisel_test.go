package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlci/hdlscan/internal/graph"
	"github.com/hdlci/hdlscan/internal/scan"
)

func TestChiselExtractor_ExtractModules(t *testing.T) {
	t.Parallel()

	e := NewChiselExtractor()

	t.Run("ModuleSubclassWithIO", func(t *testing.T) {
		content := []byte(`
package example

import chisel3._

class ALU extends Module {
  val io = IO(new Bundle {
    val a      = Input(UInt(8.W))
    val b      = Input(UInt(8.W))
    val result = Output(UInt(8.W))
  })
}
`)
		modules := e.ExtractModules("src/main/scala/ALU.scala", content)
		require.Len(t, modules, 1)

		m := modules[0]
		assert.Equal(t, "ALU", m.Name)
		assert.Equal(t, scan.DialectChisel, m.Dialect)
		require.Len(t, m.Ports, 3)
		assert.Equal(t, "a", m.Ports[0].Name)
		assert.Equal(t, graph.PortIn, m.Ports[0].Direction)
		assert.Equal(t, "UInt(8.W)", m.Ports[0].Width)
		assert.Equal(t, graph.PortOut, m.Ports[2].Direction)
	})

	t.Run("PlainScalaClassIgnored", func(t *testing.T) {
		content := []byte(`
class Config(val width: Int)

class Core extends Module {
}
`)
		modules := e.ExtractModules("Core.scala", content)
		require.Len(t, modules, 1)
		assert.Equal(t, "Core", modules[0].Name)
	})

	t.Run("ParameterizedClass", func(t *testing.T) {
		content := []byte(`
class Fifo(depth: Int) extends Module {
  val io = IO(new Bundle {
    val enq = Input(UInt(8.W))
  })
}
`)
		modules := e.ExtractModules("Fifo.scala", content)
		require.Len(t, modules, 1)
		assert.Equal(t, "Fifo", modules[0].Name)
	})

	t.Run("MultiClockModuleVariant", func(t *testing.T) {
		content := []byte(`
class Crossing extends RawModule {
}
`)
		modules := e.ExtractModules("Crossing.scala", content)
		require.Len(t, modules, 1)
		assert.Equal(t, "Crossing", modules[0].Name)
	})
}

func TestChiselExtractor_ExtractInstances(t *testing.T) {
	t.Parallel()

	e := NewChiselExtractor()

	t.Run("ModuleNew", func(t *testing.T) {
		content := []byte(`
class Top extends Module {
  val alu  = Module(new ALU)
  val fifo = Module(new Fifo(16))
}
`)
		instances := e.ExtractInstances(content)
		require.Len(t, instances, 2)
		assert.Equal(t, "ALU", instances[0].Name)
		assert.Equal(t, "Top", instances[0].Owner)
		assert.Equal(t, "Fifo", instances[1].Name)
	})

	t.Run("NoInstancesInPlainCode", func(t *testing.T) {
		content := []byte(`
class Top extends Module {
  val reg = RegInit(0.U(8.W))
}
`)
		instances := e.ExtractInstances(content)
		assert.Empty(t, instances)
	})
}
