package mir

import (
	"fmt"
	"io"

	"github.com/minz/vralloc/pkg/ir"
	"github.com/minz/vralloc/pkg/regalloc"
)

// Visualizer prints a before/after instruction listing for `vralloc run`.
// The teacher's MIR visualizer emitted a Graphviz CFG; a straight-line
// allocator has no blocks to graph, so this keeps the same emit-line
// plumbing but renders the two flat instruction streams side by side
// instead.
type Visualizer struct {
	writer io.Writer
}

// NewVisualizer creates a new listing printer.
func NewVisualizer(w io.Writer) *Visualizer {
	return &Visualizer{writer: w}
}

func (v *Visualizer) emit(format string, args ...interface{}) {
	fmt.Fprintf(v.writer, format+"\n", args...)
}

// ShowBeforeAfter prints fn's name, the input instruction stream, and the
// allocator's rewritten output stream.
func (v *Visualizer) ShowBeforeAfter(fn *ir.Function, allocated []regalloc.Instr) {
	v.emit("function %s", fn.Name)
	v.emit("  before (%d vregs):", fn.NumVRegs)
	for i := range fn.Instructions {
		v.emit("    %3d  %s", i, fn.Instructions[i].String())
	}
	v.emit("  after:")
	for i, instr := range allocated {
		in := instr.(*ir.Instruction)
		v.emit("    %3d  %s", i, in.String())
	}
}
