// Package ir defines the small straight-line instruction representation
// that flows from the textual MIR reader (pkg/mir) into the register
// allocator's Z80 target adapter (internal/target/z80).
//
// This is a narrow descendant of the MinZ compiler's own whole-program IR:
// it keeps the Opcode/Instruction vocabulary and comment style but
// drops everything that only makes sense for a multi-function, multi-block
// compiler (modules, calls, control flow, structs). A register allocator
// for a single straight-line stream has no use for any of that.
package ir

import (
	"fmt"

	"github.com/minz/vralloc/pkg/regalloc"
)

// Opcode represents one straight-line IR operation.
type Opcode uint8

const (
	OpNop Opcode = iota

	// OpLoadConst loads an immediate into Dest.
	OpLoadConst
	// OpMove copies Src1 into Dest. The only move form the allocator's
	// preferencing pass (stage 4) looks for.
	OpMove
	// OpInitHL establishes HL's hard range (LD HL,0) before any OpAddHL.
	// ADD HL,ss reads the old value of HL as well as writing the new one,
	// so the hard-range scanner needs a real Write to open HL's range
	// first -- the same requirement a vreg's first mention has to be a
	// Write, applied to a real register mentioned directly.
	OpInitHL
	// OpAddHL adds Src1 into the real HL register pair. Z80's ADD HL,ss
	// has no other addressing mode, so HL is a hard-wired operand here in
	// exactly the sense spec's hard live ranges exist for (compare a
	// divide instruction's fixed quotient register).
	OpAddHL
	// OpUse is a pure sink: it reads Src1 and produces nothing, letting a
	// MIR program mark a vreg's last use without tying it to a real
	// operation.
	OpUse

	// OpSpillStore and OpSpillLoad are never produced by the MIR parser;
	// Target.GenSpill/GenRestore emit them.
	OpSpillStore
	OpSpillLoad
)

func (op Opcode) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpLoadConst:
		return "const"
	case OpMove:
		return "move"
	case OpInitHL:
		return "inithl"
	case OpAddHL:
		return "addhl"
	case OpUse:
		return "use"
	case OpSpillStore:
		return "spill-store"
	case OpSpillLoad:
		return "spill-load"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Instruction is one straight-line IR instruction. Dest/Src1/Src2 are only
// meaningful when the matching HasDest/HasSrc1/HasSrc2 flag is set -- the
// zero regalloc.HReg is a legitimate real register (class int, index 0),
// so "present" can't be inferred from the value alone.
type Instruction struct {
	Op Opcode

	Dest HReg
	Src1 HReg
	Src2 HReg
	Imm  int64

	HasDest bool
	HasSrc1 bool
	HasSrc2 bool
}

// HReg is an alias kept local to this package so the IR's field doc-comments
// read naturally; it is exactly regalloc.HReg.
type HReg = regalloc.HReg

func (i *Instruction) String() string {
	switch i.Op {
	case OpLoadConst:
		return fmt.Sprintf("%s = const %d", i.Dest, i.Imm)
	case OpMove:
		return fmt.Sprintf("%s = move %s", i.Dest, i.Src1)
	case OpInitHL:
		return "inithl"
	case OpAddHL:
		return fmt.Sprintf("addhl %s", i.Src1)
	case OpUse:
		return fmt.Sprintf("use %s", i.Src1)
	case OpSpillStore:
		return fmt.Sprintf("spill-store %s -> @%d", i.Src1, i.Imm)
	case OpSpillLoad:
		return fmt.Sprintf("spill-load %s <- @%d", i.Dest, i.Imm)
	default:
		return "nop"
	}
}

// Function is a named straight-line instruction stream together with the
// number of distinct virtual registers it mentions -- everything the
// allocator's entry point (regalloc.Allocate) needs besides the target and
// options.
type Function struct {
	Name         string
	Instructions []Instruction
	NumVRegs     int
}
