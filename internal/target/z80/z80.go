// Package z80 adapts the target-independent allocator in pkg/regalloc to
// the Z80's register file.
//
// It grew out of the teacher's Z80RegisterAllocator (pkg/codegen): that
// type's PhysicalReg enum and register-pool bookkeeping are reproduced
// here, but the allocation logic itself (the map-based "first free wins,
// else spill HL" loop) is gone -- pkg/regalloc now does the liveness-driven
// scan/evict/spill work, and this package only answers the five Target
// questions about one *ir.Instruction at a time.
package z80

import (
	"fmt"

	"github.com/minz/vralloc/pkg/ir"
	"github.com/minz/vralloc/pkg/regalloc"
)

// PhysicalReg identifies one of the Z80's three general-purpose register
// pairs. BC/DE/HL are the only pairs the allocator may bind a vreg to; IX
// and IY are conventionally reserved for a frame pointer and are never
// offered (mirroring the teacher's own comment to that effect), and SP is
// never allocated.
type PhysicalReg int32

const (
	RegBC PhysicalReg = iota
	RegDE
	RegHL

	NumPhysicalRegs
)

func (r PhysicalReg) String() string {
	switch r {
	case RegBC:
		return "BC"
	case RegDE:
		return "DE"
	case RegHL:
		return "HL"
	default:
		return fmt.Sprintf("reg(%d)", int32(r))
	}
}

// HReg returns the regalloc handle for a physical register pair.
func HReg(r PhysicalReg) regalloc.HReg { return regalloc.RReg(int(r), regalloc.ClassInt) }

// HLReg is ADD HL,ss's hard-wired destination: the Z80 has no "ADD BC,DE"
// or "ADD DE,BC" form, only ADD HL,ss, so every OpAddHL instruction commits
// to HL as a fixed real-register operand the same way a divide
// instruction's quotient register is fixed on other ISAs (spec's
// motivating example for rreg hard live ranges).
var HLReg = HReg(RegHL)

// AvailableRegs is the register file passed to regalloc.Allocate, in
// preference order (BC and DE are offered before HL since HL is also the
// fixed target of OpAddHL and is more likely to need a hard-range eviction).
var AvailableRegs = []regalloc.HReg{HReg(RegBC), HReg(RegDE), HReg(RegHL)}

// SpillBase is the default base address the spill-slot byte offsets
// computed by pkg/regalloc are added to when generating absolute-address
// spill/reload instructions. Chosen to sit above a typical Z80 program's
// code and well clear of the stack.
const SpillBase = 0xC000

// Target implements regalloc.Target for the straight-line ir.Instruction
// stream produced by pkg/mir.
type Target struct {
	spillBase uint16
}

// New returns a Target that spills to absolute addresses starting at base.
func New(base uint16) Target { return Target{spillBase: base} }

func (Target) IsMove(instr regalloc.Instr) (bool, regalloc.HReg, regalloc.HReg) {
	in := instr.(*ir.Instruction)
	if in.Op != ir.OpMove {
		return false, regalloc.HReg{}, regalloc.HReg{}
	}
	return true, in.Src1, in.Dest
}

func (Target) GetRegUsage(instr regalloc.Instr, usage *regalloc.HRegUsage) {
	in := instr.(*ir.Instruction)
	switch in.Op {
	case ir.OpLoadConst:
		usage.Add(in.Dest, regalloc.Write)
	case ir.OpMove:
		usage.Add(in.Src1, regalloc.Read)
		usage.Add(in.Dest, regalloc.Write)
	case ir.OpInitHL:
		usage.Add(HLReg, regalloc.Write)
	case ir.OpAddHL:
		usage.Add(in.Src1, regalloc.Read)
		usage.Add(HLReg, regalloc.Modify)
	case ir.OpUse:
		usage.Add(in.Src1, regalloc.Read)
	}
}

func (Target) MapRegs(instr regalloc.Instr, mapping *regalloc.RegMap) {
	in := instr.(*ir.Instruction)
	remap := func(h regalloc.HReg, has bool) regalloc.HReg {
		if !has || !h.IsVirtual() {
			return h
		}
		if r, ok := mapping.Lookup(h); ok {
			return r
		}
		return h
	}
	in.Dest = remap(in.Dest, in.HasDest)
	in.Src1 = remap(in.Src1, in.HasSrc1)
	in.Src2 = remap(in.Src2, in.HasSrc2)
}

// GenSpill stores reg to an absolute memory address. Every pair register
// has a real Z80 opcode for this: LD (nn),HL is unprefixed; LD (nn),BC and
// LD (nn),DE are the ED-prefixed extended forms Zilog added over the 8080
// ISA. internal/z80emu's assembler picks the right encoding from reg alone.
func (t Target) GenSpill(reg regalloc.HReg, offset int) regalloc.Instr {
	return &ir.Instruction{
		Op:      ir.OpSpillStore,
		Src1:    reg,
		HasSrc1: true,
		Imm:     int64(t.spillBase) + int64(offset),
	}
}

// GenRestore is GenSpill's inverse (LD HL,(nn) / LD BC,(nn) / LD DE,(nn)).
func (t Target) GenRestore(reg regalloc.HReg, offset int) regalloc.Instr {
	return &ir.Instruction{
		Op:      ir.OpSpillLoad,
		Dest:    reg,
		HasDest: true,
		Imm:     int64(t.spillBase) + int64(offset),
	}
}
