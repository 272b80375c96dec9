package regalloc

import "fmt"

// This file implements a synthetic Target used across the package's tests:
// a tiny instruction type carrying (register, mode, value) tuples, enough to
// both drive the allocator and, separately, execute the allocator's output
// against an expected-value model (spec §8 property 1, semantic
// preservation).

type valuedMention struct {
	RegMention
	value string
}

func rm(reg HReg, mode Mode, value string) valuedMention {
	return valuedMention{RegMention: RegMention{Reg: reg, Mode: mode}, value: value}
}

type testKind int

const (
	kPlain testKind = iota
	kMove
	kSpill
	kRestore
)

// testInstr is the only Instr implementation used by this package's tests.
// vms holds every register this instruction touches; for kMove, moveSrc and
// moveDst additionally identify which of the Read/Write mentions is the
// move's source and destination.
type testInstr struct {
	label    string
	kind     testKind
	vms      []valuedMention
	moveSrc  HReg
	moveDst  HReg
	spillReg HReg
	offset   int
}

func mkInstr(label string, vms ...valuedMention) *testInstr {
	return &testInstr{label: label, kind: kPlain, vms: vms}
}

func mkMove(label string, src, dst HReg, value string) *testInstr {
	return &testInstr{
		label:   label,
		kind:    kMove,
		vms:     []valuedMention{rm(src, Read, value), rm(dst, Write, value)},
		moveSrc: src,
		moveDst: dst,
	}
}

func (ti *testInstr) String() string { return ti.label }

// testTarget implements Target over *testInstr.
type testTarget struct{}

func (testTarget) IsMove(instr Instr) (bool, HReg, HReg) {
	ti := instr.(*testInstr)
	if ti.kind != kMove {
		return false, HReg{}, HReg{}
	}
	return true, ti.moveSrc, ti.moveDst
}

func (testTarget) GetRegUsage(instr Instr, usage *HRegUsage) {
	ti := instr.(*testInstr)
	for _, vm := range ti.vms {
		usage.Add(vm.Reg, vm.Mode)
	}
}

func (testTarget) MapRegs(instr Instr, mapping *RegMap) {
	ti := instr.(*testInstr)
	for i, vm := range ti.vms {
		if !vm.Reg.IsVirtual() {
			continue
		}
		if r, ok := mapping.Lookup(vm.Reg); ok {
			ti.vms[i].Reg = r
		}
	}
	if ti.kind == kMove {
		if ti.moveSrc.IsVirtual() {
			if r, ok := mapping.Lookup(ti.moveSrc); ok {
				ti.moveSrc = r
			}
		}
		if ti.moveDst.IsVirtual() {
			if r, ok := mapping.Lookup(ti.moveDst); ok {
				ti.moveDst = r
			}
		}
	}
}

func (testTarget) GenSpill(reg HReg, offset int) Instr {
	return &testInstr{
		label:    fmt.Sprintf("spill %s -> @%d", reg, offset),
		kind:     kSpill,
		vms:      []valuedMention{rm(reg, Read, "")},
		spillReg: reg,
		offset:   offset,
	}
}

func (testTarget) GenRestore(reg HReg, offset int) Instr {
	return &testInstr{
		label:    fmt.Sprintf("restore %s <- @%d", reg, offset),
		kind:     kRestore,
		vms:      []valuedMention{rm(reg, Write, "")},
		spillReg: reg,
		offset:   offset,
	}
}

// machine is a minimal interpreter used to check that an instruction stream
// actually produces the expected values, independent of the allocator's own
// internal bookkeeping.
type machine struct {
	regs map[HReg]string
	mem  map[int]string
}

func newMachine() *machine {
	return &machine{regs: make(map[HReg]string), mem: make(map[int]string)}
}

// run executes instrs in order. It fails fast on the first Read whose
// observed value doesn't match what the instruction declared it expects.
func (m *machine) run(instrs []Instr) error {
	for _, instr := range instrs {
		ti := instr.(*testInstr)
		switch ti.kind {
		case kSpill:
			m.mem[ti.offset] = m.regs[ti.spillReg]
			continue
		case kRestore:
			m.regs[ti.spillReg] = m.mem[ti.offset]
			continue
		}
		// All Reads are checked against current register contents
		// before any write in this instruction
		// takes effect, matching the "reads before writes" rule for a
		// single instruction (spec §3).
		for _, vm := range ti.vms {
			if vm.Mode == Read {
				if got := m.regs[vm.Reg]; got != vm.value {
					return fmt.Errorf("%s: register %s held %q, want %q", ti.label, vm.Reg, got, vm.value)
				}
			}
		}
		// A Modify's declared value is what the register holds once the
		// instruction has run -- there is no separate "value read" tag, so
		// unlike Read it isn't checked against the prior contents here; a
		// wrong prior value would already have been caught by whichever
		// Read or Modify last declared it.
		for _, vm := range ti.vms {
			if vm.Mode == Write || vm.Mode == Modify {
				m.regs[vm.Reg] = vm.value
			}
		}
	}
	return nil
}

// noVRegLeakage checks property 2: no output instruction mentions a virtual
// register.
func noVRegLeakage(instrs []Instr) error {
	for _, instr := range instrs {
		ti := instr.(*testInstr)
		for _, vm := range ti.vms {
			if vm.Reg.IsVirtual() {
				return fmt.Errorf("%s: output still references virtual register %s", ti.label, vm.Reg)
			}
		}
	}
	return nil
}

func countKind(instrs []Instr, kind testKind) int {
	n := 0
	for _, instr := range instrs {
		if instr.(*testInstr).kind == kind {
			n++
		}
	}
	return n
}
