// Package z80emu executes allocator output on a real Z80 core
// (github.com/remogatto/z80) to demonstrate property 1 (semantic
// preservation, spec §8): the values a straight-line program computes must
// be unchanged by having its vregs rewritten to real registers and spills
// inserted.
//
// Memory and Ports are carried over near-verbatim from the teacher's
// pkg/emulator/z80_remogatto.go (the same MemoryAccessor/PortAccessor shim
// remogatto/z80 requires); what's new is Assemble, which turns the
// allocator's post-allocation ir.Instruction stream into real Z80 machine
// code instead of interpreting it.
package z80emu

import (
	"fmt"

	"github.com/remogatto/z80"

	target "github.com/minz/vralloc/internal/target/z80"
	"github.com/minz/vralloc/pkg/ir"
	"github.com/minz/vralloc/pkg/regalloc"
)

// Memory implements z80.MemoryAccessor over a flat 64K array.
type Memory struct {
	data [65536]byte
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) ReadByte(address uint16) byte          { return m.data[address] }
func (m *Memory) WriteByte(address uint16, value byte)  { m.data[address] = value }
func (m *Memory) ReadByteInternal(address uint16) byte  { return m.ReadByte(address) }
func (m *Memory) WriteByteInternal(address uint16, v byte) { m.WriteByte(address, v) }

func (m *Memory) ContendRead(address uint16, time int)               {}
func (m *Memory) ContendReadNoMreq(address uint16, time int)         {}
func (m *Memory) ContendReadNoMreq_loop(address uint16, time int, count uint) {}
func (m *Memory) ContendWriteNoMreq(address uint16, time int)        {}
func (m *Memory) ContendWriteNoMreq_loop(address uint16, time int, count uint) {}

func (m *Memory) Read(address uint16) byte { return m.ReadByte(address) }
func (m *Memory) Write(address uint16, value byte, protectROM bool) {
	m.WriteByte(address, value)
}

// Ports implements z80.PortAccessor with no I/O devices attached -- this
// package only proves register/memory semantics, not port behaviour.
type Ports struct{}

func (Ports) ReadPort(address uint16) byte               { return 0xFF }
func (Ports) WritePort(address uint16, b byte)            {}
func (p Ports) ReadPortInternal(address uint16, contend bool) byte { return p.ReadPort(address) }
func (p Ports) WritePortInternal(address uint16, b byte, contend bool) {
	p.WritePort(address, b)
}
func (Ports) ContendPortPreio(address uint16)  {}
func (Ports) ContendPortPostio(address uint16) {}

// Machine wraps a remogatto/z80 CPU with flat memory and no I/O, sized for
// running one assembled straight-line program to completion.
type Machine struct {
	cpu    *z80.Z80
	memory *Memory
}

func NewMachine() *Machine {
	memory := NewMemory()
	return &Machine{cpu: z80.NewZ80(memory, Ports{}), memory: memory}
}

// LoadAndRun assembles instrs (which must reference only real registers --
// the allocator's output) at origin, points PC at it, and executes opcodes
// until PC reaches the first address past the end of the assembled code.
func (m *Machine) LoadAndRun(instrs []regalloc.Instr, origin uint16) error {
	code, err := Assemble(instrs)
	if err != nil {
		return err
	}
	for i, b := range code {
		if int(origin)+i >= len(m.memory.data) {
			return fmt.Errorf("assembled program overflows memory at origin %#04x", origin)
		}
		m.memory.data[int(origin)+i] = b
	}
	m.cpu.Reset()
	m.cpu.SetPC(origin)
	end := origin + uint16(len(code))
	for m.cpu.PC() != end {
		m.cpu.DoOpcode()
	}
	return nil
}

// BC, DE and HL return the current value of the corresponding register
// pair, for asserting the program computed what it should have.
func (m *Machine) BC() uint16 { return m.cpu.BC() }
func (m *Machine) DE() uint16 { return m.cpu.DE() }
func (m *Machine) HL() uint16 { return m.cpu.HL() }

// ReadWord reads a little-endian 16-bit value from memory, for inspecting
// a spill slot directly.
func (m *Machine) ReadWord(addr uint16) uint16 {
	return uint16(m.memory.data[addr]) | uint16(m.memory.data[addr+1])<<8
}

// pairEncoding is the 2-bit "pp"/"ss" field Z80 uses to select a register
// pair in LD dd,nn and ADD HL,ss.
func pairEncoding(r target.PhysicalReg) (byte, error) {
	switch r {
	case target.RegBC:
		return 0b00, nil
	case target.RegDE:
		return 0b01, nil
	case target.RegHL:
		return 0b10, nil
	default:
		return 0, fmt.Errorf("unsupported register pair %v", r)
	}
}

// halfRegs returns the (high, low) 3-bit LD r,r' operand codes for a pair:
// B=000 C=001 D=010 E=011 H=100 L=101.
func halfRegs(r target.PhysicalReg) (hi, lo byte, err error) {
	switch r {
	case target.RegBC:
		return 0b000, 0b001, nil
	case target.RegDE:
		return 0b010, 0b011, nil
	case target.RegHL:
		return 0b100, 0b101, nil
	default:
		return 0, 0, fmt.Errorf("unsupported register pair %v", r)
	}
}

func physReg(h regalloc.HReg) (target.PhysicalReg, error) {
	if h.IsVirtual() {
		return 0, fmt.Errorf("register %s was never allocated", h)
	}
	return target.PhysicalReg(h.Number()), nil
}

// Assemble turns a fully-allocated instruction stream into real Z80 machine
// code. Every opcode emitted here is a genuine, documented Z80 instruction;
// there is no made-up encoding.
func Assemble(instrs []regalloc.Instr) ([]byte, error) {
	var code []byte
	emit := func(b ...byte) { code = append(code, b...) }
	word := func(n int64) (lo, hi byte) { return byte(n), byte(n >> 8) }

	for idx, raw := range instrs {
		in, ok := raw.(*ir.Instruction)
		if !ok {
			return nil, fmt.Errorf("instruction %d: not an *ir.Instruction", idx)
		}
		switch in.Op {
		case ir.OpInitHL:
			emit(0x21, 0x00, 0x00) // LD HL,0
		case ir.OpLoadConst:
			dst, err := physReg(in.Dest)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			pp, err := pairEncoding(dst)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			lo, hi := word(in.Imm)
			emit(0x01|(pp<<4), lo, hi) // LD dd,nn
		case ir.OpMove:
			dst, err := physReg(in.Dest)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			src, err := physReg(in.Src1)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			dhi, dlo, _ := halfRegs(dst)
			shi, slo, _ := halfRegs(src)
			emit(0x40|(dhi<<3)|shi) // LD <dst-hi>,<src-hi>
			emit(0x40|(dlo<<3)|slo) // LD <dst-lo>,<src-lo>
		case ir.OpAddHL:
			src, err := physReg(in.Src1)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			ss, err := pairEncoding(src)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			emit(0x09 | (ss << 4)) // ADD HL,ss
		case ir.OpUse, ir.OpNop:
			// No real operation: a pure liveness marker.
		case ir.OpSpillStore:
			reg, err := physReg(in.Src1)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			lo, hi := word(in.Imm)
			switch reg {
			case target.RegHL:
				emit(0x22, lo, hi) // LD (nn),HL
			case target.RegBC:
				emit(0xED, 0x43, lo, hi) // LD (nn),BC
			case target.RegDE:
				emit(0xED, 0x53, lo, hi) // LD (nn),DE
			}
		case ir.OpSpillLoad:
			reg, err := physReg(in.Dest)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", idx, err)
			}
			lo, hi := word(in.Imm)
			switch reg {
			case target.RegHL:
				emit(0x2A, lo, hi) // LD HL,(nn)
			case target.RegBC:
				emit(0xED, 0x4B, lo, hi) // LD BC,(nn)
			case target.RegDE:
				emit(0xED, 0x5B, lo, hi) // LD DE,(nn)
			}
		default:
			return nil, fmt.Errorf("instruction %d: unassemblable opcode %s", idx, in.Op)
		}
	}
	return code, nil
}
