package regalloc

// Instr is an opaque instruction handle. The allocator never inspects it
// directly; every operation on it is mediated through Target.
type Instr any

// Target bundles the five target-specific callbacks the allocator's
// contract is built against (spec §6). Implementations must be pure with
// respect to allocator state, reentrant, and free of observable side
// effects -- the allocator calls them synchronously, possibly more than
// once per instruction, and never caches their results across calls.
type Target interface {
	// IsMove reports whether instr is a register-to-register move, and if
	// so its source and destination. Memory moves must report false.
	IsMove(instr Instr) (isMove bool, src, dst HReg)

	// GetRegUsage populates usage with every HReg touched by instr, each
	// tagged Read, Write or Modify. usage has already been Reset by the
	// caller. Must not omit any register the instruction touches.
	GetRegUsage(instr Instr, usage *HRegUsage)

	// MapRegs rewrites instr in place so that every vreg mentioned in
	// mapping's domain becomes the rreg it maps to.
	MapRegs(instr Instr, mapping *RegMap)

	// GenSpill returns an instruction that stores reg to the spill slot at
	// the given byte offset.
	GenSpill(reg HReg, offset int) Instr

	// GenRestore returns an instruction that loads reg from the spill slot
	// at the given byte offset.
	GenRestore(reg HReg, offset int) Instr
}

// SpillSlotBytes is the fixed width of one spill slot (spec §6).
const SpillSlotBytes = 8

// DefaultNSpill64s is used when Options.NSpill64s is left at zero.
const DefaultNSpill64s = 32

// Options carries the allocator's tunable, target-independent parameters.
type Options struct {
	// NSpill64s is the size of the spill-slot pool (N_SPILL64S), counted
	// in 8-byte slots. Zero means DefaultNSpill64s.
	NSpill64s int
}

func (o Options) nSpill64s() int {
	if o.NSpill64s <= 0 {
		return DefaultNSpill64s
	}
	return o.NSpill64s
}
