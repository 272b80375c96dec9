package regalloc

import "fmt"

// Allocate runs the full five-stage pipeline over instrs and returns a new
// instruction stream referencing only rregs from availableRealRegs, with
// spill and restore instructions inserted where necessary.
//
// instrs must use vreg indices in [0, nVRegs). availableRealRegs lists
// every rreg the allocator may use; among otherwise equal Free candidates
// the one listed first is chosen. rregs outside this set (e.g. a stack
// pointer) are never touched by the allocator even if target.GetRegUsage
// reports them.
//
// Any violation of the contract described in errors.go -- malformed
// liveness, an out-of-range vreg, an exhausted spill pool, a class
// mismatch, or an internal invariant failure -- aborts the call and returns
// a non-nil error; there is no partial or best-effort result.
func Allocate(instrs []Instr, nVRegs int, availableRealRegs []HReg, target Target, opts Options) ([]Instr, error) {
	vregInfo, err := computeVRegLiveness(instrs, nVRegs, target)
	if err != nil {
		return nil, err
	}

	rregInfo, err := computeRRegHardRanges(instrs, availableRealRegs, target)
	if err != nil {
		return nil, err
	}

	if err := assignSpillSlots(vregInfo, opts.nSpill64s()); err != nil {
		return nil, err
	}

	computePreferences(instrs, vregInfo, nVRegs, target)

	a := newAllocator(instrs, nVRegs, availableRealRegs, target, vregInfo, rregInfo)
	return a.run()
}

type allocator struct {
	instrs        []Instr
	nVRegs        int
	availableRegs []HReg
	target        Target

	vregInfo []VRegInfo
	rregInfo []RRegInfo

	state      []rRegState
	boundSlot  []int // vreg index -> index into state, or -1 if unbound
	regMapping *RegMap

	out []Instr
}

func newAllocator(instrs []Instr, nVRegs int, availableRealRegs []HReg, target Target, vregInfo []VRegInfo, rregInfo []RRegInfo) *allocator {
	state := make([]rRegState, len(availableRealRegs))
	for i, r := range availableRealRegs {
		state[i] = rRegState{reg: r, disp: Free}
	}
	boundSlot := make([]int, nVRegs)
	for i := range boundSlot {
		boundSlot[i] = -1
	}
	return &allocator{
		instrs:        instrs,
		nVRegs:        nVRegs,
		availableRegs: availableRealRegs,
		target:        target,
		vregInfo:      vregInfo,
		rregInfo:      rregInfo,
		state:         state,
		boundSlot:     boundSlot,
		regMapping:    newRegMap(),
		out:           make([]Instr, 0, len(instrs)),
	}
}

func (a *allocator) run() ([]Instr, error) {
	var usage HRegUsage

	for ii, instr := range a.instrs {
		// (b) Hard-range transitions. These must land before the sanity
		// checks below: the checks assert that Unavail exactly tracks
		// "ii falls inside [LiveAfter, DeadBefore)", and that window opens
		// at ii == LiveAfter -- the instruction that hard-wires the rreg
		// must already have it clear of any vreg binding when it runs.
		for i := range a.rregInfo {
			hr := &a.rregInfo[i]
			if hr.DeadBefore == ii {
				ir := a.indexOfRReg(hr.RReg)
				if ir >= 0 {
					a.state[ir].disp = Free
				}
			}
		}
		for i := range a.rregInfo {
			hr := &a.rregInfo[i]
			if hr.LiveAfter == ii {
				ir := a.indexOfRReg(hr.RReg)
				if ir < 0 {
					continue
				}
				s := &a.state[ir]
				if s.disp == Bound {
					if err := a.spillVReg(s.vreg); err != nil {
						return nil, err
					}
				}
				s.disp = Unavail
			}
		}

		if err := a.checkInvariants(ii); err != nil {
			return nil, err
		}

		usage.Reset()
		a.target.GetRegUsage(instr, &usage)
		mentions := usage.Mentions()

		mentionedVRegs := mentionedVRegSet(mentions)

		// (c) Reload reads and modifies.
		for _, m := range mentions {
			if !m.Reg.IsVirtual() || (m.Mode != Read && m.Mode != Modify) {
				continue
			}
			iv := m.Reg.Number()
			if a.boundSlot[iv] != -1 {
				continue
			}
			ir, err := a.pickVictim(iv, ii, mentionedVRegs)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: reloading vreg %d: %w", ii, iv, err)
			}
			restore := a.target.GenRestore(a.state[ir].reg, a.vregInfo[iv].SpillOffset)
			a.out = append(a.out, restore)
			a.bind(ir, iv)
		}

		// (d) Allocate writes.
		for _, m := range mentions {
			if !m.Reg.IsVirtual() || m.Mode != Write {
				continue
			}
			iv := m.Reg.Number()
			if a.boundSlot[iv] != -1 {
				continue
			}
			ir, err := a.pickVictim(iv, ii, mentionedVRegs)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: allocating vreg %d: %w", ii, iv, err)
			}
			a.bind(ir, iv)
		}

		// (e) Rewrite and emit.
		a.regMapping.reset()
		for _, m := range mentions {
			if !m.Reg.IsVirtual() {
				continue
			}
			iv := m.Reg.Number()
			ir := a.boundSlot[iv]
			if ir == -1 {
				return nil, fmt.Errorf("instruction %d: vreg %d mentioned but never bound: %w", ii, iv, ErrInvariantViolation)
			}
			a.regMapping.set(m.Reg, a.state[ir].reg)
		}
		a.target.MapRegs(instr, a.regMapping)
		a.out = append(a.out, instr)

		// (a) Expire dead bindings. Done last, after this instruction has
		// been rewritten and emitted: a vreg whose last mention is a Read
		// right here (DeadBefore == ii for that kind of mention, spec
		// §4.1) must still be served from its existing binding above,
		// not preempted by an early expiry that would force a bogus reload
		// from a spill slot that was never written.
		for ir := range a.state {
			s := &a.state[ir]
			if s.disp == Bound && a.vregInfo[s.vreg].DeadBefore == ii {
				a.boundSlot[s.vreg] = -1
				s.disp = Free
				s.vreg = 0
			}
		}
	}

	// Close out any hard range ending exactly at the end of the stream;
	// the main loop above only ever fires end-transitions for ii it
	// actually iterates over.
	end := len(a.instrs)
	for i := range a.rregInfo {
		hr := &a.rregInfo[i]
		if hr.DeadBefore == end {
			if ir := a.indexOfRReg(hr.RReg); ir >= 0 {
				a.state[ir].disp = Free
			}
		}
	}

	if err := a.checkInvariants(end); err != nil {
		return nil, err
	}

	return a.out, nil
}

// bind marks state[ir] Bound to vreg iv and updates the reverse index.
func (a *allocator) bind(ir, iv int) {
	a.state[ir].disp = Bound
	a.state[ir].vreg = iv
	a.boundSlot[iv] = ir
}

// spillVReg emits a spill instruction for the vreg currently bound at
// a.state[ir] and clears its binding, leaving the rreg Free (the caller
// immediately reassigns its disposition).
func (a *allocator) spillVReg(iv int) error {
	ir := a.boundSlot[iv]
	if ir == -1 {
		return fmt.Errorf("spilling vreg %d with no current binding: %w", iv, ErrInvariantViolation)
	}
	spill := a.target.GenSpill(a.state[ir].reg, a.vregInfo[iv].SpillOffset)
	a.out = append(a.out, spill)
	a.boundSlot[iv] = -1
	a.state[ir].disp = Free
	a.state[ir].vreg = 0
	return nil
}

// pickVictim selects an rreg to bind vreg iv to, following the preference
// order of spec §4.5(c)/(d): a Free rreg of iv's class (tie-broken by
// iv's preferred rreg if any, then by furthest next hard-range conflict,
// then by lowest index), else a Bound rreg not mentioned by the current
// instruction (spilled first). An Unavail rreg is never chosen.
func (a *allocator) pickVictim(iv int, ii int, mentioned map[int]bool) (int, error) {
	class := a.vregInfo[iv].Class
	preferredReg, hasPreference := a.vregInfo[iv].PreferredRReg, a.vregInfo[iv].HasPreference

	best := -1
	var bestPreferred bool
	var bestHorizon int

	for ir := range a.state {
		s := &a.state[ir]
		if s.disp != Free || s.reg.Class() != class {
			continue
		}
		preferred := hasPreference && s.reg == preferredReg
		horizon := a.nextHardConflict(s.reg, ii)
		if best == -1 {
			best, bestPreferred, bestHorizon = ir, preferred, horizon
			continue
		}
		if preferred && !bestPreferred {
			best, bestPreferred, bestHorizon = ir, preferred, horizon
			continue
		}
		if preferred == bestPreferred && horizon > bestHorizon {
			best, bestPreferred, bestHorizon = ir, preferred, horizon
		}
	}
	if best != -1 {
		return best, nil
	}

	// No Free rreg of this class: spill a Bound one not needed by this
	// instruction.
	best = -1
	bestHorizon = -1
	for ir := range a.state {
		s := &a.state[ir]
		if s.disp != Bound || s.reg.Class() != class {
			continue
		}
		if mentioned[s.vreg] {
			continue
		}
		horizon := a.vregInfo[s.vreg].DeadBefore
		if best == -1 || horizon > bestHorizon {
			best, bestHorizon = ir, horizon
		}
	}
	if best == -1 {
		return -1, ErrNoSuitableRReg
	}
	if err := a.spillVReg(a.state[best].vreg); err != nil {
		return -1, err
	}
	return best, nil
}

// nextHardConflict returns the instruction index at which reg would next
// have to be evicted for a hard live range, or an effectively-infinite
// value if none remains.
func (a *allocator) nextHardConflict(reg HReg, fromII int) int {
	const farFuture = int(^uint(0) >> 1)
	best := farFuture
	for i := range a.rregInfo {
		hr := &a.rregInfo[i]
		if hr.RReg != reg {
			continue
		}
		start := hr.LiveAfter
		if start > fromII && start < best {
			best = start
		}
	}
	return best
}

func (a *allocator) indexOfRReg(reg HReg) int {
	for i := range a.state {
		if a.state[i].reg == reg {
			return i
		}
	}
	return -1
}

func mentionedVRegSet(mentions []RegMention) map[int]bool {
	set := make(map[int]bool, len(mentions))
	for _, m := range mentions {
		if m.Reg.IsVirtual() {
			set[m.Reg.Number()] = true
		}
	}
	return set
}

// checkInvariants runs the four cross-cutting sanity checks from spec
// §4.5 against the running state, as of after instruction ii's hard-range
// transitions and before its operands are reloaded, allocated or rewritten
// (ii == len(instrs) checks the final state after the last instruction).
func (a *allocator) checkInvariants(ii int) error {
	// 1: every hard live range containing ii (the window is
	// [LiveAfter, DeadBefore), matching the transition timing above)
	// corresponds to an Unavail rreg.
	for i := range a.rregInfo {
		hr := &a.rregInfo[i]
		if hr.LiveAfter <= ii && ii < hr.DeadBefore {
			ir := a.indexOfRReg(hr.RReg)
			if ir < 0 || a.state[ir].disp != Unavail {
				return fmt.Errorf("instruction %d: hard range for %s not reflected as Unavail: %w", ii, hr.RReg, ErrInvariantViolation)
			}
		}
	}

	// 2: conversely, every Unavail rreg has a corresponding hard range.
	for ir := range a.state {
		s := &a.state[ir]
		if s.disp != Unavail {
			continue
		}
		found := false
		for i := range a.rregInfo {
			hr := &a.rregInfo[i]
			if hr.RReg == s.reg && hr.LiveAfter <= ii && ii < hr.DeadBefore {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("instruction %d: %s marked Unavail with no hard range: %w", ii, s.reg, ErrInvariantViolation)
		}
	}

	// 3: no vreg is bound to two rregs simultaneously.
	seen := make(map[int]HReg)
	for ir := range a.state {
		s := &a.state[ir]
		if s.disp != Bound {
			continue
		}
		if other, ok := seen[s.vreg]; ok {
			return fmt.Errorf("instruction %d: vreg %d bound to both %s and %s: %w", ii, s.vreg, other, s.reg, ErrInvariantViolation)
		}
		seen[s.vreg] = s.reg
	}

	// 4: every Bound binding respects class equality and virtual/real
	// identity.
	for ir := range a.state {
		s := &a.state[ir]
		if s.disp != Bound {
			continue
		}
		if s.reg.IsVirtual() {
			return fmt.Errorf("instruction %d: state entry %s is not a real register: %w", ii, s.reg, ErrInvariantViolation)
		}
		if s.vreg < 0 || s.vreg >= a.nVRegs {
			return fmt.Errorf("instruction %d: bound vreg index %d out of range: %w", ii, s.vreg, ErrInvariantViolation)
		}
		if a.vregInfo[s.vreg].unused() {
			return fmt.Errorf("instruction %d: %s bound to never-live vreg %d: %w", ii, s.reg, s.vreg, ErrInvariantViolation)
		}
		if a.vregInfo[s.vreg].Class != s.reg.Class() {
			return fmt.Errorf("instruction %d: vreg %d (class %s) bound to %s: %w",
				ii, s.vreg, a.vregInfo[s.vreg].Class, s.reg, ErrClassMismatch)
		}
	}

	return nil
}
