package regalloc

import "fmt"

// VRegInfo records one vreg's end-to-end live range and its eventual spill
// home. Computed once by computeVRegLiveness and immutable thereafter.
type VRegInfo struct {
	// LiveAfter is the instruction index after which the vreg first
	// becomes live; -1 means the vreg is never mentioned.
	LiveAfter int
	// DeadBefore is the instruction index before which the vreg is last
	// live.
	DeadBefore int

	SpillOffset int
	SpillSize   int

	// Class is the register class of this vreg, taken from its first
	// mention. Every later mention is checked against it.
	Class RegClass

	HasPreference bool
	PreferredRReg HReg
}

func (v VRegInfo) unused() bool { return v.LiveAfter == -1 }

// computeVRegLiveness is stage 1: it walks instrs in order and, for every
// vreg mentioned, records its first-definition point and last-use point.
//
// The first mention of any vreg must be a Write; a Read or Modify as the
// first mention is a fatal input error (spec §4.1).
func computeVRegLiveness(instrs []Instr, nVRegs int, target Target) ([]VRegInfo, error) {
	infos := make([]VRegInfo, nVRegs)
	for i := range infos {
		infos[i].LiveAfter = -1
	}

	var usage HRegUsage
	for ii, instr := range instrs {
		usage.Reset()
		target.GetRegUsage(instr, &usage)

		for _, m := range usage.Mentions() {
			if !m.Reg.IsVirtual() {
				continue
			}
			iv := m.Reg.Number()
			if iv < 0 || iv >= nVRegs {
				return nil, fmt.Errorf("instruction %d: vreg index %d out of range [0,%d): %w",
					ii, iv, nVRegs, ErrVRegOutOfRange)
			}
			vi := &infos[iv]
			if !vi.unused() && vi.Class != m.Reg.Class() {
				return nil, fmt.Errorf("instruction %d: vreg %d used as both %s and %s: %w",
					ii, iv, vi.Class, m.Reg.Class(), ErrClassMismatch)
			}
			vi.Class = m.Reg.Class()
			switch m.Mode {
			case Write:
				if vi.LiveAfter == -1 {
					vi.LiveAfter = ii
				}
				vi.DeadBefore = ii + 1
			case Read:
				if vi.LiveAfter == -1 {
					return nil, fmt.Errorf("instruction %d: vreg %d: %w", ii, iv, ErrFirstEventIsRead)
				}
				vi.DeadBefore = ii
			case Modify:
				if vi.LiveAfter == -1 {
					return nil, fmt.Errorf("instruction %d: vreg %d: %w", ii, iv, ErrFirstEventIsModify)
				}
				vi.DeadBefore = ii + 1
			}
		}
	}
	return infos, nil
}
