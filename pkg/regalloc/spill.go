package regalloc

import "fmt"

// assignSpillSlots is stage 3: first-fit packing of vreg live ranges into a
// fixed pool of nSpill64s 8-byte slots.
//
// This is interval-graph colouring by first-fit-lowest-index, and it works
// because vregs are processed in increasing LiveAfter order: upstream code
// assigns vreg indices monotonically, so index order is live-range-start
// order (spec §4.3).
//
// 128-bit vregs (paired, adjacent slots) are a known unsupported case; see
// SPEC_FULL.md §13.
func assignSpillSlots(vregInfo []VRegInfo, nSpill64s int) error {
	busyUntilBefore := make([]int, nSpill64s)

	for iv := range vregInfo {
		vi := &vregInfo[iv]
		if vi.unused() {
			continue
		}
		slot := -1
		for j := 0; j < nSpill64s; j++ {
			if busyUntilBefore[j] <= vi.LiveAfter {
				slot = j
				break
			}
		}
		if slot == -1 {
			return fmt.Errorf("vreg %d needs a spill slot but all %d are busy: %w", iv, nSpill64s, ErrSpillPoolExhausted)
		}
		busyUntilBefore[slot] = vi.DeadBefore
		vi.SpillOffset = slot * SpillSlotBytes
		vi.SpillSize = SpillSlotBytes
	}
	return nil
}
