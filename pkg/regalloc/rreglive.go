package regalloc

import "fmt"

// RRegInfo is one hard live range: an interval during which rreg is
// pre-committed by instruction semantics (e.g. a divide's quotient
// register) and is therefore off-limits to the allocator.
type RRegInfo struct {
	RReg       HReg
	LiveAfter  int
	DeadBefore int
}

// computeRRegHardRanges is stage 2. It tracks, per allocatable rreg, a
// currently-open live range and flushes it to the result list every time a
// Write re-opens the range (the prior value is logically dead at a Write),
// and once more for any range still open after the last instruction.
//
// Non-allocatable rregs (anything not in availableRealRegs, e.g. a stack
// pointer) are silently ignored.
func computeRRegHardRanges(instrs []Instr, availableRealRegs []HReg, target Target) ([]RRegInfo, error) {
	n := len(availableRealRegs)
	index := make(map[HReg]int, n)
	for i, r := range availableRealRegs {
		index[r] = i
	}

	liveAfter := make([]int, n)
	deadBefore := make([]int, n)
	for i := range liveAfter {
		liveAfter[i] = -1
		deadBefore[i] = -1
	}

	var infos []RRegInfo
	var usage HRegUsage
	for ii, instr := range instrs {
		usage.Reset()
		target.GetRegUsage(instr, &usage)

		for _, m := range usage.Mentions() {
			if m.Reg.IsVirtual() {
				continue
			}
			ir, ok := index[m.Reg]
			if !ok {
				continue
			}
			switch m.Mode {
			case Write:
				if liveAfter[ir] != -1 {
					infos = append(infos, RRegInfo{
						RReg:       availableRealRegs[ir],
						LiveAfter:  liveAfter[ir],
						DeadBefore: deadBefore[ir],
					})
				}
				liveAfter[ir] = ii
				deadBefore[ir] = ii + 1
			case Read:
				if liveAfter[ir] == -1 {
					return nil, fmt.Errorf("instruction %d: rreg %s: %w", ii, m.Reg, ErrFirstEventIsRead)
				}
				deadBefore[ir] = ii
			case Modify:
				if liveAfter[ir] == -1 {
					return nil, fmt.Errorf("instruction %d: rreg %s: %w", ii, m.Reg, ErrFirstEventIsModify)
				}
				deadBefore[ir] = ii + 1
			}
		}
	}

	for ir, r := range availableRealRegs {
		if liveAfter[ir] == -1 {
			continue
		}
		infos = append(infos, RRegInfo{RReg: r, LiveAfter: liveAfter[ir], DeadBefore: deadBefore[ir]})
	}
	return infos, nil
}
