package regalloc

// computePreferences is stage 4, an optional hint pass: correctness never
// depends on it (spec §4.4). A vreg defined by a move whose source is
// already a fixed real register -- not a vreg awaiting its own allocation
// decision -- is hinted to prefer that rreg, since binding it there costs
// nothing and may avoid a reg-reg move a later pass could otherwise want to
// coalesce (coalescing itself is out of scope, spec §1 Non-goals).
func computePreferences(instrs []Instr, vregInfo []VRegInfo, nVRegs int, target Target) {
	for _, instr := range instrs {
		isMove, src, dst := target.IsMove(instr)
		if !isMove {
			continue
		}
		if !dst.IsVirtual() || src.IsVirtual() {
			continue
		}
		iv := dst.Number()
		if iv < 0 || iv >= nVRegs {
			continue
		}
		vi := &vregInfo[iv]
		if vi.unused() {
			continue
		}
		vi.HasPreference = true
		vi.PreferredRReg = src
	}
}
