package regalloc

import "errors"

// Every error the allocator returns signals a bug in the caller's input or
// in its Target implementation, not a recoverable runtime condition (see
// spec §7). Callers that want to tell failures apart can errors.Is against
// these sentinels; the allocator itself always aborts the call and returns
// (nil, err) rather than panicking across the package boundary.
var (
	// ErrFirstEventIsRead: a vreg's or allocatable rreg's first mention in
	// the stream is a Read, which can never be correct -- nothing defined it.
	ErrFirstEventIsRead = errors.New("regalloc: first mention of register is a Read")

	// ErrFirstEventIsModify: same as above but for a Modify.
	ErrFirstEventIsModify = errors.New("regalloc: first mention of register is a Modify")

	// ErrVRegOutOfRange: an instruction mentions a vreg index outside
	// [0, n_vregs).
	ErrVRegOutOfRange = errors.New("regalloc: vreg index out of range")

	// ErrSpillPoolExhausted: N_SPILL64S is too small for the program's
	// simultaneously-live vreg count.
	ErrSpillPoolExhausted = errors.New("regalloc: spill slot pool exhausted")

	// ErrClassMismatch: an rreg/vreg binding would cross register classes.
	ErrClassMismatch = errors.New("regalloc: register class mismatch")

	// ErrNoSuitableRReg: no rreg of the needed class is Free at this
	// instruction and none is Bound to a vreg the instruction leaves
	// unmentioned (every one is Unavail or holds an operand of this same
	// instruction, or the class has no rreg at all), so no register exists
	// to bind the vreg to.
	ErrNoSuitableRReg = errors.New("regalloc: no suitable real register for class")

	// ErrInvariantViolation: one of the stage-5 per-instruction sanity
	// checks failed. Indicates a bug in the allocator itself or in the
	// Target's GetRegUsage/IsMove implementation.
	ErrInvariantViolation = errors.New("regalloc: internal invariant violated")
)
