// Package regalloc implements a target-independent linear-scan register
// allocator for a single straight-line instruction stream.
//
// The allocator knows nothing about any particular instruction set: it is
// driven entirely through the Target interface (api.go), the same way the
// register allocators in the MinZ toolchain this package grew out of are
// driven through a target-specific backend.
package regalloc

import "fmt"

// RegClass partitions registers into interchangeable groups. Only registers
// of the same class may ever be substituted for one another.
type RegClass uint8

const (
	ClassInt RegClass = iota
	ClassFloat
	ClassVector

	numRegClasses
)

func (c RegClass) String() string {
	switch c {
	case ClassInt:
		return "int"
	case ClassFloat:
		return "float"
	case ClassVector:
		return "vector"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// HReg is an opaque register handle. It carries whether the register is
// virtual or real, its class, and its index -- nothing else. Two handles
// compare equal (via ==) iff virtuality, class and index all match.
type HReg struct {
	virtual bool
	class   RegClass
	index   int32
}

// VReg constructs a virtual register handle.
func VReg(index int, class RegClass) HReg {
	return HReg{virtual: true, class: class, index: int32(index)}
}

// RReg constructs a real register handle.
func RReg(index int, class RegClass) HReg {
	return HReg{virtual: false, class: class, index: int32(index)}
}

// IsVirtual reports whether h names a virtual register.
func (h HReg) IsVirtual() bool { return h.virtual }

// Class returns h's register class.
func (h HReg) Class() RegClass { return h.class }

// Number returns h's index within its virtual/real, class partition.
func (h HReg) Number() int { return int(h.index) }

func (h HReg) String() string {
	if h.virtual {
		return fmt.Sprintf("v%d<%s>", h.index, h.class)
	}
	return fmt.Sprintf("r%d<%s>", h.index, h.class)
}

// Mode describes how an instruction touches a register it mentions.
type Mode uint8

const (
	// Read: the value is consumed before this instruction executes.
	Read Mode = iota
	// Write: a fresh value is produced with no dependence on prior contents.
	Write
	// Modify: the register is read, then written in place.
	Modify
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "Read"
	case Write:
		return "Write"
	case Modify:
		return "Modify"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}
