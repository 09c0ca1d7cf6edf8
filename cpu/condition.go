package cpu

import "github.com/ashgrove/goadv32/addr"

// conditionPasses evaluates one of the 16 documented condition predicates
// against the N,Z,C,V flags of cpsr (spec.md §4.1).
func conditionPasses(cond uint8, cpsr uint32) bool {
	n := cpsr&addr.FlagN != 0
	z := cpsr&addr.FlagZ != 0
	c := cpsr&addr.FlagC != 0
	v := cpsr&addr.FlagV != 0

	switch cond {
	case 0x0: // EQ
		return z
	case 0x1: // NE
		return !z
	case 0x2: // CS/HS
		return c
	case 0x3: // CC/LO
		return !c
	case 0x4: // MI
		return n
	case 0x5: // PL
		return !n
	case 0x6: // VS
		return v
	case 0x7: // VC
		return !v
	case 0x8: // HI
		return c && !z
	case 0x9: // LS
		return !c || z
	case 0xA: // GE
		return n == v
	case 0xB: // LT
		return n != v
	case 0xC: // GT
		return !z && n == v
	case 0xD: // LE
		return z || n != v
	case 0xE: // AL
		return true
	default: // 0xF always executes (reserved/NV historically, documented as always-execute here)
		return true
	}
}
