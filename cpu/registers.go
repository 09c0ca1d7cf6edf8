package cpu

import "github.com/ashgrove/goadv32/addr"

// bankIndex names the six register banks a mode resolves into, per
// spec.md §4.1's banking table. User and System share bank 0.
type bankIndex int

const (
	bankCommon bankIndex = iota // User / System
	bankFIQ
	bankIRQ
	bankSupervisor
	bankAbort
	bankUndefined
	bankCount
)

func modeBank(mode uint32) bankIndex {
	switch mode {
	case addr.ModeFIQ:
		return bankFIQ
	case addr.ModeIRQ:
		return bankIRQ
	case addr.ModeSupervisor:
		return bankSupervisor
	case addr.ModeAbort:
		return bankAbort
	case addr.ModeUndefined:
		return bankUndefined
	default:
		return bankCommon
	}
}

// registerFile holds the banked register storage described in spec.md §3/§4.1.
type registerFile struct {
	low  [8]uint32 // r0..r7, never banked
	r8_12 [2][5]uint32 // [0]=common (User/System/SVC/ABT/IRQ/UND share these), [1]=FIQ-only
	r1314 [bankCount][2]uint32 // r13 (SP), r14 (LR) per bank
	pc    uint32

	cpsr uint32
	spsr [bankCount]uint32 // saved status per mode; bankCommon unused (no SPSR in User/System)
}

func newRegisterFile() *registerFile {
	rf := &registerFile{}
	rf.cpsr = addr.ModeSupervisor | addr.BitIRQMask | addr.BitFIQMask
	return rf
}

func (rf *registerFile) mode() uint32 {
	return rf.cpsr & addr.ModeMask
}

func (rf *registerFile) thumb() bool {
	return rf.cpsr&addr.BitThumb != 0
}

// Read resolves register k against the current mode, per spec.md §4.1.
func (rf *registerFile) Read(k int) uint32 {
	return rf.readMode(k, rf.mode())
}

// Write resolves register k against the current mode and stores value.
func (rf *registerFile) Write(k int, value uint32) {
	rf.writeMode(k, rf.mode(), value)
}

func (rf *registerFile) readMode(k int, mode uint32) uint32 {
	switch {
	case k >= 0 && k <= 7:
		return rf.low[k]
	case k >= 8 && k <= 12:
		bank := 0
		if mode == addr.ModeFIQ {
			bank = 1
		}
		return rf.r8_12[bank][k-8]
	case k == 13:
		return rf.r1314[modeBank(mode)][0]
	case k == 14:
		return rf.r1314[modeBank(mode)][1]
	case k == 15:
		if rf.thumb() {
			return rf.pc &^ 1
		}
		return rf.pc &^ 3
	default:
		panic("cpu: register index out of range")
	}
}

func (rf *registerFile) writeMode(k int, mode uint32, value uint32) {
	switch {
	case k >= 0 && k <= 7:
		rf.low[k] = value
	case k >= 8 && k <= 12:
		bank := 0
		if mode == addr.ModeFIQ {
			bank = 1
		}
		rf.r8_12[bank][k-8] = value
	case k == 13:
		rf.r1314[modeBank(mode)][0] = value
	case k == 14:
		rf.r1314[modeBank(mode)][1] = value
	case k == 15:
		if rf.thumb() {
			rf.pc = value &^ 1
		} else {
			rf.pc = value &^ 3
		}
	default:
		panic("cpu: register index out of range")
	}
}

// SPSR returns the saved status register for the given mode.
func (rf *registerFile) SPSR(mode uint32) uint32 {
	return rf.spsr[modeBank(mode)]
}

// SetSPSR writes the saved status register for the given mode.
func (rf *registerFile) SetSPSR(mode uint32, value uint32) {
	rf.spsr[modeBank(mode)] = value
}

// flag accessors, per spec.md §3's CPSR layout.
func (rf *registerFile) flagN() bool { return rf.cpsr&addr.FlagN != 0 }
func (rf *registerFile) flagZ() bool { return rf.cpsr&addr.FlagZ != 0 }
func (rf *registerFile) flagC() bool { return rf.cpsr&addr.FlagC != 0 }
func (rf *registerFile) flagV() bool { return rf.cpsr&addr.FlagV != 0 }

func (rf *registerFile) setFlags(n, z, c, v bool) {
	rf.cpsr = setBit(rf.cpsr, addr.FlagN, n)
	rf.cpsr = setBit(rf.cpsr, addr.FlagZ, z)
	rf.cpsr = setBit(rf.cpsr, addr.FlagC, c)
	rf.cpsr = setBit(rf.cpsr, addr.FlagV, v)
}

func setBit(v uint32, mask uint32, on bool) uint32 {
	if on {
		return v | mask
	}
	return v &^ mask
}
