// Package cpu implements the dual-ISA interpreter of spec.md §4.1: decode,
// the wide and compact instruction families, condition evaluation, flag
// semantics, banked register access, mode switching and exception
// entry/return. Grounded on the teacher's jeebie/cpu package shape (a CPU
// struct wrapping a bus pointer, a map-keyed opcode dispatch table, each
// opcode function returning a cycle count) generalized from the Game Boy's
// single 8-bit-opcode Z80-like ISA to the documented 32-bit/16-bit dual
// encoding.
package cpu

import (
	"fmt"

	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/memory"
)

// CPU is the register file, decoder and executor for one core.
type CPU struct {
	rf  *registerFile
	bus *memory.Bus

	cycles uint64
	trace  traceRing

	panicMsg string

	// SWIHandler services the firmware call table (spec.md §6): set by the
	// scheduler at wiring time so the cpu package never imports the syscall
	// package directly.
	SWIHandler func(c *CPU, number uint32)
}

// New returns a CPU wired to bus, reset to power-on state.
func New(bus *memory.Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Reset re-initializes registers and mode per spec.md §3's lifecycle rules.
func (c *CPU) Reset() {
	c.rf = newRegisterFile()
	c.rf.pc = addr.ResetVector
	// Per-mode stack pointers, preseeded to documented values.
	c.rf.r1314[bankSupervisor][0] = 0x03007FE0
	c.rf.r1314[bankIRQ][0] = 0x03007FA0
	c.rf.r1314[bankCommon][0] = 0x03007F00
	c.bus.ClearPanic()
	c.panicMsg = ""
}

// ResetFromFirmware re-initializes with PC at the firmware-first reset
// vector, the documented alternative of spec.md §9.
func (c *CPU) ResetFromFirmware() {
	c.Reset()
	c.rf.pc = addr.FirmwareResetVector
}

// PC returns the raw program counter (address of the next fetch).
func (c *CPU) PC() uint32 { return c.rf.pc }

// Mode returns the current processor mode field.
func (c *CPU) Mode() uint32 { return c.rf.mode() }

// CPSR returns the full status word.
func (c *CPU) CPSR() uint32 { return c.rf.cpsr }

// Thumb reports whether the compact encoding is currently selected.
func (c *CPU) Thumb() bool { return c.rf.thumb() }

// ReadRegister resolves register k against the current mode (spec.md §4.1).
func (c *CPU) ReadRegister(k int) uint32 { return c.rf.Read(k) }

// WriteRegister resolves register k against the current mode and stores v.
func (c *CPU) WriteRegister(k int, v uint32) { c.rf.Write(k, v) }

// Trace returns the recorded instruction trace, oldest first.
func (c *CPU) Trace() []TraceEntry { return c.trace.Entries() }

// Cycles returns the running cycle counter.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Bus returns the memory bus this core is wired to, for use by SWIHandler
// implementations that need to move bytes on the firmware's behalf.
func (c *CPU) Bus() *memory.Bus { return c.bus }

// Fatal records reason as the panic message and halts execution by
// panicking, for fatal conditions raised outside the cpu package itself
// (an undefined firmware service number, division by zero).
func (c *CPU) Fatal(reason string) {
	c.fatalf("cpu: %s", reason)
}

// PanicMessage returns the message associated with a fatal condition
// (unknown service number, unreachable decode path), if any.
func (c *CPU) PanicMessage() string { return c.panicMsg }

// Step fetches, decodes and executes one instruction, advancing PC and the
// cycle counter, per spec.md §4.1's public contract.
func (c *CPU) Step() int {
	org := c.rf.pc
	thumb := c.rf.thumb()

	var cycles int
	if thumb {
		opcode := uint32(c.bus.Read16(org, true))
		c.rf.pc = org + 2
		c.trace.push(TraceEntry{PC: org, Opcode: opcode, Thumb: true})
		cycles = c.execThumb(uint16(opcode))
	} else {
		opcode := c.bus.Read32(org, true)
		c.rf.pc = org + 4
		c.trace.push(TraceEntry{PC: org, Opcode: opcode, Thumb: false})
		if conditionPasses(uint8(opcode>>28), c.rf.cpsr) {
			cycles = c.execWide(opcode)
		} else {
			cycles = 1
		}
	}

	c.cycles += uint64(cycles)
	return cycles
}

// regOperand resolves register k as an ALU/addressing operand, substituting
// the pipeline-adjusted PC for r15 (spec.md §4.1).
func (c *CPU) regOperand(k int) uint32 {
	if k == 15 {
		return c.pcOperand()
	}
	return c.rf.Read(k)
}

// pcOperand returns the value register 15 yields as an ALU/addressing
// operand: the pipeline-adjusted PC+8 (wide) / PC+4 (compact) of spec.md
// §4.1. c.rf.pc has already been bumped once by Step, so adding one more
// instruction-size step yields the documented offset.
func (c *CPU) pcOperand() uint32 {
	if c.rf.thumb() {
		return c.rf.pc + 2
	}
	return c.rf.pc + 4
}

// TriggerException performs exception entry for source, the IRQ trigger
// sequence of spec.md §4.1/§4.4.
func (c *CPU) TriggerException(source uint8) {
	returnAddr := c.rf.pc + 4

	oldCPSR := c.rf.cpsr
	c.rf.SetSPSR(addr.ModeIRQ, oldCPSR)

	newCPSR := addr.ModeIRQ
	newCPSR = setBit(newCPSR, addr.BitIRQMask, true)
	// Thumb bit (BitThumb) is implicitly clear: IRQVector code always runs wide.
	c.rf.cpsr = newCPSR

	c.rf.writeMode(14, addr.ModeIRQ, returnAddr)
	c.rf.pc = addr.IRQVector
}

// exceptionReturn restores CPSR from the current mode's saved status,
// atomically with the PC write already performed by the caller — the
// "write to R15 with S-bit set" idiom of spec.md §4.1.
func (c *CPU) exceptionReturn() {
	c.rf.cpsr = c.rf.SPSR(c.rf.mode())
}

func (c *CPU) fatalf(format string, args ...interface{}) int {
	c.panicMsg = fmt.Sprintf(format, args...)
	panic(c.panicMsg)
}
