// Package syscall implements the firmware high-level service table of
// spec.md §6: the SWI-dispatched calls a cartridge program uses instead of
// touching hardware registers directly (RAM clear, halt/interrupt-wait,
// signed divide, block copy/fill). Grounded on the teacher's per-opcode
// dispatch shape in jeebie/cpu/opcodes.go, one function per service number
// registered in a map rather than inlined into the decoder, which keeps the
// cpu package free of any knowledge of firmware semantics (wired in by the
// scheduler at startup via cpu.CPU.SWIHandler).
package syscall

import (
	"fmt"
	"log/slog"

	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/cpu"
)

// Service numbers, per spec.md §6.
const (
	RAMReset      uint32 = 0x01
	Halt          uint32 = 0x02
	IntrWait      uint32 = 0x04
	VBlankIntrWait uint32 = 0x05
	Div           uint32 = 0x06
	DivArm        uint32 = 0x07
	CPUSet        uint32 = 0x0B
	CPUFastSet    uint32 = 0x0C
)

// RAMReset flag bits (r0), modeled on the documented region-clear mask.
const (
	ramResetWRAM1 uint32 = 1 << iota
	ramResetWRAM2
	ramResetPalette
	ramResetVRAM
	ramResetOAM
	ramResetSerial
)

// Dispatch services one SWI call. It is installed as cpu.CPU.SWIHandler by
// the scheduler, so it never runs except from inside CPU.Step.
func Dispatch(c *cpu.CPU, number uint32) {
	switch number {
	case RAMReset:
		ramReset(c)
	case Halt:
		c.Bus().IRQ.Halt(0xFFFF)
	case IntrWait:
		intrWait(c)
	case VBlankIntrWait:
		c.Bus().IRQ.WriteIF(1 << addr.IRQVBlank)
		c.Bus().IRQ.Halt(1 << addr.IRQVBlank)
	case Div:
		divide(c, 0, 1)
	case DivArm:
		divide(c, 1, 0)
	case CPUSet:
		cpuSet(c, false)
	case CPUFastSet:
		cpuSet(c, true)
	default:
		c.Fatal(fmt.Sprintf("unknown firmware service %#02x", number))
	}
}

func ramReset(c *cpu.CPU) {
	flags := c.ReadRegister(0)
	bus := c.Bus()
	slog.Debug("firmware RAM reset", "flags", flags)

	if flags&ramResetWRAM1 != 0 {
		for a := addr.WorkRAM1; a <= addr.WorkRAM1End; a++ {
			bus.Write8(a, 0, true)
		}
	}
	if flags&ramResetWRAM2 != 0 {
		// The top 0x200 bytes hold the stacks the firmware itself is
		// running on; leave them untouched, matching documented behavior.
		for a := addr.WorkRAM2; a <= addr.WorkRAM2End-0x200; a++ {
			bus.Write8(a, 0, true)
		}
	}
	if flags&ramResetPalette != 0 {
		for a := addr.Palette; a <= addr.PaletteEnd; a++ {
			bus.Write8(a, 0, true)
		}
	}
	if flags&ramResetVRAM != 0 {
		for a := addr.VRAM; a <= addr.VRAMEnd; a++ {
			bus.Write8(a, 0, true)
		}
	}
	if flags&ramResetOAM != 0 {
		for a := addr.OAM; a <= addr.OAMEnd; a++ {
			bus.Write8(a, 0, true)
		}
	}
	if flags&ramResetSerial != 0 {
		for a := addr.SerialStart; a <= addr.SerialEnd; a++ {
			bus.Write8(addr.IORegs+a, 0, true)
		}
	}
}

// intrWait implements the discard-old/wait-for-new idiom of spec.md §6:
// r0 selects whether currently pending bits in the mask are cleared before
// waiting, r1 is the mask of sources being awaited.
func intrWait(c *cpu.CPU) {
	discardOld := c.ReadRegister(0) != 0
	mask := uint16(c.ReadRegister(1))
	if discardOld {
		c.Bus().IRQ.WriteIF(mask)
	}
	c.Bus().IRQ.Halt(mask)
}

// divide computes a signed quotient/remainder, with numerator and
// denominator register indices supplied by the caller since Div and DivArm
// differ only in which register holds which operand (spec.md §6).
func divide(c *cpu.CPU, numIdx, denIdx int) {
	num := int32(c.ReadRegister(numIdx))
	den := int32(c.ReadRegister(denIdx))
	if den == 0 {
		c.Fatal("division by zero in firmware Div service")
		return
	}
	quotient := num / den
	remainder := num % den
	abs := quotient
	if abs < 0 {
		abs = -abs
	}
	c.WriteRegister(0, uint32(quotient))
	c.WriteRegister(1, uint32(remainder))
	c.WriteRegister(2, uint32(abs))
}

// cpuSet implements the block copy/fill service: r0=source, r1=destination,
// r2=control (bit 24 selects fill-from-single-word mode, bit 26 selects
// 32-bit transfers, bits 0-20 are the transfer count). CpuFastSet always
// transfers 32-bit words and rounds the count up to a multiple of 8, per
// spec.md §6.
func cpuSet(c *cpu.CPU, fast bool) {
	src := c.ReadRegister(0)
	dst := c.ReadRegister(1)
	ctrl := c.ReadRegister(2)

	count := ctrl & 0x1FFFFF
	fill := ctrl&(1<<24) != 0
	wide := fast || ctrl&(1<<26) != 0

	if fast {
		if rem := count % 8; rem != 0 {
			count += 8 - rem
		}
	}

	bus := c.Bus()
	unit := uint32(2)
	if wide {
		unit = 4
	}

	s := src
	d := dst
	for i := uint32(0); i < count; i++ {
		if wide {
			var word uint32
			if fill {
				word = bus.Read32(src, true)
			} else {
				word = bus.Read32(s, true)
			}
			bus.Write32(d, word, true)
		} else {
			var half uint16
			if fill {
				half = bus.Read16(src, true)
			} else {
				half = bus.Read16(s, true)
			}
			bus.Write16(d, half, true)
		}
		if !fill {
			s += unit
		}
		d += unit
	}
}
