package cpu

import (
	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/bit"
)

// execWide decodes and executes one wide (32-bit) instruction whose
// condition field has already passed, per the family table of spec.md §4.1.
func (c *CPU) execWide(opcode uint32) int {
	switch {
	case opcode&0x0FFFFFF0 == 0x012FFF10:
		return c.execBranchExchange(opcode)
	case opcode&0x0FBF0FFF == 0x010F0000:
		return c.execMRS(opcode)
	case opcode&0x0DB0F000 == 0x0120F000:
		return c.execMSR(opcode)
	case opcode&0x0FC000F0 == 0x00000090:
		return c.execMultiply(opcode)
	case opcode&0x0F8000F0 == 0x00800090:
		return c.execMultiplyLong(opcode)
	case opcode&0x0FB00FF0 == 0x01000090:
		return c.execSwap(opcode)
	case opcode&0x0E000090 == 0x00000090:
		return c.execHalfwordTransfer(opcode)
	case opcode&0x0F000000 == 0x0F000000:
		return c.execSoftwareInterruptWide(opcode)
	case opcode&0x0E000000 == 0x0A000000:
		return c.execBranchWide(opcode)
	case opcode&0x0E000000 == 0x08000000:
		return c.execBlockTransfer(opcode)
	case opcode&0x0C000000 == 0x04000000:
		return c.execSingleTransfer(opcode)
	case opcode&0x0C000000 == 0x00000000:
		return c.execDataProcessing(opcode)
	default:
		return c.fatalf("cpu: undefined wide instruction %#08x at %#08x", opcode, c.rf.pc-4)
	}
}

// operand2 decodes the shifter operand of a data-processing instruction,
// returning the value and the carry-out the shifter produces (spec.md
// §4.1's operand-2 forms).
func (c *CPU) operand2(opcode uint32) (value uint32, shiftCarry bool) {
	if opcode&(1<<25) != 0 {
		imm8 := opcode & 0xFF
		rot := (opcode >> 8) & 0xF * 2
		return shift(ShiftROR, imm8, rot, false, c.rf.flagC())
	}

	rm := c.regOperand(int(opcode & 0xF))
	kind := uint8((opcode >> 5) & 0x3)
	if opcode&0x10 != 0 {
		rs := (opcode >> 8) & 0xF
		amount := c.rf.Read(int(rs)) & 0xFF
		return shift(kind, rm, amount, false, c.rf.flagC())
	}
	amount := (opcode >> 7) & 0x1F
	return shift(kind, rm, amount, true, c.rf.flagC())
}

// execDataProcessing implements the 16 ALU operations of spec.md §4.1.
func (c *CPU) execDataProcessing(opcode uint32) int {
	op := (opcode >> 21) & 0xF
	sBit := opcode&(1<<20) != 0
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF

	op2, shiftCarry := c.operand2(opcode)
	rnVal := c.regOperand(int(rn))

	var result uint32
	var carry, overflow, logical bool
	writesResult := true

	switch op {
	case 0x0: // AND
		result, carry, logical = rnVal&op2, shiftCarry, true
	case 0x1: // EOR
		result, carry, logical = rnVal^op2, shiftCarry, true
	case 0x2: // SUB
		result, carry, overflow = subFlags(rnVal, op2)
	case 0x3: // RSB
		result, carry, overflow = subFlags(op2, rnVal)
	case 0x4: // ADD
		result, carry, overflow = addFlags(rnVal, op2)
	case 0x5: // ADC
		result, carry, overflow = adcFlags(rnVal, op2, c.rf.flagC())
	case 0x6: // SBC
		result, carry, overflow = sbcFlags(rnVal, op2, c.rf.flagC())
	case 0x7: // RSC
		result, carry, overflow = rscFlags(rnVal, op2, c.rf.flagC())
	case 0x8: // TST
		result, carry, logical, writesResult = rnVal&op2, shiftCarry, true, false
	case 0x9: // TEQ
		result, carry, logical, writesResult = rnVal^op2, shiftCarry, true, false
	case 0xA: // CMP
		result, carry, overflow = subFlags(rnVal, op2)
		writesResult = false
	case 0xB: // CMN
		result, carry, overflow = addFlags(rnVal, op2)
		writesResult = false
	case 0xC: // ORR
		result, carry, logical = rnVal|op2, shiftCarry, true
	case 0xD: // MOV
		result, carry, logical = op2, shiftCarry, true
	case 0xE: // BIC
		result, carry, logical = rnVal&^op2, shiftCarry, true
	case 0xF: // MVN
		result, carry, logical = ^op2, shiftCarry, true
	}

	if writesResult {
		c.rf.Write(int(rd), result)
	}

	if sBit {
		if rd == 15 && writesResult {
			c.exceptionReturn()
		} else {
			v := overflow
			if logical {
				v = c.rf.flagV()
			}
			c.rf.setFlags(sign32(result), result == 0, carry, v)
		}
	}

	cycles := 1
	if rd == 15 && writesResult {
		cycles += 2
	}
	if opcode&(1<<25) == 0 && opcode&0x10 != 0 {
		cycles++
	}
	return cycles
}

func (c *CPU) execMRS(opcode uint32) int {
	rBit := opcode&(1<<22) != 0
	rd := (opcode >> 12) & 0xF
	var value uint32
	if rBit {
		value = c.rf.SPSR(c.rf.mode())
	} else {
		value = c.rf.cpsr
	}
	c.rf.Write(int(rd), value)
	return 1
}

func (c *CPU) execMSR(opcode uint32) int {
	var mask uint32
	if opcode&(1<<19) != 0 {
		mask |= 0xFF000000
	}
	if opcode&(1<<16) != 0 {
		mask |= 0x000000FF
	}

	var operand uint32
	if opcode&(1<<25) != 0 {
		imm8 := opcode & 0xFF
		rot := (opcode >> 8) & 0xF * 2
		operand, _ = shift(ShiftROR, imm8, rot, false, false)
	} else {
		operand = c.rf.Read(int(opcode & 0xF))
	}

	rBit := opcode&(1<<22) != 0
	if rBit {
		cur := c.rf.SPSR(c.rf.mode())
		c.rf.SetSPSR(c.rf.mode(), (cur&^mask)|(operand&mask))
	} else {
		c.rf.cpsr = (c.rf.cpsr &^ mask) | (operand & mask)
	}
	return 1
}

func (c *CPU) execBranchExchange(opcode uint32) int {
	target := c.regOperand(int(opcode & 0xF))
	thumb := target&1 != 0
	c.rf.cpsr = setBit(c.rf.cpsr, addr.BitThumb, thumb)
	c.rf.pc = target &^ 1
	return 3
}

// mulCycles models the magnitude-tiered multiply timing of spec.md §4.1:
// cost grows with the number of significant bytes of the multiplier.
func mulCycles(multiplier uint32) int {
	switch {
	case multiplier < 1<<8:
		return 1
	case multiplier < 1<<16:
		return 2
	case multiplier < 1<<24:
		return 3
	default:
		return 4
	}
}

func (c *CPU) execMultiply(opcode uint32) int {
	rd := (opcode >> 16) & 0xF
	rnAcc := (opcode >> 12) & 0xF
	rs := (opcode >> 8) & 0xF
	rm := opcode & 0xF
	accumulate := opcode&(1<<21) != 0
	sBit := opcode&(1<<20) != 0

	rsVal := c.rf.Read(int(rs))
	result := c.rf.Read(int(rm)) * rsVal
	if accumulate {
		result += c.rf.Read(int(rnAcc))
	}
	c.rf.Write(int(rd), result)
	if sBit {
		c.rf.setFlags(sign32(result), result == 0, c.rf.flagC(), c.rf.flagV())
	}

	cycles := 1 + mulCycles(rsVal)
	if accumulate {
		cycles++
	}
	return cycles
}

func (c *CPU) execMultiplyLong(opcode uint32) int {
	rdHi := (opcode >> 16) & 0xF
	rdLo := (opcode >> 12) & 0xF
	rs := (opcode >> 8) & 0xF
	rm := opcode & 0xF
	signedOp := opcode&(1<<22) != 0
	accumulate := opcode&(1<<21) != 0
	sBit := opcode&(1<<20) != 0

	rmVal := c.rf.Read(int(rm))
	rsVal := c.rf.Read(int(rs))

	var result uint64
	if signedOp {
		result = uint64(int64(int32(rmVal)) * int64(int32(rsVal)))
	} else {
		result = uint64(rmVal) * uint64(rsVal)
	}
	if accumulate {
		acc := uint64(c.rf.Read(int(rdHi)))<<32 | uint64(c.rf.Read(int(rdLo)))
		result += acc
	}

	hi, lo := uint32(result>>32), uint32(result)
	c.rf.Write(int(rdLo), lo)
	c.rf.Write(int(rdHi), hi)
	if sBit {
		c.rf.setFlags(sign32(hi), result == 0, c.rf.flagC(), c.rf.flagV())
	}

	cycles := 2 + mulCycles(rsVal)
	if accumulate {
		cycles++
	}
	return cycles
}

func (c *CPU) execSwap(opcode uint32) int {
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF
	rm := opcode & 0xF
	byteSwap := opcode&(1<<22) != 0

	address := c.rf.Read(int(rn))
	if byteSwap {
		old := c.bus.Read8(address, true)
		c.bus.Write8(address, uint8(c.rf.Read(int(rm))), true)
		c.rf.Write(int(rd), uint32(old))
	} else {
		old := c.bus.Read32(address, true)
		c.bus.Write32(address, c.rf.Read(int(rm)), true)
		c.rf.Write(int(rd), old)
	}
	return 4
}

func (c *CPU) execHalfwordTransfer(opcode uint32) int {
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF
	preIndex := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	immForm := opcode&(1<<22) != 0
	writeback := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0
	sh := (opcode >> 5) & 0x3

	var offset uint32
	if immForm {
		offset = ((opcode >> 4) & 0xF0) | (opcode & 0xF)
	} else {
		offset = c.rf.Read(int(opcode & 0xF))
	}

	base := c.rf.Read(int(rn))
	transferAddr := base
	if preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
	}

	if load {
		var result uint32
		switch sh {
		case 1:
			result = uint32(c.bus.Read16(transferAddr, true))
		case 2:
			result = uint32(int32(int8(c.bus.Read8(transferAddr, true))))
		case 3:
			result = uint32(int32(int16(c.bus.Read16(transferAddr, true))))
		}
		c.rf.Write(int(rd), result)
	} else {
		c.bus.Write16(transferAddr, uint16(c.rf.Read(int(rd))), true)
	}

	if !preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
		c.rf.Write(int(rn), transferAddr)
	} else if writeback {
		c.rf.Write(int(rn), transferAddr)
	}

	cycles := 3
	if load {
		cycles++
	}
	return cycles
}

func (c *CPU) execSingleTransfer(opcode uint32) int {
	registerOffset := opcode&(1<<25) != 0
	preIndex := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	byteTransfer := opcode&(1<<22) != 0
	writeback := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF

	var offset uint32
	if registerOffset {
		kind := uint8((opcode >> 5) & 0x3)
		amount := (opcode >> 7) & 0x1F
		rm := c.rf.Read(int(opcode & 0xF))
		offset, _ = shift(kind, rm, amount, true, c.rf.flagC())
	} else {
		offset = opcode & 0xFFF
	}

	base := c.rf.Read(int(rn))
	transferAddr := base
	if preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
	}

	if load {
		var result uint32
		if byteTransfer {
			result = uint32(c.bus.Read8(transferAddr, true))
		} else {
			result = c.bus.Read32(transferAddr, true)
		}
		c.rf.Write(int(rd), result)
	} else {
		if byteTransfer {
			c.bus.Write8(transferAddr, uint8(c.rf.Read(int(rd))), true)
		} else {
			c.bus.Write32(transferAddr, c.rf.Read(int(rd)), true)
		}
	}

	if !preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
		c.rf.Write(int(rn), transferAddr)
	} else if writeback {
		c.rf.Write(int(rn), transferAddr)
	}

	cycles := 3
	if load {
		cycles++
		if rd == 15 {
			cycles += 2
		}
	}
	return cycles
}

func (c *CPU) execBlockTransfer(opcode uint32) int {
	preIndex := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	sBit := opcode&(1<<22) != 0
	writeback := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0
	rn := (opcode >> 16) & 0xF
	regList := opcode & 0xFFFF

	count := uint32(0)
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}

	base := c.rf.Read(int(rn))
	var start uint32
	switch {
	case up && preIndex:
		start = base + 4
	case up && !preIndex:
		start = base
	case !up && preIndex:
		start = base - count*4
	default: // !up && !preIndex
		start = base - count*4 + 4
	}

	addrv := start
	for reg := 0; reg < 16; reg++ {
		if regList&(1<<uint(reg)) == 0 {
			continue
		}
		if load {
			val := c.bus.Read32(addrv, true)
			c.rf.Write(reg, val)
			if reg == 15 && sBit {
				c.exceptionReturn()
			}
		} else {
			c.bus.Write32(addrv, c.rf.Read(reg), true)
		}
		addrv += 4
	}

	if writeback {
		if up {
			c.rf.Write(int(rn), base+count*4)
		} else {
			c.rf.Write(int(rn), base-count*4)
		}
	}

	cycles := 2 + int(count)
	if load {
		cycles++
	}
	return cycles
}

func (c *CPU) execBranchWide(opcode uint32) int {
	link := opcode&(1<<24) != 0
	offset24 := opcode & 0xFFFFFF
	delta := bit.SignExtend(offset24<<2, 26)

	linkAddr := c.rf.pc
	target := uint32(int32(c.pcOperand()) + delta)
	if link {
		c.rf.Write(14, linkAddr)
	}
	c.rf.pc = target
	return 3
}

func (c *CPU) execSoftwareInterruptWide(opcode uint32) int {
	number := opcode & 0xFFFFFF
	if c.SWIHandler == nil {
		return c.fatalf("cpu: unhandled wide software interrupt %#06x at %#08x", number, c.rf.pc-4)
	}
	c.SWIHandler(c, number)
	return 3
}
