package cpu

import (
	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/bit"
)

// execThumb decodes and executes one compact (16-bit) instruction, per the
// 19-format table of spec.md §4.1.
func (c *CPU) execThumb(opcode uint16) int {
	switch {
	case opcode&0xF800 == 0x1800:
		return c.execThumbAddSub(opcode)
	case opcode&0xE000 == 0x0000:
		return c.execThumbMoveShifted(opcode)
	case opcode&0xE000 == 0x2000:
		return c.execThumbImmediate(opcode)
	case opcode&0xFC00 == 0x4000:
		return c.execThumbALU(opcode)
	case opcode&0xFC00 == 0x4400:
		return c.execThumbHiReg(opcode)
	case opcode&0xF800 == 0x4800:
		return c.execThumbPCRelLoad(opcode)
	case opcode&0xF200 == 0x5000:
		return c.execThumbLoadStoreReg(opcode)
	case opcode&0xF200 == 0x5200:
		return c.execThumbLoadStoreSext(opcode)
	case opcode&0xE000 == 0x6000:
		return c.execThumbLoadStoreImm(opcode)
	case opcode&0xF000 == 0x8000:
		return c.execThumbLoadStoreHalf(opcode)
	case opcode&0xF000 == 0x9000:
		return c.execThumbSPRelLoadStore(opcode)
	case opcode&0xF000 == 0xA000:
		return c.execThumbLoadAddress(opcode)
	case opcode&0xFF00 == 0xB000:
		return c.execThumbAddSP(opcode)
	case opcode&0xF600 == 0xB400:
		return c.execThumbPushPop(opcode)
	case opcode&0xF000 == 0xC000:
		return c.execThumbMultipleLoadStore(opcode)
	case opcode&0xFF00 == 0xDF00:
		return c.execThumbSWI(opcode)
	case opcode&0xF000 == 0xD000:
		return c.execThumbConditionalBranch(opcode)
	case opcode&0xF800 == 0xE000:
		return c.execThumbUnconditionalBranch(opcode)
	case opcode&0xF000 == 0xF000:
		return c.execThumbLongBranchLink(opcode)
	default:
		return c.fatalf("cpu: undefined compact instruction %#04x at %#08x", opcode, c.rf.pc-2)
	}
}

func (c *CPU) execThumbMoveShifted(opcode uint16) int {
	op := (opcode >> 11) & 0x3
	offset5 := uint32((opcode >> 6) & 0x1F)
	rs := (opcode >> 3) & 0x7
	rd := opcode & 0x7

	kind := ShiftLSL
	switch op {
	case 1:
		kind = ShiftLSR
	case 2:
		kind = ShiftASR
	}

	result, carry := shift(kind, c.rf.Read(int(rs)), offset5, true, c.rf.flagC())
	c.rf.Write(int(rd), result)
	c.rf.setFlags(sign32(result), result == 0, carry, c.rf.flagV())
	return 1
}

func (c *CPU) execThumbAddSub(opcode uint16) int {
	immForm := opcode&(1<<10) != 0
	subOp := opcode&(1<<9) != 0
	rnImm := uint32((opcode >> 6) & 0x7)
	rs := (opcode >> 3) & 0x7
	rd := opcode & 0x7

	rsVal := c.rf.Read(int(rs))
	var operand uint32
	if immForm {
		operand = rnImm
	} else {
		operand = c.rf.Read(int(rnImm))
	}

	var result uint32
	var carry, overflow bool
	if subOp {
		result, carry, overflow = subFlags(rsVal, operand)
	} else {
		result, carry, overflow = addFlags(rsVal, operand)
	}
	c.rf.Write(int(rd), result)
	c.rf.setFlags(sign32(result), result == 0, carry, overflow)
	return 1
}

func (c *CPU) execThumbImmediate(opcode uint16) int {
	op := (opcode >> 11) & 0x3
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode & 0xFF)
	rdVal := c.rf.Read(int(rd))

	switch op {
	case 0: // MOV
		c.rf.Write(int(rd), imm)
		c.rf.setFlags(sign32(imm), imm == 0, c.rf.flagC(), c.rf.flagV())
	case 1: // CMP
		result, carry, overflow := subFlags(rdVal, imm)
		c.rf.setFlags(sign32(result), result == 0, carry, overflow)
	case 2: // ADD
		result, carry, overflow := addFlags(rdVal, imm)
		c.rf.Write(int(rd), result)
		c.rf.setFlags(sign32(result), result == 0, carry, overflow)
	case 3: // SUB
		result, carry, overflow := subFlags(rdVal, imm)
		c.rf.Write(int(rd), result)
		c.rf.setFlags(sign32(result), result == 0, carry, overflow)
	}
	return 1
}

func (c *CPU) execThumbALU(opcode uint16) int {
	op := (opcode >> 6) & 0xF
	rs := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	rdVal := c.rf.Read(int(rd))
	rsVal := c.rf.Read(int(rs))

	var result uint32
	var carry, overflow bool
	writeResult := true

	switch op {
	case 0x0:
		result, carry = rdVal&rsVal, c.rf.flagC()
	case 0x1:
		result, carry = rdVal^rsVal, c.rf.flagC()
	case 0x2:
		result, carry = shift(ShiftLSL, rdVal, rsVal&0xFF, false, c.rf.flagC())
	case 0x3:
		result, carry = shift(ShiftLSR, rdVal, rsVal&0xFF, false, c.rf.flagC())
	case 0x4:
		result, carry = shift(ShiftASR, rdVal, rsVal&0xFF, false, c.rf.flagC())
	case 0x5:
		result, carry, overflow = adcFlags(rdVal, rsVal, c.rf.flagC())
	case 0x6:
		result, carry, overflow = sbcFlags(rdVal, rsVal, c.rf.flagC())
	case 0x7:
		result, carry = shift(ShiftROR, rdVal, rsVal&0xFF, false, c.rf.flagC())
	case 0x8: // TST
		result, carry, writeResult = rdVal&rsVal, c.rf.flagC(), false
	case 0x9: // NEG
		result, carry, overflow = subFlags(0, rsVal)
	case 0xA: // CMP
		result, carry, overflow = subFlags(rdVal, rsVal)
		writeResult = false
	case 0xB: // CMN
		result, carry, overflow = addFlags(rdVal, rsVal)
		writeResult = false
	case 0xC:
		result, carry = rdVal|rsVal, c.rf.flagC()
	case 0xD: // MUL
		result, carry, overflow = rdVal*rsVal, c.rf.flagC(), c.rf.flagV()
	case 0xE:
		result, carry = rdVal&^rsVal, c.rf.flagC()
	case 0xF:
		result, carry = ^rsVal, c.rf.flagC()
	}

	if writeResult {
		c.rf.Write(int(rd), result)
	}
	c.rf.setFlags(sign32(result), result == 0, carry, overflow)

	cycles := 1
	if op == 0xD {
		cycles += mulCycles(rsVal)
	}
	return cycles
}

func (c *CPU) execThumbHiReg(opcode uint16) int {
	op := (opcode >> 8) & 0x3
	h1 := (opcode >> 7) & 1
	h2 := (opcode >> 6) & 1
	rs := int((opcode>>3)&0x7) + int(h2)*8
	rd := int(opcode&0x7) + int(h1)*8

	switch op {
	case 0: // ADD
		val := c.regOperand(rd) + c.regOperand(rs)
		c.rf.Write(rd, val)
		if rd == 15 {
			return 3
		}
		return 1
	case 1: // CMP
		a, b := c.regOperand(rd), c.regOperand(rs)
		result, carry, overflow := subFlags(a, b)
		c.rf.setFlags(sign32(result), result == 0, carry, overflow)
		return 1
	case 2: // MOV
		val := c.regOperand(rs)
		c.rf.Write(rd, val)
		if rd == 15 {
			return 3
		}
		return 1
	default: // BX
		target := c.regOperand(rs)
		thumb := target&1 != 0
		c.rf.cpsr = setBit(c.rf.cpsr, addr.BitThumb, thumb)
		c.rf.pc = target &^ 1
		return 3
	}
}

func (c *CPU) execThumbPCRelLoad(opcode uint16) int {
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode&0xFF) * 4
	base := c.pcOperand() &^ 3
	val := c.bus.Read32(base+imm, true)
	c.rf.Write(int(rd), val)
	return 3
}

func (c *CPU) execThumbLoadStoreReg(opcode uint16) int {
	loadBit := opcode&(1<<11) != 0
	byteBit := opcode&(1<<10) != 0
	ro := (opcode >> 6) & 0x7
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7

	address := c.rf.Read(int(rb)) + c.rf.Read(int(ro))
	if loadBit {
		var val uint32
		if byteBit {
			val = uint32(c.bus.Read8(address, true))
		} else {
			val = c.bus.Read32(address, true)
		}
		c.rf.Write(int(rd), val)
	} else {
		if byteBit {
			c.bus.Write8(address, uint8(c.rf.Read(int(rd))), true)
		} else {
			c.bus.Write32(address, c.rf.Read(int(rd)), true)
		}
	}
	cycles := 2
	if loadBit {
		cycles++
	}
	return cycles
}

func (c *CPU) execThumbLoadStoreSext(opcode uint16) int {
	hBit := opcode&(1<<11) != 0
	signBit := opcode&(1<<10) != 0
	ro := (opcode >> 6) & 0x7
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	address := c.rf.Read(int(rb)) + c.rf.Read(int(ro))

	if !signBit && !hBit { // STRH
		c.bus.Write16(address, uint16(c.rf.Read(int(rd))), true)
		return 2
	}

	var val uint32
	switch {
	case !signBit && hBit: // LDRH
		val = uint32(c.bus.Read16(address, true))
	case signBit && !hBit: // LDSB
		val = uint32(int32(int8(c.bus.Read8(address, true))))
	default: // LDSH
		val = uint32(int32(int16(c.bus.Read16(address, true))))
	}
	c.rf.Write(int(rd), val)
	return 3
}

func (c *CPU) execThumbLoadStoreImm(opcode uint16) int {
	byteBit := opcode&(1<<12) != 0
	loadBit := opcode&(1<<11) != 0
	offset5 := uint32((opcode >> 6) & 0x1F)
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7

	scaled := offset5 * 4
	if byteBit {
		scaled = offset5
	}
	address := c.rf.Read(int(rb)) + scaled

	if loadBit {
		var val uint32
		if byteBit {
			val = uint32(c.bus.Read8(address, true))
		} else {
			val = c.bus.Read32(address, true)
		}
		c.rf.Write(int(rd), val)
	} else {
		if byteBit {
			c.bus.Write8(address, uint8(c.rf.Read(int(rd))), true)
		} else {
			c.bus.Write32(address, c.rf.Read(int(rd)), true)
		}
	}
	cycles := 2
	if loadBit {
		cycles++
	}
	return cycles
}

func (c *CPU) execThumbLoadStoreHalf(opcode uint16) int {
	loadBit := opcode&(1<<11) != 0
	offset := uint32((opcode>>6)&0x1F) * 2
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	address := c.rf.Read(int(rb)) + offset

	if loadBit {
		c.rf.Write(int(rd), uint32(c.bus.Read16(address, true)))
	} else {
		c.bus.Write16(address, uint16(c.rf.Read(int(rd))), true)
	}
	cycles := 2
	if loadBit {
		cycles++
	}
	return cycles
}

func (c *CPU) execThumbSPRelLoadStore(opcode uint16) int {
	loadBit := opcode&(1<<11) != 0
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode&0xFF) * 4
	address := c.rf.Read(13) + imm

	if loadBit {
		c.rf.Write(int(rd), c.bus.Read32(address, true))
	} else {
		c.bus.Write32(address, c.rf.Read(int(rd)), true)
	}
	cycles := 2
	if loadBit {
		cycles++
	}
	return cycles
}

func (c *CPU) execThumbLoadAddress(opcode uint16) int {
	spBit := opcode&(1<<11) != 0
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode&0xFF) * 4

	var base uint32
	if spBit {
		base = c.rf.Read(13)
	} else {
		base = c.pcOperand() &^ 3
	}
	c.rf.Write(int(rd), base+imm)
	return 1
}

func (c *CPU) execThumbAddSP(opcode uint16) int {
	negative := opcode&(1<<7) != 0
	imm := uint32(opcode&0x7F) * 4
	sp := c.rf.Read(13)
	if negative {
		c.rf.Write(13, sp-imm)
	} else {
		c.rf.Write(13, sp+imm)
	}
	return 1
}

func (c *CPU) execThumbPushPop(opcode uint16) int {
	loadBit := opcode&(1<<11) != 0
	pcLrBit := opcode&(1<<8) != 0
	regList := opcode & 0xFF
	sp := c.rf.Read(13)

	if loadBit {
		address := sp
		for reg := 0; reg < 8; reg++ {
			if regList&(1<<uint(reg)) != 0 {
				c.rf.Write(reg, c.bus.Read32(address, true))
				address += 4
			}
		}
		if pcLrBit {
			c.rf.pc = c.bus.Read32(address, true) &^ 1
			address += 4
		}
		c.rf.Write(13, address)
		return 3
	}

	count := 0
	for reg := 0; reg < 8; reg++ {
		if regList&(1<<uint(reg)) != 0 {
			count++
		}
	}
	if pcLrBit {
		count++
	}
	address := sp - uint32(count)*4
	c.rf.Write(13, address)

	cursor := address
	for reg := 0; reg < 8; reg++ {
		if regList&(1<<uint(reg)) != 0 {
			c.bus.Write32(cursor, c.rf.Read(reg), true)
			cursor += 4
		}
	}
	if pcLrBit {
		c.bus.Write32(cursor, c.rf.Read(14), true)
	}
	return 3
}

func (c *CPU) execThumbMultipleLoadStore(opcode uint16) int {
	loadBit := opcode&(1<<11) != 0
	rb := (opcode >> 8) & 0x7
	regList := opcode & 0xFF
	address := c.rf.Read(int(rb))

	count := 0
	for reg := 0; reg < 8; reg++ {
		if regList&(1<<uint(reg)) != 0 {
			count++
			if loadBit {
				c.rf.Write(reg, c.bus.Read32(address, true))
			} else {
				c.bus.Write32(address, c.rf.Read(reg), true)
			}
			address += 4
		}
	}
	c.rf.Write(int(rb), address)

	cycles := 2 + count
	if loadBit {
		cycles++
	}
	return cycles
}

func (c *CPU) execThumbConditionalBranch(opcode uint16) int {
	cond := uint8((opcode >> 8) & 0xF)
	offset := int32(int8(opcode & 0xFF))

	if conditionPasses(cond, c.rf.cpsr) {
		c.rf.pc = uint32(int32(c.pcOperand()) + offset*2)
		return 3
	}
	return 1
}

func (c *CPU) execThumbSWI(opcode uint16) int {
	number := uint32(opcode & 0xFF)
	if c.SWIHandler == nil {
		return c.fatalf("cpu: unhandled compact software interrupt %#02x at %#08x", number, c.rf.pc-2)
	}
	c.SWIHandler(c, number)
	return 3
}

func (c *CPU) execThumbUnconditionalBranch(opcode uint16) int {
	offset11 := uint32(opcode & 0x7FF)
	delta := bit.SignExtend(offset11<<1, 12)
	c.rf.pc = uint32(int32(c.pcOperand()) + delta)
	return 3
}

func (c *CPU) execThumbLongBranchLink(opcode uint16) int {
	low := opcode&(1<<11) != 0
	offset11 := uint32(opcode & 0x7FF)

	if !low {
		delta := bit.SignExtend(offset11<<12, 23)
		c.rf.Write(14, uint32(int32(c.pcOperand())+delta))
		return 1
	}

	lr := c.rf.Read(14)
	target := lr + offset11*2
	returnAddr := c.rf.pc | 1
	c.rf.Write(14, returnAddr)
	c.rf.pc = target
	return 3
}
