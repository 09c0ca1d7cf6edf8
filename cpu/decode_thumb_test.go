package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/memory"
)

func TestThumbMoveShiftedLSRProducesCarry(t *testing.T) {
	c := New(memory.New())
	c.rf.cpsr |= addr.BitThumb
	c.WriteRegister(1, 0x80000001)

	// LSR R0, R1, #1
	opcode := uint16(1<<11) | uint16(1<<6) | uint16(1<<3)
	c.execThumb(opcode)

	assert.Equal(t, uint32(0x40000000), c.ReadRegister(0))
	assert.True(t, c.CPSR()&addr.FlagC != 0, "the shifted-out bit becomes carry")
	assert.False(t, c.CPSR()&addr.FlagZ != 0)
}

func TestThumbPushPopRoundTrip(t *testing.T) {
	bus := memory.New()
	c := New(bus)
	c.rf.cpsr |= addr.BitThumb

	// PUSH {R0,R1,LR} then POP {R0,R1,PC}, little-endian in the cartridge.
	bus.LoadCartridge([]byte{0x03, 0xB5, 0x03, 0xBD})

	const sp = addr.WorkRAM2 + 0x40
	const returnAddr = 0x08000100
	c.WriteRegister(0, 0xAAAA5555)
	c.WriteRegister(1, 0x5A5A5A5A)
	c.WriteRegister(13, sp)
	c.WriteRegister(14, returnAddr)

	c.Step() // PUSH
	assert.Equal(t, uint32(sp-12), c.ReadRegister(13))

	r0, r1 := c.ReadRegister(0), c.ReadRegister(1)
	c.WriteRegister(0, 0)
	c.WriteRegister(1, 0)

	c.Step() // POP
	assert.Equal(t, r0, c.ReadRegister(0))
	assert.Equal(t, r1, c.ReadRegister(1))
	assert.Equal(t, uint32(sp), c.ReadRegister(13))
	assert.Equal(t, uint32(returnAddr), c.PC())
}

func TestThumbUnconditionalBranch(t *testing.T) {
	bus := memory.New()
	c := New(bus)
	c.rf.cpsr |= addr.BitThumb

	bus.LoadCartridge([]byte{0x01, 0xE0}) // B pc+2+2 (offset11=1)
	c.Step()

	assert.Equal(t, addr.ResetVector+4+2, c.PC())
}
