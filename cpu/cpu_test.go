package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/memory"
)

// loadCartWord installs a cartridge image whose first word (at
// addr.ResetVector) is opcode, little-endian.
func loadCartWord(bus *memory.Bus, opcode uint32) {
	bus.LoadCartridge([]byte{
		byte(opcode), byte(opcode >> 8), byte(opcode >> 16), byte(opcode >> 24),
	})
}

func TestResetVectors(t *testing.T) {
	t.Run("default reset uses the cartridge entry point", func(t *testing.T) {
		c := New(memory.New())
		assert.Equal(t, addr.ResetVector, c.PC())
		assert.Equal(t, addr.ModeSupervisor, c.Mode())
		assert.False(t, c.Thumb())
	})

	t.Run("ResetFromFirmware starts at the firmware vector", func(t *testing.T) {
		c := New(memory.New())
		c.ResetFromFirmware()
		assert.Equal(t, addr.FirmwareResetVector, c.PC())
	})
}

func TestStepMovImmediate(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	loadCartWord(bus, 0xE3A0002A) // MOV R0, #0x2A
	cycles := c.Step()

	assert.Equal(t, uint32(0x2A), c.ReadRegister(0))
	assert.Equal(t, addr.ResetVector+4, c.PC())
	assert.Equal(t, 1, cycles)
}

func TestStepMovSSetsFlagsOnZero(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	loadCartWord(bus, 0xE3B00000) // MOVS R0, #0
	c.Step()

	assert.True(t, c.CPSR()&addr.FlagZ != 0)
	assert.False(t, c.CPSR()&addr.FlagN != 0)
}

func TestConditionalInstructionSkippedWhenFlagsDontMatch(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	loadCartWord(bus, 0x03A0002A) // MOVEQ R0, #0x2A, Z clear
	cycles := c.Step()

	assert.Equal(t, uint32(0), c.ReadRegister(0))
	assert.Equal(t, 1, cycles)
}

func TestTriggerExceptionEntersIRQMode(t *testing.T) {
	c := New(memory.New())
	c.WriteRegister(15, 0x08001000)

	c.TriggerException(addr.IRQVBlank)

	assert.Equal(t, addr.ModeIRQ, c.Mode())
	assert.True(t, c.CPSR()&addr.BitIRQMask != 0)
	assert.Equal(t, addr.IRQVector, c.PC())
	assert.Equal(t, uint32(0x08001004), c.ReadRegister(14))
}

func TestSoftwareInterruptDispatchesToHandler(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	var gotNumber uint32
	c.SWIHandler = func(c *CPU, number uint32) {
		gotNumber = number
	}

	loadCartWord(bus, 0xEF000006) // SWI #6
	c.Step()

	assert.Equal(t, uint32(6), gotNumber)
}

func TestBranchWithLinkSetsLR(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	loadCartWord(bus, 0xEB000000) // BL pc+8
	c.Step()

	assert.Equal(t, addr.ResetVector+4, c.ReadRegister(14))
	assert.Equal(t, addr.ResetVector+8, c.PC())
}

func TestUnimplementedAddressFaultsTheBus(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	loadCartWord(bus, 0xE3A00001) // MOV R0, #1
	c.Step()
	bus.Read32(0xFFFFFFF0, true) // unmapped

	panicked, kind, address := bus.Panicked()
	assert.True(t, panicked)
	assert.Equal(t, memory.FaultAddress, kind)
	assert.Equal(t, uint32(0xFFFFFFF0), address)
}
