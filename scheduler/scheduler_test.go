package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/dma"
)

func TestStepExecutesOneInstructionAndAdvancesDisplay(t *testing.T) {
	sys := New()
	sys.Bus.LoadCartridge([]byte{0x2A, 0x00, 0xA0, 0xE3}) // MOV R0, #0x2A

	ok := sys.Step()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x2A), sys.CPU.ReadRegister(0))
	assert.Equal(t, addr.ResetVector+4, sys.CPU.PC())
}

func TestPanicFlagStopsStepping(t *testing.T) {
	sys := New()
	sys.Bus.MarkFatal(0xBAD)

	assert.False(t, sys.Step())
	assert.True(t, sys.PanicFlag())

	sys.Reset()
	assert.False(t, sys.PanicFlag())
}

func TestHaltedCoreDoesNotExecuteUntilWoken(t *testing.T) {
	sys := New()
	sys.Bus.LoadCartridge([]byte{0x2A, 0x00, 0xA0, 0xE3}) // MOV R0, #0x2A
	sys.Bus.IRQ.Halt(1 << addr.IRQKeypad)

	sys.Step()
	assert.Equal(t, uint32(0), sys.CPU.ReadRegister(0), "halted core must not execute instructions")
	assert.Equal(t, addr.ResetVector, sys.CPU.PC())

	sys.Bus.Keypad.SetControl((1 << 14) | (1 << addr.KeyA))
	sys.Bus.Keypad.Press(1 << addr.KeyA)
	sys.Step()
	assert.False(t, sys.Bus.IRQ.Halted(), "a matching source must wake the halt")

	sys.Step()
	assert.Equal(t, uint32(0x2A), sys.CPU.ReadRegister(0), "the core resumes executing once woken")
}

func TestKeypadInterruptIsDeliveredOnceUnmasked(t *testing.T) {
	sys := New()
	// MSR CPSR_c, #0x53: supervisor mode, FIQ masked, IRQ unmasked.
	sys.Bus.LoadCartridge([]byte{0x53, 0xF0, 0x21, 0xE3})

	sys.Bus.IRQ.SetIME(1)
	sys.Bus.IRQ.SetIE(1 << addr.IRQKeypad)
	sys.Bus.Keypad.SetControl((1 << 14) | (1 << addr.KeyA))
	sys.Bus.Keypad.Press(1 << addr.KeyA)

	sys.Step()

	assert.Equal(t, addr.ModeIRQ, sys.CPU.Mode())
	assert.Equal(t, addr.IRQVector, sys.CPU.PC())
}

func TestRunFrameTriggersVBlankDMAAndPublishesFrame(t *testing.T) {
	sys := New()

	ch := sys.Bus.DMA.Channel(0)
	ch.Source = addr.WorkRAM1
	ch.Destination = addr.WorkRAM1 + 0x100
	sys.Bus.DMA.SetCount(0, 1)
	ch.Control = uint16(1<<15) | uint16(dma.TimingVBlank)<<12 | (1 << 10) // enabled, vblank timing, 32-bit
	sys.Bus.Write32(addr.WorkRAM1, 0xFEEDFACE, true)

	sys.RunFrame()

	assert.Equal(t, uint32(0xFEEDFACE), sys.Bus.Read32(addr.WorkRAM1+0x100, true))
	select {
	case <-sys.Frames:
	default:
		t.Fatal("expected a published frame after RunFrame")
	}
}

func TestLastTraceRecordsExecutedInstructions(t *testing.T) {
	sys := New()
	sys.Bus.LoadCartridge([]byte{0x2A, 0x00, 0xA0, 0xE3})
	sys.Step()

	trace := sys.LastTrace()
	assert.NotEmpty(t, trace)
	assert.Equal(t, addr.ResetVector, trace[len(trace)-1].PC)
}
