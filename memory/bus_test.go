package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashgrove/goadv32/addr"
)

func TestWorkRAMReadWriteRoundTrip(t *testing.T) {
	b := New()
	b.Write32(addr.WorkRAM1+0x10, 0x12345678, true)
	assert.Equal(t, uint32(0x12345678), b.Read32(addr.WorkRAM1+0x10, true))
}

func TestScratchMirrorsTailOfWorkRAM2(t *testing.T) {
	b := New()
	b.Write8(addr.ScratchMirror, 0x7E, true)
	assert.Equal(t, uint8(0x7E), b.Read8(addr.WorkRAM2+addr.WorkRAM2ScratchOffs, true))
}

func TestFirmwareIsReadOnlyToCPUWrites(t *testing.T) {
	b := New()
	b.LoadFirmware([]byte{0x11, 0x22, 0x33, 0x44})

	b.Write8(addr.Firmware, 0xFF, true)

	panicked, kind, _ := b.Panicked()
	assert.True(t, panicked)
	assert.Equal(t, FaultReadOnlyWrite, kind)

	b.ClearPanic()
	assert.Equal(t, uint8(0x22), b.Read8(addr.Firmware+1, false), "a non-CPU read still sees the loaded image")
}

func TestFirmwareFaultsOnCPUReads(t *testing.T) {
	b := New()
	b.LoadFirmware([]byte{0x11, 0x22, 0x33, 0x44})

	b.Read8(addr.Firmware, true)

	panicked, kind, _ := b.Panicked()
	assert.True(t, panicked, "CPU-initiated reads below the firmware boundary must fault")
	assert.Equal(t, FaultAddress, kind)
}

func TestCartridgeWritesFaultUnlessAllowed(t *testing.T) {
	t.Run("faults by default", func(t *testing.T) {
		b := New()
		b.LoadCartridge([]byte{0, 0, 0, 0})
		b.Write8(addr.CartROM, 0x99, true)
		panicked, kind, _ := b.Panicked()
		assert.True(t, panicked)
		assert.Equal(t, FaultReadOnlyWrite, kind)
	})

	t.Run("succeeds when AllowROMWrites is set", func(t *testing.T) {
		b := New()
		b.AllowROMWrites = true
		b.LoadCartridge([]byte{0, 0, 0, 0})
		b.Write8(addr.CartROM, 0x99, true)
		panicked, _, _ := b.Panicked()
		assert.False(t, panicked)
		assert.Equal(t, uint8(0x99), b.Read8(addr.CartROM, true))
	})
}

func TestUnmappedAddressFaultsOnlyForInternalAccess(t *testing.T) {
	b := New()
	b.Read8(0xFFFFFFFF, false)
	panicked, _, _ := b.Panicked()
	assert.False(t, panicked, "a non-CPU-initiated access to unmapped space doesn't fault")

	b.Read8(0xFFFFFFFF, true)
	panicked, kind, addrOut := b.Panicked()
	assert.True(t, panicked)
	assert.Equal(t, FaultAddress, kind)
	assert.Equal(t, uint32(0xFFFFFFFF), addrOut)
}

func TestStrictModeFaultsOnUnimplementedIOWrite(t *testing.T) {
	b := New()
	b.Strict = true
	b.Write8(addr.IORegs+addr.SoundStart, 0x01, true)

	panicked, _, _ := b.Panicked()
	assert.True(t, panicked)
}

func TestNonStrictModeIgnoresUnimplementedIOWrite(t *testing.T) {
	b := New()
	b.Write8(addr.IORegs+addr.SoundStart, 0x01, true)

	panicked, _, _ := b.Panicked()
	assert.False(t, panicked)
}

func TestIERegisterRoundTrip(t *testing.T) {
	b := New()
	b.Write16(addr.IORegs+addr.RegIE, 0x0203, true)
	assert.Equal(t, uint16(0x0203), b.Read16(addr.IORegs+addr.RegIE, true))
	assert.Equal(t, uint16(0x0203), b.IRQ.IE())
}

func TestClearPanicResets(t *testing.T) {
	b := New()
	b.Read8(0xFFFFFFFF, true)
	b.ClearPanic()
	panicked, kind, _ := b.Panicked()
	assert.False(t, panicked)
	assert.Equal(t, NoFault, kind)
}
