package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceEntersHBlankWithinALine(t *testing.T) {
	c := New()
	ev := c.Advance(ActiveUnits - 1)
	assert.False(t, ev.EnteredHBlank)

	ev = c.Advance(1)
	assert.True(t, ev.EnteredHBlank)
}

func TestAdvanceWrapsScanlineAndEntersVBlank(t *testing.T) {
	c := New()
	var last Event
	for line := 0; line < VBlankStart; line++ {
		last = c.Advance(ScanlineUnits)
	}
	assert.True(t, last.EnteredVBlank)
	assert.Equal(t, uint16(VBlankStart), c.VCount())
}

func TestLastScanlineIsNotVBlank(t *testing.T) {
	c := New()
	for line := 0; line < ScanlinesTotal-1; line++ {
		c.Advance(ScanlineUnits)
	}
	assert.Equal(t, uint16(ScanlinesTotal-1), c.VCount())
	assert.False(t, bitSet(c.Read16(0x04), statVBlank), "scanline 227 is the last line, not V-blank")

	ev := c.Advance(ScanlineUnits)
	assert.True(t, ev.FrameBoundary)
	assert.Equal(t, uint16(0), c.VCount())
	assert.False(t, bitSet(c.Read16(0x04), statVBlank), "scanline 0 is not V-blank either")
}

func TestAdvanceSignalsFrameBoundaryAtScanlineZero(t *testing.T) {
	c := New()
	var sawBoundary bool
	for line := 0; line < ScanlinesTotal; line++ {
		ev := c.Advance(ScanlineUnits)
		if ev.FrameBoundary {
			sawBoundary = true
		}
	}
	assert.True(t, sawBoundary)
	assert.Equal(t, uint16(0), c.VCount())
}

func TestWriteDispstatMasksOutStatusBits(t *testing.T) {
	c := New()
	c.Advance(ActiveUnits + 1) // force the H-blank status bit on

	c.Write16(0x04, 0xFFFF)
	// bit1 (H-blank status) must survive the write untouched.
	assert.True(t, c.HBlankIRQEnabled())
	assert.True(t, bitSet(c.Read16(0x04), 1))
}

func TestVCountIsReadOnly(t *testing.T) {
	c := New()
	c.Write16(0x06, 0x1234)
	assert.Equal(t, uint16(0), c.Read16(0x06))
}

func TestBGOffsetRegistersRoundTrip(t *testing.T) {
	c := New()
	c.Write16(0x10, 0x01FF) // BG0HOFS
	c.Write16(0x12, 0x0020) // BG0VOFS
	x, y := c.BGOffset(0)
	assert.Equal(t, uint16(0x01FF), x)
	assert.Equal(t, uint16(0x0020), y)
}

func bitSet(v uint16, index uint8) bool {
	return v&(1<<index) != 0
}
