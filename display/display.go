// Package display owns the block of display I/O registers (spec.md §3,
// §4.5) and the per-scanline timebase state machine. Grounded on the
// register-holder half of jeebie/video/gpu.go (mode/line/cycles counters,
// STAT-bit IRQ gating) generalized from the Game Boy's 4-mode/456-cycle
// scanline to the documented 1232-cycle, active/H-blank schedule; the
// compositor half of gpu.go (tile/sprite rendering) is out of spec.md §1
// scope and is not carried here — see DESIGN.md.
package display

import "github.com/ashgrove/goadv32/bit"

const (
	ScanlineUnits  = 1232
	ActiveUnits    = 1006 // units 0..1005 are active, H-blank bit clear
	ScanlinesTotal = 228
	VBlankStart    = 160 // scanlines 160..226 are V-blank
)

// DISPSTAT bit positions.
const (
	statVBlank    = 0
	statHBlank    = 1
	statVCount    = 2
	statVBlankIRQ = 3
	statHBlankIRQ = 4
	statVCountIRQ = 5
)

// Event reports interrupt-worthy transitions produced by Advance.
type Event struct {
	EnteredVBlank bool
	EnteredHBlank bool
	VCountMatch   bool
	FrameBoundary bool // scanline wrapped from 227 to 0
}

// Controller is the 88-byte display register block plus the scanline
// counter state machine.
type Controller struct {
	dispcnt uint16
	dispstat uint16
	vcount   uint16

	bgcnt [4]uint16
	bgx   [4]uint16
	bgy   [4]uint16

	win0h, win1h uint16
	win0v, win1v uint16
	winin, winout uint16
	mosaic        uint16
	bldcnt, bldalpha, bldy uint16

	unitInLine int // 0..1231, position within the current scanline
}

// New returns a Controller reset to power-on state.
func New() *Controller {
	return &Controller{}
}

// Advance moves the timebase forward by the given number of cycle units and
// returns the interrupt-relevant transitions observed, per spec.md §4.5.
func (c *Controller) Advance(units int) Event {
	var ev Event
	for i := 0; i < units; i++ {
		wasHBlank := c.unitInLine >= ActiveUnits
		c.unitInLine++
		if c.unitInLine >= ScanlineUnits {
			c.unitInLine = 0
			c.incrementScanline(&ev)
		}
		isHBlank := c.unitInLine >= ActiveUnits
		if !wasHBlank && isHBlank {
			c.setBit(statHBlank, true)
			ev.EnteredHBlank = true
		} else if wasHBlank && !isHBlank {
			c.setBit(statHBlank, false)
		}
	}
	return ev
}

// incrementScanline advances the scanline counter and updates V-blank/
// V-count-match status flags, per spec.md §4.5/§3.
func (c *Controller) incrementScanline(ev *Event) {
	c.vcount = (c.vcount + 1) % ScanlinesTotal
	if c.vcount == 0 {
		ev.FrameBoundary = true
	}

	wasVBlank := c.inVBlank()
	inVBlank := c.vcount >= VBlankStart && c.vcount < ScanlinesTotal-1
	c.setBit(statVBlank, inVBlank)
	if !wasVBlank && inVBlank {
		ev.EnteredVBlank = true
	}

	match := uint16(bit.ExtractBits(uint32(c.dispstat), 15, 8)) == c.vcount
	c.setBit(statVCount, match)
	if match {
		ev.VCountMatch = true
	}
}

func (c *Controller) inVBlank() bool {
	return bit.IsSet(statVBlank, uint32(c.dispstat))
}

func (c *Controller) setBit(index uint8, on bool) {
	c.dispstat = uint16(bit.Assign(index, uint32(c.dispstat), on))
}

// VBlankIRQEnabled reports whether the V-blank interrupt-enable bit is set.
func (c *Controller) VBlankIRQEnabled() bool { return bit.IsSet(statVBlankIRQ, uint32(c.dispstat)) }

// HBlankIRQEnabled reports whether the H-blank interrupt-enable bit is set.
func (c *Controller) HBlankIRQEnabled() bool { return bit.IsSet(statHBlankIRQ, uint32(c.dispstat)) }

// VCountIRQEnabled reports whether the V-count-match interrupt-enable bit is set.
func (c *Controller) VCountIRQEnabled() bool { return bit.IsSet(statVCountIRQ, uint32(c.dispstat)) }

// VCount returns the current scanline counter value.
func (c *Controller) VCount() uint16 { return c.vcount }

// Control returns the display control word (DISPCNT).
func (c *Controller) Control() uint16 { return c.dispcnt }

// BGControl returns the control word for background n (0..3).
func (c *Controller) BGControl(n int) uint16 { return c.bgcnt[n] }

// BGOffset returns the (x, y) scroll offset pair for background n.
func (c *Controller) BGOffset(n int) (x, y uint16) { return c.bgx[n], c.bgy[n] }

// Read16 reads a 16-bit display register at the given byte offset from
// addr.IORegs (i.e. the offsets named Reg* in package addr).
func (c *Controller) Read16(offset uint32) uint16 {
	switch offset {
	case 0x00:
		return c.dispcnt
	case 0x04:
		return c.dispstat
	case 0x06:
		return c.vcount
	case 0x08:
		return c.bgcnt[0]
	case 0x0A:
		return c.bgcnt[1]
	case 0x0C:
		return c.bgcnt[2]
	case 0x0E:
		return c.bgcnt[3]
	case 0x40:
		return c.win0h
	case 0x42:
		return c.win1h
	case 0x44:
		return c.win0v
	case 0x46:
		return c.win1v
	case 0x48:
		return c.winin
	case 0x4A:
		return c.winout
	case 0x4C:
		return c.mosaic
	case 0x50:
		return c.bldcnt
	case 0x52:
		return c.bldalpha
	case 0x54:
		return c.bldy
	default:
		if off, idx, ok := bgOffsetReg(offset); ok {
			if off {
				return c.bgy[idx]
			}
			return c.bgx[idx]
		}
		return 0
	}
}

// Write16 writes a 16-bit display register at the given byte offset.
// Writes to VCOUNT are ignored: it is read-only (spec.md §3).
func (c *Controller) Write16(offset uint32, value uint16) {
	switch offset {
	case 0x00:
		c.dispcnt = value
	case 0x04:
		// Status/VCount-compare bits are writable; the low three status
		// bits (V-blank, H-blank, V-count flags) are hardware-maintained
		// and masked out of CPU writes.
		c.dispstat = (c.dispstat & 0x0007) | (value &^ 0x0007)
	case 0x06:
		// read-only
	case 0x08:
		c.bgcnt[0] = value
	case 0x0A:
		c.bgcnt[1] = value
	case 0x0C:
		c.bgcnt[2] = value
	case 0x0E:
		c.bgcnt[3] = value
	case 0x40:
		c.win0h = value
	case 0x42:
		c.win1h = value
	case 0x44:
		c.win0v = value
	case 0x46:
		c.win1v = value
	case 0x48:
		c.winin = value
	case 0x4A:
		c.winout = value
	case 0x4C:
		c.mosaic = value
	case 0x50:
		c.bldcnt = value
	case 0x52:
		c.bldalpha = value
	case 0x54:
		c.bldy = value
	default:
		if yoff, idx, ok := bgOffsetReg(offset); ok {
			if yoff {
				c.bgy[idx] = value & 0x01FF
			} else {
				c.bgx[idx] = value & 0x01FF
			}
		}
	}
}

// bgOffsetReg maps a register offset onto (isYOffset, bg-index, ok) for the
// eight BGnHOFS/BGnVOFS registers at 0x10..0x1E.
func bgOffsetReg(offset uint32) (isY bool, idx int, ok bool) {
	if offset < 0x10 || offset > 0x1E {
		return false, 0, false
	}
	rel := offset - 0x10
	idx = int(rel / 4)
	isY = rel%4 == 2
	return isY, idx, true
}
