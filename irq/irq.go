// Package irq owns the interrupt controller's three control words and the
// per-source gating table described in spec.md §4.4. Grounded on the
// teacher's interrupt bookkeeping in jeebie/cpu (IE/IF register reads and
// the handleInterrupts priority scan in cpu/opcodes.go), generalized from a
// fixed 5-bit priority-ordered mask to the documented 16-source table with
// per-source preconditions supplied by the caller.
package irq

import "github.com/ashgrove/goadv32/bit"

// Controller holds IE (enable mask), IF (pending flags) and IME (master
// enable) plus the "firmware pending" word used by the halt/wait idiom
// (spec.md §4.4).
type Controller struct {
	ie  uint16
	iff uint16
	ime uint16

	firmwarePending uint16
	halted          bool
}

// New returns a Controller with all sources masked and IME clear.
func New() *Controller {
	return &Controller{}
}

func (c *Controller) IE() uint16  { return c.ie }
func (c *Controller) IF() uint16  { return c.iff }
func (c *Controller) IME() uint16 { return c.ime }

func (c *Controller) SetIE(v uint16)  { c.ie = v }
func (c *Controller) SetIME(v uint16) { c.ime = v }

// SetIF ORs bits into the pending-flag register (used when a source raises).
func (c *Controller) SetIF(v uint16) { c.iff |= v }

// WriteIF clears pending bits by mask (the documented write-1-to-clear
// semantics for the IF register).
func (c *Controller) WriteIF(v uint16) { c.iff &^= v }

// Halted reports whether the core is in the halt/wait-for-interrupt state.
func (c *Controller) Halted() bool { return c.halted }

// FirmwarePending returns the firmware-pending word backing the BIOS
// interrupt-pending side-channel at addr.BIOSIntrFlag (spec.md §3).
func (c *Controller) FirmwarePending() uint16 { return c.firmwarePending }

// ClearFirmwarePending clears bits in the firmware-pending word by mask
// (value ANDNOT), the documented write semantics of the BIOS
// interrupt-pending word (spec.md §4.2).
func (c *Controller) ClearFirmwarePending(mask uint16) {
	c.firmwarePending &^= mask
}

// Halt sets the halt flag and records the mask of sources being awaited.
// mask of 0xFFFF (all source bits) corresponds to the unconditional halt
// service; a narrower mask corresponds to interrupt-wait (spec.md §4.6).
func (c *Controller) Halt(mask uint16) {
	c.halted = true
	c.firmwarePending = mask
}

// Raise sets bit in IF and, if it is an allowed wake source, clears the
// halt flag (spec.md §4.4: "The halt flag is cleared exactly when an
// allowed interrupt source triggers").
func (c *Controller) Raise(source uint8) {
	c.iff = uint16(bit.Set(source, uint32(c.iff)))
	if c.halted && bit.IsSet(source, uint32(c.firmwarePending)) {
		c.halted = false
	}
}

// masterEnabled reports whether IME's low bit is set.
func (c *Controller) masterEnabled() bool {
	return c.ime&1 != 0
}

// Pending returns the lowest-numbered source bit that is both set in IF and
// enabled in IE, or (0, false) if none.
func (c *Controller) Pending() (source uint8, ok bool) {
	live := c.ie & c.iff
	if live == 0 {
		return 0, false
	}
	for i := uint8(0); i < 16; i++ {
		if bit.IsSet(i, uint32(live)) {
			return i, true
		}
	}
	return 0, false
}

// Deliverable reports whether an allowed source may interrupt the CPU right
// now, given the CPU's own interrupt-mask bit. It does not consult
// per-source device preconditions (display/keypad enable bits); callers
// (the scheduler) must AND those in before calling Raise.
func (c *Controller) Deliverable(cpuMasked bool) (source uint8, ok bool) {
	if cpuMasked || !c.masterEnabled() {
		return 0, false
	}
	return c.Pending()
}
