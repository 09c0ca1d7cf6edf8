// Package keypad owns the 10-bit pressed/released state word and the
// keypad interrupt condition, grounded on jeebie/memory/joypad.go's
// press/release-by-bit-reset shape, generalized from 8 buttons to the 10
// documented here and split into its own package per spec.md §2.
package keypad

import "github.com/ashgrove/goadv32/bit"

// Event is one input transition delivered over the scheduler's input
// channel (spec.md §4.7): Mask names the buttons affected, Press selects
// whether they are being pressed or released.
type Event struct {
	Mask  uint16
	Press bool
}

// Apply performs the press/release named by e.
func (s *State) Apply(e Event) {
	if e.Press {
		s.Press(e.Mask)
	} else {
		s.Release(e.Mask)
	}
}

// State is 0 when pressed, matching the "bitwise-inverted mask" wire format
// documented in spec.md §6.
type State struct {
	keys uint16 // 1 = released, 0 = pressed, low 10 bits meaningful

	cnt uint16 // interrupt enable/condition word (KEYCNT)
}

// New returns a keypad with all keys released.
func New() *State {
	return &State{keys: 0x03FF}
}

// Press marks the bits in mask as pressed.
func (s *State) Press(mask uint16) {
	s.keys &^= mask & 0x03FF
}

// Release marks the bits in mask as released.
func (s *State) Release(mask uint16) {
	s.keys |= mask & 0x03FF
}

// Read returns the 10-bit pressed/released word (KEYINPUT).
func (s *State) Read() uint16 {
	return s.keys & 0x03FF
}

// SetControl writes the interrupt-enable/condition word (KEYCNT).
func (s *State) SetControl(value uint16) {
	s.cnt = value & 0xC3FF
}

// Control returns the interrupt-enable/condition word.
func (s *State) Control() uint16 {
	return s.cnt
}

// IRQEnabled reports whether the keypad interrupt is armed.
func (s *State) IRQEnabled() bool {
	return bit.IsSet(14, uint32(s.cnt))
}

// irqConditionAND reports whether "AND" mode (all selected keys must be
// pressed) is selected instead of "OR" mode (any selected key).
func (s *State) irqConditionAND() bool {
	return bit.IsSet(15, uint32(s.cnt))
}

// Triggered reports whether the current key state satisfies the armed
// interrupt condition.
func (s *State) Triggered() bool {
	if !s.IRQEnabled() {
		return false
	}
	selected := s.cnt & 0x03FF
	pressedMask := (^s.keys) & 0x03FF
	if selected == 0 {
		return false
	}
	if s.irqConditionAND() {
		return pressedMask&selected == selected
	}
	return pressedMask&selected != 0
}
