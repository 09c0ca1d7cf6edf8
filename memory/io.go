package memory

import "github.com/ashgrove/goadv32/addr"

// readIO8 dispatches a byte read within the I/O register window
// (spec.md §4.2's per-11-bit-offset sub-ranges).
func (b *Bus) readIO8(offset uint32) uint8 {
	switch {
	case offset <= addr.DisplayEnd:
		return byteOf16(b.Display.Read16(offset&^1), offset&1)
	case offset >= addr.SoundStart && offset <= addr.SoundEnd:
		return 0 // sound is stubbed (spec.md §1 non-goal)
	case offset >= addr.DMAStart && offset <= addr.DMAEnd:
		rel := offset - addr.DMAStart
		return byteOf32(b.DMA.ReadReg32(rel&^3), rel&3)
	case offset >= addr.TimerStart && offset <= addr.TimerEnd:
		return 0 // timers are stubbed (spec.md §1 non-goal)
	case offset == 0x130:
		return byteOf16(b.Keypad.Read(), 0)
	case offset == 0x131:
		return byteOf16(b.Keypad.Read(), 1)
	case offset == 0x132:
		return byteOf16(b.Keypad.Control(), 0)
	case offset == 0x133:
		return byteOf16(b.Keypad.Control(), 1)
	case offset >= addr.SerialStart && offset <= addr.SerialEnd:
		return b.Serial.Read8(offset - addr.SerialStart)
	case offset == addr.RegIE:
		return byteOf16(b.IRQ.IE(), 0)
	case offset == addr.RegIE+1:
		return byteOf16(b.IRQ.IE(), 1)
	case offset == addr.RegIF:
		return byteOf16(b.IRQ.IF(), 0)
	case offset == addr.RegIF+1:
		return byteOf16(b.IRQ.IF(), 1)
	case offset == addr.RegIME:
		return byteOf16(b.IRQ.IME(), 0)
	case offset == addr.RegIME+1:
		return byteOf16(b.IRQ.IME(), 1)
	default:
		return 0 // unimplemented I/O reads as 0 (spec.md §4.2/§7)
	}
}

// writeIO8 dispatches a byte write within the I/O register window.
// internal distinguishes CPU-initiated writes, which fault on unimplemented
// registers when Strict is set (spec.md §7).
func (b *Bus) writeIO8(offset uint32, value uint8, internal bool) {
	switch {
	case offset <= addr.DisplayEnd:
		cur := b.Display.Read16(offset &^ 1)
		b.Display.Write16(offset&^1, mergeByte16(cur, value, offset&1))
	case offset >= addr.SoundStart && offset <= addr.SoundEnd:
		b.unimplementedWrite(internal)
	case offset >= addr.DMAStart && offset <= addr.DMAEnd:
		rel := offset - addr.DMAStart
		word := rel &^ 3
		cur := b.DMA.ReadReg32(word)
		b.DMA.WriteReg32(word, mergeByte32(cur, value, rel&3))
	case offset >= addr.TimerStart && offset <= addr.TimerEnd:
		b.unimplementedWrite(internal)
	case offset == 0x130, offset == 0x131:
		// KEYINPUT is read-only.
	case offset == 0x132:
		b.Keypad.SetControl(mergeByte16(b.Keypad.Control(), value, 0))
	case offset == 0x133:
		b.Keypad.SetControl(mergeByte16(b.Keypad.Control(), value, 1))
	case offset >= addr.SerialStart && offset <= addr.SerialEnd:
		b.Serial.Write8(offset-addr.SerialStart, value)
	case offset == addr.RegIE:
		b.IRQ.SetIE(mergeByte16(b.IRQ.IE(), value, 0))
	case offset == addr.RegIE+1:
		b.IRQ.SetIE(mergeByte16(b.IRQ.IE(), value, 1))
	case offset == addr.RegIF:
		b.IRQ.WriteIF(uint16(value))
	case offset == addr.RegIF+1:
		b.IRQ.WriteIF(uint16(value) << 8)
	case offset == addr.RegIME:
		b.IRQ.SetIME(mergeByte16(b.IRQ.IME(), value, 0))
	case offset == addr.RegIME+1:
		b.IRQ.SetIME(mergeByte16(b.IRQ.IME(), value, 1))
	default:
		b.unimplementedWrite(internal)
	}
}

func (b *Bus) unimplementedWrite(internal bool) {
	if internal && b.Strict {
		b.fault(FaultAddress, 0)
	}
}

func byteOf16(v uint16, which uint32) uint8 {
	if which == 0 {
		return uint8(v)
	}
	return uint8(v >> 8)
}

func mergeByte16(cur uint16, value uint8, which uint32) uint16 {
	if which == 0 {
		return (cur &^ 0x00FF) | uint16(value)
	}
	return (cur &^ 0xFF00) | uint16(value)<<8
}

func byteOf32(v uint32, which uint32) uint8 {
	return uint8(v >> (which * 8))
}

func mergeByte32(cur uint32, value uint8, which uint32) uint32 {
	shift := which * 8
	mask := uint32(0xFF) << shift
	return (cur &^ mask) | uint32(value)<<shift
}
