package bit

import "testing"

func TestCombine32(t *testing.T) {
	tests := []struct {
		high, low uint16
		expected  uint32
	}{
		{0xABCD, 0x1234, 0xABCD1234},
		{0x0000, 0x0000, 0x00000000},
		{0xFFFF, 0xFFFF, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		result := Combine32(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine32(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestCombine16(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
	}

	for _, tt := range tests {
		result := Combine16(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine16(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestIsSetSetClearAssign(t *testing.T) {
	var v uint32 = 0b1010

	if IsSet(0, v) {
		t.Errorf("bit 0 of %04b should be clear", v)
	}
	if !IsSet(1, v) {
		t.Errorf("bit 1 of %04b should be set", v)
	}

	v = Set(0, v)
	if v != 0b1011 {
		t.Errorf("Set(0, 0b1010) = %04b; want 0b1011", v)
	}

	v = Clear(1, v)
	if v != 0b1001 {
		t.Errorf("Clear(1, 0b1011) = %04b; want 0b1001", v)
	}

	v = Assign(2, v, true)
	if v != 0b1101 {
		t.Errorf("Assign(2, 0b1001, true) = %04b; want 0b1101", v)
	}
	v = Assign(2, v, false)
	if v != 0b1001 {
		t.Errorf("Assign(2, 0b1101, false) = %04b; want 0b1001", v)
	}
}

func TestExtractBits(t *testing.T) {
	tests := []struct {
		value              uint32
		highBit, lowBit    uint8
		expected           uint32
	}{
		{0b11010110, 6, 4, 0b101},
		{0xFFFFFFFF, 31, 28, 0xF},
		{0xABCD1234, 15, 0, 0x1234},
	}

	for _, tt := range tests {
		result := ExtractBits(tt.value, tt.highBit, tt.lowBit)
		if result != tt.expected {
			t.Errorf("ExtractBits(%X, %d, %d) = %X; want %X", tt.value, tt.highBit, tt.lowBit, result, tt.expected)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		value    uint32
		bits     uint8
		expected int32
	}{
		{0x7F, 8, 127},
		{0x80, 8, -128},
		{0xFFF, 12, -1},
		{0x7FF, 12, 2047},
	}

	for _, tt := range tests {
		result := SignExtend(tt.value, tt.bits)
		if result != tt.expected {
			t.Errorf("SignExtend(%X, %d) = %d; want %d", tt.value, tt.bits, result, tt.expected)
		}
	}
}

func TestLow16High16(t *testing.T) {
	v := uint32(0xABCD1234)
	if got := Low16(v); got != 0x1234 {
		t.Errorf("Low16(%X) = %X; want 0x1234", v, got)
	}
	if got := High16(v); got != 0xABCD {
		t.Errorf("High16(%X) = %X; want 0xABCD", v, got)
	}
}

func TestRotateRight32(t *testing.T) {
	tests := []struct {
		value    uint32
		amount   uint8
		expected uint32
	}{
		{0x00000001, 1, 0x80000000},
		{0x80000000, 1, 0x40000000},
		{0x12345678, 0, 0x12345678},
		{0x12345678, 32, 0x12345678}, // masked to 0 by &31
		{0x00000001, 8, 0x01000000},
	}

	for _, tt := range tests {
		result := RotateRight32(tt.value, tt.amount)
		if result != tt.expected {
			t.Errorf("RotateRight32(%X, %d) = %X; want %X", tt.value, tt.amount, result, tt.expected)
		}
	}
}
