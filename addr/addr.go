// Package addr centralizes the address-space and I/O register constants
// used across memory, cpu, dma, irq and display. Grounded on the naming and
// grouping style of jeebie/addr/io.go (one const block per device), widened
// from the 16-bit Game Boy map to the 32-bit region table in spec.md §3.
package addr

// Region bases, matching spec.md §3's region table.
const (
	Firmware    uint32 = 0x00000000
	FirmwareEnd uint32 = 0x00003FFF

	WorkRAM1    uint32 = 0x02000000
	WorkRAM1End uint32 = 0x0203FFFF

	WorkRAM2    uint32 = 0x03000000
	WorkRAM2End uint32 = 0x03007FFF

	// ScratchMirror re-maps onto the tail of WorkRAM2 (offset WorkRAM2ScratchOffs).
	ScratchMirror       uint32 = 0x03FFFF00
	ScratchMirrorEnd    uint32 = 0x03FFFFFF
	WorkRAM2ScratchOffs uint32 = 0x7F00

	// BIOSIntrFlag is a side-channel word, not backed by WorkRAM2.
	BIOSIntrFlag uint32 = 0x03007FF8
	// UserHandler is the address the firmware IRQ prologue reads to find
	// the installed user interrupt handler.
	UserHandler uint32 = 0x03007FFC

	IORegs    uint32 = 0x04000000
	IORegsEnd uint32 = 0x040003FE

	Palette    uint32 = 0x05000000
	PaletteEnd uint32 = 0x050003FF

	VRAM    uint32 = 0x06000000
	VRAMEnd uint32 = 0x06017FFF

	OAM    uint32 = 0x07000000
	OAMEnd uint32 = 0x070003FF

	CartROM    uint32 = 0x08000000
	CartROMEnd uint32 = 0x09FFFFFC

	// IRQVector is the firmware IRQ service routine entry point.
	IRQVector uint32 = 0x00000018
	// ResetVector is the cartridge entry point used at reset.
	ResetVector uint32 = 0x08000000
	// FirmwareResetVector is the alternative, firmware-first reset PC
	// (spec.md §9 open question, resolved in DESIGN.md).
	FirmwareResetVector uint32 = 0x00000000
)

// I/O register offsets from IORegs, widths as documented in spec.md §3.
const (
	// Display
	RegDISPCNT  uint32 = 0x00
	RegDISPSTAT uint32 = 0x04
	RegVCOUNT   uint32 = 0x06
	RegBG0CNT   uint32 = 0x08
	RegBG1CNT   uint32 = 0x0A
	RegBG2CNT   uint32 = 0x0C
	RegBG3CNT   uint32 = 0x0E
	RegBG0HOFS  uint32 = 0x10
	RegBG0VOFS  uint32 = 0x12
	RegBG1HOFS  uint32 = 0x14
	RegBG1VOFS  uint32 = 0x16
	RegBG2HOFS  uint32 = 0x18
	RegBG2VOFS  uint32 = 0x1A
	RegBG3HOFS  uint32 = 0x1C
	RegBG3VOFS  uint32 = 0x1E
	RegWIN0H    uint32 = 0x40
	RegWIN1H    uint32 = 0x42
	RegWIN0V    uint32 = 0x44
	RegWIN1V    uint32 = 0x46
	RegWININ    uint32 = 0x48
	RegWINOUT   uint32 = 0x4A
	RegMOSAIC   uint32 = 0x4C
	RegBLDCNT   uint32 = 0x50
	RegBLDALPHA uint32 = 0x52
	RegBLDY     uint32 = 0x54
	DisplayEnd  uint32 = 0x56

	// Sound (stubbed, not implemented by the core)
	SoundStart uint32 = 0x60
	SoundEnd   uint32 = 0xA7

	// DMA, four channels of 12 bytes each: SAD(4) DAD(4) CNT_L(2) CNT_H(2)
	DMAStart   uint32 = 0xB0
	DMAChStep  uint32 = 0x0C
	DMA0SAD    uint32 = 0xB0
	DMA0DAD    uint32 = 0xB4
	DMA0CNT_L  uint32 = 0xB8
	DMA0CNT_H  uint32 = 0xBA
	DMAEnd     uint32 = 0xDE

	// Timers (stubbed, not implemented by the core)
	TimerStart uint32 = 0x100
	TimerEnd   uint32 = 0x10E

	// Serial / link
	SerialStart uint32 = 0x120
	SerialEnd   uint32 = 0x15A

	// Interrupt control
	RegIE   uint32 = 0x200
	RegIF   uint32 = 0x202
	RegIME  uint32 = 0x208
	IRQEnd  uint32 = 0x208
)

// Interrupt source bits, indexing into IE/IF.
const (
	IRQVBlank uint8 = iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQCartridge
	IRQDebug0
	IRQDebug1
)

// Processor modes, values of the 4-bit mode field in CPSR.
const (
	ModeUser       uint32 = 0x10
	ModeFIQ        uint32 = 0x11
	ModeIRQ        uint32 = 0x12
	ModeSupervisor uint32 = 0x13
	ModeAbort      uint32 = 0x17
	ModeUndefined  uint32 = 0x1B
	ModeSystem     uint32 = 0x1F
)

// CPSR bit positions.
const (
	FlagV uint32 = 1 << 28
	FlagC uint32 = 1 << 29
	FlagZ uint32 = 1 << 30
	FlagN uint32 = 1 << 31

	BitIRQMask uint32 = 1 << 7
	BitFIQMask uint32 = 1 << 6
	BitThumb   uint32 = 1 << 5
	ModeMask   uint32 = 0x1F
)

// Button bits of the keypad state word, low bit first.
const (
	KeyA uint16 = iota
	KeyB
	KeySelect
	KeyStart
	KeyRight
	KeyLeft
	KeyUp
	KeyDown
	KeyR
	KeyL
)
