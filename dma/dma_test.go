package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeBus is a flat byte-addressed memory for exercising Engine.Run without
// pulling in the memory package.
type fakeBus struct {
	mem map[uint32]uint32
}

func newFakeBus() *fakeBus { return &fakeBus{mem: make(map[uint32]uint32)} }

func (b *fakeBus) Read32(a uint32) uint32      { return b.mem[a] }
func (b *fakeBus) Write32(a uint32, v uint32)  { b.mem[a] = v }
func (b *fakeBus) Read16(a uint32) uint16      { return uint16(b.mem[a]) }
func (b *fakeBus) Write16(a uint32, v uint16)  { b.mem[a] = uint32(v) }

func controlWord(wordWidth, repeat bool, timing uint8, enable bool) uint16 {
	var v uint16
	if wordWidth {
		v |= 1 << 10
	}
	if repeat {
		v |= 1 << 9
	}
	v |= uint16(timing) << 12
	if enable {
		v |= 1 << 15
	}
	return v
}

func TestRunCopiesWordsAndDisablesWhenNotRepeating(t *testing.T) {
	e := New(nil, nil)
	ch := e.Channel(0)
	ch.Source = 0x1000
	ch.Destination = 0x2000
	e.SetCount(0, 4)
	ch.Control = controlWord(true, false, TimingImmediate, true)

	bus := newFakeBus()
	for i := uint32(0); i < 4; i++ {
		bus.mem[0x1000+i*4] = 0xCAFE0000 + i
	}

	e.Run(0, bus)

	for i := uint32(0); i < 4; i++ {
		assert.Equal(t, 0xCAFE0000+i, bus.mem[0x2000+i*4])
	}
	assert.False(t, enableFlag(e.Channel(0).Control), "a non-repeating channel disables itself after running")
}

func TestZeroCountEncodesMaximum(t *testing.T) {
	e := New(nil, nil)
	assert.Equal(t, uint32(0x4000), e.Channel(0).count())
	assert.Equal(t, uint32(0x10000), e.Channel(3).count())
}

func TestRunFiresIRQCallback(t *testing.T) {
	var raised []int
	e := New(func(n int) { raised = append(raised, n) }, nil)

	ch := e.Channel(2)
	e.SetCount(2, 1)
	ch.Control = controlWord(false, false, TimingImmediate, true) | (1 << 14)

	e.Run(2, newFakeBus())
	assert.Equal(t, []int{2}, raised)
}

func TestCheckFindsLowestImmediateChannel(t *testing.T) {
	e := New(nil, nil)
	e.Channel(1).Control = controlWord(false, false, TimingImmediate, true)
	e.Channel(2).Control = controlWord(false, false, TimingImmediate, true)

	n, ok := e.Check()
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestPollTimingSkipsDisabledAndOtherModes(t *testing.T) {
	e := New(nil, nil)
	e.Channel(0).Control = controlWord(false, false, TimingVBlank, true)
	e.Channel(1).Control = controlWord(false, false, TimingHBlank, true)
	e.Channel(2).Control = controlWord(false, false, TimingVBlank, false) // disabled

	got := e.PollTiming(TimingVBlank)
	assert.Equal(t, []int{0}, got)
}

func TestDecrementStepMovesBackward(t *testing.T) {
	e := New(nil, nil)
	ch := e.Channel(0)
	ch.Source = 0x1000
	ch.Destination = 0x2010
	e.SetCount(0, 2)
	ch.Control = controlWord(true, false, TimingImmediate, true) | (uint16(StepDecrement) << 5)

	bus := newFakeBus()
	bus.mem[0x1000] = 0x11111111
	bus.mem[0x1004] = 0x22222222

	e.Run(0, bus)

	assert.Equal(t, uint32(0x11111111), bus.mem[0x2010])
	assert.Equal(t, uint32(0x22222222), bus.mem[0x200C])
}

func TestReservedSourceStepFaultsAndSkipsTheTransfer(t *testing.T) {
	var faulted []int
	e := New(nil, func(n int) { faulted = append(faulted, n) })
	ch := e.Channel(1)
	ch.Source = 0x1000
	ch.Destination = 0x2000
	e.SetCount(1, 1)
	// source step = 3 (StepIncrementReload), reserved as a source encoding.
	ch.Control = controlWord(true, false, TimingImmediate, true) | (uint16(StepIncrementReload) << 7)

	bus := newFakeBus()
	bus.mem[0x1000] = 0xDEADBEEF

	e.Run(1, bus)

	assert.Equal(t, []int{1}, faulted)
	assert.Equal(t, uint32(0), bus.mem[0x2000], "the transfer must not run once the encoding faults")
	assert.False(t, enableFlag(e.Channel(1).Control))
}
