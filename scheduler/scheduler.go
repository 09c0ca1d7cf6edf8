// Package scheduler ties the cpu, memory, display, dma and irq packages
// into the running system described in spec.md §4.7/§5: one goroutine
// stepping the core, advancing the display timebase, polling DMA at
// blanking boundaries, and delivering interrupts, with a frame-ready
// channel feeding an external renderer and an input channel feeding key
// presses in. Grounded on jeebie/core.go's Emulator (RunUntilFrame's
// cycle-accumulation loop, the debuggerMutex-guarded pause/resume surface)
// and jeebie/events/events.go's buffered-channel scheduling idiom.
package scheduler

import (
	"sync"

	"github.com/ashgrove/goadv32/addr"
	"github.com/ashgrove/goadv32/cpu"
	"github.com/ashgrove/goadv32/dma"
	"github.com/ashgrove/goadv32/keypad"
	"github.com/ashgrove/goadv32/memory"
	"github.com/ashgrove/goadv32/syscall"
)

// Frame marks that a new frame is ready for an external renderer to read
// out of the bus' palette/VRAM/OAM buffers. The compositor itself is out
// of scope (spec.md §1); Sequence lets a consumer detect dropped frames if
// the buffered channel below fills up.
type Frame struct {
	Sequence uint64
}

// frameChannelDepth matches the teacher's events.EventScheduler buffered
// channel depth, sized to tolerate one renderer frame of latency.
const frameChannelDepth = 2

// System owns one core and drives it, per spec.md §4.7.
type System struct {
	CPU *cpu.CPU
	Bus *memory.Bus

	Frames chan Frame
	Input  chan keypad.Event

	frameSeq uint64

	stateMu sync.RWMutex // guards the debugger-surface snapshot below
}

// dmaBus adapts memory.Bus's DMA-facing methods (which always pass
// internal=false) to the narrower dma.Bus interface the engine expects.
type dmaBus struct{ bus *memory.Bus }

func (d dmaBus) Read32(a uint32) uint32         { return d.bus.DMARead32(a) }
func (d dmaBus) Write32(a uint32, v uint32)     { d.bus.DMAWrite32(a, v) }
func (d dmaBus) Read16(a uint32) uint16         { return d.bus.DMARead16(a) }
func (d dmaBus) Write16(a uint32, v uint16)     { d.bus.DMAWrite16(a, v) }

// New wires a fresh core and bus together, installing the firmware service
// dispatcher and sizing the frame/input channels per spec.md §4.7.
func New() *System {
	bus := memory.New()
	core := cpu.New(bus)
	core.SWIHandler = syscall.Dispatch

	return &System{
		CPU:    core,
		Bus:    bus,
		Frames: make(chan Frame, frameChannelDepth),
		Input:  make(chan keypad.Event, 16),
	}
}

// drainInput applies any queued key events without blocking, called once
// per Step so presses/releases take effect promptly but never stall the
// core (spec.md §5).
func (s *System) drainInput() {
	for {
		select {
		case ev := <-s.Input:
			s.Bus.Keypad.Apply(ev)
		default:
			return
		}
	}
}

// Step runs exactly one instruction plus its associated timebase/DMA/IRQ
// bookkeeping, per spec.md §4.7's four-item list. It returns false once the
// bus panic flag is set, at which point the caller must call Reset before
// stepping again.
func (s *System) Step() bool {
	if panicked, _, _ := s.Bus.Panicked(); panicked {
		return false
	}

	s.drainInput()

	// While halted the core issues no instruction; the timebase still
	// advances by a nominal unit so blanking/IRQ bookkeeping below can
	// wake it (spec.md §4.4).
	cycles := 1
	if !s.Bus.IRQ.Halted() {
		var ok bool
		cycles, ok = s.stepCPU()
		if !ok {
			return false
		}
	}

	ev := s.Bus.Display.Advance(cycles)
	if ev.EnteredHBlank {
		for _, ch := range s.Bus.DMA.PollTiming(dma.TimingHBlank) {
			s.Bus.DMA.Run(ch, dmaBus{s.Bus})
		}
	}
	if ev.EnteredVBlank {
		for _, ch := range s.Bus.DMA.PollTiming(dma.TimingVBlank) {
			s.Bus.DMA.Run(ch, dmaBus{s.Bus})
		}
		s.publishFrame()
	}
	if ch, ok := s.Bus.DMA.Check(); ok {
		s.Bus.DMA.Run(ch, dmaBus{s.Bus})
	}

	if ev.EnteredVBlank && s.Bus.Display.VBlankIRQEnabled() {
		s.Bus.IRQ.Raise(addr.IRQVBlank)
	}
	if ev.EnteredHBlank && s.Bus.Display.HBlankIRQEnabled() {
		s.Bus.IRQ.Raise(addr.IRQHBlank)
	}
	if ev.VCountMatch && s.Bus.Display.VCountIRQEnabled() {
		s.Bus.IRQ.Raise(addr.IRQVCount)
	}
	if s.Bus.Keypad.Triggered() {
		s.Bus.IRQ.Raise(addr.IRQKeypad)
	}

	if source, ok := s.Bus.IRQ.Deliverable(s.CPU.CPSR()&addr.BitIRQMask != 0); ok && !s.Bus.IRQ.Halted() {
		s.CPU.TriggerException(source)
	}

	return true
}

// stepCPU runs one CPU.Step, converting an unreachable-decode-path or
// unknown-firmware-service panic into the bus' panic flag instead of
// crashing the scheduler goroutine (spec.md §7).
func (s *System) stepCPU() (cycles int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.Bus.MarkFatal(s.CPU.PC())
			ok = false
		}
	}()
	cycles = s.CPU.Step()
	return cycles, true
}

// publishFrame increments the sequence counter and attempts a non-blocking
// send; a full channel means the renderer fell behind and the frame is
// dropped rather than stalling the core, matching the teacher's
// EventScheduler send idiom.
func (s *System) publishFrame() {
	s.frameSeq++
	select {
	case s.Frames <- Frame{Sequence: s.frameSeq}:
	default:
	}
}

// RunFrame steps the core until a V-blank frame boundary is reached or the
// panic flag is set, whichever comes first.
func (s *System) RunFrame() {
	for {
		before := s.Bus.Display.VCount()
		if !s.Step() {
			return
		}
		after := s.Bus.Display.VCount()
		if after < before { // scanline wrapped: a frame boundary was crossed
			return
		}
	}
}

// Reset reinitializes the core and clears the panic flag, the recovery
// path the debugger surface below exposes (spec.md §6A).
func (s *System) Reset() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.CPU.Reset()
}

// LastTrace returns the most recently executed instructions, oldest first.
func (s *System) LastTrace() []cpu.TraceEntry {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.CPU.Trace()
}

// PanicFlag reports whether the core has hit a fatal address/write fault
// or an unreachable decode path and is no longer being stepped.
func (s *System) PanicFlag() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	panicked, _, _ := s.Bus.Panicked()
	return panicked
}
