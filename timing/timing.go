// Package timing paces headless runs to wall-clock speed. Grounded on
// jeebie/timing/limiter.go and ticker.go (the Limiter interface, a no-op
// implementation for headless/benchmark runs, and a time.Ticker-backed
// real-time implementation), generalized from the Game Boy's fixed 70224
// cycles/frame to the documented 1232x228 scanline timebase of
// display.ScanlineUnits/ScanlinesTotal.
package timing

import (
	"time"

	"github.com/ashgrove/goadv32/display"
)

// CyclesPerFrame is the number of timebase units scheduler.System.Step
// advances per frame (spec.md §4.5).
const CyclesPerFrame = display.ScanlineUnits * display.ScanlinesTotal

// DefaultClockHz is the pacing clock used when no more specific figure is
// supplied; it is an engineering default for --realtime, not a documented
// hardware constant.
const DefaultClockHz = 16 * 1024 * 1024

// FrameDuration returns the wall-clock duration of one frame at clockHz.
func FrameDuration(clockHz int) time.Duration {
	return time.Duration(float64(time.Second) * float64(CyclesPerFrame) / float64(clockHz))
}

// Limiter paces successive calls to WaitForNextFrame.
type Limiter interface {
	WaitForNextFrame()
	Reset()
}

// NoOpLimiter never blocks, for headless/benchmark runs.
type NoOpLimiter struct{}

func (NoOpLimiter) WaitForNextFrame() {}
func (NoOpLimiter) Reset()            {}

// TickerLimiter paces frames to wall-clock time at the given CPU clock
// rate using a time.Ticker.
type TickerLimiter struct {
	ticker  *time.Ticker
	clockHz int
}

// NewTickerLimiter returns a limiter ticking once per frame at clockHz.
func NewTickerLimiter(clockHz int) *TickerLimiter {
	return &TickerLimiter{
		ticker:  time.NewTicker(FrameDuration(clockHz)),
		clockHz: clockHz,
	}
}

func (t *TickerLimiter) WaitForNextFrame() { <-t.ticker.C }

func (t *TickerLimiter) Reset() { t.ticker.Reset(FrameDuration(t.clockHz)) }

// Stop releases the underlying ticker.
func (t *TickerLimiter) Stop() { t.ticker.Stop() }
