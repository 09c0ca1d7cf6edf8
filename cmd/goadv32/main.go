package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/ashgrove/goadv32/scheduler"
	"github.com/ashgrove/goadv32/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "goadv32"
	app.Description = "A handheld-console core interpreter"
	app.Usage = "goadv32 [options] <cartridge file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "cart",
			Usage: "Path to the cartridge ROM image",
		},
		cli.StringFlag{
			Name:  "firmware",
			Usage: "Path to the firmware image (optional; the core runs with an empty firmware region if omitted)",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run before exiting",
			Value: 60,
		},
		cli.BoolFlag{
			Name:  "strict",
			Usage: "Fault on CPU-initiated writes to unimplemented I/O instead of ignoring them",
		},
		cli.BoolFlag{
			Name:  "allow-rom-writes",
			Usage: "Let writes to cartridge ROM succeed instead of faulting",
		},
		cli.BoolFlag{
			Name:  "from-firmware",
			Usage: "Reset with PC at the firmware entry point instead of the cartridge entry point",
		},
		cli.BoolFlag{
			Name:  "realtime",
			Usage: "Pace frames to wall-clock speed instead of running as fast as possible",
		},
		cli.IntFlag{
			Name:  "clock-hz",
			Usage: "CPU clock rate used for --realtime pacing",
			Value: timing.DefaultClockHz,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("goadv32 exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cartPath := c.String("cart")
	if cartPath == "" {
		if c.NArg() > 0 {
			cartPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no cartridge path provided")
		}
	}

	cart, err := os.ReadFile(cartPath)
	if err != nil {
		return fmt.Errorf("reading cartridge: %w", err)
	}

	sys := scheduler.New()
	sys.Bus.Strict = c.Bool("strict")
	sys.Bus.AllowROMWrites = c.Bool("allow-rom-writes")
	sys.Bus.LoadCartridge(cart)

	if fwPath := c.String("firmware"); fwPath != "" {
		fw, err := os.ReadFile(fwPath)
		if err != nil {
			return fmt.Errorf("reading firmware: %w", err)
		}
		sys.Bus.LoadFirmware(fw)
	}

	if c.Bool("from-firmware") {
		sys.CPU.ResetFromFirmware()
	}

	var limiter timing.Limiter = timing.NoOpLimiter{}
	if c.Bool("realtime") {
		tl := timing.NewTickerLimiter(c.Int("clock-hz"))
		defer tl.Stop()
		limiter = tl
	}

	frames := c.Int("frames")
	slog.Info("running headless", "cart", cartPath, "frames", frames)

	for i := 0; i < frames; i++ {
		limiter.WaitForNextFrame()
		sys.RunFrame()
		if sys.PanicFlag() {
			trace := sys.LastTrace()
			last := "none"
			if len(trace) > 0 {
				t := trace[len(trace)-1]
				last = fmt.Sprintf("pc=%#08x opcode=%#x thumb=%v", t.PC, t.Opcode, t.Thumb)
			}
			return fmt.Errorf("core faulted at frame %d (last instruction: %s)", i, last)
		}
		if i%10 == 0 {
			slog.Debug("frame progress", "completed", i, "total", frames)
		}
	}

	slog.Info("headless run completed", "frames", frames)
	return nil
}
