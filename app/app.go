//go:build linux

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/igt-go/intel-gpu-top/device"
	"github.com/igt-go/intel-gpu-top/engine"
	"github.com/igt-go/intel-gpu-top/ierr"
	"github.com/igt-go/intel-gpu-top/pmu"
	"github.com/igt-go/intel-gpu-top/render"
	"github.com/igt-go/intel-gpu-top/render/tui"
	"github.com/igt-go/intel-gpu-top/sample"
)

const (
	sysfsDeviceRoot  = "/sys/class/drm"
	sysfsDevicesRoot = "/sys/devices"
	sysfsPowerDir    = "power"
	sysfsIMCDir      = "uncore_imc"
)

// Options configures one invocation of Run, mapping directly to the CLI
// flags of spec.md §6.
type Options struct {
	Period       time.Duration
	Output       io.Writer
	OutputIsTTY  bool
	StdinFd      int
	Mode         Mode
	ListDevices  bool
	DeviceFilter string
}

// Run performs the startup sequence and main loop of spec.md §4.7.
func Run(ctx context.Context, log zerolog.Logger, opts Options) error {
	devices, err := device.Discover(os.DirFS(sysfsDeviceRoot))
	if err != nil {
		return fmt.Errorf("discovering devices: %w", err)
	}

	if opts.ListDevices {
		for _, d := range devices {
			fmt.Fprintln(opts.Output, d.String())
		}
		return nil
	}

	dev, err := device.Select(devices, opts.DeviceFilter)
	if err != nil {
		return err
	}
	log.Info().Str("device", dev.String()).Msg("selected device")

	eventsRoot := os.DirFS(sysfsDevicesRoot + "/" + dev.SysfsName())
	engines, err := engine.Discover(eventsRoot)
	if err != nil {
		return fmt.Errorf("discovering engines: %w", err)
	}
	if len(engines) == 0 {
		return fmt.Errorf("%w: no engine events under %s", ierr.ErrPmuUnsupported, dev.SysfsName())
	}

	descriptors := resolveDescriptors(log, eventsRoot, dev)

	sampler, err := sample.NewSampler(log, engines, descriptors)
	if err != nil {
		return fmt.Errorf("opening counters: %w", err)
	}
	defer sampler.Close()

	mode := opts.Mode
	if mode == ModeInteractive && (!opts.OutputIsTTY || opts.Output != os.Stdout) {
		mode = ModeText
	}

	renderer, restoreTerm, err := newRenderer(mode, opts)
	if err != nil && mode == ModeInteractive && errors.Is(err, ierr.ErrTerminalIO) {
		log.Warn().Err(err).Msg("terminal unavailable, falling back to plain text")
		mode = ModeText
		renderer, restoreTerm, err = newRenderer(mode, opts)
	}
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	defer renderer.Close()
	if restoreTerm != nil {
		defer restoreTerm()
	}

	loop := &Loop{
		Mode:     mode,
		Period:   opts.Period,
		Sampler:  sampler,
		Renderer: renderer,
	}
	if mode == ModeInteractive {
		loop.Stdin = newPollStdin(opts.StdinFd)
	}

	return loop.Run(ctx)
}

func resolveDescriptors(log zerolog.Logger, eventsRoot fs.FS, dev device.Device) sample.Descriptors {
	resolve := func(name string) pmu.Descriptor {
		d, err := pmu.Resolve(eventsRoot, name)
		if err != nil {
			log.Warn().Err(err).Str("counter", name).Msg("counter metadata unresolved, treating as absent")
		}
		return d
	}

	d := sample.Descriptors{
		IRQ:           resolve("interrupts"),
		FreqRequested: resolve("frequency-req"),
		FreqActual:    resolve("frequency-act"),
		RC6:           resolve("rc6-residency"),
	}

	if dev.Integrated {
		powerRoot := os.DirFS(sysfsDevicesRoot + "/" + sysfsPowerDir)
		d.HasRAPL = true
		d.GPUEnergy, _ = pmu.Resolve(powerRoot, "energy-gpu")
		d.PackageEnergy, _ = pmu.Resolve(powerRoot, "energy-pkg")
	}

	imcRoot := os.DirFS(sysfsDevicesRoot + "/" + sysfsIMCDir)
	d.IMCReadBytes, _ = pmu.Resolve(imcRoot, "data_read")
	d.IMCWriteBytes, _ = pmu.Resolve(imcRoot, "data_write")

	return d
}

func newRenderer(mode Mode, opts Options) (render.Renderer, func() error, error) {
	switch mode {
	case ModeInteractive:
		t := tui.New(opts.Output, opts.StdinFd)
		restore, err := t.EnableRaw()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ierr.ErrTerminalIO, err)
		}
		return t, restore, nil
	case ModeJSON:
		return render.NewJSON(opts.Output), nil, nil
	case ModePrometheus:
		return render.NewProm(opts.Output), nil, nil
	default:
		return render.NewText(opts.Output), nil, nil
	}
}
