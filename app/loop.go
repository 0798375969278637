// Package app implements component C7, the control loop: it arbitrates
// terminal resize, stdin keystrokes, signal-driven shutdown, and
// output-mode-specific timing, driving the sampler and renderer
// produced by the lower layers.
package app

import (
	"context"
	"time"

	"github.com/igt-go/intel-gpu-top/render"
	"github.com/igt-go/intel-gpu-top/sample"
)

// Mode selects one of the four output formats of spec.md §6.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeText
	ModeJSON
	ModePrometheus
)

// Keystrokes the interactive renderer reacts to, per spec.md §4.7.
const (
	KeyQuit        = 'q'
	KeyToggleClass = '1'
)

// Sampler is the subset of *sample.Sampler the loop drives.
type Sampler interface {
	Tick() (sample.Sample, error)
}

// StdinPoller reads at most one keystroke, blocking no longer than
// timeout. ok is false if the timeout elapsed with nothing typed.
type StdinPoller interface {
	Poll(timeout time.Duration) (key byte, ok bool, err error)
}

// Sleeper abstracts time.Sleep so the loop can be driven deterministically
// in tests.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// RealSleeper returns the wall-clock Sleeper used in production.
func RealSleeper() Sleeper { return realSleeper{} }

// Loop drives the fixed-interval sampling loop of spec.md §4.7. It owns
// no counters or file descriptors itself — those belong to Sampler and
// Renderer — so Loop.Run can be exercised with fakes of both.
type Loop struct {
	Mode     Mode
	Period   time.Duration
	Sampler  Sampler
	Renderer render.Renderer
	Stdin    StdinPoller // nil outside ModeInteractive
	Sleep    Sleeper

	classView bool
}

// Run executes the loop until ctx is cancelled, the user requests quit
// in interactive mode, or (Prometheus mode) the single scheduled sample
// completes. Mirrors the pseudocode of spec.md §4.7 exactly:
//
//	while not stop:
//	    if mode == prometheus: sleep(period)
//	    pmu_sample()
//	    render(sample)
//	    if mode == prometheus: break
//	    if mode == interactive: process_stdin(period)
//	    else: sleep(period)
func (l *Loop) Run(ctx context.Context) error {
	if l.Sleep == nil {
		l.Sleep = RealSleeper()
	}

	for {
		if ctxDone(ctx) {
			return nil
		}

		if l.Mode == ModePrometheus {
			l.Sleep.Sleep(l.Period)
		}

		s, err := l.Sampler.Tick()
		if err != nil {
			return err
		}

		if err := l.render(s); err != nil {
			return err
		}

		if l.Mode == ModePrometheus {
			return nil
		}

		if l.Mode == ModeInteractive {
			quit, err := l.processStdin()
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		if ctxDone(ctx) {
			return nil
		}
		l.Sleep.Sleep(l.Period)
	}
}

func (l *Loop) render(s sample.Sample) error {
	// Interactive mode suppresses the zero-delta priming sample per
	// spec.md §4.4; the other modes may emit it.
	if l.Mode == ModeInteractive && !s.Primed() {
		return nil
	}

	var classes []sample.Engine
	if l.classView {
		classes = sample.Aggregate(s.Engines)
	}
	return l.Renderer.Render(render.BuildGroups(s, classes))
}

func (l *Loop) processStdin() (quit bool, err error) {
	if l.Stdin == nil {
		l.Sleep.Sleep(l.Period)
		return false, nil
	}
	key, ok, err := l.Stdin.Poll(l.Period)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	switch key {
	case KeyQuit:
		return true, nil
	case KeyToggleClass:
		l.classView = !l.classView
	}
	return false, nil
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
