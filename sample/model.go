// Package sample implements components C4 (Sampler) and C5 (rate
// calculator & aggregator): it drives the fixed-interval tick loop,
// owns all Counter state, and converts raw deltas into the rates and
// per-class aggregates the renderers display.
package sample

import (
	"github.com/igt-go/intel-gpu-top/engine"
	"github.com/igt-go/intel-gpu-top/pmu"
)

// Counter holds one kernel perf counter's raw state, per spec.md §3.
// Raw values are monotone non-decreasing within a session while
// Present is true; once Present is false the counter contributes
// nothing to any output.
type Counter struct {
	Descriptor pmu.Descriptor
	GroupIndex int
	Present    bool
	Previous   uint64
	Current    uint64
}

// Delta returns Current-Previous. Only meaningful when Present is true
// and at least one tick has completed since the counter was opened.
func (c Counter) Delta() uint64 {
	return c.Current - c.Previous
}

// Engine is the runtime, per-tick view of a discovered GPU engine:
// its immutable identity (embedded from package engine) plus the three
// Counter slots the sampler updates every tick.
type Engine struct {
	engine.Engine

	Busy Counter
	Wait Counter
	Sema Counter
}

// NumCounters reports how many of Busy/Wait/Sema are present.
func (e Engine) NumCounters() int {
	n := 0
	if e.Busy.Present {
		n++
	}
	if e.Wait.Present {
		n++
	}
	if e.Sema.Present {
		n++
	}
	return n
}

// EngineClassInstance is the sentinel Instance value used for synthetic
// per-class aggregate engines built by Aggregate, per spec.md §4.5.
const EngineClassInstance = -1

// Sample is one tick's worth of counter values plus their predecessors,
// per spec.md §3. TimestampCurrent/TimestampPrevious are kernel-supplied
// nanosecond timestamps attached to the engine group's grouped read.
type Sample struct {
	TimestampCurrent  uint64
	TimestampPrevious uint64

	// Ticks counts completed Tick() calls. The kernel's own priming read
	// legitimately reports ts=0, so a zero TimestampPrevious cannot tell
	// a genuine zero reading apart from "no prior tick happened yet" —
	// Ticks is what Primed actually keys off.
	Ticks uint64

	IRQ             Counter
	FreqRequested   Counter
	FreqActual      Counter
	RC6             Counter
	GPUEnergy       Counter
	PackageEnergy   Counter
	IMCReadBytes    Counter
	IMCWriteBytes   Counter

	Engines []Engine
}

// DeltaSeconds returns the wall-clock delta between TimestampCurrent and
// TimestampPrevious, in seconds. Zero on the priming sample, where
// current and previous are the same (non-advancing) reading.
func (s Sample) DeltaSeconds() float64 {
	if s.TimestampCurrent <= s.TimestampPrevious {
		return 0
	}
	return float64(s.TimestampCurrent-s.TimestampPrevious) / 1e9
}

// Primed reports whether this sample has a valid predecessor, i.e.
// whether it is not the very first tick after init. Interactive
// renderers must suppress emission when this is false, per spec.md §4.4.
func (s Sample) Primed() bool {
	return s.Ticks > 1
}
