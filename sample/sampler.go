// Sampler's default counter group is perfgroup, which talks to the real
// perf_event_open syscall and is therefore linux-only; the rest of this
// package (Counter, Sample, Rate, Aggregate) is portable and untagged.
//
//go:build linux

package sample

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/igt-go/intel-gpu-top/engine"
	"github.com/igt-go/intel-gpu-top/perfgroup"
	"github.com/igt-go/intel-gpu-top/pmu"
)

// Descriptors bundles the resolved pmu.Descriptors for every
// non-engine counter the sampler tracks, per spec.md §3's three
// counter groups.
type Descriptors struct {
	// Engine group.
	IRQ           pmu.Descriptor // mandatory: the engine group's anchor counter
	FreqRequested pmu.Descriptor
	FreqActual    pmu.Descriptor
	RC6           pmu.Descriptor

	// RAPL group. Integrated GPUs only; HasRAPL gates whether the
	// sampler attempts to open it at all.
	HasRAPL       bool
	GPUEnergy     pmu.Descriptor
	PackageEnergy pmu.Descriptor

	// IMC group.
	IMCReadBytes  pmu.Descriptor
	IMCWriteBytes pmu.Descriptor
}

// counterGroup is the subset of *perfgroup.Group the sampler needs.
// Kept as an interface so Sampler's shift/scatter/priming logic can be
// unit tested without opening real kernel perf events.
type counterGroup interface {
	Open(typ, config uint64) (int, error)
	Read() (timestamp uint64, values []uint64, err error)
	Len() int
	Close() error
}

// newGroup constructs the real, kernel-backed counter group
// implementation. Tests may replace it to inject a fake.
var newGroup = func() counterGroup { return perfgroup.NewGroup() }

// Sampler drives the fixed-interval sampling loop of component C4. It
// exclusively owns all Counter state; renderers may read a Sample
// during a tick but must not mutate it.
type Sampler struct {
	log zerolog.Logger

	engineGroup counterGroup
	raplGroup   counterGroup
	imcGroup    counterGroup

	sample Sample

	engineCounters []*Counter
	raplCounters   []*Counter
	imcCounters    []*Counter
}

// NewSampler opens the three counter groups and returns a Sampler
// primed to take its first tick. engines is the table produced by
// package engine's Discover; it is copied into runtime Engine records
// that the sampler will update every tick.
//
// Failure to open the IRQ counter — the engine group's anchor — is
// fatal, per spec.md §7: the remaining engine-group counters are
// optional and individually recovered by marking them absent.
func NewSampler(log zerolog.Logger, engines []engine.Engine, d Descriptors) (*Sampler, error) {
	s := &Sampler{
		log:         log,
		engineGroup: newGroup(),
		raplGroup:   newGroup(),
		imcGroup:    newGroup(),
	}

	irq, err := s.openMandatory(s.engineGroup, d.IRQ, "irq")
	if err != nil {
		return nil, err
	}
	s.sample.IRQ = irq
	s.sample.FreqRequested = s.openOptional(s.engineGroup, d.FreqRequested, "frequency_req")
	s.sample.FreqActual = s.openOptional(s.engineGroup, d.FreqActual, "frequency_actual")
	s.sample.RC6 = s.openOptional(s.engineGroup, d.RC6, "rc6-residency")

	s.sample.Engines = make([]Engine, len(engines))
	for i, e := range engines {
		re := Engine{Engine: e}
		re.Busy = s.openOptional(s.engineGroup, e.Busy, e.Name+"-busy")
		if e.HasWait {
			re.Wait = s.openOptional(s.engineGroup, e.Wait, e.Name+"-wait")
		}
		if e.HasSema {
			re.Sema = s.openOptional(s.engineGroup, e.Sema, e.Name+"-sema")
		}
		s.sample.Engines[i] = re
	}

	if d.HasRAPL {
		s.sample.GPUEnergy = s.openOptional(s.raplGroup, d.GPUEnergy, "energy-gpu")
		s.sample.PackageEnergy = s.openOptional(s.raplGroup, d.PackageEnergy, "energy-pkg")
	}

	s.sample.IMCReadBytes = s.openOptional(s.imcGroup, d.IMCReadBytes, "read-bytes")
	s.sample.IMCWriteBytes = s.openOptional(s.imcGroup, d.IMCWriteBytes, "write-bytes")

	s.indexCounters()
	return s, nil
}

// indexCounters builds the flat per-group counter-pointer lists used by
// Tick to scatter a grouped read's values back into their Counters by
// group_index. Must run exactly once, after s.sample.Engines is final:
// the pointers alias into that slice's backing array.
func (s *Sampler) indexCounters() {
	s.engineCounters = []*Counter{&s.sample.IRQ, &s.sample.FreqRequested, &s.sample.FreqActual, &s.sample.RC6}
	for i := range s.sample.Engines {
		e := &s.sample.Engines[i]
		s.engineCounters = append(s.engineCounters, &e.Busy, &e.Wait, &e.Sema)
	}
	s.raplCounters = []*Counter{&s.sample.GPUEnergy, &s.sample.PackageEnergy}
	s.imcCounters = []*Counter{&s.sample.IMCReadBytes, &s.sample.IMCWriteBytes}
}

func (s *Sampler) openMandatory(g counterGroup, d pmu.Descriptor, name string) (Counter, error) {
	idx, err := g.Open(d.Type, d.Config)
	if err != nil {
		return Counter{}, fmt.Errorf("opening mandatory counter %q: %w", name, err)
	}
	return Counter{Descriptor: d, GroupIndex: idx, Present: true}, nil
}

func (s *Sampler) openOptional(g counterGroup, d pmu.Descriptor, name string) Counter {
	idx, err := g.Open(d.Type, d.Config)
	if err != nil {
		s.log.Warn().Err(err).Str("counter", name).Msg("counter unavailable, treating as absent")
		return Counter{Descriptor: d, Present: false}
	}
	return Counter{Descriptor: d, GroupIndex: idx, Present: true}
}

// Tick reads all three counter groups, shifts each Counter's current
// value into previous, and records the new values. The first call after
// NewSampler produces a zero-delta priming sample, per spec.md §4.4.
//
// Group reads happen in the fixed order engine, RAPL, IMC per spec.md
// §5; only the engine group's timestamp becomes the sample's canonical
// timestamp.
func (s *Sampler) Tick() (Sample, error) {
	ts, vals, err := s.engineGroup.Read()
	if err != nil {
		return Sample{}, fmt.Errorf("reading engine group: %w", err)
	}
	shiftAndApply(s.engineCounters, vals)
	s.sample.TimestampPrevious = s.sample.TimestampCurrent
	s.sample.TimestampCurrent = ts
	s.sample.Ticks++
	if s.sample.Ticks == 1 {
		// Priming tick: there is no earlier reading, so previous equals current.
		s.sample.TimestampPrevious = ts
	}

	if s.raplGroup.Len() > 0 {
		_, vals, err := s.raplGroup.Read()
		if err != nil {
			return Sample{}, fmt.Errorf("reading RAPL group: %w", err)
		}
		shiftAndApply(s.raplCounters, vals)
	}

	if s.imcGroup.Len() > 0 {
		_, vals, err := s.imcGroup.Read()
		if err != nil {
			return Sample{}, fmt.Errorf("reading IMC group: %w", err)
		}
		shiftAndApply(s.imcCounters, vals)
	}

	return s.sample, nil
}

// shiftAndApply shifts current into previous for every present counter
// in counters, then writes in the freshly read values by group_index.
func shiftAndApply(counters []*Counter, vals []uint64) {
	for _, c := range counters {
		if !c.Present {
			continue
		}
		c.Previous = c.Current
		if c.GroupIndex < len(vals) {
			c.Current = vals[c.GroupIndex]
		}
	}
}

// Close releases every descriptor owned by the sampler's counter
// groups. Required on all exit paths, per spec.md §5.
func (s *Sampler) Close() error {
	var firstErr error
	for _, g := range []counterGroup{s.engineGroup, s.raplGroup, s.imcGroup} {
		if err := g.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sample returns the most recently taken sample without advancing it.
func (s *Sampler) Sample() Sample {
	return s.sample
}
