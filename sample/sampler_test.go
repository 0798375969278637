//go:build linux

package sample

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igt-go/intel-gpu-top/engine"
	"github.com/igt-go/intel-gpu-top/pmu"
)

// fakeGroup is an in-memory counterGroup: each Open call assigns the
// next group index, or fails if refuseTypes contains the requested
// type; each Read returns the next scripted timestamp and value vector
// (all zeros once the script runs out).
type fakeGroup struct {
	refuseTypes map[uint64]bool
	opened      int
	readings    []uint64 // one value-vector per Read call, flattened per counter in open order
	readIdx     int
	timestamps  []uint64
	closed      bool
}

func (g *fakeGroup) Open(typ, config uint64) (int, error) {
	if g.refuseTypes[typ] {
		return 0, errors.New("refused")
	}
	idx := g.opened
	g.opened++
	return idx, nil
}

func (g *fakeGroup) Read() (uint64, []uint64, error) {
	if g.readIdx >= len(g.timestamps) {
		return 0, make([]uint64, g.opened), nil
	}
	ts := g.timestamps[g.readIdx]
	start := g.readIdx * g.opened
	vals := append([]uint64(nil), g.readings[start:start+g.opened]...)
	g.readIdx++
	return ts, vals, nil
}

func (g *fakeGroup) Len() int   { return g.opened }
func (g *fakeGroup) Close() error { g.closed = true; return nil }

func withFakeGroups(t *testing.T, engineGroup, raplGroup, imcGroup *fakeGroup) {
	t.Helper()
	groups := []*fakeGroup{engineGroup, raplGroup, imcGroup}
	i := 0
	orig := newGroup
	newGroup = func() counterGroup {
		g := groups[i]
		i++
		return g
	}
	t.Cleanup(func() { newGroup = orig })
}

func testEngines() []engine.Engine {
	return []engine.Engine{
		{Name: "rcs0", DisplayName: "Render/3D/0", Class: engine.ClassRender, Instance: 0, HasWait: true, HasSema: true},
	}
}

func TestSamplerPrimingSampleHasZeroDelta(t *testing.T) {
	eg := &fakeGroup{}
	withFakeGroups(t, eg, &fakeGroup{}, &fakeGroup{})

	s, err := NewSampler(zerolog.Nop(), testEngines(), Descriptors{})
	require.NoError(t, err)
	defer s.Close()

	sm, err := s.Tick()
	require.NoError(t, err)
	assert.False(t, sm.Primed())
	assert.Equal(t, 0.0, sm.DeltaSeconds())
}

func TestSamplerComputesBusyPercent(t *testing.T) {
	// Counters opened in order: IRQ, freq_req, freq_act, rc6, busy, wait, sema.
	eg := &fakeGroup{
		timestamps: []uint64{0, 1_000_000_000},
		readings: append(
			append([]uint64{}, 0, 0, 0, 0, 0, 0, 0), // tick 1: all zero
			0, 0, 0, 0, 500_000_000, 0, 0, // tick 2: busy = 5e8 ns
		),
	}
	withFakeGroups(t, eg, &fakeGroup{}, &fakeGroup{})

	s, err := NewSampler(zerolog.Nop(), testEngines(), Descriptors{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Tick() // prime
	require.NoError(t, err)

	sm, err := s.Tick()
	require.NoError(t, err)
	require.True(t, sm.Primed())
	assert.InDelta(t, 1.0, sm.DeltaSeconds(), 1e-9)

	busy := EngineRate(sm.Engines[0].Busy, sm.DeltaSeconds())
	assert.InDelta(t, 50.0, busy, 1e-9)
}

func TestSamplerClampsBusyAbove100(t *testing.T) {
	eg := &fakeGroup{
		timestamps: []uint64{0, 1_000_000_000},
		readings: append(
			append([]uint64{}, 0, 0, 0, 0, 0, 0, 0),
			0, 0, 0, 0, 1_100_000_000, 0, 0, // 1.1e9 ns delta in a 1e9 ns interval
		),
	}
	withFakeGroups(t, eg, &fakeGroup{}, &fakeGroup{})

	s, err := NewSampler(zerolog.Nop(), testEngines(), Descriptors{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Tick()
	require.NoError(t, err)
	sm, err := s.Tick()
	require.NoError(t, err)

	busy := EngineRate(sm.Engines[0].Busy, sm.DeltaSeconds())
	assert.Equal(t, 100.0, busy)
}

func TestSamplerMandatoryIRQFailureIsFatal(t *testing.T) {
	eg := &fakeGroup{refuseTypes: map[uint64]bool{99: true}}
	withFakeGroups(t, eg, &fakeGroup{}, &fakeGroup{})

	_, err := NewSampler(zerolog.Nop(), nil, Descriptors{IRQ: pmu.Descriptor{Type: 99}})
	require.Error(t, err)
}

func TestSamplerOptionalCounterAbsentOnRefusal(t *testing.T) {
	// Refuse RC6's type specifically; IRQ (type 0, default) still opens.
	eg := &fakeGroup{refuseTypes: map[uint64]bool{7: true}}
	withFakeGroups(t, eg, &fakeGroup{}, &fakeGroup{})

	s, err := NewSampler(zerolog.Nop(), nil, Descriptors{RC6: pmu.Descriptor{Type: 7}})
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.sample.RC6.Present)
	assert.True(t, s.sample.IRQ.Present)
}

func TestSamplerClose(t *testing.T) {
	eg := &fakeGroup{}
	rg := &fakeGroup{}
	ig := &fakeGroup{}
	withFakeGroups(t, eg, rg, ig)

	s, err := NewSampler(zerolog.Nop(), nil, Descriptors{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.True(t, eg.closed)
	assert.True(t, rg.closed)
	assert.True(t, ig.closed)
}
