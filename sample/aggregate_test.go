package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igt-go/intel-gpu-top/engine"
)

func TestAggregateSumsPairsThenDividesByCount(t *testing.T) {
	engines := []Engine{
		{
			Engine: engine.Engine{Class: engine.ClassVideo, Instance: 0},
			Busy:   Counter{Present: true, Previous: 0, Current: 200_000_000},
		},
		{
			Engine: engine.Engine{Class: engine.ClassVideo, Instance: 1},
			Busy:   Counter{Present: true, Previous: 0, Current: 600_000_000},
		},
	}

	got := Aggregate(engines)
	require.Len(t, got, 1)
	assert.Equal(t, engine.ClassVideo, got[0].Class)
	assert.Equal(t, EngineClassInstance, got[0].Instance)
	// (200e6 + 600e6) / 2 = 400e6, matching the averaged-delta identity.
	assert.Equal(t, uint64(400_000_000), got[0].Busy.Current)

	busy := EngineRate(got[0].Busy, 1.0)
	assert.InDelta(t, 40.0, busy, 1e-9)
}

func TestAggregatePreservesFirstSeenClassOrder(t *testing.T) {
	engines := []Engine{
		{Engine: engine.Engine{Class: engine.ClassVideo}},
		{Engine: engine.Engine{Class: engine.ClassRender}},
		{Engine: engine.Engine{Class: engine.ClassVideo}},
	}
	got := Aggregate(engines)
	require.Len(t, got, 2)
	assert.Equal(t, engine.ClassVideo, got[0].Class)
	assert.Equal(t, engine.ClassRender, got[1].Class)
}

func TestAggregateSkipsAbsentCounterKinds(t *testing.T) {
	engines := []Engine{
		{Engine: engine.Engine{Class: engine.ClassCompute}},
	}
	got := Aggregate(engines)
	require.Len(t, got, 1)
	assert.False(t, got[0].Busy.Present)
	assert.False(t, got[0].Wait.Present)
	assert.False(t, got[0].Sema.Present)
}

func TestAggregateEmptyInputIsEmptyOutput(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
