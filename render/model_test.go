package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igt-go/intel-gpu-top/engine"
	"github.com/igt-go/intel-gpu-top/sample"
)

func primedSample() sample.Sample {
	return sample.Sample{
		TimestampPrevious: 0,
		TimestampCurrent:  1_000_000_000,
		IRQ:               sample.Counter{Present: true, Previous: 0, Current: 500},
		FreqActual:        sample.Counter{Present: true, Previous: 0, Current: 1200},
		Engines: []sample.Engine{
			{
				Engine: engine.Engine{Name: "rcs0", DisplayName: "Render/3D/0", Class: engine.ClassRender},
				Busy:   sample.Counter{Present: true, Previous: 0, Current: 500_000_000},
			},
		},
	}
}

func TestBuildGroupsOrderAndKeys(t *testing.T) {
	groups := BuildGroups(primedSample(), nil)
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"period", "frequency", "interrupts", "rc6", "engines.rcs0"}, keys)
}

func TestBuildGroupsOmitsAbsentOptionalGroups(t *testing.T) {
	groups := BuildGroups(primedSample(), nil)
	for _, g := range groups {
		assert.NotEqual(t, "power", g.Key)
		assert.NotEqual(t, "imc-bandwidth", g.Key)
	}
}

func TestBuildGroupsIncludesPowerWhenPresent(t *testing.T) {
	s := primedSample()
	s.GPUEnergy = sample.Counter{Present: true, Previous: 0, Current: 10}
	groups := BuildGroups(s, nil)
	var found bool
	for _, g := range groups {
		if g.Key == "power" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildGroupsEngineBusyMatchesRate(t *testing.T) {
	groups := BuildGroups(primedSample(), nil)
	for _, g := range groups {
		if g.Key != "engines.rcs0" {
			continue
		}
		for _, it := range g.Items {
			if it.Key == "busy" {
				require.True(t, it.Present)
				assert.InDelta(t, 50.0, it.Value, 1e-9)
				return
			}
		}
	}
	t.Fatal("engines.rcs0 busy item not found")
}

func TestBuildGroupsUsesClassViewWhenProvided(t *testing.T) {
	classes := []sample.Engine{
		{Engine: engine.Engine{Name: "Video", DisplayName: "Video", Class: engine.ClassVideo, Instance: sample.EngineClassInstance}},
	}
	groups := BuildGroups(primedSample(), classes)
	var found bool
	for _, g := range groups {
		if g.Key == "engines.Video" {
			found = true
		}
	}
	assert.True(t, found)
}
