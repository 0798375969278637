// Package render turns a sample.Sample into the renderer-agnostic group/item
// model of spec.md §4.6 and hosts the four concrete renderers (text, JSON,
// Prometheus, TUI) that consume it.
package render

import (
	"github.com/igt-go/intel-gpu-top/sample"
)

// Item is one displayable value: a Counter's rate, already computed, plus
// the formatting metadata every renderer needs (column width, decimal
// precision, unit suffix). Present mirrors the underlying Counter's
// presence so renderers can skip absent items without shifting columns.
type Item struct {
	Key     string
	Label   string
	Unit    string
	Width   int
	Prec    int
	Value   float64
	Present bool
}

// Group is one of the named counter groups spec.md §4.6 enumerates:
// period, frequency, interrupts, rc6, power, imc-bandwidth, then one
// per engine or engine-class.
type Group struct {
	Key   string
	Items []Item
}

// BuildGroups assembles the full ordered group list for one sample. When
// classes is non-nil, the per-engine groups are built from the
// per-class aggregate view instead of the per-instance table, per
// spec.md §4.5's view-toggle semantics.
func BuildGroups(s sample.Sample, classes []sample.Engine) []Group {
	t := s.DeltaSeconds()

	groups := []Group{
		{Key: "period", Items: []Item{
			{Key: "time", Label: "Period", Unit: "s", Width: 5, Prec: 3, Value: t, Present: true},
		}},
		{Key: "frequency", Items: []Item{
			newItem("requested", "Req MHz", "MHz", 4, 0, sample.Rate(s.FreqRequested, t, sample.DivNone, sample.ScaleRaw), s.FreqRequested.Present),
			newItem("actual", "Act MHz", "MHz", 4, 0, sample.Rate(s.FreqActual, t, sample.DivNone, sample.ScaleRaw), s.FreqActual.Present),
		}},
		{Key: "interrupts", Items: []Item{
			newItem("count", "IRQ/s", "irq/s", 8, 0, sample.Rate(s.IRQ, t, sample.DivNone, sample.ScaleRaw), s.IRQ.Present),
		}},
		{Key: "rc6", Items: []Item{
			newItem("value", "RC6", "%", 3, 0, sample.Rate(s.RC6, t, sample.DivNanoToSecond, sample.ScalePercent), s.RC6.Present),
		}},
	}

	if s.GPUEnergy.Present || s.PackageEnergy.Present {
		groups = append(groups, Group{Key: "power", Items: []Item{
			newItem("GPU", "GPU W", "W", 4, 2, sample.Rate(s.GPUEnergy, t, sample.DivNone, scaleOf(s.GPUEnergy)), s.GPUEnergy.Present),
			newItem("Package", "Pkg W", "W", 4, 2, sample.Rate(s.PackageEnergy, t, sample.DivNone, scaleOf(s.PackageEnergy)), s.PackageEnergy.Present),
		}})
	}

	if s.IMCReadBytes.Present || s.IMCWriteBytes.Present {
		groups = append(groups, Group{Key: "imc-bandwidth", Items: []Item{
			newItem("reads", "Rd "+unitOf(s.IMCReadBytes), unitOf(s.IMCReadBytes)+"/s", 6, 0, sample.Rate(s.IMCReadBytes, t, sample.DivNone, scaleOf(s.IMCReadBytes)), s.IMCReadBytes.Present),
			newItem("writes", "Wr "+unitOf(s.IMCWriteBytes), unitOf(s.IMCWriteBytes)+"/s", 6, 0, sample.Rate(s.IMCWriteBytes, t, sample.DivNone, scaleOf(s.IMCWriteBytes)), s.IMCWriteBytes.Present),
		}})
	}

	engines := s.Engines
	if classes != nil {
		engines = classes
	}
	for _, e := range engines {
		groups = append(groups, Group{
			Key: "engines." + e.Name,
			Items: []Item{
				newItem("busy", e.DisplayName+" %busy", "%", 6, 2, sample.EngineRate(e.Busy, t), e.Busy.Present),
				newItem("sema", "%sema", "%", 3, 0, sample.EngineRate(e.Sema, t), e.Sema.Present),
				newItem("wait", "%wait", "%", 3, 0, sample.EngineRate(e.Wait, t), e.Wait.Present),
			},
		})
	}

	return groups
}

func newItem(key, label, unit string, width, prec int, value float64, present bool) Item {
	return Item{Key: key, Label: label, Unit: unit, Width: width, Prec: prec, Value: value, Present: present}
}

func scaleOf(c sample.Counter) float64 {
	if c.Descriptor.Scale == 0 {
		return sample.ScaleRaw
	}
	return c.Descriptor.Scale
}

func unitOf(c sample.Counter) string {
	if c.Descriptor.Unit == "" {
		return "B"
	}
	return c.Descriptor.Unit
}
