// Package engine discovers the variable set of GPU engines present on
// the running hardware, component C2 of the sampler. It walks a
// device's sysfs "events" directory, recognizes the kernel's
// "<engine>-busy" naming convention, and derives each engine's class
// and instance from its perf config bitmask.
package engine

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/igt-go/intel-gpu-top/ierr"
	"github.com/igt-go/intel-gpu-top/pmu"
)

// Bit layout of an i915 engine perf config, per spec.md §6:
//
//	bit  0..7   sample selector (busy=0, wait, sema)
//	bit  8..15  instance id           (INSTANCE_BITS = 8)
//	bit 16..23  engine class          (CLASS_SHIFT   = 16)
const (
	sampleBits   = 8
	instanceBits = 8
	classShift   = 16

	sampleMask   = (1 << sampleBits) - 1
	instanceMask = (1 << instanceBits) - 1
	classMask    = 0xFF

	// OtherBase is the 1<<16 threshold above which engine configs of a
	// nonzero class lie. Render-class configs (class 0) fall below it,
	// so Discover does not use it: engine events are recognized by
	// their "-busy" file name instead.
	OtherBase = 1 << 16
)

// Class identifies the functional grouping of a GPU engine.
type Class uint8

const (
	ClassRender Class = iota
	ClassCopy
	ClassVideo
	ClassVideoEnhance
	ClassCompute
)

// HumanName returns the display name intel_gpu_top uses for a class,
// matching the engine-class taxonomy intel_gpu_top's column headers
// encode (RCS->Render/3D, BCS->Blitter, VCS->Video, VECS->VideoEnhance,
// CCS->Compute).
func (c Class) HumanName() string {
	switch c {
	case ClassRender:
		return "Render/3D"
	case ClassCopy:
		return "Blitter"
	case ClassVideo:
		return "Video"
	case ClassVideoEnhance:
		return "VideoEnhance"
	case ClassCompute:
		return "Compute"
	default:
		return fmt.Sprintf("Class%d", uint8(c))
	}
}

// ShortName returns the abbreviated column header intel_gpu_top uses.
func (c Class) ShortName() string {
	switch c {
	case ClassRender:
		return "RCS"
	case ClassCopy:
		return "BCS"
	case ClassVideo:
		return "VCS"
	case ClassVideoEnhance:
		return "VECS"
	case ClassCompute:
		return "CCS"
	default:
		return "???"
	}
}

// Engine describes one discovered GPU execution engine. The Busy, Wait,
// and Sema descriptors are resolved but not yet opened; opening and
// updating is perfgroup's and sample's responsibility.
type Engine struct {
	Name        string // kernel event stem, e.g. "rcs0"
	DisplayName string // e.g. "Render/3D/0"
	Class       Class
	Instance    int

	Busy pmu.Descriptor
	Wait pmu.Descriptor
	Sema pmu.Descriptor

	// HasWait/HasSema record whether the wait/sema siblings exist for
	// this engine; not every engine class exposes all three samples.
	HasWait bool
	HasSema bool
}

// Discover walks root's "events" directory, recognizes every
// "<stem>-busy" file, and resolves the full {busy, wait, sema} counter
// triple for each stem it finds. root must additionally expose "type";
// "events/<name>.scale"/".unit" are optional, per package pmu's contract.
//
// Returns a stably sorted (by class, then instance) slice of Engines.
// An empty (nil) result with nil error means the kernel has no PMU
// for this device — callers should treat that as "not supported", per
// spec.md §4.2.
func Discover(root fs.FS) ([]Engine, error) {
	ents, err := fs.ReadDir(root, "events")
	if err != nil {
		// No events directory at all: treat identically to "no engines".
		return nil, nil
	}

	var engines []Engine
	for _, ent := range ents {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		stem, ok := strings.CutSuffix(name, "-busy")
		if !ok || strings.Contains(stem, ".") {
			continue
		}
		if len(stem) > 64 {
			return nil, fmt.Errorf("engine stem %q: %w", stem, ierr.ErrNameTooLong)
		}

		busy, err := pmu.Resolve(root, name)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", stem, err)
		}

		class := Class((busy.Config >> classShift) & classMask)
		instance := int((busy.Config >> instanceBits) & instanceMask)
		if busy.Config&sampleMask != 0 {
			// The "-busy" event is defined to be sample selector 0.
			return nil, fmt.Errorf("engine %q: sample selector %d != 0: %w", stem, busy.Config&sampleMask, ierr.ErrBadConfig)
		}

		e := Engine{
			Name:     stem,
			Class:    class,
			Instance: instance,
		}
		e.DisplayName = fmt.Sprintf("%s/%d", class.HumanName(), instance)
		e.Busy = busy

		if wait, err := pmu.Resolve(root, stem+"-wait"); err == nil {
			e.Wait = wait
			e.HasWait = true
		}
		if sema, err := pmu.Resolve(root, stem+"-sema"); err == nil {
			e.Sema = sema
			e.HasSema = true
		}

		engines = append(engines, e)
	}

	sort.SliceStable(engines, func(i, j int) bool {
		if engines[i].Class != engines[j].Class {
			return engines[i].Class < engines[j].Class
		}
		return engines[i].Instance < engines[j].Instance
	})

	return engines, nil
}

// Classes folds a discovered engine list into the distinct classes
// present, in the same stable order Discover returns engines, each
// annotated with how many engines belong to it — the EngineClass table
// of spec.md §3, used only by the aggregated view.
func Classes(engines []Engine) []ClassInfo {
	var out []ClassInfo
	seen := map[Class]int{}
	for _, e := range engines {
		if idx, ok := seen[e.Class]; ok {
			out[idx].Count++
			continue
		}
		seen[e.Class] = len(out)
		out = append(out, ClassInfo{Class: e.Class, Count: 1})
	}
	return out
}

// ClassInfo is the EngineClass record of spec.md §3.
type ClassInfo struct {
	Class Class
	Count int
}
