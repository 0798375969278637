package sample

import "github.com/igt-go/intel-gpu-top/engine"

// Aggregate folds the per-instance engines of a sample into one
// synthetic Engine per class present, per spec.md §4.5. Each synthetic
// engine's busy/wait/sema previous/current pairs are the sum of the
// contributing engines' pairs, each divided by the class's engine
// count — preserving the Rate formula unchanged downstream, since
// summing before dividing by n gives the same result as averaging each
// tick's delta and then dividing:
//
//	agg.current - agg.previous = (Σ engine.current - Σ engine.previous) / n
//	                            = (Σ (engine.current - engine.previous)) / n
//
// The returned slice is in the same class order Discover/Classes
// produce; the instance-level table (Sample.Engines) is untouched.
func Aggregate(engines []Engine) []Engine {
	type accum struct {
		class              engine.Class
		n                  int
		busyPrev, busyCur  float64
		waitPrev, waitCur  float64
		semaPrev, semaCur  float64
		busyPresent        bool
		waitPresent        bool
		semaPresent        bool
	}

	order := make([]engine.Class, 0, 4)
	byClass := map[engine.Class]*accum{}

	for _, e := range engines {
		a, ok := byClass[e.Class]
		if !ok {
			a = &accum{class: e.Class}
			byClass[e.Class] = a
			order = append(order, e.Class)
		}
		a.n++
		if e.Busy.Present {
			a.busyPresent = true
			a.busyPrev += float64(e.Busy.Previous)
			a.busyCur += float64(e.Busy.Current)
		}
		if e.Wait.Present {
			a.waitPresent = true
			a.waitPrev += float64(e.Wait.Previous)
			a.waitCur += float64(e.Wait.Current)
		}
		if e.Sema.Present {
			a.semaPresent = true
			a.semaPrev += float64(e.Sema.Previous)
			a.semaCur += float64(e.Sema.Current)
		}
	}

	out := make([]Engine, 0, len(order))
	for _, class := range order {
		a := byClass[class]
		n := float64(a.n)
		ce := Engine{
			Engine: engine.Engine{
				Name:        class.HumanName(),
				DisplayName: class.HumanName(),
				Class:       class,
				Instance:    EngineClassInstance,
			},
		}
		if a.busyPresent {
			ce.Busy = Counter{Present: true, Previous: uint64(a.busyPrev / n), Current: uint64(a.busyCur / n)}
		}
		if a.waitPresent {
			ce.Wait = Counter{Present: true, Previous: uint64(a.waitPrev / n), Current: uint64(a.waitCur / n)}
		}
		if a.semaPresent {
			ce.Sema = Counter{Present: true, Previous: uint64(a.semaPrev / n), Current: uint64(a.semaCur / n)}
		}
		out = append(out, ce)
	}
	return out
}
