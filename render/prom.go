package render

import (
	"io"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var sanitizeRe = regexp.MustCompile(`[^a-z0-9]`)

// sanitizeKey lower-cases s and replaces every character outside
// [a-z0-9] with an underscore, per spec.md §4.6's Prometheus naming
// rule. Each string is sanitised using its own length — resolving
// spec.md §9's Open Question in favour of the non-buggy behaviour.
func sanitizeKey(s string) string {
	return sanitizeRe.ReplaceAllString(strings.ToLower(s), "_")
}

// MetricName builds the intel_gpu_top_<group_key>_<item_key> name
// spec.md §8 requires every emitted metric to match.
func MetricName(groupKey, itemKey string) string {
	return "intel_gpu_top_" + sanitizeKey(groupKey) + "_" + sanitizeKey(itemKey)
}

// Prom is the Prometheus text-exposition renderer. It performs no HTTP
// of its own, per spec.md §4.6: one call to Render produces one
// complete exposition block written to w, and the control loop exits
// immediately after — an external scraper is expected to invoke the
// binary per scrape.
type Prom struct {
	w io.Writer
}

func NewProm(w io.Writer) *Prom {
	return &Prom{w: w}
}

func (p *Prom) Render(groups []Group) error {
	reg := prometheus.NewRegistry()
	for _, g := range groups {
		for _, it := range g.Items {
			if !it.Present {
				continue
			}
			gauge := prometheus.NewGauge(prometheus.GaugeOpts{
				Name: MetricName(g.Key, it.Key),
				Help: it.Label + " (" + it.Unit + ")",
			})
			gauge.Set(it.Value)
			if err := reg.Register(gauge); err != nil {
				return err
			}
		}
	}

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(p.w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prom) Close() error { return nil }
