package render

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
)

// JSON renders each sample as one top-level, tab-indented object nesting
// one member per group, per spec.md §4.6. Group and item order is
// preserved explicitly (Go map iteration is unordered) via the
// orderedGroups/orderedItems json.Marshaler wrappers below, so renderer
// output stays deterministic across runs.
type JSON struct {
	enc *json.Encoder
}

func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return &JSON{enc: enc}
}

func (j *JSON) Render(groups []Group) error {
	return j.enc.Encode(orderedGroups(groups))
}

func (j *JSON) Close() error { return nil }

type orderedGroups []Group

func (g orderedGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, grp := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(grp.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		items, err := orderedItems(grp.Items).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(items)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type orderedItems []Item

func (items orderedItems) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, it := range items {
		if !it.Present {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(it.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(round(it.Value, it.Prec))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func round(v float64, prec int) float64 {
	p := math.Pow(10, float64(prec))
	return math.Round(v*p) / p
}
