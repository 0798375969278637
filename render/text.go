package render

import (
	"fmt"
	"io"
	"strings"
)

// headerEvery is how many data rows pass between repeated header rows,
// per spec.md §4.6 ("repeats two header rows every 20 data rows").
const headerEvery = 20

// Text is the plain column renderer: fixed-width fields, two header
// rows (group key, item label) repeated every headerEvery data rows.
type Text struct {
	w               io.Writer
	rowsSinceHeader int
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Render(groups []Group) error {
	if t.rowsSinceHeader == 0 {
		if err := t.emit(groups, true); err != nil {
			return err
		}
	}
	if err := t.emit(groups, false); err != nil {
		return err
	}
	t.rowsSinceHeader = (t.rowsSinceHeader + 1) % headerEvery
	return nil
}

func (t *Text) Close() error { return nil }

// emit performs one full pass over groups: a header pass writes the
// group-key row followed by the item-label row, a data pass writes one
// row of formatted values. Mirrors spec.md §4.6's
// open_struct/add_member/print_group/close_struct vtable, kept private
// since the text format's two-row header has no equivalent in the other
// renderers.
func (t *Text) emit(groups []Group, headerPass bool) error {
	t.openStruct()
	var buf strings.Builder
	if headerPass {
		for _, g := range groups {
			t.printGroup(&buf, g)
		}
		buf.WriteByte('\n')
		for _, g := range groups {
			for _, it := range g.Items {
				t.addMember(&buf, it, true)
			}
		}
	} else {
		for _, g := range groups {
			for _, it := range g.Items {
				t.addMember(&buf, it, false)
			}
		}
	}
	t.closeStruct(&buf)
	_, err := io.WriteString(t.w, buf.String())
	return err
}

func (t *Text) openStruct() {}

func (t *Text) closeStruct(buf *strings.Builder) { buf.WriteByte('\n') }

func (t *Text) printGroup(buf *strings.Builder, g Group) {
	width := 0
	for _, it := range g.Items {
		width += it.Width + 1
	}
	fmt.Fprintf(buf, "%-*s", width, g.Key)
}

func (t *Text) addMember(buf *strings.Builder, it Item, headerPass bool) {
	if headerPass {
		fmt.Fprintf(buf, "%*s ", it.Width, truncate(it.Label, it.Width))
		return
	}
	if !it.Present {
		fmt.Fprintf(buf, "%*s ", it.Width, "-")
		return
	}
	fmt.Fprintf(buf, "%*.*f ", it.Width, it.Prec, it.Value)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
