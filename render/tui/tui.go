// Package tui implements the interactive terminal renderer: a
// full-screen redraw every tick with a per-engine Unicode bar, per
// spec.md §4.6.
package tui

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/igt-go/intel-gpu-top/render"
)

// eighths are the nine glyphs spec.md §4.6 names for an 8-step
// sub-character fill bar.
var eighths = [9]rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// TUI clears and redraws the screen every tick. fd is the terminal file
// descriptor used for size queries and raw-mode control (normally
// os.Stdin.Fd()).
type TUI struct {
	w  io.Writer
	fd int
}

func New(w io.Writer, fd int) *TUI {
	return &TUI{w: w, fd: fd}
}

// EnableRaw puts the terminal into single-character raw mode and
// returns a restore func, the scoped-acquisition pattern spec.md §5
// requires for the stdin tcgetattr/tcsetattr pair.
func (t *TUI) EnableRaw() (restore func() error, err error) {
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(t.fd, state) }, nil
}

func (t *TUI) Render(groups []render.Group) error {
	width, height := t.size()

	var buf strings.Builder
	buf.WriteString("\x1b[H\x1b[2J")
	buf.WriteString(summaryLine(groups))
	buf.WriteByte('\n')

	rows := 1
	for _, g := range groups {
		if !strings.HasPrefix(g.Key, "engines.") {
			continue
		}
		if rows >= height {
			break
		}
		writeEngineRow(&buf, g, width)
		rows++
	}

	_, err := io.WriteString(t.w, buf.String())
	return err
}

func (t *TUI) Close() error { return nil }

func (t *TUI) size() (width, height int) {
	w, h, err := term.GetSize(t.fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}

func summaryLine(groups []render.Group) string {
	var parts []string
	for _, g := range groups {
		if strings.HasPrefix(g.Key, "engines.") {
			break
		}
		for _, it := range g.Items {
			if !it.Present {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %.*f%s", it.Label, it.Prec, it.Value, it.Unit))
		}
	}
	return strings.Join(parts, "  ")
}

// writeEngineRow draws one bar sized to busy_percent * (8*(maxCells-2))
// / 100 eighths, per spec.md §4.6.
func writeEngineRow(buf *strings.Builder, g render.Group, termWidth int) {
	var busy float64
	for _, it := range g.Items {
		if it.Key == "busy" && it.Present {
			busy = it.Value
		}
	}

	maxCells := termWidth - 24
	if maxCells < 8 {
		maxCells = 8
	}
	cells := maxCells - 2

	eighthsTotal := int(busy * float64(8*cells) / 100)
	full := eighthsTotal / 8
	rem := eighthsTotal % 8
	if full > cells {
		full = cells
		rem = 0
	}

	var bar strings.Builder
	bar.WriteString(strings.Repeat(string(eighths[8]), full))
	if rem > 0 && full < cells {
		bar.WriteRune(eighths[rem])
		full++
	}
	if pad := cells - full; pad > 0 {
		bar.WriteString(strings.Repeat(" ", pad))
	}

	name := strings.TrimPrefix(g.Key, "engines.")
	fmt.Fprintf(buf, "%-16.16s [%s] %5.2f%%\n", name, bar.String(), busy)
}
