package render

// Renderer is the capability every output format implements. Only
// Render/Close cross the package boundary. The text renderer organizes
// its work internally as the four operations spec.md §4.6 describes
// (open a struct, add a member, print a group, close the struct); the
// JSON, Prometheus and TUI renderers do not, since their structural
// needs differ sharply (JSON nests objects, Prometheus has no concept
// of a header pass).
type Renderer interface {
	// Render emits one complete sample. groups is built by BuildGroups
	// and is already in final emission order.
	Render(groups []Group) error

	// Close releases any renderer-owned resource. None of the renderers
	// in this module owns one, so each Close returns nil; terminal raw
	// mode is restored by the func tui.TUI.EnableRaw returns, and an
	// output file is closed by its opener. Safe to call once, on every
	// exit path.
	Close() error
}
