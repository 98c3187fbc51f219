// Package style holds the palette and glyphs of kiln's terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	// Ember marks headings and freshly built modules.
	Ember = lipgloss.Color("#E8590C")
	Slate = lipgloss.Color("#667085")
	// Ash is for secondary detail such as fingerprints, ages and debug lines.
	Ash    = lipgloss.Color("#98A2B3")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
)
