// Package theme holds the lipgloss styles used by CLI output.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Cap progress colors, from untouched to capped.
var LevelColors = []color.Color{
	lipgloss.Color("#CCCCCC"),
	lipgloss.Color("#88DD88"),
	lipgloss.Color("#FFBB00"),
	lipgloss.Color("#FF8800"),
	lipgloss.Color("#FF4444"),
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Done = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Pending = lipgloss.NewStyle().
		Foreground(Text)

	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Level returns the style for a cap progress level. Out-of-range levels
// are clamped.
func Level(level int) lipgloss.Style {
	level = max(0, min(level, len(LevelColors)-1))
	return lipgloss.NewStyle().Foreground(LevelColors[level])
}

// Check renders a completion checkbox.
func Check(done bool) string {
	if done {
		return Done.Render("[x]")
	}
	return Pending.Render("[ ]")
}
