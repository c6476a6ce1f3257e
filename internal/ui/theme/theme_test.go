package theme

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestLevelClamps(t *testing.T) {
	for _, lvl := range []int{-1, 0, 2, 4, 9} {
		_ = Level(lvl).Render("x")
	}
	if got, want := Level(9).GetForeground(), LevelColors[len(LevelColors)-1]; got != want {
		t.Errorf("Level(9) foreground = %v, want %v", got, want)
	}
}

func TestTableContainsCells(t *testing.T) {
	out := Table([]string{"ID", "Minutes"}, [][]string{{"Part 1 01", "6"}, {"Part 7 04", "30"}},
		func(row, col int) lipgloss.Style { return lipgloss.NewStyle() })
	for _, want := range []string{"ID", "Minutes", "Part 1 01", "Part 7 04", "30"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestCheck(t *testing.T) {
	if !strings.Contains(Check(true), "[x]") || !strings.Contains(Check(false), "[ ]") {
		t.Error("unexpected checkbox rendering")
	}
}
