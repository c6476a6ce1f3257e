package catalog

import (
	"fmt"
	"strings"
)

// Category is the practice modality of a module. Each category has its own
// lifetime completion cap and its own share of the daily time target.
type Category string

const (
	Audio Category = "audio"
	Text  Category = "text"
)

// Categories lists every category in allocation order.
var Categories = []Category{Audio, Text}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == Audio || c == Text
}

// DisplayName returns the human-readable category name.
func (c Category) DisplayName() string {
	switch c {
	case Audio:
		return "Listening"
	case Text:
		return "Reading"
	default:
		return string(c)
	}
}

// ParseCategory accepts the canonical names plus the listening/reading aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audio", "listening", "l":
		return Audio, nil
	case "text", "reading", "r":
		return Text, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Group is one of the ordered content groupings. Every daily set must
// contain at least one module from each group.
type Group int

// MaxGroup is the highest group tag a catalog may use.
const MaxGroup Group = 7

func (g Group) String() string {
	return fmt.Sprintf("Part %d", int(g))
}

// Module is one practice unit. Modules are immutable catalog metadata.
type Module struct {
	ID       string   `yaml:"-" json:"id"`
	Group    Group    `yaml:"group" json:"group" validate:"min=1,max=7"`
	Sequence int      `yaml:"seq" json:"sequence" validate:"min=1"`
	Duration int      `yaml:"minutes" json:"durationMinutes" validate:"min=1"`
	Category Category `yaml:"category" json:"category" validate:"oneof=audio text"`
}

// ModuleID derives the stable id of the module at (group, seq).
func ModuleID(g Group, seq int) string {
	return fmt.Sprintf("%s %02d", g, seq)
}
