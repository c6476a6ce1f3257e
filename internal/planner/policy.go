package planner

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/prepday/internal/catalog"
)

// Policy holds the tunable allocation parameters.
type Policy struct {
	// TargetMinutes is the ideal total duration of a day's set.
	TargetMinutes int `validate:"min=1"`

	// MinMinutes and MaxMinutes bound the acceptable total.
	MinMinutes int `validate:"min=0,ltefield=TargetMinutes"`
	MaxMinutes int `validate:"gtefield=TargetMinutes"`

	// AudioRatio:TextRatio is the target split of time between categories.
	AudioRatio int `validate:"min=0"`
	TextRatio  int `validate:"min=0"`

	// OvershootMinutes is how far a category fill may exceed its target
	// with a single draw.
	OvershootMinutes int `validate:"min=0"`

	// AudioCap and TextCap are lifetime completion caps per module.
	AudioCap int `validate:"min=1"`
	TextCap  int `validate:"min=1"`

	// HistoryCapacity bounds the recent-history ring.
	HistoryCapacity int `validate:"min=0"`
}

// DefaultPolicy returns the standard 180-minute, 2:1 policy.
func DefaultPolicy() Policy {
	return Policy{
		TargetMinutes:    180,
		MinMinutes:       170,
		MaxMinutes:       190,
		AudioRatio:       2,
		TextRatio:        1,
		OvershootMinutes: 5,
		AudioCap:         20,
		TextCap:          10,
		HistoryCapacity:  15,
	}
}

var validate = validator.New()

// Validate checks field ranges and cross-field constraints.
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if p.AudioRatio+p.TextRatio == 0 {
		return fmt.Errorf("invalid policy: category ratio is 0:0")
	}
	return nil
}

// Cap returns the lifetime completion cap for a category.
func (p Policy) Cap(c catalog.Category) int {
	if c == catalog.Audio {
		return p.AudioCap
	}
	return p.TextCap
}

// Share returns the fraction of total time that belongs to c.
func (p Policy) Share(c catalog.Category) float64 {
	sum := p.AudioRatio + p.TextRatio
	if sum == 0 {
		return 0
	}
	if c == catalog.Audio {
		return float64(p.AudioRatio) / float64(sum)
	}
	return float64(p.TextRatio) / float64(sum)
}

// CategoryTarget returns c's share of total, rounded to whole minutes.
func (p Policy) CategoryTarget(c catalog.Category, total int) int {
	return int(math.Round(float64(total) * p.Share(c)))
}

// InBand reports whether total lies within [MinMinutes, MaxMinutes].
func (p Policy) InBand(total int) bool {
	return total >= p.MinMinutes && total <= p.MaxMinutes
}
