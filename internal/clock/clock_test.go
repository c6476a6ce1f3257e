package clock

import (
	"testing"
	"time"
)

func TestCivilToday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before local midnight", time.Date(2024, 3, 10, 16, 59, 0, 0, time.UTC), "2024-03-10"},
		{"after local midnight", time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC), "2024-03-11"},
		{"host zone ignored", time.Date(2024, 3, 10, 10, 0, 0, 0, time.FixedZone("X", -10*3600)), "2024-03-11"},
		{"year rollover", time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC), "2025-01-01"},
	}

	c := NewCivil(DefaultOffset)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			got := c.WithNow(func() time.Time { return now }).Today()
			if got != tt.want {
				t.Errorf("Today() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixedZoneName(t *testing.T) {
	if got := NewCivil(7 * time.Hour).Location().String(); got != "UTC+07:00" {
		t.Errorf("zone = %q", got)
	}
	if got := NewCivil(-(3*time.Hour + 30*time.Minute)).Location().String(); got != "UTC-03:30" {
		t.Errorf("zone = %q", got)
	}
}

func TestFixed(t *testing.T) {
	var c Clock = Fixed("2024-01-02")
	if c.Today() != "2024-01-02" {
		t.Errorf("Today() = %q", c.Today())
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b   string
		want   int
		wantOK bool
	}{
		{"2024-01-01", "2024-01-01", 0, true},
		{"2024-01-01", "2024-01-08", 7, true},
		{"2024-02-28", "2024-03-01", 2, true},
		{"2024-01-08", "2024-01-01", -7, true},
		{"", "2024-01-01", 0, false},
	}
	for _, tt := range tests {
		got, ok := DaysBetween(tt.a, tt.b)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("DaysBetween(%q, %q) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
		}
	}
}
