package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	require.Equal(t, 28, c.Len())
	assert.Len(t, c.Groups(), 7)
	assert.Len(t, c.ByCategory(Audio), 14)
	assert.Len(t, c.ByCategory(Text), 14)

	m, ok := c.Get("Part 3 02")
	require.True(t, ok)
	assert.Equal(t, Group(3), m.Group)
	assert.Equal(t, 2, m.Sequence)
	assert.Equal(t, 25, m.Duration)
	assert.Equal(t, Audio, m.Category)

	m, ok = c.Get("Part 7 04")
	require.True(t, ok)
	assert.Equal(t, 30, m.Duration)
	assert.Equal(t, Text, m.Category)

	_, ok = c.Get("Part 8 01")
	assert.False(t, ok)
}

func TestCatalogOrder(t *testing.T) {
	c, err := New([]Module{
		{Group: 2, Sequence: 1, Duration: 10, Category: Text},
		{Group: 1, Sequence: 2, Duration: 5, Category: Audio},
		{Group: 1, Sequence: 1, Duration: 5, Category: Audio},
	})
	require.NoError(t, err)

	var ids []string
	for _, m := range c.All() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"Part 1 01", "Part 1 02", "Part 2 01"}, ids)
	assert.Equal(t, 0, c.Index("Part 1 01"))
	assert.Equal(t, 2, c.Index("Part 2 01"))
	assert.Equal(t, -1, c.Index("nope"))
	assert.Equal(t, []Group{1, 2}, c.Groups())
}

func TestCatalogIsImmutable(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Duration = 999

	m, _ := c.Get(all[0].ID)
	assert.NotEqual(t, 999, m.Duration)
}

func TestTotalDuration(t *testing.T) {
	c := Default()
	assert.Equal(t, 6+14+30, c.TotalDuration([]string{"Part 1 01", "Part 2 01", "Part 7 01", "bogus"}))
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "duplicate",
			yaml: `modules:
  - {group: 1, seq: 1, minutes: 6, category: audio}
  - {group: 1, seq: 1, minutes: 6, category: audio}
  - {group: 2, seq: 1, minutes: 6, category: text}`,
			wantErr: "duplicate module ID",
		},
		{
			name: "bad category",
			yaml: `modules:
  - {group: 1, seq: 1, minutes: 6, category: video}`,
			wantErr: "oneof",
		},
		{
			name: "zero duration",
			yaml: `modules:
  - {group: 1, seq: 1, minutes: 0, category: audio}
  - {group: 2, seq: 1, minutes: 6, category: text}`,
			wantErr: "Duration",
		},
		{
			name: "group out of range",
			yaml: `modules:
  - {group: 8, seq: 1, minutes: 6, category: audio}
  - {group: 2, seq: 1, minutes: 6, category: text}`,
			wantErr: "Group",
		},
		{
			name: "missing category",
			yaml: `modules:
  - {group: 1, seq: 1, minutes: 6, category: audio}`,
			wantErr: "no text modules",
		},
		{
			name:    "unknown key",
			yaml:    "modules:\n  - {group: 1, seq: 1, minutes: 6, category: audio, body: x}\n",
			wantErr: "decode catalog",
		},
		{
			name:    "empty",
			yaml:    "modules: []\n",
			wantErr: "no modules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"audio", Audio, true},
		{"Listening", Audio, true},
		{"text", Text, true},
		{" reading ", Text, true},
		{"video", "", false},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}

func TestModuleID(t *testing.T) {
	assert.Equal(t, "Part 1 01", ModuleID(1, 1))
	assert.Equal(t, "Part 7 12", ModuleID(7, 12))
}
