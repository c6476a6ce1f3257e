package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "production", "quiet", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("user", "u1").Info("allocated", "modules", 9)
	l.Warningf("value log %d", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "allocated", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user"])
	assert.EqualValues(t, 9, fields["modules"])
	assert.Equal(t, "value log 3", entries[1].Message)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil).SugaredLogger)
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
