package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"", LogLevelInfo},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"off", LogLevelNone},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDefaultLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("route %s", "high_risk")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[s4d5] ")
	assert.Contains(t, out, "[WARN] route high_risk")
}

func TestNew(t *testing.T) {
	l, err := New("std", LogLevelDebug)
	require.NoError(t, err)
	assert.IsType(t, &DefaultLogger{}, l)

	l, err = New("golog", LogLevelError)
	require.NoError(t, err)
	g, ok := l.(*GologLogger)
	require.True(t, ok)
	assert.Equal(t, LogLevelError, g.GetLevel())

	_, err = New("syslog", LogLevelInfo)
	assert.Error(t, err)
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Equal(t, "UNKNOWN(42)", LogLevel(42).String())
}
