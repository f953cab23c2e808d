package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_TagsRecordsWithServiceName(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "windward-api", "info")
	logger.Info("server listening", "port", 9091)

	assert.Contains(t, buf.String(), "service=windward-api")
	assert.Contains(t, buf.String(), "server listening")
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
	}{
		{name: "debug passes at debug level", level: "debug", wantDebug: true},
		{name: "debug filtered at warn level", level: "warn", wantDebug: false},
		{name: "unknown level falls back to info", level: "verbose", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := New(&buf, "windward-engine", tt.level)
			logger.Debug("step dispatched")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("step dispatched")))
		})
	}
}
