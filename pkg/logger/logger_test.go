package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithConfig_JSONToBuffer(t *testing.T) {
	require.NoError(t, InitWithConfig("debug", "json", "stdout", ""))

	var buf bytes.Buffer
	SetOutput(&buf)

	WithField("activity_id", "a-1").Info("seat reserved")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "seat reserved", entry["msg"])
	assert.Equal(t, "a-1", entry["activity_id"])
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
}

func TestInitWithConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
		output string
		path   string
	}{
		{name: "bad level", level: "loud", format: "json", output: "stdout"},
		{name: "bad format", level: "info", format: "xml", output: "stdout"},
		{name: "bad output", level: "info", format: "json", output: "syslog"},
		{name: "file without path", level: "info", format: "json", output: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, InitWithConfig(tt.level, tt.format, tt.output, tt.path))
		})
	}
}

func TestInitWithConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, InitWithConfig("info", "text", "file", path))
	Info("written to %s", "file")
	assert.FileExists(t, path)
}
