package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9600, cfg.Serial.DefaultBaudRate)
	assert.Equal(t, 10*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, 32, cfg.Serial.ReadBufferSize)
	assert.Equal(t, "fixed", cfg.Serial.FrameMode)
	assert.Equal(t, 600*time.Second, cfg.Recording.RotationInterval)
	assert.Equal(t, "DCubedISM", cfg.Recording.FilePrefix)
	assert.False(t, cfg.Recording.LegacyStopDisconnects)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "127.0.0.1:8085", cfg.GetServerAddr())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
serial:
  default_port: /dev/ttyUSB0
  default_baud_rate: 115200
  frame_mode: text
recording:
  folder: /tmp/rec
  legacy_stop_disconnects: true
`)
	t.Setenv("SERIAL_MONITOR_SERIAL_READ_TIMEOUT", "50ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.DefaultPort)
	assert.Equal(t, 115200, cfg.Serial.DefaultBaudRate)
	assert.Equal(t, "text", cfg.Serial.FrameMode)
	assert.Equal(t, 50*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, "/tmp/rec", cfg.Recording.Folder)
	assert.True(t, cfg.Recording.LegacyStopDisconnects)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := map[string]string{
		"read timeout too long": "serial:\n  read_timeout: 5s\n",
		"unknown frame mode":    "serial:\n  frame_mode: csv\n",
		"bad parity":            "serial:\n  parity: maybe\n",
		"zero rotation":         "recording:\n  rotation_interval: 0s\n",
		"sub-second rotation":   "recording:\n  rotation_interval: 500ms\n",
		"bad level":             "logging:\n  level: chatty\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadAcceptsOneSecondRotation(t *testing.T) {
	cfg, err := Load(writeConfig(t, "recording:\n  rotation_interval: 1s\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Recording.RotationInterval)
}
