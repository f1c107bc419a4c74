package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicebridge-dev/devicebridge"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_Default(t *testing.T) {
	cfg := Default()

	for _, id := range devicebridge.AllCapabilities() {
		assert.True(t, cfg.Enabled(id))
	}
	assert.Equal(t, 90, cfg.Camera.Quality)
	assert.Equal(t, "camera", cfg.Camera.Source)
	assert.Equal(t, "coarse", cfg.Location.Accuracy)
	assert.Equal(t, 10*time.Second, cfg.Location.Timeout())
	assert.Equal(t, 10*time.Second, cfg.Bridge.CallTimeout())
	assert.NoError(t, cfg.Validate())
}

func Test_Load_File(t *testing.T) {
	path := writeConfig(t, `
enabled_capabilities:
  - camera
  - device_info
camera:
  quality: 70
  source: library
location:
  accuracy: fine
  timeout_ms: 2500
bridge:
  url: ws://localhost:9222/bridge
  call_timeout_ms: 3000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Enabled(devicebridge.CapabilityCamera))
	assert.False(t, cfg.Enabled(devicebridge.CapabilityGeolocation))
	assert.Equal(t, 70, cfg.Camera.Quality)
	assert.Equal(t, "library", cfg.Camera.Source)
	assert.Equal(t, "fine", cfg.Location.Accuracy)
	assert.Equal(t, 2500*time.Millisecond, cfg.Location.Timeout())
	assert.Equal(t, "ws://localhost:9222/bridge", cfg.Bridge.URL)
	assert.Equal(t, 3*time.Second, cfg.Bridge.CallTimeout())
}

func Test_Load_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
camera:
  quality: 70
`)
	t.Setenv("DEVICEBRIDGE_CAMERA_QUALITY", "55")
	t.Setenv("DEVICEBRIDGE_BRIDGE_URL", "ws://127.0.0.1:9000/bridge")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 55, cfg.Camera.Quality)
	assert.Equal(t, "ws://127.0.0.1:9000/bridge", cfg.Bridge.URL)
}

func Test_Load_EnabledCapabilitiesFromEnv(t *testing.T) {
	t.Setenv("DEVICEBRIDGE_ENABLED_CAPABILITIES", "camera,geolocation")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Enabled(devicebridge.CapabilityCamera))
	assert.True(t, cfg.Enabled(devicebridge.CapabilityGeolocation))
	assert.False(t, cfg.Enabled(devicebridge.CapabilityDeviceInfo))
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func Test_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad capability", func(c *Config) { c.EnabledCapabilities = []string{"contacts"} }},
		{"quality out of range", func(c *Config) { c.Camera.Quality = 130 }},
		{"bad source", func(c *Config) { c.Camera.Source = "scanner" }},
		{"bad accuracy", func(c *Config) { c.Location.Accuracy = "pinpoint" }},
		{"negative timeout", func(c *Config) { c.Location.TimeoutMS = -1 }},
		{"negative bridge timeout", func(c *Config) { c.Bridge.CallTimeoutMS = -5 }},
		{"bridge url wrong scheme", func(c *Config) { c.Bridge.URL = "http://localhost:9222/bridge" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
