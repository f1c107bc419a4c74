// Package config declares which capabilities are enabled at startup and
// the capability-specific defaults applied when a request leaves a field
// unset. Values come from an optional YAML file, overridden by
// DEVICEBRIDGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/netutil"
)

// CameraDefaults are applied to capture requests with unset fields.
type CameraDefaults struct {
	Quality int    `yaml:"quality" env:"DEVICEBRIDGE_CAMERA_QUALITY"`
	Source  string `yaml:"source" env:"DEVICEBRIDGE_CAMERA_SOURCE"`
}

// LocationDefaults are applied to location requests with unset fields.
type LocationDefaults struct {
	Accuracy  string `yaml:"accuracy" env:"DEVICEBRIDGE_LOCATION_ACCURACY"`
	TimeoutMS int    `yaml:"timeout_ms" env:"DEVICEBRIDGE_LOCATION_TIMEOUT_MS"`
}

// Timeout returns the default location timeout as a duration.
func (l LocationDefaults) Timeout() time.Duration {
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

// BridgeConfig locates the native bridge endpoint.
type BridgeConfig struct {
	URL           string `yaml:"url" env:"DEVICEBRIDGE_BRIDGE_URL"`
	CallTimeoutMS int    `yaml:"call_timeout_ms" env:"DEVICEBRIDGE_BRIDGE_CALL_TIMEOUT_MS"`
}

// CallTimeout returns the bridge call timeout as a duration.
func (b BridgeConfig) CallTimeout() time.Duration {
	return time.Duration(b.CallTimeoutMS) * time.Millisecond
}

// Config aggregates the bridge's startup configuration.
type Config struct {
	EnabledCapabilities []string `yaml:"enabled_capabilities" env:"DEVICEBRIDGE_ENABLED_CAPABILITIES" envSeparator:","`

	Camera   CameraDefaults   `yaml:"camera"`
	Location LocationDefaults `yaml:"location"`
	Bridge   BridgeConfig     `yaml:"bridge"`
}

// Default returns the configuration used when nothing else is provided:
// every capability enabled, quality 90, coarse accuracy, 10s timeouts.
func Default() Config {
	enabled := make([]string, 0, len(devicebridge.AllCapabilities()))
	for _, id := range devicebridge.AllCapabilities() {
		enabled = append(enabled, id.String())
	}
	return Config{
		EnabledCapabilities: enabled,
		Camera: CameraDefaults{
			Quality: 90,
			Source:  string(capability.SourceCamera),
		},
		Location: LocationDefaults{
			Accuracy:  string(capability.AccuracyCoarse),
			TimeoutMS: 10_000,
		},
		Bridge: BridgeConfig{
			CallTimeoutMS: 10_000,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and capability names.
func (c Config) Validate() error {
	for _, name := range c.EnabledCapabilities {
		if _, err := devicebridge.ParseCapabilityID(name); err != nil {
			return fmt.Errorf("invalid enabled capability: %w", err)
		}
	}
	if c.Camera.Quality < 0 || c.Camera.Quality > 100 {
		return fmt.Errorf("camera quality must be within 0-100, got %d", c.Camera.Quality)
	}
	switch capability.CaptureSource(c.Camera.Source) {
	case capability.SourceCamera, capability.SourceLibrary, "":
	default:
		return fmt.Errorf("unknown camera source %q", c.Camera.Source)
	}
	switch capability.AccuracyLevel(c.Location.Accuracy) {
	case capability.AccuracyCoarse, capability.AccuracyFine, "":
	default:
		return fmt.Errorf("unknown location accuracy %q", c.Location.Accuracy)
	}
	if c.Location.TimeoutMS < 0 {
		return fmt.Errorf("location timeout must not be negative")
	}
	if c.Bridge.CallTimeoutMS < 0 {
		return fmt.Errorf("bridge call timeout must not be negative")
	}
	if c.Bridge.URL != "" {
		if err := netutil.ValidateBridgeURL(c.Bridge.URL); err != nil {
			return err
		}
	}
	return nil
}

// Enabled reports whether a capability is switched on.
func (c Config) Enabled(id devicebridge.CapabilityID) bool {
	for _, name := range c.EnabledCapabilities {
		if name == id.String() {
			return true
		}
	}
	return false
}
