// Package environ resolves which backend the bridge dispatches to.
// Detection runs once per process; the result is immutable afterwards.
package environ

import (
	"log/slog"
	"sync"
)

// Environment names the backend family available at runtime.
type Environment string

const (
	// Native means a native platform bridge is present.
	Native Environment = "native"

	// Web means only browser APIs are available.
	Web Environment = "web"
)

// Probe reports whether a native bridge transport can be confirmed
// present. Probes must not block; a probe that cannot tell returns false.
type Probe func() bool

// Detector caches the environment for the process lifetime. No capability
// call may trigger re-detection.
type Detector struct {
	once  sync.Once
	env   Environment
	probe Probe
	log   *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithProbe sets the native-bridge presence check.
func WithProbe(p Probe) Option {
	return func(d *Detector) { d.probe = p }
}

// WithLogger sets the logger used to record the detection outcome.
func WithLogger(log *slog.Logger) Option {
	return func(d *Detector) { d.log = log }
}

// NewDetector creates a Detector. Without a probe the environment
// resolves to Web: an unconfirmed native bridge is treated as absent.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect resolves the environment. The first call runs the probe; every
// later call returns the cached answer, even if the probe would now
// answer differently.
func (d *Detector) Detect() Environment {
	d.once.Do(func() {
		d.env = Web
		if d.probe != nil && d.probe() {
			d.env = Native
		}
		d.log.Info("environment detected", "environment", d.env)
	})
	return d.env
}
