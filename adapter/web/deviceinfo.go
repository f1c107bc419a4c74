package web

import (
	"context"
	"runtime"

	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/normalize"
)

// DeviceInfo is the web-fallback device info adapter. It reads whatever
// the navigator exposes and always succeeds; unavailable attributes
// become sentinel markers, and the platform is the fixed "web" tag.
type DeviceInfo struct {
	nav     Navigator
	battery BatteryReader
}

// DeviceInfoOption configures a DeviceInfo adapter.
type DeviceInfoOption func(*DeviceInfo)

// WithBatteryReader adds optional battery data. Without one, battery
// fields resolve to their unknown markers.
func WithBatteryReader(b BatteryReader) DeviceInfoOption {
	return func(d *DeviceInfo) { d.battery = b }
}

// NewDeviceInfo creates a web device info adapter.
func NewDeviceInfo(nav Navigator, opts ...DeviceInfoOption) *DeviceInfo {
	d := &DeviceInfo{nav: nav}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Info implements capability.DeviceInfo. It never returns an error.
func (d *DeviceInfo) Info(_ context.Context, _ capability.DeviceInfoRequest) (capability.DeviceInfoResult, error) {
	var nav normalize.WebNavigator
	if d.nav != nil {
		nav = normalize.WebNavigator{
			UserAgent:      d.nav.UserAgent(),
			Platform:       d.nav.Platform(),
			LogicalCPUs:    d.nav.LogicalCPUs(),
			ApproxMemoryMB: d.nav.ApproxMemoryMB(),
		}
	}

	var battery *normalize.WebBattery
	if d.battery != nil {
		if b, ok := d.battery.Battery(); ok {
			battery = &b
		}
	}

	return normalize.DeviceInfoFromWeb(nav, battery), nil
}

// HostNavigator reports the attributes of the host process itself. It
// backs the adapter when the bridge runs outside a real browser.
type HostNavigator struct{}

// UserAgent implements Navigator.
func (HostNavigator) UserAgent() string {
	return "devicebridge/" + runtime.Version()
}

// Platform implements Navigator.
func (HostNavigator) Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// LogicalCPUs implements Navigator.
func (HostNavigator) LogicalCPUs() int {
	return runtime.NumCPU()
}

// ApproxMemoryMB implements Navigator. The host has no browser-style
// memory hint, so it reports the attribute as unavailable.
func (HostNavigator) ApproxMemoryMB() int64 {
	return 0
}
