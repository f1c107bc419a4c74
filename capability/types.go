// Package capability defines the backend-agnostic request and result
// records of the bridge and the ports every adapter pair implements.
package capability

import (
	"time"

	"github.com/devicebridge-dev/devicebridge"
)

// CaptureSource selects where a photo comes from.
type CaptureSource string

const (
	SourceCamera  CaptureSource = "camera"
	SourceLibrary CaptureSource = "library"
)

// AccuracyLevel expresses the caller's desired position accuracy.
type AccuracyLevel string

const (
	AccuracyCoarse AccuracyLevel = "coarse"
	AccuracyFine   AccuracyLevel = "fine"
)

// Unknown is the sentinel for numeric device attributes the backend
// cannot report. Results carry it instead of failing the whole call.
const Unknown = -1

// CaptureRequest configures a single photo capture. Immutable once submitted.
type CaptureRequest struct {
	// Quality is the encoder quality, 0-100. Zero means the configured
	// default; an exact quality of 0 cannot be requested.
	Quality int `json:"quality" jsonschema:"minimum=0,maximum=100"`

	AllowEditing bool          `json:"allowEditing"`
	Source       CaptureSource `json:"source" jsonschema:"enum=camera,enum=library"`
}

// Validate checks caller-supplied configuration ranges.
func (r CaptureRequest) Validate() error {
	if r.Quality < 0 || r.Quality > 100 {
		return devicebridge.NewError(devicebridge.KindInvalidRequest, devicebridge.CapabilityCamera,
			"quality must be within 0-100, got %d", r.Quality)
	}
	switch r.Source {
	case SourceCamera, SourceLibrary, "":
	default:
		return devicebridge.NewError(devicebridge.KindInvalidRequest, devicebridge.CapabilityCamera,
			"unknown capture source %q", r.Source)
	}
	return nil
}

// LocationRequest configures a one-shot position query.
type LocationRequest struct {
	DesiredAccuracy AccuracyLevel `json:"desiredAccuracy" jsonschema:"enum=coarse,enum=fine"`

	// Timeout bounds the whole query. Zero means the configured default.
	// It crosses the bridge as milliseconds; in-process it stays a Duration.
	Timeout time.Duration `json:"-"`
}

// Validate checks caller-supplied configuration ranges.
func (r LocationRequest) Validate() error {
	switch r.DesiredAccuracy {
	case AccuracyCoarse, AccuracyFine, "":
	default:
		return devicebridge.NewError(devicebridge.KindInvalidRequest, devicebridge.CapabilityGeolocation,
			"unknown accuracy level %q", r.DesiredAccuracy)
	}
	if r.Timeout < 0 {
		return devicebridge.NewError(devicebridge.KindInvalidRequest, devicebridge.CapabilityGeolocation,
			"timeout must not be negative")
	}
	return nil
}

// DeviceInfoRequest configures a device metadata read. It carries no
// options today but keeps the operation shape uniform across capabilities.
type DeviceInfoRequest struct{}

// CaptureResult is the canonical photo capture outcome. Exactly one of
// URI and Data is set, depending on what the backend produced.
type CaptureResult struct {
	URI    string `json:"uri,omitempty"`
	Data   []byte `json:"data,omitempty"`
	Format string `json:"format"`
}

// LocationResult is the canonical one-shot position fix.
type LocationResult struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// DeviceInfoResult is the canonical device metadata record. Numeric
// fields hold Unknown when the backend cannot report them; IsCharging is
// nil when battery state is unavailable.
type DeviceInfoResult struct {
	Platform  string `json:"platform"`
	OSVersion string `json:"osVersion"`
	Model     string `json:"model"`

	// BatteryLevel is 0-1, or Unknown.
	BatteryLevel float64 `json:"batteryLevel"`
	IsCharging   *bool   `json:"isCharging,omitempty"`

	LogicalCPUs    int   `json:"logicalCpus"`
	ApproxMemoryMB int64 `json:"approxMemoryMb"`
}
