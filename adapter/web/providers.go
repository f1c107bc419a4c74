// Package web implements the browser-API fallback adapters. Each
// capability maps onto one long-lived browser primitive, reached through
// a pluggable provider port so hosts and tests can supply their own.
package web

import (
	"context"

	"github.com/devicebridge-dev/devicebridge/normalize"
)

// StreamConstraints selects what a media stream should deliver.
type StreamConstraints struct {
	// Quality is the encoder quality for captured frames, 0-100.
	Quality int

	// FacingUser requests the user-facing camera when the device has
	// more than one.
	FacingUser bool
}

// MediaStream is one acquired media stream. Callers must Close it as soon
// as the capture is done; a dangling stream keeps the camera busy.
type MediaStream interface {
	// ReadFrame captures one encoded frame and reports its MIME type.
	ReadFrame(ctx context.Context) (frame []byte, mimeType string, err error)
	Close() error
}

// MediaDevices acquires media streams, standing in for the browser's
// media device surface.
type MediaDevices interface {
	OpenStream(ctx context.Context, constraints StreamConstraints) (MediaStream, error)
}

// PositionOptions configures a one-shot position query.
type PositionOptions struct {
	HighAccuracy bool
}

// PositionSource answers one-shot position queries, standing in for the
// browser's geolocation surface. It must not start continuous watching.
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (normalize.WebPosition, error)
}

// Navigator reads synchronous environment attributes. Implementations
// return zero values for attributes they cannot report; they never fail.
type Navigator interface {
	UserAgent() string
	Platform() string
	LogicalCPUs() int
	ApproxMemoryMB() int64
}

// BatteryReader optionally reads battery data. Browsers that withhold it
// report ok=false, which the adapter turns into sentinel markers.
type BatteryReader interface {
	Battery() (battery normalize.WebBattery, ok bool)
}
