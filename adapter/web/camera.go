package web

import (
	"context"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/normalize"
)

// Camera is the web-fallback camera adapter: acquire a stream, capture
// one frame, release the stream immediately.
type Camera struct {
	devices MediaDevices
}

// NewCamera creates a web camera adapter over the given media devices.
func NewCamera(devices MediaDevices) *Camera {
	return &Camera{devices: devices}
}

// TakePhoto implements capability.Camera.
func (c *Camera) TakePhoto(ctx context.Context, req capability.CaptureRequest) (capability.CaptureResult, error) {
	if c.devices == nil {
		return capability.CaptureResult{}, devicebridge.NewError(
			devicebridge.KindUnavailable, devicebridge.CapabilityCamera, "no media devices available")
	}

	stream, err := c.devices.OpenStream(ctx, StreamConstraints{
		Quality:    req.Quality,
		FacingUser: req.Source != capability.SourceCamera,
	})
	if err != nil {
		return capability.CaptureResult{}, devicebridge.EnsureKind(devicebridge.CapabilityCamera, err)
	}
	// Released before returning, success or not. No dangling stream handles.
	defer func() { _ = stream.Close() }()

	frame, mimeType, err := stream.ReadFrame(ctx)
	if err != nil {
		return capability.CaptureResult{}, devicebridge.EnsureKind(devicebridge.CapabilityCamera, err)
	}

	return normalize.PhotoFromWeb(frame, mimeType), nil
}
