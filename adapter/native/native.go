// Package native implements the native-backend adapters. Each capability
// marshals its request, forwards it over the bridge transport, and maps
// the correlated reply onto the canonical record.
package native

import (
	"context"
	"encoding/json"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/bridge"
	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/normalize"
)

// Camera forwards photo captures to the native side.
type Camera struct {
	transport bridge.Transport
}

// NewCamera creates a native camera adapter over the given transport.
func NewCamera(transport bridge.Transport) *Camera {
	return &Camera{transport: transport}
}

// TakePhoto implements capability.Camera.
func (c *Camera) TakePhoto(ctx context.Context, req capability.CaptureRequest) (capability.CaptureResult, error) {
	raw, err := send(ctx, c.transport, devicebridge.CapabilityCamera, req)
	if err != nil {
		return capability.CaptureResult{}, err
	}
	return normalize.PhotoFromNative(raw)
}

// Locator forwards one-shot position queries to the native side.
type Locator struct {
	transport bridge.Transport
}

// NewLocator creates a native geolocation adapter over the given transport.
func NewLocator(transport bridge.Transport) *Locator {
	return &Locator{transport: transport}
}

// locationWire is the bridge wire shape of a location request. The
// timeout crosses the wire in milliseconds.
type locationWire struct {
	DesiredAccuracy string `json:"desiredAccuracy"`
	TimeoutMS       int64  `json:"timeoutMs"`
}

// CurrentPosition implements capability.Locator. The request timeout, when
// set, bounds the bridge call as well.
func (l *Locator) CurrentPosition(ctx context.Context, req capability.LocationRequest) (capability.LocationResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	wire := locationWire{
		DesiredAccuracy: string(req.DesiredAccuracy),
		TimeoutMS:       req.Timeout.Milliseconds(),
	}
	raw, err := send(ctx, l.transport, devicebridge.CapabilityGeolocation, wire)
	if err != nil {
		return capability.LocationResult{}, err
	}
	return normalize.PositionFromNative(raw)
}

// DeviceInfo forwards device metadata reads to the native side.
type DeviceInfo struct {
	transport bridge.Transport
}

// NewDeviceInfo creates a native device info adapter over the given transport.
func NewDeviceInfo(transport bridge.Transport) *DeviceInfo {
	return &DeviceInfo{transport: transport}
}

// Info implements capability.DeviceInfo.
func (d *DeviceInfo) Info(ctx context.Context, req capability.DeviceInfoRequest) (capability.DeviceInfoResult, error) {
	raw, err := send(ctx, d.transport, devicebridge.CapabilityDeviceInfo, req)
	if err != nil {
		return capability.DeviceInfoResult{}, err
	}
	return normalize.DeviceInfoFromNative(raw)
}

// send marshals the request and forwards it, guaranteeing every error
// carries a capability kind.
func send(ctx context.Context, transport bridge.Transport, id devicebridge.CapabilityID, req any) ([]byte, error) {
	if transport == nil {
		return nil, devicebridge.NewError(devicebridge.KindUnavailable, id, "no bridge transport configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, devicebridge.WrapError(devicebridge.KindInvalidRequest, id, err)
	}
	raw, err := transport.Send(ctx, id, payload)
	if err != nil {
		return nil, devicebridge.EnsureKind(id, err)
	}
	return raw, nil
}
