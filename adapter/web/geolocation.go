package web

import (
	"context"
	"errors"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/normalize"
)

// Geolocator is the web-fallback geolocation adapter: a single one-shot
// position query, never a watch.
type Geolocator struct {
	source PositionSource
}

// NewGeolocator creates a web geolocation adapter over the given source.
func NewGeolocator(source PositionSource) *Geolocator {
	return &Geolocator{source: source}
}

// CurrentPosition implements capability.Locator.
func (g *Geolocator) CurrentPosition(ctx context.Context, req capability.LocationRequest) (capability.LocationResult, error) {
	if g.source == nil {
		return capability.LocationResult{}, devicebridge.NewError(
			devicebridge.KindUnavailable, devicebridge.CapabilityGeolocation, "no position source available")
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	pos, err := g.source.CurrentPosition(ctx, PositionOptions{
		HighAccuracy: req.DesiredAccuracy == capability.AccuracyFine,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return capability.LocationResult{}, devicebridge.WrapError(
				devicebridge.KindTimeout, devicebridge.CapabilityGeolocation, err)
		}
		return capability.LocationResult{}, devicebridge.EnsureKind(devicebridge.CapabilityGeolocation, err)
	}

	return normalize.PositionFromWeb(pos), nil
}
