package capability

import "context"

// Camera captures a single photo. Implemented by exactly two adapters,
// native and web; neither inspects the runtime environment itself.
type Camera interface {
	TakePhoto(ctx context.Context, req CaptureRequest) (CaptureResult, error)
}

// Locator answers a single one-shot position query. It never starts
// continuous watching.
type Locator interface {
	CurrentPosition(ctx context.Context, req LocationRequest) (LocationResult, error)
}

// DeviceInfo reads device metadata. Web implementations must not fail;
// they return partial data with sentinel markers instead.
type DeviceInfo interface {
	Info(ctx context.Context, req DeviceInfoRequest) (DeviceInfoResult, error)
}
