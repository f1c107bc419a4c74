// Package registry implements the capability dispatcher: the façade
// callers use. It resolves the environment once, sequences authorization
// through the permission machine, and routes each call to the adapter
// matching the environment. Adapters never pick themselves.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/config"
	"github.com/devicebridge-dev/devicebridge/environ"
	"github.com/devicebridge-dev/devicebridge/permission"
	"github.com/devicebridge-dev/devicebridge/validation"
)

// Registry dispatches capability calls. Construct one explicitly and hand
// it to callers; there is no process-wide instance.
type Registry struct {
	detector  *environ.Detector
	perms     *permission.Machine
	validator *validation.Validator
	cfg       config.Config
	log       *slog.Logger

	nativeCamera capability.Camera
	webCamera    capability.Camera

	nativeLocator capability.Locator
	webLocator    capability.Locator

	nativeDeviceInfo capability.DeviceInfo
	webDeviceInfo    capability.DeviceInfo
}

// Option configures a Registry.
type Option func(*Registry)

// WithConfig sets the startup configuration.
func WithConfig(cfg config.Config) Option {
	return func(r *Registry) { r.cfg = cfg }
}

// WithDetector sets the environment detector.
func WithDetector(d *environ.Detector) Option {
	return func(r *Registry) { r.detector = d }
}

// WithPermissionMachine sets the permission machine.
func WithPermissionMachine(m *permission.Machine) Option {
	return func(r *Registry) { r.perms = m }
}

// WithValidator sets the request validator.
func WithValidator(v *validation.Validator) Option {
	return func(r *Registry) { r.validator = v }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithNativeAdapters sets the native adapter for each capability.
func WithNativeAdapters(cam capability.Camera, loc capability.Locator, info capability.DeviceInfo) Option {
	return func(r *Registry) {
		r.nativeCamera = cam
		r.nativeLocator = loc
		r.nativeDeviceInfo = info
	}
}

// WithWebAdapters sets the web-fallback adapter for each capability.
func WithWebAdapters(cam capability.Camera, loc capability.Locator, info capability.DeviceInfo) Option {
	return func(r *Registry) {
		r.webCamera = cam
		r.webLocator = loc
		r.webDeviceInfo = info
	}
}

// New creates a Registry. Without options it resolves to the web
// environment, all capabilities enabled, schema validation on.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		cfg: config.Default(),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.detector == nil {
		r.detector = environ.NewDetector(environ.WithLogger(r.log))
	}
	if r.perms == nil {
		r.perms = permission.NewMachine(permission.WithLogger(r.log))
	}
	if r.validator == nil {
		v, err := validation.New()
		if err != nil {
			return nil, fmt.Errorf("failed to build request validator: %w", err)
		}
		r.validator = v
	}
	return r, nil
}

// Environment returns the resolved environment. The first call detects;
// later calls observe the same answer.
func (r *Registry) Environment() environ.Environment {
	return r.detector.Detect()
}

// TakePhoto captures one photo. Two calls are two distinct captures; the
// dispatcher never coalesces them.
func (r *Registry) TakePhoto(ctx context.Context, req capability.CaptureRequest) (capability.CaptureResult, error) {
	const id = devicebridge.CapabilityCamera

	if req.Quality == 0 {
		req.Quality = r.cfg.Camera.Quality
	}
	if req.Source == "" {
		req.Source = capability.CaptureSource(r.cfg.Camera.Source)
	}
	if req.Source == "" {
		// Configuration may leave the default empty; the schema does not.
		req.Source = capability.SourceCamera
	}

	if err := r.preflight(ctx, id, req); err != nil {
		return capability.CaptureResult{}, err
	}

	var adapter capability.Camera
	switch r.Environment() {
	case environ.Native:
		adapter = r.nativeCamera
	case environ.Web:
		adapter = r.webCamera
	}
	if adapter == nil {
		return capability.CaptureResult{}, r.noAdapter(id)
	}

	res, err := adapter.TakePhoto(ctx, req)
	if err != nil {
		return capability.CaptureResult{}, devicebridge.EnsureKind(id, err)
	}
	return res, nil
}

// GetCurrentPosition answers a single one-shot position query.
func (r *Registry) GetCurrentPosition(ctx context.Context, req capability.LocationRequest) (capability.LocationResult, error) {
	const id = devicebridge.CapabilityGeolocation

	if req.DesiredAccuracy == "" {
		req.DesiredAccuracy = capability.AccuracyLevel(r.cfg.Location.Accuracy)
	}
	if req.DesiredAccuracy == "" {
		req.DesiredAccuracy = capability.AccuracyCoarse
	}
	if req.Timeout == 0 {
		req.Timeout = r.cfg.Location.Timeout()
	}

	if err := r.preflight(ctx, id, req); err != nil {
		return capability.LocationResult{}, err
	}

	var adapter capability.Locator
	switch r.Environment() {
	case environ.Native:
		adapter = r.nativeLocator
	case environ.Web:
		adapter = r.webLocator
	}
	if adapter == nil {
		return capability.LocationResult{}, r.noAdapter(id)
	}

	res, err := adapter.CurrentPosition(ctx, req)
	if err != nil {
		return capability.LocationResult{}, devicebridge.EnsureKind(id, err)
	}
	return res, nil
}

// GetDeviceInfo reads device metadata. No permission transition is
// involved; device info is implicitly granted.
func (r *Registry) GetDeviceInfo(ctx context.Context) (capability.DeviceInfoResult, error) {
	const id = devicebridge.CapabilityDeviceInfo

	if !r.cfg.Enabled(id) {
		return capability.DeviceInfoResult{}, r.disabled(id)
	}

	var adapter capability.DeviceInfo
	switch r.Environment() {
	case environ.Native:
		adapter = r.nativeDeviceInfo
	case environ.Web:
		adapter = r.webDeviceInfo
	}
	if adapter == nil {
		return capability.DeviceInfoResult{}, r.noAdapter(id)
	}

	res, err := adapter.Info(ctx, capability.DeviceInfoRequest{})
	if err != nil {
		return capability.DeviceInfoResult{}, devicebridge.EnsureKind(id, err)
	}
	return res, nil
}

// RequestPermission asks the platform to authorize a capability and
// returns the resulting state.
func (r *Registry) RequestPermission(ctx context.Context, id devicebridge.CapabilityID) (permission.State, error) {
	if !id.Valid() {
		return permission.StateUnknown, devicebridge.NewError(
			devicebridge.KindUnavailable, id, "unknown capability")
	}
	if !r.cfg.Enabled(id) {
		return permission.StateUnknown, r.disabled(id)
	}
	return r.perms.Request(ctx, id)
}

// preflight validates the request and ensures authorization. A Denied or
// Restricted state short-circuits before any adapter is touched.
func (r *Registry) preflight(ctx context.Context, id devicebridge.CapabilityID, req interface{ Validate() error }) error {
	if !r.cfg.Enabled(id) {
		return r.disabled(id)
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := r.validator.ValidateRequest(id, req); err != nil {
		return err
	}

	state, err := r.perms.EnsureAuthorized(ctx, id)
	if err != nil {
		return err
	}
	switch state {
	case permission.StateGranted:
		return nil
	case permission.StateDenied, permission.StateRestricted:
		r.log.Info("capability call short-circuited", "capability", id, "state", state)
		return devicebridge.NewError(devicebridge.KindPermissionDenied, id,
			"permission %s", state)
	default:
		return devicebridge.NewError(devicebridge.KindPermissionDenied, id,
			"permission unresolved")
	}
}

func (r *Registry) disabled(id devicebridge.CapabilityID) error {
	return devicebridge.NewError(devicebridge.KindUnavailable, id, "capability disabled by configuration")
}

func (r *Registry) noAdapter(id devicebridge.CapabilityID) error {
	return devicebridge.NewError(devicebridge.KindUnavailable, id,
		"no %s adapter for environment %s", id, r.Environment())
}
