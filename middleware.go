package devicebridge

import (
	"context"
	"log/slog"
	"time"
)

// Handler is the raw call shape the bridge transport executes: an opaque
// request payload in, an opaque response payload out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// Middleware wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Handler) Handler

// Chain applies middleware to h in FIFO order.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LoggingMiddleware returns a middleware that logs each bridge call with
// its capability and duration.
func LoggingMiddleware(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			capability := CapabilityFromContext(ctx)
			start := time.Now()
			resp, err := next(ctx, payload)
			if err != nil {
				log.Warn("bridge call failed",
					"capability", capability,
					"duration", time.Since(start),
					"error", err)
			} else {
				log.Debug("bridge call completed",
					"capability", capability,
					"duration", time.Since(start))
			}
			return resp, err
		}
	}
}

// RecoveryMiddleware returns a middleware that converts handler panics
// into BackendFailure errors instead of crashing the caller.
func RecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewError(KindBackendFailure, CapabilityFromContext(ctx), "panic in bridge handler: %v", r)
				}
			}()
			return next(ctx, payload)
		}
	}
}

// Context helpers for capability propagation through the transport.
type bridgeContextKey struct {
	name string
}

var capabilityContextKey = &bridgeContextKey{name: "capability"}

// WithCapability tags the context with the capability a bridge call targets.
func WithCapability(ctx context.Context, id CapabilityID) context.Context {
	return context.WithValue(ctx, capabilityContextKey, id)
}

// CapabilityFromContext retrieves the capability tag, or "" when absent.
func CapabilityFromContext(ctx context.Context) CapabilityID {
	id, _ := ctx.Value(capabilityContextKey).(CapabilityID)
	return id
}
