// Package bridge carries capability requests to the native side and
// routes correlated asynchronous replies back to their callers.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/netutil"
)

// DefaultCallTimeout bounds a native call that receives no reply.
const DefaultCallTimeout = 10 * time.Second

// Transport sends an opaque request payload for one capability and
// resolves to the correlated opaque response payload. Calls are not
// retried automatically.
type Transport interface {
	Send(ctx context.Context, id devicebridge.CapabilityID, payload []byte) ([]byte, error)
	Close() error
}

// envelope is the wire frame exchanged with the native side. The request
// and response payload stay opaque to this package.
type envelope struct {
	ID         string          `json:"id"`
	Capability string          `json:"capability"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Error      *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WebSocketTransport is the websocket-backed Transport. One read loop
// routes replies to pending calls by correlation ID; concurrent in-flight
// calls never cross-deliver.
type WebSocketTransport struct {
	conn    *websocket.Conn
	timeout time.Duration
	log     *slog.Logger
	handler devicebridge.Handler

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan envelope

	closeOnce sync.Once
	done      chan struct{}
	readErr   error
}

// Option configures a WebSocketTransport.
type Option func(*transportConfig)

type transportConfig struct {
	timeout    time.Duration
	log        *slog.Logger
	middleware []devicebridge.Middleware
}

// WithCallTimeout sets the bound on awaiting a native reply.
func WithCallTimeout(d time.Duration) Option {
	return func(c *transportConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *transportConfig) { c.log = log }
}

// WithMiddleware wraps every send in the given middleware, FIFO.
func WithMiddleware(mws ...devicebridge.Middleware) Option {
	return func(c *transportConfig) {
		c.middleware = append(c.middleware, mws...)
	}
}

// Dial connects to a native bridge endpoint and starts the read loop.
func Dial(ctx context.Context, url string, opts ...Option) (*WebSocketTransport, error) {
	if err := netutil.ValidateBridgeURL(url); err != nil {
		return nil, devicebridge.WrapError(devicebridge.KindUnavailable, "", err)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, devicebridge.WrapError(devicebridge.KindUnavailable, "", err)
	}
	t := NewWebSocketTransport(conn, opts...)
	t.log.Info("connected to native bridge", "url", netutil.StripCredentials(url))
	return t, nil
}

// NewWebSocketTransport wraps an established connection. The caller hands
// over ownership; Close tears the connection down.
func NewWebSocketTransport(conn *websocket.Conn, opts ...Option) *WebSocketTransport {
	cfg := transportConfig{
		timeout: DefaultCallTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &WebSocketTransport{
		conn:    conn,
		timeout: cfg.timeout,
		log:     cfg.log,
		pending: make(map[string]chan envelope),
		done:    make(chan struct{}),
	}
	t.handler = devicebridge.Chain(t.roundTrip, cfg.middleware...)
	go t.readLoop()
	return t
}

// Send transmits the payload and awaits the correlated reply.
func (t *WebSocketTransport) Send(ctx context.Context, id devicebridge.CapabilityID, payload []byte) ([]byte, error) {
	return t.handler(devicebridge.WithCapability(ctx, id), payload)
}

func (t *WebSocketTransport) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	id := devicebridge.CapabilityFromContext(ctx)
	corr := uuid.NewString()

	ch := make(chan envelope, 1)
	t.pendingMu.Lock()
	t.pending[corr] = ch
	t.pendingMu.Unlock()
	defer func() {
		t.pendingMu.Lock()
		delete(t.pending, corr)
		t.pendingMu.Unlock()
	}()

	env := envelope{ID: corr, Capability: id.String(), Payload: payload}
	t.writeMu.Lock()
	err := t.conn.WriteJSON(env)
	t.writeMu.Unlock()
	if err != nil {
		return nil, devicebridge.WrapError(devicebridge.KindBackendFailure, id, err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		if reply.Error != nil {
			return nil, devicebridge.NewError(parseKind(reply.Error.Kind), id, "%s", reply.Error.Message)
		}
		return reply.Payload, nil
	case <-timer.C:
		return nil, devicebridge.NewError(devicebridge.KindTimeout, id,
			"no native reply within %s", t.timeout)
	case <-ctx.Done():
		// The in-flight native call is not aborted; its reply, if any,
		// arrives uncorrelated and is discarded.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, devicebridge.WrapError(devicebridge.KindTimeout, id, ctx.Err())
		}
		return nil, ctx.Err()
	case <-t.done:
		return nil, devicebridge.NewError(devicebridge.KindBackendFailure, id,
			"bridge connection closed: %v", t.readErr)
	}
}

func (t *WebSocketTransport) readLoop() {
	for {
		var env envelope
		if err := t.conn.ReadJSON(&env); err != nil {
			t.readErr = err
			close(t.done)
			return
		}
		t.pendingMu.Lock()
		ch, ok := t.pending[env.ID]
		t.pendingMu.Unlock()
		if !ok {
			t.log.Debug("discarding uncorrelated bridge reply", "id", env.ID, "capability", env.Capability)
			continue
		}
		select {
		case ch <- env:
		default:
			// Duplicate reply for a correlation ID whose first reply is
			// still undrained. Dropping it keeps the loop routing.
			t.log.Debug("discarding duplicate bridge reply", "id", env.ID)
		}
	}
}

// Close tears down the connection. Pending calls resolve with a
// BackendFailure once the read loop observes the closed connection.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}

// parseKind maps a wire error kind onto the canonical taxonomy. Unknown
// kinds degrade to BackendFailure rather than inventing new ones.
func parseKind(kind string) devicebridge.ErrorKind {
	switch devicebridge.ErrorKind(kind) {
	case devicebridge.KindPermissionDenied,
		devicebridge.KindUnavailable,
		devicebridge.KindTimeout,
		devicebridge.KindBackendFailure,
		devicebridge.KindInvalidRequest:
		return devicebridge.ErrorKind(kind)
	}
	return devicebridge.KindBackendFailure
}

// DialProbe returns an environment probe that reports whether the native
// bridge endpoint accepts a websocket handshake within the timeout.
func DialProbe(url string, timeout time.Duration) func() bool {
	return func() bool {
		dialer := websocket.Dialer{
			HandshakeTimeout: timeout,
			NetDial: func(network, addr string) (net.Conn, error) {
				return net.DialTimeout(network, addr, timeout)
			},
		}
		conn, resp, err := dialer.Dial(url, http.Header{})
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}
