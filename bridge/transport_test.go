package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicebridge-dev/devicebridge"
)

// bridgeServer is a scripted native side: it answers each envelope with
// the handler's reply, or swallows it when the handler returns nil.
func bridgeServer(t *testing.T, handle func(env envelope) *envelope) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var writeMu sync.Mutex
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			go func(env envelope) {
				if reply := handle(env); reply != nil {
					writeMu.Lock()
					_ = conn.WriteJSON(reply)
					writeMu.Unlock()
				}
			}(env)
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func Test_Send_CorrelatedReply(t *testing.T) {
	url := bridgeServer(t, func(env envelope) *envelope {
		return &envelope{ID: env.ID, Capability: env.Capability, Payload: json.RawMessage(`{"ok": true}`)}
	})

	transport, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer transport.Close()

	raw, err := transport.Send(context.Background(), devicebridge.CapabilityCamera, []byte(`{"quality": 90}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(raw))
}

func Test_Send_ConcurrentCallsDoNotCrossDeliver(t *testing.T) {
	// Replies go back tagged with the capability they were asked for;
	// every caller must get its own.
	url := bridgeServer(t, func(env envelope) *envelope {
		payload, _ := json.Marshal(map[string]string{"capability": env.Capability})
		return &envelope{ID: env.ID, Payload: payload}
	})

	transport, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer transport.Close()

	capabilities := []devicebridge.CapabilityID{
		devicebridge.CapabilityCamera,
		devicebridge.CapabilityGeolocation,
		devicebridge.CapabilityDeviceInfo,
	}

	var wg sync.WaitGroup
	for _, id := range capabilities {
		for range 5 {
			wg.Add(1)
			go func(id devicebridge.CapabilityID) {
				defer wg.Done()
				raw, err := transport.Send(context.Background(), id, []byte(`{}`))
				if !assert.NoError(t, err) {
					return
				}

				var reply struct {
					Capability string `json:"capability"`
				}
				if !assert.NoError(t, json.Unmarshal(raw, &reply)) {
					return
				}
				assert.Equal(t, id.String(), reply.Capability)
			}(id)
		}
	}
	wg.Wait()
}

func Test_ReadLoop_DuplicateReplyDoesNotStallOtherCalls(t *testing.T) {
	// A misbehaving native side answers a stale correlation ID twice
	// before the real reply. The second duplicate finds the stale
	// channel full; the loop must drop it and keep routing.
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			_ = conn.WriteJSON(envelope{ID: "stale", Payload: json.RawMessage(`{}`)})
			_ = conn.WriteJSON(envelope{ID: "stale", Payload: json.RawMessage(`{}`)})
			_ = conn.WriteJSON(envelope{ID: env.ID, Capability: env.Capability, Payload: json.RawMessage(`{"ok": true}`)})
		}
	}))
	t.Cleanup(srv.Close)

	transport, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"),
		WithCallTimeout(2*time.Second))
	require.NoError(t, err)
	defer transport.Close()

	// A waiter that stopped reading: registered, buffer already full.
	staleCh := make(chan envelope, 1)
	staleCh <- envelope{ID: "stale"}
	transport.pendingMu.Lock()
	transport.pending["stale"] = staleCh
	transport.pendingMu.Unlock()

	raw, err := transport.Send(context.Background(), devicebridge.CapabilityCamera, []byte(`{}`))
	require.NoError(t, err, "read loop must survive duplicate replies")
	assert.JSONEq(t, `{"ok": true}`, string(raw))
}

func Test_Send_TimeoutWhenNativeNeverReplies(t *testing.T) {
	url := bridgeServer(t, func(env envelope) *envelope {
		return nil // swallow every request
	})

	transport, err := Dial(context.Background(), url, WithCallTimeout(100*time.Millisecond))
	require.NoError(t, err)
	defer transport.Close()

	start := time.Now()
	_, err = transport.Send(context.Background(), devicebridge.CapabilityGeolocation, []byte(`{}`))

	assert.ErrorIs(t, err, devicebridge.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "must not hang")
}

func Test_Send_ContextDeadlineMapsToTimeout(t *testing.T) {
	url := bridgeServer(t, func(env envelope) *envelope {
		return nil
	})

	transport, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = transport.Send(ctx, devicebridge.CapabilityGeolocation, []byte(`{}`))
	assert.ErrorIs(t, err, devicebridge.ErrTimeout)
}

func Test_Send_WireErrorKindPreserved(t *testing.T) {
	url := bridgeServer(t, func(env envelope) *envelope {
		return &envelope{ID: env.ID, Error: &wireError{Kind: "unavailable", Message: "no camera device"}}
	})

	transport, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer transport.Close()

	_, err = transport.Send(context.Background(), devicebridge.CapabilityCamera, []byte(`{}`))

	ce, ok := devicebridge.AsCapabilityError(err)
	require.True(t, ok)
	assert.Equal(t, devicebridge.KindUnavailable, ce.Kind)
	assert.Equal(t, "no camera device", ce.Message)
}

func Test_Send_UnknownWireKindDegradesToBackendFailure(t *testing.T) {
	url := bridgeServer(t, func(env envelope) *envelope {
		return &envelope{ID: env.ID, Error: &wireError{Kind: "exploded", Message: "boom"}}
	})

	transport, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer transport.Close()

	_, err = transport.Send(context.Background(), devicebridge.CapabilityCamera, []byte(`{}`))
	assert.ErrorIs(t, err, devicebridge.ErrBackendFailure)
}

func Test_Dial_Unreachable(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/bridge")
	assert.ErrorIs(t, err, devicebridge.ErrUnavailable)
}

func Test_DialProbe(t *testing.T) {
	url := bridgeServer(t, func(env envelope) *envelope { return nil })

	assert.True(t, DialProbe(url, time.Second)())
	assert.False(t, DialProbe("ws://127.0.0.1:1/bridge", 200*time.Millisecond)())
}
