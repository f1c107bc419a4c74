package native

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
)

// stubTransport replays canned replies per capability and records what
// crossed the wire.
type stubTransport struct {
	replies map[devicebridge.CapabilityID][]byte
	errs    map[devicebridge.CapabilityID]error
	block   bool
	sent    []sentCall
}

type sentCall struct {
	id      devicebridge.CapabilityID
	payload []byte
}

func (s *stubTransport) Send(ctx context.Context, id devicebridge.CapabilityID, payload []byte) ([]byte, error) {
	s.sent = append(s.sent, sentCall{id: id, payload: payload})
	if s.block {
		<-ctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, devicebridge.WrapError(devicebridge.KindTimeout, id, ctx.Err())
		}
		return nil, ctx.Err()
	}
	if err := s.errs[id]; err != nil {
		return nil, err
	}
	return s.replies[id], nil
}

func (s *stubTransport) Close() error { return nil }

func Test_Camera_TakePhoto(t *testing.T) {
	transport := &stubTransport{replies: map[devicebridge.CapabilityID][]byte{
		devicebridge.CapabilityCamera: []byte(`{"webPath": "file:///cap/1.jpg", "format": "jpeg"}`),
	}}
	cam := NewCamera(transport)

	res, err := cam.TakePhoto(context.Background(), capability.CaptureRequest{
		Quality: 80,
		Source:  capability.SourceCamera,
	})
	require.NoError(t, err)
	assert.Equal(t, "file:///cap/1.jpg", res.URI)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, devicebridge.CapabilityCamera, transport.sent[0].id)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(transport.sent[0].payload, &wire))
	assert.Equal(t, float64(80), wire["quality"])
	assert.Equal(t, "camera", wire["source"])
}

func Test_Locator_TimeoutAgainstSilentTransport(t *testing.T) {
	// A stub native side that never replies must resolve to a Timeout
	// error, not stay pending.
	loc := NewLocator(&stubTransport{block: true})

	start := time.Now()
	_, err := loc.CurrentPosition(context.Background(), capability.LocationRequest{
		Timeout: 100 * time.Millisecond,
	})

	assert.ErrorIs(t, err, devicebridge.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func Test_Locator_WireShape(t *testing.T) {
	transport := &stubTransport{replies: map[devicebridge.CapabilityID][]byte{
		devicebridge.CapabilityGeolocation: []byte(`{"coords": {"latitude": 1, "longitude": 2, "accuracy": 3}, "timestamp": 1700000000000}`),
	}}
	loc := NewLocator(transport)

	res, err := loc.CurrentPosition(context.Background(), capability.LocationRequest{
		DesiredAccuracy: capability.AccuracyFine,
		Timeout:         2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Latitude)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(transport.sent[0].payload, &wire))
	assert.Equal(t, "fine", wire["desiredAccuracy"])
	assert.Equal(t, float64(2000), wire["timeoutMs"])
}

func Test_DeviceInfo_Info(t *testing.T) {
	transport := &stubTransport{replies: map[devicebridge.CapabilityID][]byte{
		devicebridge.CapabilityDeviceInfo: []byte(`{"platform": "android", "osVersion": "14", "model": "Pixel 8"}`),
	}}
	info := NewDeviceInfo(transport)

	res, err := info.Info(context.Background(), capability.DeviceInfoRequest{})
	require.NoError(t, err)
	assert.Equal(t, "android", res.Platform)
	assert.Equal(t, "14.0.0", res.OSVersion)
}

func Test_Adapters_NilTransport(t *testing.T) {
	_, err := NewCamera(nil).TakePhoto(context.Background(), capability.CaptureRequest{})
	assert.ErrorIs(t, err, devicebridge.ErrUnavailable)

	_, err = NewLocator(nil).CurrentPosition(context.Background(), capability.LocationRequest{})
	assert.ErrorIs(t, err, devicebridge.ErrUnavailable)

	_, err = NewDeviceInfo(nil).Info(context.Background(), capability.DeviceInfoRequest{})
	assert.ErrorIs(t, err, devicebridge.ErrUnavailable)
}

func Test_Send_PlainTransportErrorGetsKind(t *testing.T) {
	transport := &stubTransport{errs: map[devicebridge.CapabilityID]error{
		devicebridge.CapabilityCamera: assert.AnError,
	}}

	_, err := NewCamera(transport).TakePhoto(context.Background(), capability.CaptureRequest{Quality: 50})
	assert.ErrorIs(t, err, devicebridge.ErrBackendFailure)
}
