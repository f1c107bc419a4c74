// Package normalize maps backend-specific payload shapes onto the
// canonical capability records. Every function is a pure mapping; missing
// optional fields become documented defaults, never errors, and no
// backend field name leaks into a returned record.
package normalize

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
)

// DefaultPhotoFormat is assumed when a backend omits the image format.
const DefaultPhotoFormat = "jpeg"

// WebPlatformTag is the fixed platform reported by the web device info
// fallback. The browser does not expose more; this is a documented
// backend limitation, not a gap to fill in.
const WebPlatformTag = "web"

// nativePhoto is the wire shape of a native camera reply.
type nativePhoto struct {
	WebPath      string `json:"webPath"`
	Base64String string `json:"base64String"`
	Format       string `json:"format"`
}

// PhotoFromNative maps a native camera reply onto the canonical record.
func PhotoFromNative(raw []byte) (capability.CaptureResult, error) {
	var p nativePhoto
	if err := json.Unmarshal(raw, &p); err != nil {
		return capability.CaptureResult{}, devicebridge.WrapError(
			devicebridge.KindBackendFailure, devicebridge.CapabilityCamera, err)
	}
	res := capability.CaptureResult{
		URI:    p.WebPath,
		Format: p.Format,
	}
	if p.Base64String != "" {
		data, err := base64.StdEncoding.DecodeString(p.Base64String)
		if err != nil {
			return capability.CaptureResult{}, devicebridge.WrapError(
				devicebridge.KindBackendFailure, devicebridge.CapabilityCamera, err)
		}
		res.Data = data
	}
	if res.Format == "" {
		res.Format = DefaultPhotoFormat
	}
	return res, nil
}

// PhotoFromWeb maps a captured frame and its MIME type onto the canonical
// record.
func PhotoFromWeb(frame []byte, mimeType string) capability.CaptureResult {
	return capability.CaptureResult{
		Data:   frame,
		Format: formatFromMIME(mimeType),
	}
}

func formatFromMIME(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return DefaultPhotoFormat
	}
	sub, ok := strings.CutPrefix(mt, "image/")
	if !ok || sub == "" {
		return DefaultPhotoFormat
	}
	if sub == "jpg" {
		return "jpeg"
	}
	return sub
}

// nativePosition is the wire shape of a native geolocation reply.
type nativePosition struct {
	Coords struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Accuracy  float64 `json:"accuracy"`
	} `json:"coords"`
	Timestamp int64 `json:"timestamp"`
}

// WebPosition is the shape a browser-style position source produces.
type WebPosition struct {
	Latitude    float64
	Longitude   float64
	Accuracy    float64
	TimestampMS int64
}

// PositionFromNative maps a native geolocation reply onto the canonical
// record.
func PositionFromNative(raw []byte) (capability.LocationResult, error) {
	var p nativePosition
	if err := json.Unmarshal(raw, &p); err != nil {
		return capability.LocationResult{}, devicebridge.WrapError(
			devicebridge.KindBackendFailure, devicebridge.CapabilityGeolocation, err)
	}
	return capability.LocationResult{
		Latitude:  p.Coords.Latitude,
		Longitude: p.Coords.Longitude,
		Accuracy:  p.Coords.Accuracy,
		Timestamp: timestampFromMillis(p.Timestamp),
	}, nil
}

// PositionFromWeb maps a browser position onto the canonical record.
func PositionFromWeb(p WebPosition) capability.LocationResult {
	return capability.LocationResult{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Accuracy:  p.Accuracy,
		Timestamp: timestampFromMillis(p.TimestampMS),
	}
}

func timestampFromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// nativeDeviceInfo is the wire shape of a native device info reply.
type nativeDeviceInfo struct {
	Platform     string   `json:"platform"`
	OSVersion    string   `json:"osVersion"`
	Model        string   `json:"model"`
	BatteryLevel *float64 `json:"batteryLevel"`
	IsCharging   *bool    `json:"isCharging"`
}

// WebNavigator carries the synchronous environment attributes a browser
// exposes. Zero values mean the attribute is unavailable.
type WebNavigator struct {
	UserAgent      string
	Platform       string
	LogicalCPUs    int
	ApproxMemoryMB int64
}

// WebBattery carries optional browser battery data.
type WebBattery struct {
	Level    float64
	Charging bool
}

// DeviceInfoFromNative maps a native device info reply onto the canonical
// record. Absent battery fields become sentinels, and the OS version is
// reduced to a canonical semantic version when it parses as one.
func DeviceInfoFromNative(raw []byte) (capability.DeviceInfoResult, error) {
	var p nativeDeviceInfo
	if err := json.Unmarshal(raw, &p); err != nil {
		return capability.DeviceInfoResult{}, devicebridge.WrapError(
			devicebridge.KindBackendFailure, devicebridge.CapabilityDeviceInfo, err)
	}
	res := capability.DeviceInfoResult{
		Platform:       p.Platform,
		OSVersion:      CanonicalOSVersion(p.OSVersion),
		Model:          p.Model,
		BatteryLevel:   capability.Unknown,
		IsCharging:     p.IsCharging,
		LogicalCPUs:    capability.Unknown,
		ApproxMemoryMB: capability.Unknown,
	}
	if p.BatteryLevel != nil {
		res.BatteryLevel = *p.BatteryLevel
	}
	return res, nil
}

// DeviceInfoFromWeb maps browser attributes onto the canonical record.
// The platform is always the fixed web tag, the OS version stays empty
// (the browser does not expose one), and battery may be nil when the
// browser withholds it. This mapping cannot fail.
func DeviceInfoFromWeb(nav WebNavigator, battery *WebBattery) capability.DeviceInfoResult {
	res := capability.DeviceInfoResult{
		Platform:       WebPlatformTag,
		Model:          nav.Platform,
		BatteryLevel:   capability.Unknown,
		LogicalCPUs:    capability.Unknown,
		ApproxMemoryMB: capability.Unknown,
	}
	if res.Model == "" {
		res.Model = nav.UserAgent
	}
	if nav.LogicalCPUs > 0 {
		res.LogicalCPUs = nav.LogicalCPUs
	}
	if nav.ApproxMemoryMB > 0 {
		res.ApproxMemoryMB = nav.ApproxMemoryMB
	}
	if battery != nil {
		res.BatteryLevel = battery.Level
		charging := battery.Charging
		res.IsCharging = &charging
	}
	return res
}

// CanonicalOSVersion reduces a backend version string to its canonical
// major.minor.patch form. Strings that do not parse as a version come
// back trimmed but otherwise untouched.
func CanonicalOSVersion(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	v, err := semver.NewVersion(strings.TrimPrefix(s, "v"))
	if err != nil {
		return s
	}
	return v.String()
}
