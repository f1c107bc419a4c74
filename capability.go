// Package devicebridge provides the shared vocabulary of the capability
// bridge: capability identifiers, the canonical error taxonomy, and
// cross-cutting call middleware.
package devicebridge

import "fmt"

// CapabilityID identifies one platform capability exposed by the bridge.
// The set is closed; adapters and the permission machine are keyed by it.
type CapabilityID string

const (
	CapabilityCamera      CapabilityID = "camera"
	CapabilityGeolocation CapabilityID = "geolocation"
	CapabilityDeviceInfo  CapabilityID = "device_info"
)

// AllCapabilities returns every known capability identifier.
func AllCapabilities() []CapabilityID {
	return []CapabilityID{CapabilityCamera, CapabilityGeolocation, CapabilityDeviceInfo}
}

// Valid reports whether the identifier names a known capability.
func (c CapabilityID) Valid() bool {
	switch c {
	case CapabilityCamera, CapabilityGeolocation, CapabilityDeviceInfo:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (c CapabilityID) String() string {
	return string(c)
}

// ParseCapabilityID converts a raw string into a CapabilityID.
func ParseCapabilityID(s string) (CapabilityID, error) {
	id := CapabilityID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown capability: %q", s)
	}
	return id, nil
}
