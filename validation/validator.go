// Package validation checks capability requests against JSON Schemas
// reflected from the canonical request records, so a malformed request
// fails before it reaches the permission machine or an adapter.
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/capability"
)

// Validator holds one compiled schema per capability that takes a
// configurable request. Device info takes none and has no schema.
type Validator struct {
	schemas map[devicebridge.CapabilityID]*jsv.Schema
}

// New reflects and compiles the request schemas.
func New() (*Validator, error) {
	reflector := new(jsonschema.Reflector)
	reflector.ExpandedStruct = true

	models := map[devicebridge.CapabilityID]any{
		devicebridge.CapabilityCamera:      capability.CaptureRequest{},
		devicebridge.CapabilityGeolocation: capability.LocationRequest{},
	}

	v := &Validator{schemas: make(map[devicebridge.CapabilityID]*jsv.Schema, len(models))}
	for id, model := range models {
		reflected := reflector.Reflect(model)
		raw, err := json.Marshal(reflected)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request schema: %w", id, err)
		}
		compiled, err := jsv.CompileString(fmt.Sprintf("capability://%s", id), string(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s request schema: %w", id, err)
		}
		v.schemas[id] = compiled
	}
	return v, nil
}

// ValidateRequest checks a request against its capability schema.
// Capabilities without a schema pass.
func (v *Validator) ValidateRequest(id devicebridge.CapabilityID, req any) error {
	schema, ok := v.schemas[id]
	if !ok {
		return nil
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return devicebridge.WrapError(devicebridge.KindInvalidRequest, id, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return devicebridge.WrapError(devicebridge.KindInvalidRequest, id, err)
	}

	if err := schema.Validate(doc); err != nil {
		return devicebridge.WrapError(devicebridge.KindInvalidRequest, id, err)
	}
	return nil
}
