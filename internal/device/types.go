package device

import "strings"

// Type classifies a device and determines which modal, status table,
// and editable properties apply to it.
type Type string

const (
	TypeLight      Type = "light"
	TypeThermostat Type = "thermostat"
	TypeCamera     Type = "camera"
)

// Property value bounds, applied on edit-commit.
const (
	BrightnessMin = 0
	BrightnessMax = 100
	TargetTempMin = 50
	TargetTempMax = 100
)

// Editable property field names.
const (
	FieldBrightness = "brightness"
	FieldTargetTemp = "targetTemp"
)

// ParseType normalises a raw type string. Matching is case-insensitive
// and the camera family accepts the aliases "securitycamera",
// "security_camera", and "security-camera". Unrecognised types resolve
// to camera.
func ParseType(raw string) Type {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "light":
		return TypeLight
	case "thermostat":
		return TypeThermostat
	case "camera", "securitycamera", "security_camera", "security-camera":
		return TypeCamera
	default:
		return TypeCamera
	}
}

// Device represents a single controllable device. A device belongs to
// at most one room; RoomID is empty when orphaned.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   Type   `json:"type"`
	RoomID string `json:"room_id,omitempty"`
	On     bool   `json:"is_on"`

	// Brightness applies to lights only, 0-100.
	Brightness int `json:"brightness,omitempty"`

	// TargetTemp applies to thermostats only, 50-100 degrees Fahrenheit.
	TargetTemp int `json:"target_temp,omitempty"`

	// Status is the display text derived from the type-keyed status table.
	Status string `json:"status"`
}

// ClampValue bounds a property value to its valid range for the field.
// Unknown fields are returned unchanged.
func ClampValue(field string, value int) int {
	switch field {
	case FieldBrightness:
		return clamp(value, BrightnessMin, BrightnessMax)
	case FieldTargetTemp:
		return clamp(value, TargetTempMin, TargetTempMax)
	default:
		return value
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
