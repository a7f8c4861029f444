package device

import "errors"

var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrUnknownField is returned when a property update names a field
	// the device type does not carry.
	ErrUnknownField = errors.New("unknown property field")

	// ErrInvalidValue is returned on a direct-entry commit whose input
	// cannot be parsed as a number.
	ErrInvalidValue = errors.New("invalid property value")
)
