package device

import "fmt"

// StatusText returns the display status for a device state using the
// type-keyed table: lights read On/Off, thermostats read the setpoint
// when heating and Idle otherwise, cameras read Online/Offline.
func StatusText(t Type, on bool, targetTemp int) string {
	switch t {
	case TypeLight:
		if on {
			return "On"
		}
		return "Off"
	case TypeThermostat:
		if on {
			return fmt.Sprintf("Set to %d°F", targetTemp)
		}
		return "Idle"
	case TypeCamera:
		if on {
			return "Online"
		}
		return "Offline"
	default:
		return ""
	}
}

// Refresh recomputes the device's status text from its current state.
func (d *Device) Refresh() {
	d.Status = StatusText(d.Type, d.On, d.TargetTemp)
}
