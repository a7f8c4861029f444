package mqtt

import "strings"

// Topic layout for the backend push channel. The backend publishes
// per-device state updates under homedeck/state/{deviceID}.
const (
	// StateTopicFilter subscribes to every device's state updates.
	StateTopicFilter = "homedeck/state/+"

	stateTopicPrefix = "homedeck/state/"
)

// DeviceIDFromStateTopic extracts the device ID from a state topic.
// Returns empty for topics outside the state namespace.
func DeviceIDFromStateTopic(topic string) string {
	rest, ok := strings.CutPrefix(topic, stateTopicPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
