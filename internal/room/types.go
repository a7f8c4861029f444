package room

// AllRoomName is the display name of the synthetic aggregate room.
// The All room always exists, is never persisted, and cannot be deleted.
const AllRoomName = "All"

// Room represents a room within the home.
// The synthetic All room has an empty ID.
type Room struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	DeviceCount int    `json:"device_count"`
}

// IsAll reports whether this is the synthetic aggregate room.
func (r Room) IsAll() bool {
	return r.ID == "" && r.Name == AllRoomName
}
