package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/room"
)

// LocalBackend is the in-memory collaborator used when no remote
// backend is configured: demo panels, development, and tests. It
// satisfies the same room and device collaborator interfaces as Client,
// so the stores cannot tell the two apart.
type LocalBackend struct {
	mu      sync.Mutex
	rooms   []room.Room
	devices []device.Device
}

// NewLocalBackend creates an empty local backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

// ListRooms returns the stored rooms. homeID is accepted for interface
// parity and ignored.
func (l *LocalBackend) ListRooms(_ context.Context, _ string) ([]room.Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]room.Room, len(l.rooms))
	copy(out, l.rooms)
	return out, nil
}

// CreateRoom stores a new room with a generated ID.
func (l *LocalBackend) CreateRoom(_ context.Context, _, name string) (room.Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := room.Room{ID: uuid.NewString(), Name: name}
	l.rooms = append(l.rooms, r)
	return r, nil
}

// DeleteRoom removes a room and cascades to its devices.
func (l *LocalBackend) DeleteRoom(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	kept := l.rooms[:0]
	for _, r := range l.rooms {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	l.rooms = kept

	if !found {
		return fmt.Errorf("Room %w", ErrNotFound)
	}

	keptDevices := l.devices[:0]
	for _, d := range l.devices {
		if d.RoomID != id {
			keptDevices = append(keptDevices, d)
		}
	}
	l.devices = keptDevices
	return nil
}

// ListDevices returns the stored devices.
func (l *LocalBackend) ListDevices(_ context.Context) ([]device.Device, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]device.Device, len(l.devices))
	copy(out, l.devices)
	return out, nil
}

// CreateDevice stores a new device with a generated ID.
func (l *LocalBackend) CreateDevice(_ context.Context, d device.Device) (device.Device, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d.ID = uuid.NewString()
	d.Refresh()
	l.devices = append(l.devices, d)
	return d, nil
}

// SetPower applies a power command. The payload carries the pre-toggle
// state, so the stored device flips to its negation.
func (l *LocalBackend) SetPower(_ context.Context, id string, preToggleOn bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.devices {
		if l.devices[i].ID == id {
			l.devices[i].On = !preToggleOn
			l.devices[i].Refresh()
			return nil
		}
	}
	return fmt.Errorf("Device %w", ErrNotFound)
}

// UpdateProperty writes a clamped property value and returns the
// updated device.
func (l *LocalBackend) UpdateProperty(_ context.Context, id, field string, value int) (device.Device, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	value = device.ClampValue(field, value)
	for i := range l.devices {
		if l.devices[i].ID != id {
			continue
		}
		switch field {
		case device.FieldBrightness:
			l.devices[i].Brightness = value
		case device.FieldTargetTemp:
			l.devices[i].TargetTemp = value
		default:
			return device.Device{}, ErrBadRequest
		}
		l.devices[i].Refresh()
		return l.devices[i], nil
	}
	return device.Device{}, fmt.Errorf("Device %w", ErrNotFound)
}

// DeleteDevice removes a device.
func (l *LocalBackend) DeleteDevice(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.devices[:0]
	found := false
	for _, d := range l.devices {
		if d.ID == id {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	l.devices = kept

	if !found {
		return fmt.Errorf("Device %w", ErrNotFound)
	}
	return nil
}
