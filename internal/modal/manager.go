package modal

import (
	"context"
	"errors"
	"sync"

	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// Mode identifies which modal surface is showing.
type Mode string

const (
	ModeClosed        Mode = "closed"
	ModeLight         Mode = "light"
	ModeThermostat    Mode = "thermostat"
	ModeCamera        Mode = "camera"
	ModeConfirmDelete Mode = "confirm_delete"
)

var (
	// ErrNoModal is returned for actions that need an open type modal.
	ErrNoModal = errors.New("no device modal is open")

	// ErrNotConfirming is returned when confirm/cancel delete is called
	// outside the confirm-delete mode.
	ErrNotConfirming = errors.New("no delete confirmation in progress")
)

// Manager routes an opened device to its type-specific modal and runs
// the two-step delete confirmation.
//
// The manager holds a snapshot of the device, a cached copy rather than
// ownership: toggles and property updates write through to the shared
// store and merge the result back into the snapshot so the open modal
// reflects optimistic state immediately.
type Manager struct {
	mu       sync.Mutex
	mode     Mode
	returnTo Mode // originating type modal while confirming a delete
	snapshot device.Device

	devices *device.Store
	logger  *logging.Logger
	notify  func()
}

// NewManager creates a closed modal manager over the device store.
func NewManager(devices *device.Store, logger *logging.Logger) *Manager {
	return &Manager{
		mode:    ModeClosed,
		devices: devices,
		logger:  logger.With("component", "modal"),
	}
}

// SetNotifier registers the callback invoked after every state change.
func (m *Manager) SetNotifier(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

// Open shows the type-specific modal for the device. Dispatch is
// case-insensitive with the camera-family aliases; unknown types open
// the camera modal.
func (m *Manager) Open(id string) error {
	d, err := m.devices.Get(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.mode = modeForType(d.Type)
	m.returnTo = ModeClosed
	m.snapshot = d
	m.mu.Unlock()

	m.changed()
	return nil
}

// Close dismisses whatever modal is showing.
func (m *Manager) Close() {
	m.mu.Lock()
	m.mode = ModeClosed
	m.returnTo = ModeClosed
	m.snapshot = device.Device{}
	m.mu.Unlock()

	m.changed()
}

// RequestDelete transitions a type modal to confirm-delete, remembering
// where to return on cancel.
func (m *Manager) RequestDelete() error {
	m.mu.Lock()
	switch m.mode {
	case ModeLight, ModeThermostat, ModeCamera:
		m.returnTo = m.mode
		m.mode = ModeConfirmDelete
	default:
		m.mu.Unlock()
		return ErrNoModal
	}
	m.mu.Unlock()

	m.changed()
	return nil
}

// CancelDelete returns to the originating type modal.
func (m *Manager) CancelDelete() error {
	m.mu.Lock()
	if m.mode != ModeConfirmDelete {
		m.mu.Unlock()
		return ErrNotConfirming
	}
	m.mode = m.returnTo
	m.returnTo = ModeClosed
	m.mu.Unlock()

	m.changed()
	return nil
}

// ConfirmDelete deletes the device through the store. Success closes
// every modal; failure is logged and the confirmation stays open.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	if m.mode != ModeConfirmDelete {
		m.mu.Unlock()
		return ErrNotConfirming
	}
	id := m.snapshot.ID
	m.mu.Unlock()

	if err := m.devices.Delete(ctx, id); err != nil {
		m.logger.Error("modal delete failed", "device_id", id, "error", err)
		return err
	}

	m.Close()
	return nil
}

// Toggle flips the snapshot device through the store, passing the
// snapshot's current power state as the pre-toggle value, and merges
// the result back so the modal updates without a list round-trip.
func (m *Manager) Toggle(ctx context.Context) (device.Device, error) {
	m.mu.Lock()
	if m.mode == ModeClosed {
		m.mu.Unlock()
		return device.Device{}, ErrNoModal
	}
	id := m.snapshot.ID
	preToggle := m.snapshot.On
	m.mu.Unlock()

	updated, err := m.devices.Toggle(ctx, id, preToggle)
	if err != nil {
		// Revert already happened in the store; resync the snapshot.
		if current, getErr := m.devices.Get(id); getErr == nil {
			m.mergeSnapshot(current)
		}
		return device.Device{}, err
	}

	m.mergeSnapshot(updated)
	return updated, nil
}

// SetProperty applies a slider change through the store's debounced
// path and mirrors it in the snapshot.
func (m *Manager) SetProperty(field string, value int) (device.Device, error) {
	m.mu.Lock()
	if m.mode == ModeClosed {
		m.mu.Unlock()
		return device.Device{}, ErrNoModal
	}
	id := m.snapshot.ID
	m.mu.Unlock()

	updated, err := m.devices.SetProperty(id, field, value)
	if err != nil {
		return device.Device{}, err
	}

	m.mergeSnapshot(updated)
	return updated, nil
}

// CommitProperty applies a direct-entry edit through the store and
// merges the backend's returned device into the snapshot.
func (m *Manager) CommitProperty(ctx context.Context, field, raw string) (device.Device, error) {
	m.mu.Lock()
	if m.mode == ModeClosed {
		m.mu.Unlock()
		return device.Device{}, ErrNoModal
	}
	id := m.snapshot.ID
	m.mu.Unlock()

	updated, err := m.devices.CommitProperty(ctx, id, field, raw)
	if errors.Is(err, device.ErrInvalidValue) {
		// The store reverted to the last valid value; show it.
		m.mergeSnapshot(updated)
		return updated, err
	}
	if err != nil {
		return device.Device{}, err
	}

	m.mergeSnapshot(updated)
	return updated, nil
}

// Snapshot returns the current mode and the cached device copy.
func (m *Manager) Snapshot() (Mode, device.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode, m.snapshot
}

func (m *Manager) mergeSnapshot(d device.Device) {
	m.mu.Lock()
	if m.snapshot.ID == d.ID {
		m.snapshot = d
	}
	m.mu.Unlock()

	m.changed()
}

func (m *Manager) changed() {
	m.mu.Lock()
	fn := m.notify
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func modeForType(t device.Type) Mode {
	switch t {
	case device.TypeLight:
		return ModeLight
	case device.TypeThermostat:
		return ModeThermostat
	default:
		return ModeCamera
	}
}
