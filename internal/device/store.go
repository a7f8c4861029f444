package device

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// State history sources.
const (
	SourceCommand = "command" // panel-initiated change
	SourceRemote  = "remote"  // backend push channel
	SourceLocal   = "local"   // local revert or reconcile
)

// flushTimeout bounds the backend call made when a debounce window closes.
const flushTimeout = 10 * time.Second

// Collaborator is the backend interface the store depends on.
//
// SetPower carries the *pre-toggle* power state: callers pass the value
// the device had before the flip, and the backend derives the new state.
// This convention is load-bearing and covered by tests.
type Collaborator interface {
	ListDevices(ctx context.Context) ([]Device, error)
	CreateDevice(ctx context.Context, d Device) (Device, error)
	SetPower(ctx context.Context, id string, preToggleOn bool) error
	UpdateProperty(ctx context.Context, id, field string, value int) (Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

// HistoryRecorder appends device state transitions for later review.
// The store treats recording as best-effort.
type HistoryRecorder interface {
	Record(ctx context.Context, deviceID, field, value, source string) error
}

// Telemetry receives committed state changes as numeric metrics.
type Telemetry interface {
	WriteDeviceMetric(deviceID, field string, value float64)
}

// Store holds the in-memory device list and mediates every mutation:
// optimistic toggles with revert-on-failure, debounced slider writes,
// clamped direct-entry commits, and confirmed-persistence adds and
// deletes.
type Store struct {
	mu      sync.RWMutex
	devices []Device

	backend   Collaborator
	logger    *logging.Logger
	debouncer *Debouncer

	history   HistoryRecorder
	telemetry Telemetry
	notify    func()

	// loadError holds the canned message from the last failed Load,
	// cleared on success. Panels render it with a Retry control.
	loadError string
}

// NewStore creates a device store.
//
// Parameters:
//   - backend: Collaborator used for persistence
//   - logger: Structured logger
//   - debounceInterval: Quiet period for coalescing slider writes
//
// Returns:
//   - *Store: Empty store; call Load to populate
func NewStore(backend Collaborator, logger *logging.Logger, debounceInterval time.Duration) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With("component", "device_store"),
	}
	s.debouncer = NewDebouncer(debounceInterval, s.flushProperty)
	return s
}

// SetHistory attaches a state history recorder.
func (s *Store) SetHistory(h HistoryRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = h
}

// SetTelemetry attaches a telemetry sink.
func (s *Store) SetTelemetry(t Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = t
}

// SetNotifier registers the callback invoked after every mutation.
func (s *Store) SetNotifier(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Load replaces the device list with the backend's current catalogue.
// On failure the previous list is kept and LoadError reports the
// message until the next successful Load.
func (s *Store) Load(ctx context.Context) error {
	devices, err := s.backend.ListDevices(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadError = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("loading devices: %w", err)
	}

	for i := range devices {
		devices[i].Refresh()
	}

	s.mu.Lock()
	s.devices = devices
	s.loadError = ""
	s.mu.Unlock()

	s.logger.Info("devices loaded", "count", len(devices))
	s.changed()
	return nil
}

// Restore seeds the local list from a cached snapshot without touching
// the collaborator. The load error from the failed Load is preserved so
// the panel can show that it is working from stale data.
func (s *Store) Restore(devices []Device) {
	for i := range devices {
		devices[i].Refresh()
	}

	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()

	s.logger.Info("devices restored from cache", "count", len(devices))
	s.changed()
}

// LoadError returns the message from the last failed Load, or empty.
func (s *Store) LoadError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadError
}

// Devices returns a copy of the full device list.
func (s *Store) Devices() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// DevicesInRoom returns the devices assigned to the room. An empty
// roomID returns every device (the All room view).
func (s *Store) DevicesInRoom(roomID string) []Device {
	if roomID == "" {
		return s.Devices()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Device
	for _, d := range s.devices {
		if d.RoomID == roomID {
			out = append(out, d)
		}
	}
	return out
}

// CountInRoom reports the number of devices assigned to the room.
func (s *Store) CountInRoom(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.devices {
		if d.RoomID == roomID {
			n++
		}
	}
	return n
}

// Get returns the device with the given ID.
func (s *Store) Get(id string) (Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

// Add persists a new device through the collaborator and appends it
// locally once confirmed. The device's type is normalised and its
// status text initialised before the create call.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - d: Device to create; ID is assigned by the collaborator
//
// Returns:
//   - Device: The persisted device
//   - error: Collaborator error (local list unchanged on failure)
func (s *Store) Add(ctx context.Context, d Device) (Device, error) {
	d.Type = ParseType(string(d.Type))
	if d.Type == TypeLight && d.Brightness == 0 {
		d.Brightness = BrightnessMax
	}
	if d.Type == TypeThermostat && d.TargetTemp == 0 {
		d.TargetTemp = 72
	}
	d.Refresh()

	created, err := s.backend.CreateDevice(ctx, d)
	if err != nil {
		s.logger.Error("device create failed", "name", d.Name, "error", err)
		return Device{}, fmt.Errorf("creating device: %w", err)
	}
	created.Refresh()

	s.mu.Lock()
	s.devices = append(s.devices, created)
	s.mu.Unlock()

	s.logger.Info("device added", "device_id", created.ID, "name", created.Name, "type", created.Type)
	s.changed()
	return created, nil
}

// Toggle flips the device's power state optimistically and sends the
// pre-toggle value to the collaborator. On collaborator failure the
// flip is reverted and the error returned.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - id: Device ID
//   - currentOn: The power state *before* the flip, as observed by the
//     caller; passed through to the collaborator unchanged
//
// Returns:
//   - Device: The device after the flip (or after the revert on failure)
//   - error: ErrDeviceNotFound or the collaborator error
func (s *Store) Toggle(ctx context.Context, id string, currentOn bool) (Device, error) {
	flipped, err := s.applyToggle(id, !currentOn)
	if err != nil {
		return Device{}, err
	}
	s.changed()

	if err := s.backend.SetPower(ctx, id, currentOn); err != nil {
		reverted, revertErr := s.applyToggle(id, currentOn)
		if revertErr == nil {
			flipped = reverted
		}
		s.changed()
		s.logger.Error("toggle failed, reverted", "device_id", id, "error", err)
		return flipped, fmt.Errorf("toggling device: %w", err)
	}

	s.record(ctx, id, "is_on", strconv.FormatBool(flipped.On), SourceCommand)
	s.metric(id, "is_on", boolMetric(flipped.On))
	return flipped, nil
}

// SetProperty applies a slider-style property change: the local value
// updates immediately for responsiveness and the backend write is
// debounced, coalescing rapid changes into one call carrying the final
// value.
//
// Returns:
//   - Device: The locally updated device
//   - error: ErrDeviceNotFound or ErrUnknownField
func (s *Store) SetProperty(id, field string, value int) (Device, error) {
	value = ClampValue(field, value)

	updated, err := s.applyProperty(id, field, value)
	if err != nil {
		return Device{}, err
	}
	s.changed()

	s.debouncer.Set(id, field, value)
	return updated, nil
}

// CommitProperty applies a direct-entry (typed) property edit: the
// input is parsed, clamped to the field's range, and written to the
// collaborator immediately. Unparseable input reverts to the last valid
// value without a collaborator call.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - id: Device ID
//   - field: FieldBrightness or FieldTargetTemp
//   - raw: The typed input
//
// Returns:
//   - Device: The device after the commit (current state on parse failure)
//   - error: ErrInvalidValue, ErrDeviceNotFound, ErrUnknownField, or the
//     collaborator error
func (s *Store) CommitProperty(ctx context.Context, id, field, raw string) (Device, error) {
	current, err := s.Get(id)
	if err != nil {
		return Device{}, err
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return current, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	value = ClampValue(field, value)

	if _, err := s.applyProperty(id, field, value); err != nil {
		return Device{}, err
	}
	s.changed()

	returned, err := s.backend.UpdateProperty(ctx, id, field, value)
	if err != nil {
		s.logger.Error("property commit failed", "device_id", id, "field", field, "error", err)
		return current, fmt.Errorf("updating property: %w", err)
	}

	merged := s.merge(returned)
	s.record(ctx, id, field, strconv.Itoa(value), SourceCommand)
	s.metric(id, field, float64(value))
	s.changed()
	return merged, nil
}

// Delete removes the device after collaborator confirmation. Pending
// debounced writes for the device are dropped. Local state is unchanged
// on failure.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	if err := s.backend.DeleteDevice(ctx, id); err != nil {
		s.logger.Error("device delete failed", "device_id", id, "error", err)
		return fmt.Errorf("deleting device: %w", err)
	}

	s.debouncer.Cancel(id)

	s.mu.Lock()
	kept := s.devices[:0]
	for _, d := range s.devices {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.devices = kept
	s.mu.Unlock()

	s.logger.Info("device deleted", "device_id", id)
	s.changed()
	return nil
}

// RemoveByRoom drops every device assigned to the room from local
// state. Invoked by the room store's deletion cascade; the backend
// removes the persisted devices as part of the room delete.
func (s *Store) RemoveByRoom(roomID string) {
	if roomID == "" {
		return
	}

	s.mu.Lock()
	kept := s.devices[:0]
	removed := 0
	for _, d := range s.devices {
		if d.RoomID == roomID {
			s.debouncer.Cancel(d.ID)
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.devices = kept
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("devices removed with room", "room_id", roomID, "count", removed)
		s.changed()
	}
}

// RemoteUpdate is a server-initiated state change from the backend push
// channel. Nil fields are left untouched; present fields win over local
// state (last writer wins).
type RemoteUpdate struct {
	DeviceID   string `json:"device_id"`
	On         *bool  `json:"is_on,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
	TargetTemp *int   `json:"target_temp,omitempty"`
}

// ApplyRemote merges a remote state update into the local list.
// Unknown device IDs are ignored.
func (s *Store) ApplyRemote(u RemoteUpdate) {
	s.mu.Lock()
	var applied *Device
	for i := range s.devices {
		if s.devices[i].ID != u.DeviceID {
			continue
		}
		d := &s.devices[i]
		if u.On != nil {
			d.On = *u.On
		}
		if u.Brightness != nil {
			d.Brightness = ClampValue(FieldBrightness, *u.Brightness)
		}
		if u.TargetTemp != nil {
			d.TargetTemp = ClampValue(FieldTargetTemp, *u.TargetTemp)
		}
		d.Refresh()
		copied := *d
		applied = &copied
		break
	}
	s.mu.Unlock()

	if applied == nil {
		return
	}

	if u.On != nil {
		s.record(context.Background(), u.DeviceID, "is_on", strconv.FormatBool(applied.On), SourceRemote)
	}
	if u.Brightness != nil {
		s.record(context.Background(), u.DeviceID, FieldBrightness, strconv.Itoa(applied.Brightness), SourceRemote)
	}
	if u.TargetTemp != nil {
		s.record(context.Background(), u.DeviceID, FieldTargetTemp, strconv.Itoa(applied.TargetTemp), SourceRemote)
	}
	s.changed()
}

// Flush forces all pending debounced writes to the backend now.
func (s *Store) Flush() {
	s.debouncer.Flush()
}

// Stop cancels pending debounced writes. The store remains readable.
func (s *Store) Stop() {
	s.debouncer.Stop()
}

// flushProperty delivers a coalesced slider value to the backend once
// its debounce window closes.
func (s *Store) flushProperty(id, field string, value int) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	returned, err := s.backend.UpdateProperty(ctx, id, field, value)
	if err != nil {
		s.logger.Error("debounced write failed", "device_id", id, "field", field, "error", err)
		return
	}

	s.merge(returned)
	s.record(ctx, id, field, strconv.Itoa(value), SourceCommand)
	s.metric(id, field, float64(value))
	s.changed()
}

// applyToggle sets the power state locally and refreshes status text.
func (s *Store) applyToggle(id string, on bool) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].On = on
			s.devices[i].Refresh()
			return s.devices[i], nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

// applyProperty sets a property locally and refreshes status text.
func (s *Store) applyProperty(id, field string, value int) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID != id {
			continue
		}
		d := &s.devices[i]
		switch {
		case field == FieldBrightness && d.Type == TypeLight:
			d.Brightness = value
		case field == FieldTargetTemp && d.Type == TypeThermostat:
			d.TargetTemp = value
		default:
			return Device{}, fmt.Errorf("%w: %s for %s", ErrUnknownField, field, d.Type)
		}
		d.Refresh()
		return *d, nil
	}
	return Device{}, ErrDeviceNotFound
}

// merge replaces the stored device with the backend's returned object,
// keeping the returned state authoritative.
func (s *Store) merge(d Device) Device {
	d.Refresh()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == d.ID {
			s.devices[i] = d
			return d
		}
	}
	return d
}

func (s *Store) record(ctx context.Context, deviceID, field, value, source string) {
	s.mu.RLock()
	h := s.history
	s.mu.RUnlock()

	if h == nil {
		return
	}
	if err := h.Record(ctx, deviceID, field, value, source); err != nil {
		s.logger.Warn("state history write failed", "device_id", deviceID, "error", err)
	}
}

func (s *Store) metric(deviceID, field string, value float64) {
	s.mu.RLock()
	t := s.telemetry
	s.mu.RUnlock()

	if t != nil {
		t.WriteDeviceMetric(deviceID, field, value)
	}
}

func (s *Store) changed() {
	s.mu.RLock()
	fn := s.notify
	s.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

func boolMetric(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
