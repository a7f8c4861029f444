package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/config"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// mockBackend records collaborator calls for store tests.
type mockBackend struct {
	mu sync.Mutex

	devices   []Device
	powerErr  error
	updateErr error
	deleteErr error
	createErr error

	powerCalls  []powerCall
	updateCalls []updateCall
	deletedIDs  []string
}

type powerCall struct {
	id string
	on bool
}

type updateCall struct {
	id    string
	field string
	value int
}

func (m *mockBackend) ListDevices(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mockBackend) CreateDevice(_ context.Context, d Device) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Device{}, m.createErr
	}
	d.ID = "dev-created"
	return d, nil
}

func (m *mockBackend) SetPower(_ context.Context, id string, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.powerErr != nil {
		return m.powerErr
	}
	m.powerCalls = append(m.powerCalls, powerCall{id: id, on: on})
	return nil
}

func (m *mockBackend) UpdateProperty(_ context.Context, id, field string, value int) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return Device{}, m.updateErr
	}
	m.updateCalls = append(m.updateCalls, updateCall{id: id, field: field, value: value})
	d := Device{ID: id, Name: "Desk Lamp", Type: TypeLight, On: true}
	if field == FieldBrightness {
		d.Brightness = value
	}
	if field == FieldTargetTemp {
		d.Type = TypeThermostat
		d.TargetTemp = value
	}
	return d, nil
}

func (m *mockBackend) DeleteDevice(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockBackend) updates() []updateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]updateCall, len(m.updateCalls))
	copy(out, m.updateCalls)
	return out
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

func newLoadedStore(t *testing.T, backend *mockBackend, debounce time.Duration) *Store {
	t.Helper()

	store := NewStore(backend, testLogger(), debounce)
	t.Cleanup(store.Stop)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store
}

func lampBackend() *mockBackend {
	return &mockBackend{devices: []Device{
		{ID: "1", Name: "Desk Lamp", Type: TypeLight, RoomID: "r1", On: true, Brightness: 75},
		{ID: "2", Name: "Hall Thermostat", Type: TypeThermostat, RoomID: "r2", On: false, TargetTemp: 72},
	}}
}

func TestToggle_SendsPreToggleState(t *testing.T) {
	backend := lampBackend()
	store := newLoadedStore(t, backend, time.Second)

	d, err := store.Toggle(context.Background(), "1", true)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	if d.On {
		t.Error("device should be off after toggling from on")
	}
	if d.Status != "Off" {
		t.Errorf("Status = %q, want Off", d.Status)
	}
	if len(backend.powerCalls) != 1 {
		t.Fatalf("collaborator called %d times, want 1", len(backend.powerCalls))
	}
	if !backend.powerCalls[0].on {
		t.Error("collaborator must receive the pre-toggle value true")
	}
}

func TestToggle_RevertsOnFailure(t *testing.T) {
	backend := lampBackend()
	backend.powerErr = errors.New("Server error. Please try again later.")
	store := newLoadedStore(t, backend, time.Second)

	if _, err := store.Toggle(context.Background(), "1", true); err == nil {
		t.Fatal("Toggle() should fail when the collaborator fails")
	}

	d, err := store.Get("1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !d.On {
		t.Error("failed toggle must revert to the pre-toggle state")
	}
}

func TestToggle_UnknownDevice(t *testing.T) {
	store := newLoadedStore(t, lampBackend(), time.Second)

	if _, err := store.Toggle(context.Background(), "missing", false); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Toggle() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSetProperty_DebounceCoalesces(t *testing.T) {
	backend := lampBackend()
	store := newLoadedStore(t, backend, 30*time.Millisecond)

	// Drag 75 -> 40 -> 10 inside the window: one backend call with 10.
	if _, err := store.SetProperty("1", FieldBrightness, 40); err != nil {
		t.Fatalf("SetProperty(40) error = %v", err)
	}
	if _, err := store.SetProperty("1", FieldBrightness, 10); err != nil {
		t.Fatalf("SetProperty(10) error = %v", err)
	}

	// Local state reflects the latest value immediately.
	d, _ := store.Get("1") //nolint:errcheck // ID known present
	if d.Brightness != 10 {
		t.Errorf("Brightness = %d, want 10 before flush", d.Brightness)
	}

	time.Sleep(80 * time.Millisecond)

	calls := backend.updates()
	if len(calls) != 1 {
		t.Fatalf("backend called %d times, want exactly 1", len(calls))
	}
	if calls[0].value != 10 {
		t.Errorf("backend received %d, want the final value 10", calls[0].value)
	}
}

func TestSetProperty_WrongFieldForType(t *testing.T) {
	store := newLoadedStore(t, lampBackend(), time.Second)

	if _, err := store.SetProperty("1", FieldTargetTemp, 60); !errors.Is(err, ErrUnknownField) {
		t.Errorf("SetProperty(light, targetTemp) error = %v, want ErrUnknownField", err)
	}
}

func TestCommitProperty(t *testing.T) {
	t.Run("clamps above range", func(t *testing.T) {
		backend := lampBackend()
		store := newLoadedStore(t, backend, time.Second)

		d, err := store.CommitProperty(context.Background(), "1", FieldBrightness, "250")
		if err != nil {
			t.Fatalf("CommitProperty() error = %v", err)
		}
		if d.Brightness != 100 {
			t.Errorf("Brightness = %d, want clamped 100", d.Brightness)
		}
		if calls := backend.updates(); len(calls) != 1 || calls[0].value != 100 {
			t.Errorf("backend calls = %+v, want one call with 100", calls)
		}
	})

	t.Run("clamps below thermostat range", func(t *testing.T) {
		backend := lampBackend()
		store := newLoadedStore(t, backend, time.Second)

		d, err := store.CommitProperty(context.Background(), "2", FieldTargetTemp, "30")
		if err != nil {
			t.Fatalf("CommitProperty() error = %v", err)
		}
		if d.TargetTemp != 50 {
			t.Errorf("TargetTemp = %d, want clamped 50", d.TargetTemp)
		}
	})

	t.Run("unparseable input reverts without backend call", func(t *testing.T) {
		backend := lampBackend()
		store := newLoadedStore(t, backend, time.Second)

		d, err := store.CommitProperty(context.Background(), "1", FieldBrightness, "bright")
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("CommitProperty() error = %v, want ErrInvalidValue", err)
		}
		if d.Brightness != 75 {
			t.Errorf("Brightness = %d, want last valid value 75", d.Brightness)
		}
		if calls := backend.updates(); len(calls) != 0 {
			t.Errorf("backend called %d times, want 0", len(calls))
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes after confirmation", func(t *testing.T) {
		backend := lampBackend()
		store := newLoadedStore(t, backend, time.Second)

		if err := store.Delete(context.Background(), "1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Get("1"); !errors.Is(err, ErrDeviceNotFound) {
			t.Error("device should be gone after confirmed delete")
		}
	})

	t.Run("failure keeps device", func(t *testing.T) {
		backend := lampBackend()
		backend.deleteErr = errors.New("Network error. Please check your connection.")
		store := newLoadedStore(t, backend, time.Second)

		if err := store.Delete(context.Background(), "1"); err == nil {
			t.Fatal("Delete() should fail when the collaborator fails")
		}
		if _, err := store.Get("1"); err != nil {
			t.Error("device must remain after failed delete")
		}
	})
}

func TestRemoveByRoom(t *testing.T) {
	store := newLoadedStore(t, lampBackend(), time.Second)

	store.RemoveByRoom("r1")

	if _, err := store.Get("1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Error("device in deleted room should be removed")
	}
	if _, err := store.Get("2"); err != nil {
		t.Error("device in other room must survive the cascade")
	}
	if store.CountInRoom("r1") != 0 {
		t.Errorf("CountInRoom(r1) = %d, want 0", store.CountInRoom("r1"))
	}
}

func TestApplyRemote_LastWriterWins(t *testing.T) {
	store := newLoadedStore(t, lampBackend(), time.Second)

	off := false
	dim := 20
	store.ApplyRemote(RemoteUpdate{DeviceID: "1", On: &off, Brightness: &dim})

	d, _ := store.Get("1") //nolint:errcheck // ID known present
	if d.On || d.Brightness != 20 {
		t.Errorf("device = {on:%v brightness:%d}, want {on:false brightness:20}", d.On, d.Brightness)
	}
	if d.Status != "Off" {
		t.Errorf("Status = %q, want Off", d.Status)
	}

	// Unknown IDs are ignored.
	store.ApplyRemote(RemoteUpdate{DeviceID: "ghost", On: &off})
}

func TestAdd_DefaultsAndNormalisation(t *testing.T) {
	backend := lampBackend()
	store := newLoadedStore(t, backend, time.Second)

	created, err := store.Add(context.Background(), Device{Name: "Porch Cam", Type: "SecurityCamera", RoomID: "r1"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if created.Type != TypeCamera {
		t.Errorf("Type = %q, want camera", created.Type)
	}
	if created.Status != "Offline" {
		t.Errorf("Status = %q, want Offline", created.Status)
	}
	if store.CountInRoom("r1") != 2 {
		t.Errorf("CountInRoom(r1) = %d, want 2", store.CountInRoom("r1"))
	}
}
