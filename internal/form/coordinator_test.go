package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homedeck/homedeck/internal/backend"
	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/events"
	"github.com/homedeck/homedeck/internal/infrastructure/config"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
	"github.com/homedeck/homedeck/internal/room"
)

type fixture struct {
	rooms   *room.Store
	devices *device.Store
	bus     *events.Bus
	coord   *Coordinator
	errors  []events.DeviceError
}

func newFixture(t *testing.T, roomNames ...string) *fixture {
	t.Helper()

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	local := backend.NewLocalBackend()

	rooms := room.NewStore("home-1", local, room.NewNoticeBoard(time.Second, time.Second), logger)
	for _, name := range roomNames {
		if _, err := rooms.Add(context.Background(), name); err != nil {
			t.Fatalf("adding room %s: %v", name, err)
		}
	}
	rooms.Activate(room.AllRoomName)

	devices := device.NewStore(local, logger, time.Second)
	t.Cleanup(devices.Stop)

	f := &fixture{
		rooms:   rooms,
		devices: devices,
		bus:     events.NewBus(),
	}
	f.bus.Subscribe(func(ev events.DeviceError) { f.errors = append(f.errors, ev) })

	notices := room.NewNoticeBoard(time.Second, time.Second)
	t.Cleanup(notices.Stop)
	f.coord = NewCoordinator(rooms, devices, f.bus, notices, logger)
	return f
}

func (f *fixture) lastError(t *testing.T) events.DeviceError {
	t.Helper()
	if len(f.errors) == 0 {
		t.Fatal("no device error was published")
	}
	return f.errors[len(f.errors)-1]
}

func TestOpen_RequiresRealRoom(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.Open(); !errors.Is(err, ErrNoRooms) {
		t.Fatalf("Open() error = %v, want ErrNoRooms", err)
	}
	if f.coord.Snapshot().Phase != PhaseClosed {
		t.Error("form must not open with zero real rooms")
	}
	if f.lastError(t).Kind != events.KindName {
		t.Errorf("published kind = %q, want name", f.lastError(t).Kind)
	}
}

func TestOpen_ClearsFields(t *testing.T) {
	f := newFixture(t, "Kitchen")

	if err := f.coord.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	f.coord.SetFields("Lamp", "Light", "Kitchen")
	f.coord.Cancel()

	if err := f.coord.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	state := f.coord.Snapshot()
	if state.Name != "" || state.Type != "" || state.RoomName != "" {
		t.Errorf("fields not cleared on open: %+v", state)
	}
	if state.Phase != PhaseOpen {
		t.Errorf("Phase = %q, want open", state.Phase)
	}
}

func TestSubmit_ValidationRouting(t *testing.T) {
	tests := []struct {
		name        string
		fields      [3]string // name, type, room
		rooms       []string
		wantMessage string
		wantKind    events.ErrorKind
	}{
		{
			name:        "name only missing",
			fields:      [3]string{"", "Light", "Kitchen"},
			rooms:       []string{"Kitchen", "Bedroom"},
			wantMessage: "Device name is required",
			wantKind:    events.KindName,
		},
		{
			name:        "type only missing routes as type error",
			fields:      [3]string{"Lamp", "", "Kitchen"},
			rooms:       []string{"Kitchen", "Bedroom"},
			wantMessage: "Device type is required",
			wantKind:    events.KindType,
		},
		{
			name:        "room only missing",
			fields:      [3]string{"Lamp", "Light", ""},
			rooms:       []string{"Kitchen", "Bedroom"},
			wantMessage: "Room selection is required",
			wantKind:    events.KindName,
		},
		{
			name:        "name and type missing",
			fields:      [3]string{"", "", "Kitchen"},
			rooms:       []string{"Kitchen", "Bedroom"},
			wantMessage: "Device name and type are required",
			wantKind:    events.KindName,
		},
		{
			name:        "all three missing",
			fields:      [3]string{"", "", ""},
			rooms:       []string{"Kitchen", "Bedroom"},
			wantMessage: "Device name, type, and room selection are required",
			wantKind:    events.KindName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.rooms...)
			if err := f.coord.Open(); err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			f.coord.SetFields(tt.fields[0], tt.fields[1], tt.fields[2])

			_, err := f.coord.Submit(context.Background())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Submit() error = %v, want ErrValidation", err)
			}

			ev := f.lastError(t)
			if ev.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", ev.Message, tt.wantMessage)
			}
			if ev.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", ev.Kind, tt.wantKind)
			}
			if f.coord.Snapshot().Phase != PhaseOpen {
				t.Error("form must return to open after a validation failure")
			}
		})
	}
}

func TestSubmit_RoomNotRequiredWhenUnambiguous(t *testing.T) {
	t.Run("sole real room", func(t *testing.T) {
		f := newFixture(t, "Kitchen")
		if err := f.coord.Open(); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		f.coord.SetFields("Lamp", "Light", "")

		created, err := f.coord.Submit(context.Background())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		kitchen, _ := f.rooms.FindByName("Kitchen") //nolint:errcheck // Room known present
		if created.RoomID != kitchen.ID {
			t.Errorf("RoomID = %q, want the sole real room", created.RoomID)
		}
	})

	t.Run("active real room", func(t *testing.T) {
		f := newFixture(t, "Kitchen", "Bedroom")
		f.rooms.Activate("Bedroom")
		if err := f.coord.Open(); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		f.coord.SetFields("Lamp", "Light", "")

		created, err := f.coord.Submit(context.Background())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		bedroom, _ := f.rooms.FindByName("Bedroom") //nolint:errcheck // Room known present
		if created.RoomID != bedroom.ID {
			t.Errorf("RoomID = %q, want the active room", created.RoomID)
		}
	})
}

func TestSubmit_SuccessActivatesRoomAndCloses(t *testing.T) {
	f := newFixture(t, "Kitchen", "Bedroom")
	if err := f.coord.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	f.coord.SetFields("Porch Cam", "SecurityCamera", "Bedroom")

	created, err := f.coord.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if created.Type != device.TypeCamera {
		t.Errorf("Type = %q, want camera (alias normalised)", created.Type)
	}
	if f.rooms.Active() != "Bedroom" {
		t.Errorf("active room = %q, want Bedroom", f.rooms.Active())
	}
	if f.coord.Snapshot().Phase != PhaseClosed {
		t.Error("form must close after a successful submit")
	}
	if len(f.devices.Devices()) != 1 {
		t.Errorf("device list has %d devices, want 1", len(f.devices.Devices()))
	}
}

func TestSubmit_WhileClosed(t *testing.T) {
	f := newFixture(t, "Kitchen")

	if _, err := f.coord.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() error = %v, want ErrClosed", err)
	}
}

func TestComposeError(t *testing.T) {
	tests := []struct {
		name                                  string
		missingName, missingType, missingRoom bool
		wantMsg                               string
		wantKind                              events.ErrorKind
	}{
		{name: "type and room", missingType: true, missingRoom: true,
			wantMsg: "Device type and room selection are required", wantKind: events.KindName},
		{name: "name and room", missingName: true, missingRoom: true,
			wantMsg: "Device name and room selection are required", wantKind: events.KindName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, kind, failed := composeError(tt.missingName, tt.missingType, tt.missingRoom)
			if !failed {
				t.Fatal("composeError() reported no failure")
			}
			if msg != tt.wantMsg || kind != tt.wantKind {
				t.Errorf("got (%q, %q), want (%q, %q)", msg, kind, tt.wantMsg, tt.wantKind)
			}
		})
	}

	if _, _, failed := composeError(false, false, false); failed {
		t.Error("composeError() with nothing missing must not fail")
	}
}
