package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/config"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// mockCollaborator is a hand-written backend stub for store tests.
type mockCollaborator struct {
	rooms      []Room
	createErr  error
	deleteErr  error
	created    []string
	deletedIDs []string
	nextID     int
}

func (m *mockCollaborator) ListRooms(_ context.Context, _ string) ([]Room, error) {
	out := make([]Room, len(m.rooms))
	copy(out, m.rooms)
	return out, nil
}

func (m *mockCollaborator) CreateRoom(_ context.Context, _ string, name string) (Room, error) {
	if m.createErr != nil {
		return Room{}, m.createErr
	}
	m.nextID++
	m.created = append(m.created, name)
	return Room{ID: string(rune('a' + m.nextID - 1)), Name: name}, nil
}

func (m *mockCollaborator) DeleteRoom(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

func newTestStore(backend *mockCollaborator) *Store {
	notices := NewNoticeBoard(50*time.Millisecond, 25*time.Millisecond)
	return NewStore("home-1", backend, notices, testLogger())
}

func TestAdd_EmptyNameRejected(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockCollaborator{}
			store := newTestStore(backend)

			_, err := store.Add(context.Background(), tt.input)
			if !errors.Is(err, ErrNameRequired) {
				t.Fatalf("Add(%q) error = %v, want ErrNameRequired", tt.input, err)
			}
			if len(backend.created) != 0 {
				t.Error("collaborator should not be called for invalid names")
			}
			if got := len(store.RealRooms()); got != 0 {
				t.Errorf("room list has %d rooms, want 0", got)
			}

			msg, fading := store.Notices().Snapshot()
			if msg == "" || fading {
				t.Errorf("notice = (%q, fading=%v), want visible message", msg, fading)
			}
		})
	}
}

func TestAdd_SuccessActivatesNewRoom(t *testing.T) {
	backend := &mockCollaborator{}
	store := newTestStore(backend)

	if _, err := store.Add(context.Background(), "Bedroom"); err != nil {
		t.Fatalf("Add(Bedroom) error = %v", err)
	}

	created, err := store.Add(context.Background(), "Kitchen")
	if err != nil {
		t.Fatalf("Add(Kitchen) error = %v", err)
	}
	if created.Name != "Kitchen" {
		t.Errorf("created.Name = %q, want Kitchen", created.Name)
	}

	activeCount := 0
	for _, r := range store.Rooms() {
		if r.Active {
			activeCount++
			if r.Name != "Kitchen" {
				t.Errorf("active room = %q, want Kitchen", r.Name)
			}
		}
	}
	if activeCount != 1 {
		t.Errorf("active rooms = %d, want exactly 1", activeCount)
	}
}

func TestAdd_CollaboratorFailureLeavesListUnchanged(t *testing.T) {
	backend := &mockCollaborator{createErr: errors.New("Server error. Please try again later.")}
	store := newTestStore(backend)

	_, err := store.Add(context.Background(), "Garage")
	if err == nil {
		t.Fatal("Add() should fail when the collaborator fails")
	}
	if got := len(store.RealRooms()); got != 0 {
		t.Errorf("room list has %d rooms, want 0", got)
	}
}

func TestAdd_DuplicateName(t *testing.T) {
	backend := &mockCollaborator{}
	store := newTestStore(backend)

	if _, err := store.Add(context.Background(), "Kitchen"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := store.Add(context.Background(), "Kitchen"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("second Add(Kitchen) error = %v, want ErrNameTaken", err)
	}
}

func TestActivate(t *testing.T) {
	backend := &mockCollaborator{}
	store := newTestStore(backend)
	store.Add(context.Background(), "Kitchen") //nolint:errcheck // Setup
	store.Add(context.Background(), "Bedroom") //nolint:errcheck // Setup

	t.Run("known room", func(t *testing.T) {
		store.Activate("Kitchen")
		if store.Active() != "Kitchen" {
			t.Errorf("Active() = %q, want Kitchen", store.Active())
		}
	})

	t.Run("unknown room is a no-op", func(t *testing.T) {
		store.Activate("Attic")
		if store.Active() != "Kitchen" {
			t.Errorf("Active() = %q, want Kitchen", store.Active())
		}
	})

	t.Run("all room", func(t *testing.T) {
		store.Activate(AllRoomName)
		if store.Active() != AllRoomName {
			t.Errorf("Active() = %q, want All", store.Active())
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("all room is immutable", func(t *testing.T) {
		store := newTestStore(&mockCollaborator{})
		if err := store.Delete(context.Background(), AllRoomName); !errors.Is(err, ErrAllRoomImmutable) {
			t.Errorf("Delete(All) error = %v, want ErrAllRoomImmutable", err)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		store := newTestStore(&mockCollaborator{})
		if err := store.Delete(context.Background(), "Attic"); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Delete(Attic) error = %v, want ErrRoomNotFound", err)
		}
	})

	t.Run("cascades and resets active", func(t *testing.T) {
		backend := &mockCollaborator{}
		store := newTestStore(backend)
		created, _ := store.Add(context.Background(), "Kitchen") //nolint:errcheck // Setup

		var cascaded []string
		store.SetCascade(func(roomID string) { cascaded = append(cascaded, roomID) })

		if err := store.Delete(context.Background(), "Kitchen"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if len(cascaded) != 1 || cascaded[0] != created.ID {
			t.Errorf("cascade called with %v, want [%s]", cascaded, created.ID)
		}
		if store.Active() != AllRoomName {
			t.Errorf("Active() = %q, want All after deleting the active room", store.Active())
		}
	})

	t.Run("collaborator failure keeps room", func(t *testing.T) {
		backend := &mockCollaborator{}
		store := newTestStore(backend)
		store.Add(context.Background(), "Kitchen") //nolint:errcheck // Setup
		backend.deleteErr = errors.New("Network error. Please check your connection.")

		if err := store.Delete(context.Background(), "Kitchen"); err == nil {
			t.Fatal("Delete() should fail when the collaborator fails")
		}
		if got := len(store.RealRooms()); got != 1 {
			t.Errorf("room list has %d rooms, want 1", got)
		}
	})
}

func TestRooms_AllFirstWithDeviceCounts(t *testing.T) {
	backend := &mockCollaborator{}
	store := newTestStore(backend)
	kitchen, _ := store.Add(context.Background(), "Kitchen") //nolint:errcheck // Setup
	store.Add(context.Background(), "Bedroom")               //nolint:errcheck // Setup

	store.SetDeviceCounter(func(roomID string) int {
		if roomID == kitchen.ID {
			return 3
		}
		return 1
	})

	rooms := store.Rooms()
	if len(rooms) != 3 {
		t.Fatalf("Rooms() returned %d rooms, want 3", len(rooms))
	}
	if rooms[0].Name != AllRoomName {
		t.Errorf("first room = %q, want All", rooms[0].Name)
	}
	if rooms[0].DeviceCount != 4 {
		t.Errorf("All.DeviceCount = %d, want 4", rooms[0].DeviceCount)
	}
	if rooms[1].DeviceCount != 3 {
		t.Errorf("Kitchen.DeviceCount = %d, want 3", rooms[1].DeviceCount)
	}
}

func TestLoad_ReplacesListAndResetsActive(t *testing.T) {
	backend := &mockCollaborator{rooms: []Room{
		{ID: "r1", Name: "Kitchen"},
		{ID: "r2", Name: "Bedroom"},
	}}
	store := newTestStore(backend)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(store.RealRooms()); got != 2 {
		t.Errorf("room list has %d rooms, want 2", got)
	}
	if store.Active() != AllRoomName {
		t.Errorf("Active() = %q, want All", store.Active())
	}
}
