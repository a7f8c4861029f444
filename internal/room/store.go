package room

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// Collaborator is the narrow backend interface the store depends on.
// Implementations include the HTTP backend client and the in-memory
// local backend.
type Collaborator interface {
	ListRooms(ctx context.Context, homeID string) ([]Room, error)
	CreateRoom(ctx context.Context, homeID, name string) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// Store holds the ordered room list for a home plus the synthetic All
// room, and tracks which room is active. Exactly one room (All included)
// is active at any time.
//
// Adds are confirmed-persistence: the room appears locally only after
// the collaborator acknowledges the create. Validation failures surface
// on the attached NoticeBoard without touching the list.
type Store struct {
	mu     sync.RWMutex
	rooms  []Room // real rooms only, in creation order
	active string // name of the active room; AllRoomName when aggregate

	homeID  string
	backend Collaborator
	notices *NoticeBoard
	logger  *logging.Logger

	// cascade is invoked with the room ID after a confirmed deletion so
	// the device store can remove contained devices.
	cascade func(roomID string)

	// countDevices reports how many devices a room contains; nil means
	// device counts are always zero.
	countDevices func(roomID string) int

	// notify is invoked after every successful mutation.
	notify func()
}

// NewStore creates a room store for the given home.
//
// Parameters:
//   - homeID: Backend identifier of the home whose rooms are managed
//   - backend: Collaborator used for persistence
//   - notices: Board for transient validation/backend error messages
//   - logger: Structured logger
//
// Returns:
//   - *Store: Store with only the All room, active
func NewStore(homeID string, backend Collaborator, notices *NoticeBoard, logger *logging.Logger) *Store {
	return &Store{
		homeID:  homeID,
		active:  AllRoomName,
		backend: backend,
		notices: notices,
		logger:  logger.With("component", "room_store"),
	}
}

// SetCascade registers the callback invoked after a room deletion is
// confirmed, carrying the deleted room's ID.
func (s *Store) SetCascade(fn func(roomID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cascade = fn
}

// SetDeviceCounter registers the per-room device counter.
func (s *Store) SetDeviceCounter(fn func(roomID string) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countDevices = fn
}

// SetNotifier registers the callback invoked after every mutation.
func (s *Store) SetNotifier(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Load replaces the room list with the backend's current catalogue.
// The active selection resets to All.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If the collaborator call fails (local list unchanged)
func (s *Store) Load(ctx context.Context) error {
	rooms, err := s.backend.ListRooms(ctx, s.homeID)
	if err != nil {
		return fmt.Errorf("loading rooms: %w", err)
	}

	s.mu.Lock()
	s.rooms = rooms
	s.active = AllRoomName
	s.mu.Unlock()

	s.logger.Info("rooms loaded", "count", len(rooms))
	s.changed()
	return nil
}

// Restore seeds the local list from a cached snapshot without touching
// the collaborator. Used when the backend is unreachable at startup.
func (s *Store) Restore(rooms []Room) {
	s.mu.Lock()
	s.rooms = rooms
	s.active = AllRoomName
	s.mu.Unlock()

	s.logger.Info("rooms restored from cache", "count", len(rooms))
	s.changed()
}

// Rooms returns the full display list: the All room first, then every
// real room in order, with Active flags and device counts populated.
func (s *Store) Rooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := Room{Name: AllRoomName, Active: s.active == AllRoomName}
	out := make([]Room, 0, len(s.rooms)+1)

	total := 0
	for _, r := range s.rooms {
		r.Active = r.Name == s.active
		if s.countDevices != nil {
			r.DeviceCount = s.countDevices(r.ID)
		}
		total += r.DeviceCount
		out = append(out, r)
	}

	all.DeviceCount = total
	return append([]Room{all}, out...)
}

// RealRooms returns only the persisted rooms, in order.
func (s *Store) RealRooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Active returns the name of the active room.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ActiveRoom returns the active room. For the All room the ID is empty.
func (s *Store) ActiveRoom() Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == AllRoomName {
		return Room{Name: AllRoomName, Active: true}
	}
	for _, r := range s.rooms {
		if r.Name == s.active {
			r.Active = true
			return r
		}
	}
	return Room{Name: AllRoomName, Active: true}
}

// Activate makes the named room (or All) the single active room.
// Unknown names are a no-op.
func (s *Store) Activate(name string) {
	s.mu.Lock()
	if name != AllRoomName && !s.hasRoomLocked(name) {
		s.mu.Unlock()
		return
	}
	s.active = name
	s.mu.Unlock()

	s.changed()
}

// Add validates the name, persists the room through the collaborator,
// and on confirmation appends it as the active room.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - name: Display name; leading/trailing whitespace is trimmed
//
// Returns:
//   - Room: The persisted room
//   - error: ErrNameRequired, ErrNameTaken, or a collaborator error;
//     in every error case the list is unchanged and the message is
//     surfaced on the notice board
func (s *Store) Add(ctx context.Context, name string) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.notices.Show("Room name is required")
		return Room{}, ErrNameRequired
	}

	s.mu.RLock()
	taken := s.hasRoomLocked(name)
	s.mu.RUnlock()
	if taken {
		s.notices.Show("A room with that name already exists")
		return Room{}, ErrNameTaken
	}

	created, err := s.backend.CreateRoom(ctx, s.homeID, name)
	if err != nil {
		s.logger.Error("room create failed", "name", name, "error", err)
		s.notices.Show(err.Error())
		return Room{}, fmt.Errorf("creating room: %w", err)
	}

	s.mu.Lock()
	s.rooms = append(s.rooms, created)
	s.active = created.Name
	s.mu.Unlock()

	s.logger.Info("room added", "room_id", created.ID, "name", created.Name)
	s.changed()
	return created, nil
}

// Delete removes the named room after collaborator confirmation and
// cascades to its devices. The All room cannot be deleted. If the
// deleted room was active, All becomes active.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - name: Name of the room to delete
//
// Returns:
//   - error: ErrAllRoomImmutable, ErrRoomNotFound, or a collaborator
//     error (local list unchanged on failure)
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == AllRoomName {
		return ErrAllRoomImmutable
	}

	s.mu.RLock()
	var target *Room
	for i := range s.rooms {
		if s.rooms[i].Name == name {
			r := s.rooms[i]
			target = &r
			break
		}
	}
	s.mu.RUnlock()

	if target == nil {
		return ErrRoomNotFound
	}

	if err := s.backend.DeleteRoom(ctx, target.ID); err != nil {
		s.logger.Error("room delete failed", "room_id", target.ID, "error", err)
		s.notices.Show(err.Error())
		return fmt.Errorf("deleting room: %w", err)
	}

	s.mu.Lock()
	kept := s.rooms[:0]
	for _, r := range s.rooms {
		if r.ID != target.ID {
			kept = append(kept, r)
		}
	}
	s.rooms = kept
	if s.active == name {
		s.active = AllRoomName
	}
	cascade := s.cascade
	s.mu.Unlock()

	if cascade != nil {
		cascade(target.ID)
	}

	s.logger.Info("room deleted", "room_id", target.ID, "name", name)
	s.changed()
	return nil
}

// FindByName returns the real room with the given name.
func (s *Store) FindByName(name string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rooms {
		if r.Name == name {
			return r, nil
		}
	}
	return Room{}, ErrRoomNotFound
}

// Notices returns the store's notice board.
func (s *Store) Notices() *NoticeBoard {
	return s.notices
}

func (s *Store) hasRoomLocked(name string) bool {
	for _, r := range s.rooms {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) changed() {
	s.mu.RLock()
	fn := s.notify
	s.mu.RUnlock()

	if fn != nil {
		fn()
	}
}
