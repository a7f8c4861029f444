package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/events"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
	"github.com/homedeck/homedeck/internal/room"
)

// Phase is the coordinator's lifecycle state.
type Phase string

const (
	PhaseClosed     Phase = "closed"
	PhaseOpen       Phase = "open"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
)

// ErrNoRooms is returned when the form is opened with no real rooms to
// assign a device to.
var ErrNoRooms = errors.New("add a room before adding devices")

// ErrValidation is returned when a submission fails a required check.
// The user-facing message travels on the event bus and notice board.
var ErrValidation = errors.New("device form validation failed")

// ErrClosed is returned when Submit is called while the form is closed.
var ErrClosed = errors.New("device form is not open")

// State is a point-in-time snapshot of the form for rendering.
type State struct {
	Phase    Phase  `json:"phase"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	RoomName string `json:"room_name"`
	Error    string `json:"error,omitempty"`
	Fading   bool   `json:"fading,omitempty"`
}

// Coordinator drives the add-device form: closed → open →
// {validating → open on error | submitting → closed on success}.
//
// Validation runs three independent required checks (name, type, and a
// conditional room check) and composes a single message naming exactly
// the missing combination. A type-only omission is routed as a "type"
// error; every other combination routes as a "name" error. Failures
// publish on the event bus and auto-dismiss through the two-stage
// notice board.
type Coordinator struct {
	mu      sync.Mutex
	phase   Phase
	name    string
	rawType string
	room    string

	rooms   *room.Store
	devices *device.Store
	bus     *events.Bus
	notices *room.NoticeBoard
	logger  *logging.Logger
	notify  func()
}

// NewCoordinator creates a closed form coordinator.
//
// Parameters:
//   - rooms: Room store used for the open precondition and room resolution
//   - devices: Device store the submission lands in
//   - bus: Event bus for validation failures
//   - notices: Two-stage board for the form's own error display
//   - logger: Structured logger
//
// Returns:
//   - *Coordinator: Coordinator in PhaseClosed
func NewCoordinator(rooms *room.Store, devices *device.Store, bus *events.Bus, notices *room.NoticeBoard, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		phase:   PhaseClosed,
		rooms:   rooms,
		devices: devices,
		bus:     bus,
		notices: notices,
		logger:  logger.With("component", "device_form"),
	}
}

// SetNotifier registers the callback invoked after every state change.
func (c *Coordinator) SetNotifier(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// Open transitions closed → open with cleared fields. It fails without
// opening when no real room exists.
func (c *Coordinator) Open() error {
	if len(c.rooms.RealRooms()) == 0 {
		c.publishError(c.rooms.Active(), "Please add a room before adding devices", events.KindName)
		return ErrNoRooms
	}

	c.mu.Lock()
	c.phase = PhaseOpen
	c.name = ""
	c.rawType = ""
	c.room = ""
	c.mu.Unlock()

	c.notices.Clear()
	c.changed()
	return nil
}

// Cancel closes the form and clears its fields and error.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	c.phase = PhaseClosed
	c.name = ""
	c.rawType = ""
	c.room = ""
	c.mu.Unlock()

	c.notices.Clear()
	c.changed()
}

// SetFields updates the transient form fields.
func (c *Coordinator) SetFields(name, deviceType, roomName string) {
	c.mu.Lock()
	c.name = name
	c.rawType = deviceType
	c.room = roomName
	c.mu.Unlock()

	c.changed()
}

// Submit validates the form and, on success, persists the device and
// activates its room. On validation failure the form returns to open
// with the composed message displayed and published.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - device.Device: The persisted device on success
//   - error: ErrClosed, ErrValidation, or the collaborator error
func (c *Coordinator) Submit(ctx context.Context) (device.Device, error) {
	c.mu.Lock()
	if c.phase != PhaseOpen {
		c.mu.Unlock()
		return device.Device{}, ErrClosed
	}
	c.phase = PhaseValidating
	name := strings.TrimSpace(c.name)
	rawType := strings.TrimSpace(c.rawType)
	roomName := c.room
	c.mu.Unlock()
	c.changed()

	realRooms := c.rooms.RealRooms()
	active := c.rooms.Active()

	missingName := name == ""
	missingType := rawType == ""
	roomRequired := roomName == "" && active == room.AllRoomName && len(realRooms) > 1
	if message, kind, failed := composeError(missingName, missingType, roomRequired); failed {
		c.mu.Lock()
		c.phase = PhaseOpen
		c.mu.Unlock()

		c.publishError(c.errorRoomName(roomName, active), message, kind)
		c.changed()
		return device.Device{}, fmt.Errorf("%w: %s", ErrValidation, message)
	}

	target, err := c.resolveRoom(roomName, active, realRooms)
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseOpen
		c.mu.Unlock()
		c.changed()
		return device.Device{}, err
	}

	c.mu.Lock()
	c.phase = PhaseSubmitting
	c.mu.Unlock()
	c.changed()

	created, err := c.devices.Add(ctx, device.Device{
		Name:   name,
		Type:   device.ParseType(rawType),
		RoomID: target.ID,
	})
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseOpen
		c.mu.Unlock()

		c.notices.Show(err.Error())
		c.changed()
		return device.Device{}, err
	}

	c.rooms.Activate(target.Name)

	c.mu.Lock()
	c.phase = PhaseClosed
	c.name = ""
	c.rawType = ""
	c.room = ""
	c.mu.Unlock()

	c.notices.Clear()
	c.logger.Info("device added via form", "device_id", created.ID, "room", target.Name)
	c.changed()
	return created, nil
}

// Snapshot returns the current form state including the notice board's
// message and fade flag.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	state := State{
		Phase:    c.phase,
		Name:     c.name,
		Type:     c.rawType,
		RoomName: c.room,
	}
	c.mu.Unlock()

	state.Error, state.Fading = c.notices.Snapshot()
	return state
}

// resolveRoom picks the target room: the explicit selection, else the
// sole real room, else the active real room.
func (c *Coordinator) resolveRoom(selected, active string, realRooms []room.Room) (room.Room, error) {
	if selected != "" {
		return c.rooms.FindByName(selected)
	}
	if len(realRooms) == 1 {
		return realRooms[0], nil
	}
	return c.rooms.FindByName(active)
}

// errorRoomName names the room an error event is attributed to.
func (c *Coordinator) errorRoomName(selected, active string) string {
	if selected != "" {
		return selected
	}
	return active
}

func (c *Coordinator) changed() {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (c *Coordinator) publishError(roomName, message string, kind events.ErrorKind) {
	c.notices.Show(message)
	c.bus.Publish(events.DeviceError{
		RoomName: roomName,
		Message:  message,
		Kind:     kind,
	})
	c.logger.Debug("device form error", "room", roomName, "message", message, "kind", string(kind))
}

// composeError builds the single message for a missing-field
// combination. Only the type-only omission routes as a type error.
func composeError(missingName, missingType, missingRoom bool) (string, events.ErrorKind, bool) {
	switch {
	case missingName && missingType && missingRoom:
		return "Device name, type, and room selection are required", events.KindName, true
	case missingName && missingType:
		return "Device name and type are required", events.KindName, true
	case missingName && missingRoom:
		return "Device name and room selection are required", events.KindName, true
	case missingType && missingRoom:
		return "Device type and room selection are required", events.KindName, true
	case missingName:
		return "Device name is required", events.KindName, true
	case missingType:
		return "Device type is required", events.KindType, true
	case missingRoom:
		return "Room selection is required", events.KindName, true
	default:
		return "", "", false
	}
}
