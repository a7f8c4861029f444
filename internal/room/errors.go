package room

import "errors"

var (
	// ErrRoomNotFound is returned when a room name or ID does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNameRequired is returned when a room is added with an empty or
	// whitespace-only name.
	ErrNameRequired = errors.New("room name required")

	// ErrNameTaken is returned when a room with the same name already exists.
	ErrNameTaken = errors.New("room name already exists")

	// ErrAllRoomImmutable is returned on attempts to delete the All room.
	ErrAllRoomImmutable = errors.New("the All room cannot be deleted")
)
