package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homedeck/homedeck/internal/room"
)

// addRoomRequest is the body for POST /rooms.
type addRoomRequest struct {
	Name string `json:"name"`
}

// handleListRooms returns the display list: All first, then real rooms
// with device counts, plus the current notice state.
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	message, fading := s.rooms.Notices().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":       s.rooms.Rooms(),
		"active_room": s.rooms.Active(),
		"notice":      map[string]any{"message": message, "fading": fading},
	})
}

// handleAddRoom validates and persists a new room.
func (s *Server) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var req addRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := s.rooms.Add(r.Context(), req.Name)
	switch {
	case errors.Is(err, room.ErrNameRequired), errors.Is(err, room.ErrNameTaken):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleActivateRoom makes the named room (or All) active.
func (s *Server) handleActivateRoom(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.rooms.Activate(name)
	writeJSON(w, http.StatusOK, map[string]any{"active_room": s.rooms.Active()})
}

// handleDeleteRoom deletes a room and cascades to its devices. The
// confirm query parameter is the panel's explicit confirmation step.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeBadRequest(w, "room deletion requires confirm=true")
		return
	}

	name := chi.URLParam(r, "name")
	err := s.rooms.Delete(r.Context(), name)
	switch {
	case errors.Is(err, room.ErrAllRoomImmutable):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	case errors.Is(err, room.ErrRoomNotFound):
		writeNotFound(w, "Room not found")
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
}
