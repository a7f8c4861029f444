package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homedeck/homedeck/internal/device"
)

// toggleRequest carries the pre-toggle power state observed by the
// panel, preserving the collaborator's payload convention end to end.
type toggleRequest struct {
	IsOn bool `json:"is_on"`
}

// propertyRequest is the body for PUT /devices/{id}/properties.
// Entry selects the write path: "slider" (default) coalesces through
// the debouncer, "direct" commits immediately with clamping, taking
// the raw typed input.
type propertyRequest struct {
	Field string `json:"field"`
	Value int    `json:"value"`
	Entry string `json:"entry,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

const defaultHistoryLimit = 50

// handleListDevices returns devices, filtered to a room when the room
// query parameter is present (empty or missing means all).
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":    s.devices.DevicesInRoom(roomID),
		"load_error": s.devices.LoadError(),
	})
}

// handleGetDevice returns a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "Device not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleToggleDevice flips a device's power state optimistically.
func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.devices.Toggle(r.Context(), chi.URLParam(r, "id"), req.IsOn)
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "Device not found")
		return
	case err != nil:
		// The flip was reverted; report the device alongside the error.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  err.Error(),
			"device": d,
		})
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleUpdateProperty routes a property change to the debounced slider
// path or the immediate direct-entry path.
func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")

	var d device.Device
	var err error
	if req.Entry == "direct" {
		d, err = s.devices.CommitProperty(r.Context(), id, req.Field, req.Raw)
	} else {
		d, err = s.devices.SetProperty(id, req.Field, req.Value)
	}

	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "Device not found")
		return
	case errors.Is(err, device.ErrInvalidValue):
		// Unparseable direct entry: report the retained value.
		writeJSON(w, http.StatusOK, map[string]any{
			"reverted": true,
			"device":   d,
		})
		return
	case errors.Is(err, device.ErrUnknownField):
		writeBadRequest(w, err.Error())
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDevice removes a device after collaborator confirmation.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.devices.Delete(r.Context(), id)
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "Device not found")
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleDeviceHistory returns recent state transitions for a device.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "state history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	changes, err := s.history.Recent(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeInternalError(w, "querying state history failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": changes})
}
