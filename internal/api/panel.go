package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/form"
	"github.com/homedeck/homedeck/internal/modal"
)

// modalOpenRequest is the body for POST /panel/modal/open.
type modalOpenRequest struct {
	DeviceID string `json:"device_id"`
}

// formFieldsRequest is the body for PUT /panel/form/fields.
type formFieldsRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Room string `json:"room"`
}

func (s *Server) writeModalState(w http.ResponseWriter, status int) {
	mode, snapshot := s.modal.Snapshot()
	writeJSON(w, status, map[string]any{
		"mode":   mode,
		"device": snapshot,
	})
}

// handleModalState returns the shared modal's current mode and snapshot.
func (s *Server) handleModalState(w http.ResponseWriter, _ *http.Request) {
	s.writeModalState(w, http.StatusOK)
}

// handleModalOpen opens the type-specific modal for a device.
func (s *Server) handleModalOpen(w http.ResponseWriter, r *http.Request) {
	var req modalOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.modal.Open(req.DeviceID); err != nil {
		writeNotFound(w, "Device not found")
		return
	}
	s.writeModalState(w, http.StatusOK)
}

// handleModalClose dismisses the modal.
func (s *Server) handleModalClose(w http.ResponseWriter, _ *http.Request) {
	s.modal.Close()
	s.writeModalState(w, http.StatusOK)
}

// handleModalToggle flips the snapshot device from within the modal.
func (s *Server) handleModalToggle(w http.ResponseWriter, r *http.Request) {
	_, err := s.modal.Toggle(r.Context())
	switch {
	case errors.Is(err, modal.ErrNoModal):
		writeBadRequest(w, err.Error())
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}
	s.writeModalState(w, http.StatusOK)
}

// handleModalProperty applies a property change from within the modal,
// merging the result into both the store and the modal snapshot.
func (s *Server) handleModalProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var err error
	if req.Entry == "direct" {
		_, err = s.modal.CommitProperty(r.Context(), req.Field, req.Raw)
	} else {
		_, err = s.modal.SetProperty(req.Field, req.Value)
	}

	switch {
	case errors.Is(err, modal.ErrNoModal):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, device.ErrInvalidValue):
		// Reverted to the last valid value; current state follows.
	case errors.Is(err, device.ErrUnknownField):
		writeBadRequest(w, err.Error())
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}
	s.writeModalState(w, http.StatusOK)
}

// handleModalDeleteRequest enters the confirm-delete step.
func (s *Server) handleModalDeleteRequest(w http.ResponseWriter, _ *http.Request) {
	if err := s.modal.RequestDelete(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.writeModalState(w, http.StatusOK)
}

// handleModalDeleteCancel returns to the originating type modal.
func (s *Server) handleModalDeleteCancel(w http.ResponseWriter, _ *http.Request) {
	if err := s.modal.CancelDelete(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.writeModalState(w, http.StatusOK)
}

// handleModalDeleteConfirm deletes the device; the modal closes on
// success and stays open on failure.
func (s *Server) handleModalDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	err := s.modal.ConfirmDelete(r.Context())
	switch {
	case errors.Is(err, modal.ErrNotConfirming):
		writeBadRequest(w, err.Error())
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}
	s.writeModalState(w, http.StatusOK)
}

// handleFormState returns the add-device form snapshot.
func (s *Server) handleFormState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.form.Snapshot())
}

// handleFormOpen opens the form; fails without a real room.
func (s *Server) handleFormOpen(w http.ResponseWriter, _ *http.Request) {
	if err := s.form.Open(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.form.Snapshot())
}

// handleFormFields updates the transient form fields.
func (s *Server) handleFormFields(w http.ResponseWriter, r *http.Request) {
	var req formFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.form.SetFields(req.Name, req.Type, req.Room)
	writeJSON(w, http.StatusOK, s.form.Snapshot())
}

// handleFormSubmit validates and persists the device.
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	created, err := s.form.Submit(r.Context())
	switch {
	case errors.Is(err, form.ErrClosed):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, form.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(),
			"form":  s.form.Snapshot(),
		})
		return
	case err != nil:
		writeUpstreamError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleFormCancel closes the form, clearing fields and error state.
func (s *Server) handleFormCancel(w http.ResponseWriter, _ *http.Request) {
	s.form.Cancel()
	writeJSON(w, http.StatusOK, s.form.Snapshot())
}
