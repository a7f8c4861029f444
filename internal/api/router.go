package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Post("/", s.handleAddRoom)

			r.Route("/{name}", func(r chi.Router) {
				r.Post("/activate", s.handleActivateRoom)
				r.Delete("/", s.handleDeleteRoom)
			})
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Post("/toggle", s.handleToggleDevice)
				r.Put("/properties", s.handleUpdateProperty)
				r.Get("/history", s.handleDeviceHistory)
			})
		})

		// The modal and form are shared state machines: every panel
		// sees the same open dialog.
		r.Route("/panel", func(r chi.Router) {
			r.Route("/modal", func(r chi.Router) {
				r.Get("/", s.handleModalState)
				r.Post("/open", s.handleModalOpen)
				r.Post("/close", s.handleModalClose)
				r.Post("/toggle", s.handleModalToggle)
				r.Put("/properties", s.handleModalProperty)
				r.Post("/delete/request", s.handleModalDeleteRequest)
				r.Post("/delete/cancel", s.handleModalDeleteCancel)
				r.Post("/delete/confirm", s.handleModalDeleteConfirm)
			})

			r.Route("/form", func(r chi.Router) {
				r.Get("/", s.handleFormState)
				r.Post("/open", s.handleFormOpen)
				r.Put("/fields", s.handleFormFields)
				r.Post("/submit", s.handleFormSubmit)
				r.Post("/cancel", s.handleFormCancel)
			})
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
