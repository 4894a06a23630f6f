package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/jotgrid/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// mws are applied after auth, in order.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, mws ...func(http.Handler) http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(mws...)

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/stream", h.StreamNotes)
	r.Post("/notes", h.SaveNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes", h.DeleteNotes)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
