package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjott/hackshelf/internal/gate"
	"github.com/mjott/hackshelf/internal/hackservice"
	"github.com/mjott/hackshelf/internal/ingest"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *hackservice.Service, pipeline *ingest.Pipeline, dl *gate.Gate, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, pipeline, dl)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog CRUD.
	r.Get("/hacks", h.ListHacks)
	r.Post("/hacks", h.CreateHack)
	r.Get("/hacks/{id}", h.GetHack)
	r.Patch("/hacks/{id}", h.UpdateHack)
	r.Delete("/hacks/{id}", h.DeleteHack)
	r.Post("/hacks/{id}/obsolete", h.MarkObsolete)

	// Fetch collaborator entry point.
	r.Post("/ingest", h.Ingest)

	// Enumerations and stats.
	r.Get("/categories", h.Categories)
	r.Get("/tiers", h.Tiers)
	r.Get("/stats", h.Stats)

	// Flush control and the advisory download gate.
	r.Post("/save", h.ForceSave)
	r.Get("/status", h.Status)
	r.Post("/downloads/begin", h.BeginDownload)
	r.Post("/downloads/end", h.EndDownload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
