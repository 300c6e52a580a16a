package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mjott/hackshelf/internal/apperr"
	"github.com/mjott/hackshelf/internal/gate"
	"github.com/mjott/hackshelf/internal/hackservice"
	"github.com/mjott/hackshelf/internal/ingest"
	"github.com/mjott/hackshelf/internal/query"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *hackservice.Service
	pipeline *ingest.Pipeline
	dl       *gate.Gate
}

// NewHandler creates a new Handler.
func NewHandler(svc *hackservice.Service, pipeline *ingest.Pipeline, dl *gate.Gate) *Handler {
	return &Handler{svc: svc, pipeline: pipeline, dl: dl}
}

// hackID extracts the record id from the URL, tolerating encoded ids.
func hackID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// filterFromQuery translates query params into a conjunctive filter.
func filterFromQuery(q url.Values) query.Filter {
	f := query.Filter{
		Title:           q.Get("title"),
		Author:          q.Get("author"),
		Category:        q.Get("category"),
		Tier:            q.Get("tier"),
		Featured:        query.Tristate(q.Get("featured")),
		SpecialHardware: query.Tristate(q.Get("special_hardware")),
		Collaboration:   query.Tristate(q.Get("collaboration")),
		Demo:            query.Tristate(q.Get("demo")),
		Completed:       query.Tristate(q.Get("completed")),
		Obsolete:        query.Tristate(q.Get("obsolete")),
	}
	// The browsing table hides history unless asked.
	if f.Obsolete == "" {
		f.Obsolete = query.No
	}
	if v := q.Get("rating_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.RatingMin = &n
		}
	}
	if v := q.Get("rating_max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.RatingMax = &n
		}
	}
	return f
}

// ListHacks handles GET /api/hacks.
//
//	@Summary		List hacks with filtering and sorting
//	@Tags			hacks
//	@Produce		json
//	@Param			title		query	string	false	"Title substring (case-insensitive)"
//	@Param			category	query	string	false	"Category membership (any of the record's categories)"
//	@Param			tier		query	string	false	"Tier equality"
//	@Param			obsolete	query	string	false	"Obsolete filter"	Enums(any, yes, no)
//	@Param			sort		query	string	false	"Sort key"	Enums(title, id, rating, tier, completed_date, time_spent)
//	@Param			order		query	string	false	"Sort order"	Enums(asc, desc)
//	@Security		BearerAuth
//	@Router			/hacks [get]
func (h *Handler) ListHacks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filterFromQuery(q)
	recs := h.svc.Select(r.Context(), f, q.Get("sort"), q.Get("order") == "desc")
	writeJSON(w, http.StatusOK, map[string]any{
		"hacks": recs,
		"total": len(recs),
	})
}

// GetHack handles GET /api/hacks/{id}.
//
//	@Summary		Get a single hack by id
//	@Tags			hacks
//	@Produce		json
//	@Success		200	{object}	models.Record
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hacks/{id} [get]
func (h *Handler) GetHack(w http.ResponseWriter, r *http.Request) {
	id := hackID(r)
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateHackRequest is the request body for creating a local record.
type CreateHackRequest struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	Tier       string   `json:"tier"`
}

// CreateHack handles POST /api/hacks (locally sourced records only;
// remote records arrive through the ingest endpoint).
//
//	@Summary		Create a locally sourced hack record
//	@Tags			hacks
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	models.Record
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hacks [post]
func (h *Handler) CreateHack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateHackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.svc.CreateLocal(r.Context(), req.Title, req.Categories, req.Tier)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("create hack failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateHackRequest is the request body for a partial user edit.
type UpdateHackRequest struct {
	Completed     *bool    `json:"completed"`
	CompletedDate *string  `json:"completed_date"`
	Rating        *int     `json:"rating"`
	Notes         *string  `json:"notes"`
	TimeSpent     *string  `json:"time_spent"`
	ExitCount     *int     `json:"exit_count"`
	Authors       []string `json:"authors"`
}

// UpdateHack handles PATCH /api/hacks/{id}.
//
//	@Summary		Update user-editable fields of a hack
//	@Tags			hacks
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	models.Record
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hacks/{id} [patch]
func (h *Handler) UpdateHack(w http.ResponseWriter, r *http.Request) {
	id := hackID(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateHackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.svc.Update(r.Context(), id, hackservice.Edit{
		Completed:     req.Completed,
		CompletedDate: req.CompletedDate,
		Rating:        req.Rating,
		Notes:         req.Notes,
		TimeSpent:     req.TimeSpent,
		ExitCount:     req.ExitCount,
		Authors:       req.Authors,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("update hack failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteHack handles DELETE /api/hacks/{id}.
//
//	@Summary		Delete a locally sourced hack record
//	@Tags			hacks
//	@Produce		json
//	@Success		204
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hacks/{id} [delete]
func (h *Handler) DeleteHack(w http.ResponseWriter, r *http.Request) {
	id := hackID(r)
	if err := h.svc.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrProtected):
			writeJSON(w, http.StatusForbidden, errorBody("remote records can only be marked obsolete"))
		default:
			slog.Error("delete hack failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ObsoleteRequest is the request body for retiring or restoring a record.
type ObsoleteRequest struct {
	Obsolete bool `json:"obsolete"`
}

// MarkObsolete handles POST /api/hacks/{id}/obsolete.
func (h *Handler) MarkObsolete(w http.ResponseWriter, r *http.Request) {
	id := hackID(r)
	var req ObsoleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.MarkObsolete(r.Context(), id, req.Obsolete); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IngestRequest is the payload the fetch collaborator posts after a hack
// has been downloaded and patched.
type IngestRequest struct {
	Items []ingest.Item `json:"items"`
}

// Ingest handles POST /api/ingest.
//
//	@Summary		Ingest freshly fetched hacks (version resolution + replication)
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Router			/ingest [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	outcomes := h.pipeline.IngestBatch(req.Items)
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.svc.Categories(r.Context())})
}

// Tiers handles GET /api/tiers.
func (h *Handler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tiers": h.svc.Tiers(r.Context())})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// ForceSave handles POST /api/save: synchronous flush before the UI
// navigates away or the process exits.
func (h *Handler) ForceSave(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ForceSave(r.Context()); err != nil {
		slog.Error("force save failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("save failed, changes remain in memory"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/status: the unsaved flag and the advisory
// download gate the UI consults before allowing edits.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"dirty":           h.svc.Dirty(r.Context()),
		"download_active": h.dl.Active(),
	})
}

// BeginDownload handles POST /api/downloads/begin.
func (h *Handler) BeginDownload(w http.ResponseWriter, _ *http.Request) {
	h.dl.Begin()
	w.WriteHeader(http.StatusNoContent)
}

// EndDownload handles POST /api/downloads/end.
func (h *Handler) EndDownload(w http.ResponseWriter, _ *http.Request) {
	h.dl.End()
	w.WriteHeader(http.StatusNoContent)
}
