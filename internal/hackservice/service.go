// Package hackservice coordinates catalog operations for the API and MCP
// surfaces: validated user edits, deletion policy, and flush control.
package hackservice

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mjott/hackshelf/internal/apperr"
	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/models"
	"github.com/mjott/hackshelf/internal/parser"
	"github.com/mjott/hackshelf/internal/query"
)

// Notifier receives record change notifications; the SSE broker satisfies
// it. kind is "created", "updated", "deleted" or "obsoleted".
type Notifier interface {
	PublishHackEvent(kind, id string)
}

// Service is the write path for UI collaborators. All edits are validated
// here so the store is never asked to persist invalid values.
type Service struct {
	store    *catalog.Store
	sched    *catalog.Scheduler
	queries  *query.Layer
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a service. notifier may be nil.
func NewService(store *catalog.Store, sched *catalog.Scheduler, queries *query.Layer, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		sched:    sched,
		queries:  queries,
		notifier: notifier,
		logger:   logger,
	}
}

// Get returns the record with the given id.
func (s *Service) Get(_ context.Context, id string) (*models.Record, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return rec, nil
}

// Select returns filtered, sorted records.
func (s *Service) Select(_ context.Context, f query.Filter, sortKey string, descending bool) []*models.Record {
	return s.queries.Select(f, sortKey, descending)
}

// List returns current records, or full history with includeObsolete.
func (s *Service) List(_ context.Context, includeObsolete bool) []*models.Record {
	return s.queries.List(includeObsolete)
}

// Categories enumerates distinct categories across current records.
func (s *Service) Categories(_ context.Context) []string {
	return s.queries.Categories()
}

// Tiers enumerates distinct tiers across current records.
func (s *Service) Tiers(_ context.Context) []string {
	return s.queries.Tiers()
}

// Stats summarizes the catalog.
func (s *Service) Stats(_ context.Context) query.Stats {
	return s.queries.Stats()
}

// CreateLocal inserts a user-entered record under a fresh local id.
func (s *Service) CreateLocal(_ context.Context, title string, categories []string, tier string) (*models.Record, error) {
	if err := validation.Validate(title, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", apperr.ErrInvalidInput)
	}
	if tier != "" && !models.KnownTier(tier) {
		return nil, fmt.Errorf("%w: unknown tier %q", apperr.ErrInvalidInput, tier)
	}

	rec := &models.Record{
		ID:         models.NewLocalID(),
		Title:      title,
		Categories: append([]string(nil), categories...),
		Tier:       tier,
	}
	rec.Normalize()
	s.store.Upsert(rec)
	s.sched.MarkDirty()
	s.notify("created", rec.ID)
	return rec, nil
}

// Edit is a partial update of the user-editable fields; nil pointers
// leave the field untouched. TimeSpent and CompletedDate arrive as the
// strings the user typed and are parsed here.
type Edit struct {
	Completed     *bool
	CompletedDate *string
	Rating        *int
	Notes         *string
	TimeSpent     *string
	ExitCount     *int
	Authors       []string
}

// Validate checks the edit's typed fields; string fields are validated by
// parsing during Apply.
func (e Edit) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Rating, validation.Min(0), validation.Max(models.MaxRating)),
		validation.Field(&e.ExitCount, validation.Min(0)),
	)
}

// Update applies a validated edit to the record with the given id. The
// completed/completed_date pair travels together: the date is auto-set on
// the first transition to completed and cleared on the way back.
func (s *Service) Update(_ context.Context, id string, edit Edit) (*models.Record, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if err := edit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	if edit.Rating != nil {
		rec.Rating = *edit.Rating
	}
	if edit.Notes != nil {
		rec.Notes = *edit.Notes
	}
	if edit.ExitCount != nil {
		rec.ExitCount = *edit.ExitCount
	}
	if edit.Authors != nil {
		rec.Authors = append([]string(nil), edit.Authors...)
	}
	if edit.TimeSpent != nil {
		secs, err := parser.ParseDuration(*edit.TimeSpent)
		if err != nil {
			return nil, err
		}
		rec.TimeSpentSeconds = secs
	}
	if edit.CompletedDate != nil {
		date, err := parser.ParseDate(*edit.CompletedDate)
		if err != nil {
			return nil, err
		}
		rec.CompletedDate = date
	}
	if edit.Completed != nil {
		wasCompleted := rec.Completed
		rec.Completed = *edit.Completed
		if rec.Completed && !wasCompleted && rec.CompletedDate == "" {
			rec.CompletedDate = parser.Today()
		}
		if !rec.Completed {
			rec.CompletedDate = ""
		}
	}

	// Even a value-preserving edit marks the store unsaved; the debounce
	// makes the redundant flush cheap.
	s.store.Upsert(rec)
	s.sched.MarkDirty()
	s.notify("updated", id)
	return rec, nil
}

// Delete removes a locally created record. Remotely sourced records are
// protected: history is kept by flagging them obsolete instead.
func (s *Service) Delete(_ context.Context, id string) error {
	rec, ok := s.store.Get(id)
	if !ok {
		return apperr.ErrNotFound
	}
	if !models.IsLocalID(rec.ID) {
		return apperr.ErrProtected
	}
	if !s.store.Delete(id) {
		return apperr.ErrNotFound
	}
	s.sched.MarkDirty()
	s.notify("deleted", id)
	return nil
}

// MarkObsolete flips a record's obsolete flag by hand, for the audit
// views that let the user retire or restore a version.
func (s *Service) MarkObsolete(_ context.Context, id string, obsolete bool) error {
	if !s.store.SetObsolete(id, obsolete) {
		return apperr.ErrNotFound
	}
	s.sched.MarkDirty()
	s.notify("obsoleted", id)
	return nil
}

// ForceSave flushes pending mutations synchronously. Used before page
// navigation and at shutdown.
func (s *Service) ForceSave(_ context.Context) error {
	return s.sched.ForceSave()
}

// Dirty reports whether unflushed mutations exist.
func (s *Service) Dirty(_ context.Context) bool {
	return s.sched.Dirty()
}

func (s *Service) notify(kind, id string) {
	if s.notifier != nil {
		s.notifier.PublishHackEvent(kind, id)
	}
}
