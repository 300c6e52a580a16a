package catalog

import (
	"log/slog"

	"github.com/mjott/hackshelf/internal/models"
)

// Outcome describes what the resolver did with a candidate record.
type Outcome struct {
	// Inserted is true when the candidate was added to the store (it
	// always is; the flag exists for symmetry with InsertedObsolete).
	Inserted bool
	// InsertedObsolete is true when the candidate lost the version
	// comparison and entered the store already flagged obsolete.
	InsertedObsolete bool
	// Superseded lists ids of previously current records that were
	// flagged obsolete in favour of the candidate.
	Superseded []string
}

// Resolver maintains the at-most-one-current invariant: among records
// sharing a title (case-insensitively), exactly one may be non-obsolete.
//
// Version ordering relies on remote ids being issued monotonically by
// submission time, so a higher numeric id is assumed to be the newer
// submission. That is a property of the remote index, not something this
// code can verify.
type Resolver struct {
	store  *Store
	sched  *Scheduler
	logger *slog.Logger
}

// NewResolver creates a resolver over the given store. sched may be nil
// in tests; when present, every Resolve marks the store dirty so a whole
// fetch batch coalesces into one flush.
func NewResolver(store *Store, sched *Scheduler, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, sched: sched, logger: logger}
}

// Resolve inserts the candidate record, deciding current-vs-obsolete
// against any existing current record with the same title and a
// different id:
//
//   - no title match: the candidate is inserted current;
//   - candidate id higher: existing current records are flagged obsolete
//     and the candidate becomes current;
//   - candidate id lower: the candidate is inserted already obsolete and
//     the existing record is left untouched;
//   - equal id: idempotent re-processing, metadata is refreshed and no
//     flags change.
//
// Records already flagged obsolete are never used as a comparison
// baseline. When either id is non-numeric (locally created records), the
// established record keeps its place and the candidate enters obsolete.
func (r *Resolver) Resolve(rec *models.Record) Outcome {
	defer r.markDirty()

	out := Outcome{Inserted: true}

	matches := r.store.CurrentByTitle(rec.Title)
	candidate := rec.Clone()
	candidate.Normalize()

	newNum, newOK := models.NumericID(candidate.ID)

	for _, existing := range matches {
		if existing.ID == candidate.ID {
			// Same record fetched again: refresh in place, keep flags.
			candidate.Obsolete = existing.Obsolete
			continue
		}

		oldNum, oldOK := models.NumericID(existing.ID)
		newerThanExisting := newOK && oldOK && newNum > oldNum

		if newerThanExisting {
			r.store.SetObsolete(existing.ID, true)
			out.Superseded = append(out.Superseded, existing.ID)
			r.logger.Info("resolver: superseded",
				slog.String("title", candidate.Title),
				slog.String("old_id", existing.ID),
				slog.String("new_id", candidate.ID))
		} else {
			// Older resubmission or incomparable ids: the incumbent
			// stays current and the candidate enters as history.
			candidate.Obsolete = true
			out.InsertedObsolete = true
			r.logger.Info("resolver: inserted as obsolete",
				slog.String("title", candidate.Title),
				slog.String("current_id", existing.ID),
				slog.String("new_id", candidate.ID))
		}
	}

	r.store.Upsert(candidate)
	return out
}

func (r *Resolver) markDirty() {
	if r.sched != nil {
		r.sched.MarkDirty()
	}
}
