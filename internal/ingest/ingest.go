// Package ingest orchestrates the path a freshly fetched hack takes into
// the catalog: version resolution, record insertion, multi-category
// replication, and a single debounced flush per batch.
package ingest

import (
	"log/slog"

	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/models"
	"github.com/mjott/hackshelf/internal/replicate"
)

// Item is what the fetch collaborator hands over once a hack has been
// downloaded and patched. ArtifactPath is library-relative and may be
// empty when no artifact was materialized.
type Item struct {
	ID           string
	Title        string
	Categories   []string
	Tier         string
	Authors      []string
	Flags        models.Flags
	ArtifactPath string
}

// Pipeline wires the resolver, store, and replicator together.
type Pipeline struct {
	store      *catalog.Store
	resolver   *catalog.Resolver
	replicator *replicate.Replicator
	sched      *catalog.Scheduler
	logger     *slog.Logger
}

// New creates an ingest pipeline. sched may be nil in tests.
func New(store *catalog.Store, resolver *catalog.Resolver, replicator *replicate.Replicator, sched *catalog.Scheduler, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		resolver:   resolver,
		replicator: replicator,
		sched:      sched,
		logger:     logger,
	}
}

// Ingest runs one item through the pipeline and returns the resolver's
// decision. Replication only runs for records that ended up current;
// obsolete history keeps its single primary artifact.
func (p *Pipeline) Ingest(item Item) catalog.Outcome {
	rec := &models.Record{
		ID:         item.ID,
		Title:      item.Title,
		Categories: append([]string(nil), item.Categories...),
		Tier:       item.Tier,
		Authors:    append([]string(nil), item.Authors...),
		Flags:      item.Flags,
		Path:       item.ArtifactPath,
	}

	outcome := p.resolver.Resolve(rec)

	if !outcome.InsertedObsolete {
		stored, ok := p.store.Get(rec.ID)
		if ok {
			created := p.replicator.Replicate(stored)
			if len(created) > 0 {
				p.store.AppendAdditionalPaths(rec.ID, created)
				p.markDirty()
			}
		}
	}

	p.logger.Info("ingest: processed",
		slog.String("id", item.ID),
		slog.String("title", item.Title),
		slog.Bool("inserted_obsolete", outcome.InsertedObsolete),
		slog.Int("superseded", len(outcome.Superseded)))
	return outcome
}

// IngestBatch runs every item through the pipeline. The scheduler's
// debounce guarantees the whole batch lands in one commit.
func (p *Pipeline) IngestBatch(items []Item) []catalog.Outcome {
	out := make([]catalog.Outcome, 0, len(items))
	for _, item := range items {
		out = append(out, p.Ingest(item))
	}
	return out
}

func (p *Pipeline) markDirty() {
	if p.sched != nil {
		p.sched.MarkDirty()
	}
}
