package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/models"
	"github.com/mjott/hackshelf/internal/replicate"
	"github.com/mjott/hackshelf/internal/testutil"
)

func pipeline(t *testing.T) (*Pipeline, *catalog.Store, *catalog.Scheduler) {
	t.Helper()
	store := testutil.TestStore(t)
	_, lib := testutil.TestLibrary(t)
	sched := catalog.NewScheduler(store, time.Hour, testutil.Logger())
	t.Cleanup(sched.Close)

	resolver := catalog.NewResolver(store, sched, testutil.Logger())
	replicator := replicate.New(lib, true, replicate.ModeCopyAll, testutil.Logger())
	return New(store, resolver, replicator, sched, testutil.Logger()), store, sched
}

func TestIngestVersionScenario(t *testing.T) {
	p, store, _ := pipeline(t)

	p.Ingest(Item{ID: "100", Title: "Example", Categories: []string{"kaizo"}})
	if got := len(store.All(false)); got != 1 {
		t.Fatalf("current = %d, want 1", got)
	}

	p.Ingest(Item{ID: "200", Title: "Example", Categories: []string{"kaizo"}})

	old, _ := store.Get("100")
	if !old.Obsolete {
		t.Error("id 100 should be obsolete")
	}
	if got := len(store.All(false)); got != 1 {
		t.Errorf("current = %d, want 1", got)
	}
	if got := len(store.All(true)); got != 2 {
		t.Errorf("all = %d, want 2", got)
	}
	cur := store.All(false)[0]
	if cur.ID != "200" {
		t.Errorf("current id = %s, want 200", cur.ID)
	}
}

func TestIngestReplicatesMultiCategory(t *testing.T) {
	store := testutil.TestStore(t)
	_, lib := testutil.TestLibrary(t)
	sched := catalog.NewScheduler(store, time.Hour, testutil.Logger())
	t.Cleanup(sched.Close)
	resolver := catalog.NewResolver(store, sched, testutil.Logger())
	replicator := replicate.New(lib, true, replicate.ModeCopyAll, testutil.Logger())
	p := New(store, resolver, replicator, sched, testutil.Logger())

	payload := []byte("rom")
	primary := "Kaizo/03-Skilled/Foo.bin"
	if err := lib.Write(primary, payload); err != nil {
		t.Fatal(err)
	}

	p.Ingest(Item{
		ID:           "100",
		Title:        "Foo",
		Categories:   []string{"Kaizo", "Puzzle"},
		Tier:         models.TierSkilled,
		ArtifactPath: primary,
	})

	rec, _ := store.Get("100")
	if len(rec.AdditionalPaths) != 1 || rec.AdditionalPaths[0] != "Puzzle/03-Skilled/Foo.bin" {
		t.Fatalf("AdditionalPaths = %v", rec.AdditionalPaths)
	}
	copied, err := lib.Read(rec.AdditionalPaths[0])
	if err != nil || !bytes.Equal(copied, payload) {
		t.Errorf("replicated copy wrong: %v", err)
	}
	if len(rec.AdditionalPaths) > len(rec.Categories)-1 {
		t.Error("additional paths exceed category count invariant")
	}
}

func TestIngestSkipsReplicationForObsoleteNewcomer(t *testing.T) {
	p, store, _ := pipeline(t)

	p.Ingest(Item{ID: "200", Title: "Example", Categories: []string{"kaizo", "puzzle"}})
	out := p.Ingest(Item{ID: "100", Title: "Example", Categories: []string{"kaizo", "puzzle"}})
	if !out.InsertedObsolete {
		t.Fatal("backfill should enter obsolete")
	}
	rec, _ := store.Get("100")
	if len(rec.AdditionalPaths) != 0 {
		t.Errorf("obsolete newcomer replicated: %v", rec.AdditionalPaths)
	}
}

func TestBatchMarksDirtyOnce(t *testing.T) {
	p, _, sched := pipeline(t)

	p.IngestBatch([]Item{
		{ID: "100", Title: "A", Categories: []string{"kaizo"}},
		{ID: "200", Title: "B", Categories: []string{"kaizo"}},
		{ID: "300", Title: "A", Categories: []string{"kaizo"}},
	})

	if !sched.Dirty() {
		t.Error("batch left scheduler clean")
	}
}
