package hackservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mjott/hackshelf/internal/apperr"
	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/models"
	"github.com/mjott/hackshelf/internal/query"
	"github.com/mjott/hackshelf/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) PublishHackEvent(kind, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+":"+id)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func newService(t *testing.T) (*Service, *catalog.Store, *catalog.Scheduler, *recordingNotifier) {
	t.Helper()
	store := testutil.TestStore(t)
	sched := catalog.NewScheduler(store, time.Hour, testutil.Logger())
	t.Cleanup(sched.Close)
	n := &recordingNotifier{}
	svc := NewService(store, sched, query.NewLayer(store), n, testutil.Logger())
	return svc, store, sched, n
}

func TestCreateLocal(t *testing.T) {
	svc, store, sched, n := newService(t)
	ctx := context.Background()

	rec, err := svc.CreateLocal(ctx, "My Hack", []string{"kaizo"}, models.TierCasual)
	if err != nil {
		t.Fatalf("CreateLocal: %v", err)
	}
	if !models.IsLocalID(rec.ID) {
		t.Errorf("id = %q, want local namespace", rec.ID)
	}
	if _, ok := store.Get(rec.ID); !ok {
		t.Error("record not stored")
	}
	if !sched.Dirty() {
		t.Error("create did not mark dirty")
	}
	if events := n.all(); len(events) != 1 || events[0] != "created:"+rec.ID {
		t.Errorf("events = %v", events)
	}
}

func TestCreateLocalValidation(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateLocal(ctx, "", []string{"kaizo"}, ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty title err = %v", err)
	}
	if _, err := svc.CreateLocal(ctx, "X", nil, ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("no categories err = %v", err)
	}
	if _, err := svc.CreateLocal(ctx, "X", []string{"kaizo"}, "Impossible"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad tier err = %v", err)
	}
}

func seedRemote(store *catalog.Store, id, title string) {
	store.Upsert(&models.Record{ID: id, Title: title, Categories: []string{"kaizo"}})
}

func TestUpdateParsesDurationAndDate(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Example")

	ts := "1:30:00"
	date := "2024-02-01"
	done := true
	rec, err := svc.Update(ctx, "100", Edit{TimeSpent: &ts, CompletedDate: &date, Completed: &done})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.TimeSpentSeconds != 5400 {
		t.Errorf("TimeSpentSeconds = %d", rec.TimeSpentSeconds)
	}
	if !rec.Completed || rec.CompletedDate != "2024-02-01" {
		t.Errorf("completed pair = %v %q", rec.Completed, rec.CompletedDate)
	}
}

func TestUpdateAutoSetsAndClearsCompletedDate(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Example")

	done := true
	rec, err := svc.Update(ctx, "100", Edit{Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if rec.CompletedDate == "" {
		t.Error("completed date not auto-set on first completion")
	}

	undone := false
	rec, err = svc.Update(ctx, "100", Edit{Completed: &undone})
	if err != nil {
		t.Fatal(err)
	}
	if rec.CompletedDate != "" {
		t.Error("completed date not cleared")
	}
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	svc, store, sched, _ := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Example")
	_ = sched.ForceSave() // start clean

	bad := 9
	if _, err := svc.Update(ctx, "100", Edit{Rating: &bad}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("rating err = %v", err)
	}
	badDur := "soon"
	if _, err := svc.Update(ctx, "100", Edit{TimeSpent: &badDur}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("duration err = %v", err)
	}
	badDate := "01/02/2024"
	if _, err := svc.Update(ctx, "100", Edit{CompletedDate: &badDate}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("date err = %v", err)
	}

	// Rejected edits never reach the store.
	rec, _ := store.Get("100")
	if rec.Rating != 0 || rec.TimeSpentSeconds != 0 || rec.CompletedDate != "" {
		t.Errorf("invalid values persisted: %+v", rec)
	}
	if sched.Dirty() {
		t.Error("rejected edit marked the store dirty")
	}
}

func TestNoOpEditStillMarksDirty(t *testing.T) {
	svc, store, sched, _ := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Example")
	_ = sched.ForceSave()

	same := 0
	if _, err := svc.Update(ctx, "100", Edit{Rating: &same}); err != nil {
		t.Fatal(err)
	}
	if !sched.Dirty() {
		t.Error("value-preserving edit should still mark unsaved")
	}
}

func TestDeletePolicy(t *testing.T) {
	svc, store, _, n := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Remote")
	local, err := svc.CreateLocal(ctx, "Mine", []string{"kaizo"}, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, "100"); !errors.Is(err, apperr.ErrProtected) {
		t.Errorf("remote delete err = %v, want ErrProtected", err)
	}
	if _, ok := store.Get("100"); !ok {
		t.Error("remote record removed")
	}

	if err := svc.Delete(ctx, local.ID); err != nil {
		t.Errorf("local delete: %v", err)
	}
	if _, ok := store.Get(local.ID); ok {
		t.Error("local record still present")
	}
	if err := svc.Delete(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("absent delete err = %v", err)
	}

	events := n.all()
	last := events[len(events)-1]
	if last != "deleted:"+local.ID {
		t.Errorf("events = %v", events)
	}
}

func TestMarkObsolete(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Example")

	if err := svc.MarkObsolete(ctx, "100", true); err != nil {
		t.Fatal(err)
	}
	rec, _ := store.Get("100")
	if !rec.Obsolete {
		t.Error("flag not set")
	}
	if err := svc.MarkObsolete(ctx, "nope", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestForceSavePersists(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()
	seedRemote(store, "100", "Example")

	if _, err := svc.CreateLocal(ctx, "Mine", []string{"puzzle"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.ForceSave(ctx); err != nil {
		t.Fatalf("ForceSave: %v", err)
	}
	if svc.Dirty(ctx) {
		t.Error("dirty after ForceSave")
	}

	reopened, err := catalog.Open(store.Path(), testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 2 {
		t.Errorf("persisted records = %d, want 2", reopened.Len())
	}
}
