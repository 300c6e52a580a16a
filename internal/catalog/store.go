// Package catalog owns the authoritative in-memory record map and its
// durable JSON backing document.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mjott/hackshelf/internal/models"
)

// BackupSuffix is appended to the document path to name the pre-overwrite
// snapshot kept by Commit.
const BackupSuffix = ".backup"

// Store is the sole owner of the record map. All access is serialized by
// an internal mutex; reads return clones so callers never alias map
// values. The in-memory map is the source of truth for reads; the backing
// document is a lagging durable snapshot flushed by Commit.
type Store struct {
	mu      sync.RWMutex
	path    string // absolute path of the backing document
	records map[string]*models.Record
	logger  *slog.Logger
}

// Open creates a Store backed by the document at path and loads it. A
// missing document yields an empty store; a malformed one is logged and
// also yields an empty store. Neither is an error: the catalog must never
// refuse to start over a bad document.
func Open(path string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:    abs,
		records: make(map[string]*models.Record),
		logger:  logger,
	}
	s.load()
	return s, nil
}

// load reads the backing document into the map, migrating each record to
// the current schema. Called once from Open.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("catalog: no document yet, starting empty",
				slog.String("path", s.path))
			return
		}
		s.logger.Warn("catalog: document unreadable, starting empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return
	}

	var raw map[string]*models.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("catalog: document malformed, starting empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return
	}

	for id, rec := range raw {
		if rec == nil {
			continue
		}
		rec.ID = id
		rec.Normalize()
		s.records[id] = rec
	}
	s.logger.Info("catalog: loaded",
		slog.String("path", s.path),
		slog.Int("records", len(s.records)))
}

// Path returns the absolute path of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of records, obsolete ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (*models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Upsert inserts or replaces the record under rec.ID. It mutates only the
// in-memory map; durability is the Scheduler's job.
func (s *Store) Upsert(rec *models.Record) {
	cp := rec.Clone()
	cp.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cp.ID] = cp
}

// Delete removes the record with the given id. It reports false when the
// id is absent rather than failing.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

// SetObsolete flips the obsolete flag on a record in place. It reports
// whether the record exists.
func (s *Store) SetObsolete(id string, obsolete bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.Obsolete = obsolete
	return true
}

// AppendAdditionalPaths records replicated artifact locations on a record.
// It reports whether the record exists.
func (s *Store) AppendAdditionalPaths(id string, paths []string) bool {
	if len(paths) == 0 {
		_, ok := s.Get(id)
		return ok
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	for _, p := range paths {
		if !containsString(rec.AdditionalPaths, p) {
			rec.AdditionalPaths = append(rec.AdditionalPaths, p)
		}
	}
	return true
}

// ReconcileArtifacts drops artifact paths whose files no longer exist on
// disk, using the provided existence check. It reports whether anything
// changed so the caller can mark the store dirty.
func (s *Store) ReconcileArtifacts(exists func(path string) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, rec := range s.records {
		if rec.Path != "" && !exists(rec.Path) {
			rec.Path = ""
			changed = true
		}
		kept := rec.AdditionalPaths[:0]
		for _, p := range rec.AdditionalPaths {
			if exists(p) {
				kept = append(kept, p)
			} else {
				changed = true
			}
		}
		rec.AdditionalPaths = kept
	}
	return changed
}

// All returns copies of every record, obsolete ones included when asked.
// Order is unspecified; the query layer sorts.
func (s *Store) All(includeObsolete bool) []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Obsolete && !includeObsolete {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out
}

// CurrentByTitle returns copies of every non-obsolete record whose title
// matches case-insensitively.
func (s *Store) CurrentByTitle(title string) []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, rec := range s.records {
		if rec.Obsolete {
			continue
		}
		if strings.EqualFold(rec.Title, title) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Commit durably writes the full map to the backing document. When the
// document already exists it is first copied to a .backup sibling;
// a backup failure is logged but never blocks the write (durability of
// the new state outranks preserving the prior snapshot). The write itself
// goes through a temp file and rename, so a crash mid-commit leaves
// either the old document or the new one, never a torn file.
//
// A failed Commit leaves the in-memory map untouched; callers keep their
// mutations and retry on the next flush.
func (s *Store) Commit() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("catalog: marshal: %w", err)
	}

	if _, statErr := os.Stat(s.path); statErr == nil {
		if backupErr := copyFile(s.path, s.path+BackupSuffix); backupErr != nil {
			s.logger.Warn("catalog: backup failed",
				slog.String("path", s.path+BackupSuffix),
				slog.String("error", backupErr.Error()))
		}
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	return nil
}

// IDs returns every record id in sorted order, for deterministic
// iteration in callers and tests.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".catalog-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	success = true
	return nil
}
