// Package query provides read-only projections over the catalog: filtered
// and sorted views, and category/tier enumeration for presentation code.
package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/models"
)

// Tristate selects records by a boolean field without forcing a choice.
type Tristate string

const (
	Any Tristate = "any"
	Yes Tristate = "yes"
	No  Tristate = "no"
)

// Match reports whether v passes the tristate. The zero value behaves
// like Any.
func (t Tristate) Match(v bool) bool {
	switch t {
	case Yes:
		return v
	case No:
		return !v
	default:
		return true
	}
}

// Filter is a conjunctive set of predicates; every non-zero field must
// match for a record to pass.
type Filter struct {
	// Title matches as a case-insensitive substring.
	Title string
	// Author matches as a case-insensitive substring of any author.
	Author string
	// Category matches when ANY of the record's categories equals it
	// (case-insensitively), not just the primary.
	Category string
	// Tier matches by exact equality.
	Tier string

	Featured        Tristate
	SpecialHardware Tristate
	Collaboration   Tristate
	Demo            Tristate
	Completed       Tristate
	Obsolete        Tristate

	// RatingMin/RatingMax bound the rating inclusively; nil means
	// unbounded.
	RatingMin *int
	RatingMax *int
}

// Match reports whether rec passes every predicate.
func (f *Filter) Match(rec *models.Record) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(rec.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Author != "" && !matchAuthor(rec.Authors, f.Author) {
		return false
	}
	if f.Category != "" && !rec.HasCategory(f.Category) {
		return false
	}
	if f.Tier != "" && rec.Tier != f.Tier {
		return false
	}
	if !f.Featured.Match(rec.Flags.Featured) {
		return false
	}
	if !f.SpecialHardware.Match(rec.Flags.SpecialHardware) {
		return false
	}
	if !f.Collaboration.Match(rec.Flags.Collaboration) {
		return false
	}
	if !f.Demo.Match(rec.Flags.Demo) {
		return false
	}
	if !f.Completed.Match(rec.Completed) {
		return false
	}
	if !f.Obsolete.Match(rec.Obsolete) {
		return false
	}
	if f.RatingMin != nil && rec.Rating < *f.RatingMin {
		return false
	}
	if f.RatingMax != nil && rec.Rating > *f.RatingMax {
		return false
	}
	return true
}

func matchAuthor(authors []string, needle string) bool {
	n := strings.ToLower(needle)
	for _, a := range authors {
		if strings.Contains(strings.ToLower(a), n) {
			return true
		}
	}
	return false
}

// Layer serves read views over a catalog store.
type Layer struct {
	store *catalog.Store
}

// NewLayer creates a query layer over store.
func NewLayer(store *catalog.Store) *Layer {
	return &Layer{store: store}
}

// List returns current records; with includeObsolete it returns the full
// history. The obsolete tristate on a Filter refines this further for
// views that want only superseded records.
func (l *Layer) List(includeObsolete bool) []*models.Record {
	return l.store.All(includeObsolete)
}

// Select returns records passing the filter, sorted by the given key.
// The filter's Obsolete tristate decides whether history is visible:
// Any and Yes both require scanning obsolete records.
func (l *Layer) Select(f Filter, sortKey string, descending bool) []*models.Record {
	includeObsolete := f.Obsolete != No
	recs := l.store.All(includeObsolete)
	out := recs[:0]
	for _, rec := range recs {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	Sort(out, sortKey, descending)
	return out
}

// Categories returns the distinct categories across current records, in
// sorted order. Every category of a record counts, not just the primary.
func (l *Layer) Categories() []string {
	seen := map[string]string{} // lower-cased -> display form
	for _, rec := range l.store.All(false) {
		for _, c := range rec.Categories {
			key := strings.ToLower(c)
			if _, ok := seen[key]; !ok {
				seen[key] = c
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Tiers returns the distinct tiers across current records, ordered
// easiest to hardest with the unknown sentinel last.
func (l *Layer) Tiers() []string {
	seen := map[string]bool{}
	for _, rec := range l.store.All(false) {
		seen[rec.Tier] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := models.TierRank(out[i]), models.TierRank(out[j])
		if ri == 0 {
			ri = len(models.Tiers) + 1 // sentinel sorts last in menus
		}
		if rj == 0 {
			rj = len(models.Tiers) + 1
		}
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// Stats summarizes the current catalog for dashboards and the MCP stats
// tool.
type Stats struct {
	Total     int            `json:"total"`
	Obsolete  int            `json:"obsolete"`
	Completed int            `json:"completed"`
	ByTier    map[string]int `json:"by_tier"`
}

// Stats computes catalog-wide counts. Total and ByTier cover current
// records; Obsolete counts superseded history.
func (l *Layer) Stats() Stats {
	s := Stats{ByTier: map[string]int{}}
	for _, rec := range l.store.All(true) {
		if rec.Obsolete {
			s.Obsolete++
			continue
		}
		s.Total++
		s.ByTier[rec.Tier]++
		if rec.Completed {
			s.Completed++
		}
	}
	return s
}

// Sort orders records in place by key. Unknown keys fall back to title.
// Booleans sort false-first ascending (true last); empty dates sort as
// earliest; numeric-looking string fields are compared as numbers with a
// zero fallback on parse failure.
func Sort(recs []*models.Record, key string, descending bool) {
	less := lessFunc(key)
	sort.SliceStable(recs, func(i, j int) bool {
		if descending {
			return less(recs[j], recs[i])
		}
		return less(recs[i], recs[j])
	})
}

func lessFunc(key string) func(a, b *models.Record) bool {
	switch key {
	case "id":
		return func(a, b *models.Record) bool {
			return numericOrZero(a.ID) < numericOrZero(b.ID)
		}
	case "rating":
		return func(a, b *models.Record) bool { return a.Rating < b.Rating }
	case "time_spent":
		return func(a, b *models.Record) bool { return a.TimeSpentSeconds < b.TimeSpentSeconds }
	case "exit_count":
		return func(a, b *models.Record) bool { return a.ExitCount < b.ExitCount }
	case "completed":
		return func(a, b *models.Record) bool { return !a.Completed && b.Completed }
	case "completed_date":
		// ISO dates compare lexicographically; empty sorts earliest.
		return func(a, b *models.Record) bool { return a.CompletedDate < b.CompletedDate }
	case "tier":
		return func(a, b *models.Record) bool {
			return models.TierRank(a.Tier) < models.TierRank(b.Tier)
		}
	case "category":
		return func(a, b *models.Record) bool {
			return strings.ToLower(a.PrimaryCategory()) < strings.ToLower(b.PrimaryCategory())
		}
	default:
		return func(a, b *models.Record) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	}
}

// numericOrZero parses a numeric-as-string field, treating anything
// unparseable (local ids included) as zero.
func numericOrZero(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
