// Package models defines the domain types for Hackshelf.
package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LocalIDPrefix namespaces ids of records created by the user rather than
// fetched from the remote index. Remote ids are numeric strings, so the
// prefix guarantees the two id spaces never collide.
const LocalIDPrefix = "local-"

// NewLocalID returns a fresh id for a locally created record.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id belongs to the locally created namespace.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NumericID parses a remote id for version comparison. Local ids and
// malformed ids yield (0, false) and never participate in id ordering.
func NumericID(id string) (int64, bool) {
	if IsLocalID(id) {
		return 0, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Flags is the set of boolean attributes a hack can carry.
type Flags struct {
	Featured        bool `json:"featured"`
	SpecialHardware bool `json:"special_hardware"`
	Collaboration   bool `json:"collaboration"`
	Demo            bool `json:"demo"`
}

// Record is one catalog entry: a downloaded (or hand-entered) hack with
// its metadata, artifact locations, and user annotations. The zero value
// is not valid; use Normalize after decoding to fill typed defaults.
type Record struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	// Type is the legacy single-category field. It is kept so documents
	// written by older releases stay readable and is rederived from
	// Categories[0] on every load.
	Type     string `json:"type,omitempty"`
	Tier     string `json:"tier"`
	Flags    Flags  `json:"flags"`
	Obsolete bool   `json:"obsolete"`

	// Path is the primary artifact location, empty until the patched file
	// has been materialized. AdditionalPaths holds the replicated copies,
	// one per non-primary category.
	Path            string   `json:"path"`
	AdditionalPaths []string `json:"additional_paths,omitempty"`

	// User-editable fields.
	Completed        bool     `json:"completed"`
	CompletedDate    string   `json:"completed_date"`
	Rating           int      `json:"rating"`
	Notes            string   `json:"notes"`
	TimeSpentSeconds int64    `json:"time_spent_seconds"`
	ExitCount        int      `json:"exit_count"`
	Authors          []string `json:"authors"`
}

// Normalize migrates a record decoded from an older document to the
// current schema: missing collections get empty values, the legacy Type
// field and Categories are reconciled, and out-of-range numerics are
// clamped. After Normalize, Categories is never empty for a record that
// carries any category information at all.
func (r *Record) Normalize() {
	if len(r.Categories) == 0 {
		if r.Type != "" {
			r.Categories = []string{r.Type}
		} else {
			r.Categories = []string{CategoryUnknown}
		}
	}
	r.Type = r.Categories[0]

	if r.Tier == "" || !KnownTier(r.Tier) {
		r.Tier = TierUnknown
	}
	if r.Rating < 0 {
		r.Rating = 0
	}
	if r.Rating > MaxRating {
		r.Rating = MaxRating
	}
	if r.TimeSpentSeconds < 0 {
		r.TimeSpentSeconds = 0
	}
	if r.ExitCount < 0 {
		r.ExitCount = 0
	}
	if r.Authors == nil {
		r.Authors = []string{}
	}
	if r.AdditionalPaths == nil {
		r.AdditionalPaths = []string{}
	}

	// completed/completed_date travel together; a half-set pair from an
	// old document is resolved in favour of the boolean.
	if !r.Completed {
		r.CompletedDate = ""
	}
}

// PrimaryCategory returns Categories[0]. Callers must only use it on
// normalized records.
func (r *Record) PrimaryCategory() string {
	return r.Categories[0]
}

// HasCategory reports whether the record carries the given category,
// primary or not. Comparison is case-insensitive.
func (r *Record) HasCategory(category string) bool {
	for _, c := range r.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand records across goroutine
// boundaries without aliasing the store's map values.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Categories = append([]string(nil), r.Categories...)
	cp.AdditionalPaths = append([]string(nil), r.AdditionalPaths...)
	cp.Authors = append([]string(nil), r.Authors...)
	return &cp
}

// MaxRating is the upper bound of the user rating scale; 0 means unrated.
const MaxRating = 5

// CategoryUnknown is assigned when a legacy record carries no category
// information at all.
const CategoryUnknown = "Uncategorized"
