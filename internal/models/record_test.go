package models

import (
	"strings"
	"testing"
)

func TestNewLocalID(t *testing.T) {
	a, b := NewLocalID(), NewLocalID()
	if !IsLocalID(a) || !IsLocalID(b) {
		t.Errorf("local ids missing prefix: %q %q", a, b)
	}
	if a == b {
		t.Error("local ids collide")
	}
	if IsLocalID("12345") {
		t.Error("remote id classified as local")
	}
}

func TestNumericID(t *testing.T) {
	cases := []struct {
		id   string
		want int64
		ok   bool
	}{
		{"100", 100, true},
		{"0", 0, true},
		{"local-abc", 0, false},
		{"not-a-number", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := NumericID(tc.id)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NumericID(%q) = (%d, %v), want (%d, %v)", tc.id, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeDerivesCategoriesFromLegacyType(t *testing.T) {
	r := &Record{ID: "1", Title: "Old", Type: "kaizo"}
	r.Normalize()
	if len(r.Categories) != 1 || r.Categories[0] != "kaizo" {
		t.Errorf("Categories = %v", r.Categories)
	}
	if r.Type != "kaizo" {
		t.Errorf("Type = %q", r.Type)
	}
}

func TestNormalizeRederivesLegacyType(t *testing.T) {
	r := &Record{ID: "1", Title: "New", Categories: []string{"puzzle", "kaizo"}, Type: "stale"}
	r.Normalize()
	if r.Type != "puzzle" {
		t.Errorf("Type = %q, want primary category", r.Type)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	r := &Record{ID: "1", Title: "Bare"}
	r.Normalize()

	if len(r.Categories) != 1 || r.Categories[0] != CategoryUnknown {
		t.Errorf("Categories = %v", r.Categories)
	}
	if r.Tier != TierUnknown {
		t.Errorf("Tier = %q", r.Tier)
	}
	if r.Authors == nil || r.AdditionalPaths == nil {
		t.Error("collections left nil")
	}
}

func TestNormalizeClampsRanges(t *testing.T) {
	r := &Record{ID: "1", Title: "X", Rating: 9, TimeSpentSeconds: -5, ExitCount: -1}
	r.Normalize()
	if r.Rating != MaxRating {
		t.Errorf("Rating = %d", r.Rating)
	}
	if r.TimeSpentSeconds != 0 || r.ExitCount != 0 {
		t.Errorf("negatives not clamped: %d %d", r.TimeSpentSeconds, r.ExitCount)
	}

	r = &Record{ID: "1", Title: "X", Rating: -3}
	r.Normalize()
	if r.Rating != 0 {
		t.Errorf("Rating = %d", r.Rating)
	}
}

func TestNormalizeClearsOrphanCompletedDate(t *testing.T) {
	r := &Record{ID: "1", Title: "X", Completed: false, CompletedDate: "2024-01-01"}
	r.Normalize()
	if r.CompletedDate != "" {
		t.Errorf("CompletedDate = %q, want cleared", r.CompletedDate)
	}
}

func TestHasCategory(t *testing.T) {
	r := &Record{ID: "1", Title: "X", Categories: []string{"Kaizo", "Puzzle"}}
	if !r.HasCategory("puzzle") {
		t.Error("secondary category not matched case-insensitively")
	}
	if r.HasCategory("standard") {
		t.Error("matched absent category")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := &Record{ID: "1", Title: "X", Categories: []string{"Kaizo"}, Authors: []string{"a"}}
	cp := r.Clone()
	cp.Categories[0] = "mutated"
	cp.Authors[0] = "mutated"
	if r.Categories[0] != "Kaizo" || r.Authors[0] != "a" {
		t.Error("Clone shares backing arrays")
	}
}

func TestTierFolder(t *testing.T) {
	cases := map[string]string{
		TierNewcomer:    "01-Newcomer",
		TierSkilled:     "03-Skilled",
		TierGrandmaster: "07-Grandmaster",
		TierUnknown:     "00-Unknown",
		"bogus":         "00-Unknown",
	}
	for tier, want := range cases {
		if got := TierFolder(tier); got != want {
			t.Errorf("TierFolder(%q) = %q, want %q", tier, got, want)
		}
	}
}

func TestTierOrdering(t *testing.T) {
	prev := 0
	for _, tier := range Tiers {
		rank := TierRank(tier)
		if rank <= prev {
			t.Errorf("tier %q rank %d not strictly increasing", tier, rank)
		}
		prev = rank
		if !KnownTier(tier) {
			t.Errorf("tier %q not known", tier)
		}
		if !strings.HasPrefix(TierFolder(tier), "0") {
			t.Errorf("folder %q missing ordinal prefix", TierFolder(tier))
		}
	}
}
