package models

import "fmt"

// Tier names, ordered easiest to hardest. TierUnknown is the sentinel for
// records whose difficulty was never classified.
const (
	TierUnknown     = "Unknown"
	TierNewcomer    = "Newcomer"
	TierCasual      = "Casual"
	TierSkilled     = "Skilled"
	TierAdvanced    = "Advanced"
	TierExpert      = "Expert"
	TierMaster      = "Master"
	TierGrandmaster = "Grandmaster"
)

// Tiers lists every known tier in display order, excluding the sentinel.
var Tiers = []string{
	TierNewcomer,
	TierCasual,
	TierSkilled,
	TierAdvanced,
	TierExpert,
	TierMaster,
	TierGrandmaster,
}

var tierRank = map[string]int{
	TierUnknown:     0,
	TierNewcomer:    1,
	TierCasual:      2,
	TierSkilled:     3,
	TierAdvanced:    4,
	TierExpert:      5,
	TierMaster:      6,
	TierGrandmaster: 7,
}

// KnownTier reports whether name is a recognized tier (sentinel included).
func KnownTier(name string) bool {
	_, ok := tierRank[name]
	return ok
}

// TierRank returns the ordinal of a tier for sorting; unknown names rank
// alongside the sentinel at 0.
func TierRank(name string) int {
	return tierRank[name]
}

// TierFolder returns the on-disk subfolder name for a tier, e.g.
// "03-Skilled". The numeric prefix keeps category directories sorted by
// difficulty in any file browser.
func TierFolder(name string) string {
	rank, ok := tierRank[name]
	if !ok {
		rank = 0
		name = TierUnknown
	}
	return fmt.Sprintf("%02d-%s", rank, name)
}
