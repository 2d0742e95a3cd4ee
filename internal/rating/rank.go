package rating

// RankTier is one rung of the configurable rank ladder.
type RankTier struct {
	Name      string
	Threshold int
	Color     string
}

// Unranked is the floor tier returned when no configured tier qualifies.
var Unranked = RankTier{Name: "Unranked", Threshold: 0, Color: "#000000"}

// ResolveRank returns the tier with the greatest threshold that is less than
// or equal to the MMR (boundary inclusive). An empty tier list or an MMR
// below every threshold resolves to Unranked; this never fails.
func ResolveRank(mmr float64, tiers []RankTier) RankTier {
	best := Unranked
	found := false
	for _, tier := range tiers {
		if float64(tier.Threshold) <= mmr {
			if !found || tier.Threshold > best.Threshold {
				best = tier
				found = true
			}
		}
	}
	return best
}
