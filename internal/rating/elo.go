package rating

import "math"

// Opponent is one same-division opponent in a pairwise comparison.
type Opponent struct {
	PlayerID int64
	Series   int
	MMR      float64
}

// ExpectedScore returns the probability of the player beating the opponent
// based on the MMR gap: 1 / (1 + 10^((opponent-player)/400)).
func ExpectedScore(playerMMR, opponentMMR float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponentMMR-playerMMR)/400.0))
}

// ActualScore maps a series-total comparison to 1.0 (win), 0.0 (loss) or 0.5 (tie).
func ActualScore(playerSeries, opponentSeries int) float64 {
	switch {
	case playerSeries > opponentSeries:
		return 1.0
	case playerSeries < opponentSeries:
		return 0.0
	default:
		return 0.5
	}
}

// MatchupDelta is the raw MMR change for one pairwise matchup: k * (actual - expected).
// No rounding or clamping happens here.
func MatchupDelta(playerSeries, opponentSeries int, playerMMR, opponentMMR float64, kFactor int) float64 {
	expected := ExpectedScore(playerMMR, opponentMMR)
	actual := ActualScore(playerSeries, opponentSeries)
	return float64(kFactor) * (actual - expected)
}

// PairwiseDelta sums MatchupDelta over every opponent in the player's
// division, skipping the player themselves. Opponent MMRs and series totals
// are pre-session snapshots.
func PairwiseDelta(playerID int64, playerSeries int, playerMMR float64, opponents []Opponent, kFactor int) float64 {
	total := 0.0
	for _, opp := range opponents {
		if opp.PlayerID == playerID {
			continue
		}
		total += MatchupDelta(playerSeries, opp.Series, playerMMR, opp.MMR, kFactor)
	}
	return total
}
