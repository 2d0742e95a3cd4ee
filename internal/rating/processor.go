package rating

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrTooFewPlayers is returned when fewer than two players have complete
// scores; pairwise Elo needs at least one real matchup somewhere.
var ErrTooFewPlayers = errors.New("need at least 2 players with complete scores")

// PlayerScore is the processor's input: one entry per player who submitted
// both games, with their pre-session MMR snapshot.
type PlayerScore struct {
	PlayerID   int64
	Game1      int
	Game2      int
	CurrentMMR float64
	Division   int
}

// Series is the two-game total used for all pairwise comparisons.
func (p PlayerScore) Series() int {
	return p.Game1 + p.Game2
}

// Result is the immutable outcome of a session calculation for one player.
// It is the sole input to persistence; the processor has no side effects.
type Result struct {
	PlayerID     int64
	Division     int
	Series       int
	OldMMR       float64
	NewMMR       float64
	MMRChange    int
	EloChange    int
	BonusMMR     int
	BonusDetails []string
	OldRank      RankTier
	NewRank      RankTier
}

// RankChanged reports whether the player moved to a different tier.
func (r Result) RankChanged() bool {
	return r.OldRank.Name != r.NewRank.Name
}

// ProcessSession runs the full rating update for one revealed session:
// players are partitioned by division, each compared pairwise against every
// other player in their division by series total, bonuses added per game,
// and the combined change rounded once at the end.
//
// A division with a single complete player produces zero opponents and a
// zero Elo change for that player; only a global count below two is an error.
func ProcessSession(players []PlayerScore, kFactor int, bonus BonusConfig, tiers []RankTier) ([]Result, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPlayers, len(players))
	}

	for _, p := range players {
		if p.Game1 < 0 || p.Game1 > 300 || p.Game2 < 0 || p.Game2 > 300 {
			return nil, fmt.Errorf("player %d: score out of range (%d, %d)", p.PlayerID, p.Game1, p.Game2)
		}
		if p.Division != 1 && p.Division != 2 {
			return nil, fmt.Errorf("player %d: unknown division %d", p.PlayerID, p.Division)
		}
	}

	divisions := make(map[int][]PlayerScore)
	for _, p := range players {
		divisions[p.Division] = append(divisions[p.Division], p)
	}

	divKeys := make([]int, 0, len(divisions))
	for div := range divisions {
		divKeys = append(divKeys, div)
	}
	sort.Ints(divKeys)

	results := make([]Result, 0, len(players))

	for _, div := range divKeys {
		pool := divisions[div]

		for _, p := range pool {
			opponents := make([]Opponent, 0, len(pool)-1)
			for _, opp := range pool {
				if opp.PlayerID == p.PlayerID {
					continue
				}
				opponents = append(opponents, Opponent{
					PlayerID: opp.PlayerID,
					Series:   opp.Series(),
					MMR:      opp.CurrentMMR,
				})
			}

			eloChange := PairwiseDelta(p.PlayerID, p.Series(), p.CurrentMMR, opponents, kFactor)
			bonusMMR, bonusDetails := SeriesBonus(p.Game1, p.Game2, bonus)

			totalChange := int(math.Round(eloChange + float64(bonusMMR)))
			newMMR := p.CurrentMMR + float64(totalChange)

			results = append(results, Result{
				PlayerID:     p.PlayerID,
				Division:     div,
				Series:       p.Series(),
				OldMMR:       p.CurrentMMR,
				NewMMR:       newMMR,
				MMRChange:    totalChange,
				EloChange:    int(math.Round(eloChange)),
				BonusMMR:     bonusMMR,
				BonusDetails: bonusDetails,
				OldRank:      ResolveRank(p.CurrentMMR, tiers),
				NewRank:      ResolveRank(newMMR, tiers),
			})
		}
	}

	return results, nil
}
