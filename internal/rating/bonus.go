package rating

import "fmt"

const perfectScore = 300

// BonusConfig holds the flat bonus amounts for each score threshold. A zero
// amount means the rule is disabled. PerfectGame is a distinct rule for an
// exact 300 and is never layered onto the threshold ladder.
type BonusConfig struct {
	Game200     int
	Game225     int
	Game250     int
	Game275     int
	PerfectGame int
}

// GameBonus evaluates one game's pin score against the threshold ladder.
// Only the single highest qualifying bonus is awarded per game; a perfect
// game is evaluated by its own rule independent of the ladder.
func GameBonus(score int, cfg BonusConfig) (int, []string) {
	if score == perfectScore {
		if cfg.PerfectGame > 0 {
			return cfg.PerfectGame, []string{fmt.Sprintf("Perfect Game (300): +%d MMR", cfg.PerfectGame)}
		}
		return 0, nil
	}

	ladder := []struct {
		threshold int
		amount    int
	}{
		{275, cfg.Game275},
		{250, cfg.Game250},
		{225, cfg.Game225},
		{200, cfg.Game200},
	}

	for _, rung := range ladder {
		if score >= rung.threshold && rung.amount > 0 {
			return rung.amount, []string{fmt.Sprintf("%d+ Game: +%d MMR", rung.threshold, rung.amount)}
		}
	}
	return 0, nil
}

// SeriesBonus evaluates both games independently and sums the results.
// A two-game session earns at most two bonuses, one per game.
func SeriesBonus(game1, game2 int, cfg BonusConfig) (int, []string) {
	total := 0
	var details []string

	for i, score := range [2]int{game1, game2} {
		bonus, descs := GameBonus(score, cfg)
		if bonus > 0 {
			total += bonus
			for _, d := range descs {
				details = append(details, fmt.Sprintf("Game %d - %s", i+1, d))
			}
		}
	}
	return total, details
}
