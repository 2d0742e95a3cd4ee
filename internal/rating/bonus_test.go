package rating

import (
	"strings"
	"testing"
)

var testBonuses = BonusConfig{
	Game200:     5,
	Game225:     8,
	Game250:     12,
	Game275:     20,
	PerfectGame: 50,
}

func TestGameBonusThresholdLadder(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{199, 0},
		{200, 5},
		{224, 5},
		{225, 8},
		{249, 8},
		{250, 12},
		{275, 20},
		{299, 20},
		{300, 50}, // perfect game rule, not the 275 ladder
		{0, 0},
	}
	for _, tt := range tests {
		got, _ := GameBonus(tt.score, testBonuses)
		if got != tt.want {
			t.Errorf("GameBonus(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestGameBonusNotCumulative(t *testing.T) {
	// 225 qualifies for both 200+ and 225+, only the 225 amount is paid.
	got, details := GameBonus(225, testBonuses)
	if got != 8 {
		t.Fatalf("GameBonus(225) = %d, want 8", got)
	}
	if len(details) != 1 || !strings.Contains(details[0], "225+") {
		t.Errorf("details = %v, want single 225+ entry", details)
	}
}

func TestGameBonusDisabledRuleSkipped(t *testing.T) {
	cfg := BonusConfig{Game200: 5, Game250: 12} // 225 rule disabled
	got, details := GameBonus(230, cfg)
	if got != 5 {
		t.Errorf("GameBonus(230) with disabled 225 = %d, want 5 (falls through to 200)", got)
	}
	if len(details) != 1 {
		t.Errorf("details = %v, want one entry", details)
	}
}

func TestGameBonusPerfectGameDisabled(t *testing.T) {
	cfg := BonusConfig{Game275: 20}
	got, details := GameBonus(300, cfg)
	if got != 0 || details != nil {
		t.Errorf("GameBonus(300) without perfect rule = (%d, %v), want (0, nil)", got, details)
	}
}

func TestSeriesBonusSumsPerGame(t *testing.T) {
	got, details := SeriesBonus(210, 265, testBonuses)
	if got != 5+12 {
		t.Errorf("SeriesBonus(210,265) = %d, want 17", got)
	}
	if len(details) != 2 {
		t.Fatalf("details = %v, want 2 entries", details)
	}
	if !strings.HasPrefix(details[0], "Game 1 - ") || !strings.HasPrefix(details[1], "Game 2 - ") {
		t.Errorf("details not labelled per game: %v", details)
	}
}

func TestSeriesBonusPerfectPlusNothing(t *testing.T) {
	got, _ := SeriesBonus(300, 150, testBonuses)
	if got != 50 {
		t.Errorf("SeriesBonus(300,150) = %d, want exactly 50", got)
	}
}
