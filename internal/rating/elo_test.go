package rating

import (
	"math"
	"testing"
)

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]float64{
		{8000, 8000},
		{8400, 8000},
		{7600, 8400},
		{9000, 6500},
		{0, 8000},
	}
	for _, pair := range pairs {
		a := ExpectedScore(pair[0], pair[1])
		b := ExpectedScore(pair[1], pair[0])
		if math.Abs(a+b-1.0) > 1e-9 {
			t.Errorf("ExpectedScore(%v,%v)+ExpectedScore(%v,%v) = %v, want 1.0",
				pair[0], pair[1], pair[1], pair[0], a+b)
		}
		if a <= 0 || a >= 1 {
			t.Errorf("ExpectedScore(%v,%v) = %v, want in (0,1)", pair[0], pair[1], a)
		}
	}
}

func TestExpectedScoreEqualMMR(t *testing.T) {
	for _, mmr := range []float64{0, 1200, 8000, 12345.5} {
		if got := ExpectedScore(mmr, mmr); math.Abs(got-0.5) > 1e-12 {
			t.Errorf("ExpectedScore(%v,%v) = %v, want 0.5", mmr, mmr, got)
		}
	}
}

func TestActualScore(t *testing.T) {
	tests := []struct {
		player, opponent int
		want             float64
	}{
		{430, 405, 1.0},
		{405, 430, 0.0},
		{400, 400, 0.5},
	}
	for _, tt := range tests {
		if got := ActualScore(tt.player, tt.opponent); got != tt.want {
			t.Errorf("ActualScore(%d,%d) = %v, want %v", tt.player, tt.opponent, got, tt.want)
		}
	}
}

func TestMatchupDeltaEqualMMRWin(t *testing.T) {
	// Equal MMR and a win: delta is exactly k * (1 - 0.5) = k/2.
	got := MatchupDelta(430, 405, 8000, 8000, 100)
	if math.Abs(got-50.0) > 1e-9 {
		t.Errorf("MatchupDelta = %v, want 50.0", got)
	}
	got = MatchupDelta(405, 430, 8000, 8000, 100)
	if math.Abs(got-(-50.0)) > 1e-9 {
		t.Errorf("MatchupDelta (loss) = %v, want -50.0", got)
	}
}

func TestMatchupDeltaKFactorLinearity(t *testing.T) {
	base := MatchupDelta(430, 405, 7800, 8200, 50)
	doubled := MatchupDelta(430, 405, 7800, 8200, 100)
	if math.Abs(doubled-2*base) > 1e-9 {
		t.Errorf("doubling k: got %v, want %v", doubled, 2*base)
	}
}

func TestPairwiseDeltaSkipsSelf(t *testing.T) {
	opponents := []Opponent{
		{PlayerID: 1, Series: 0, MMR: 0}, // self, must be ignored
		{PlayerID: 2, Series: 405, MMR: 8000},
	}
	got := PairwiseDelta(1, 430, 8000, opponents, 100)
	if math.Abs(got-50.0) > 1e-9 {
		t.Errorf("PairwiseDelta = %v, want 50.0", got)
	}
}

func TestPairwiseDeltaSums(t *testing.T) {
	opponents := []Opponent{
		{PlayerID: 2, Series: 600, MMR: 8000},
		{PlayerID: 3, Series: 650, MMR: 8100},
	}
	want := MatchupDelta(625, 600, 8000, 8000, 50) + MatchupDelta(625, 650, 8000, 8100, 50)
	got := PairwiseDelta(1, 625, 8000, opponents, 50)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PairwiseDelta = %v, want %v", got, want)
	}
}
