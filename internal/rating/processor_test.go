package rating

import (
	"errors"
	"testing"
)

func TestProcessSessionRejectsTooFewPlayers(t *testing.T) {
	for _, players := range [][]PlayerScore{
		nil,
		{{PlayerID: 1, Game1: 200, Game2: 180, CurrentMMR: 8000, Division: 1}},
	} {
		_, err := ProcessSession(players, 50, BonusConfig{}, nil)
		if !errors.Is(err, ErrTooFewPlayers) {
			t.Errorf("ProcessSession(%d players) err = %v, want ErrTooFewPlayers", len(players), err)
		}
	}
}

func TestProcessSessionRejectsBadInput(t *testing.T) {
	valid := PlayerScore{PlayerID: 2, Game1: 180, Game2: 190, CurrentMMR: 8000, Division: 1}

	if _, err := ProcessSession([]PlayerScore{
		{PlayerID: 1, Game1: 301, Game2: 150, CurrentMMR: 8000, Division: 1}, valid,
	}, 50, BonusConfig{}, nil); err == nil {
		t.Error("out-of-range score accepted")
	}

	if _, err := ProcessSession([]PlayerScore{
		{PlayerID: 1, Game1: 200, Game2: 150, CurrentMMR: 8000, Division: 3}, valid,
	}, 50, BonusConfig{}, nil); err == nil {
		t.Error("unknown division accepted")
	}
}

func TestProcessSessionTwoPlayerExactDeltas(t *testing.T) {
	// Equal MMR, k=100: winner gains exactly k*(1-0.5) = 50, loser loses 50.
	players := []PlayerScore{
		{PlayerID: 1, Game1: 210, Game2: 220, CurrentMMR: 8000, Division: 1},
		{PlayerID: 2, Game1: 200, Game2: 205, CurrentMMR: 8000, Division: 1},
	}

	results, err := ProcessSession(players, 100, BonusConfig{}, nil)
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	byID := map[int64]Result{}
	for _, r := range results {
		byID[r.PlayerID] = r
	}

	if a := byID[1]; a.EloChange != 50 || a.MMRChange != 50 || a.NewMMR != 8050 {
		t.Errorf("player A = %+v, want elo +50, new MMR 8050", a)
	}
	if b := byID[2]; b.EloChange != -50 || b.MMRChange != -50 || b.NewMMR != 7950 {
		t.Errorf("player B = %+v, want elo -50, new MMR 7950", b)
	}
}

func TestProcessSessionPerfectGameBonus(t *testing.T) {
	cfg := BonusConfig{Game200: 5, Game275: 20, PerfectGame: 500}
	players := []PlayerScore{
		{PlayerID: 1, Game1: 300, Game2: 150, CurrentMMR: 8000, Division: 1},
		{PlayerID: 2, Game1: 180, Game2: 190, CurrentMMR: 8000, Division: 1},
		{PlayerID: 3, Game1: 170, Game2: 160, CurrentMMR: 8000, Division: 1},
	}

	results, err := ProcessSession(players, 50, cfg, nil)
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}

	for _, r := range results {
		if r.PlayerID == 1 {
			// 300 earns the perfect-game rule only; 150 earns nothing.
			if r.BonusMMR != 500 {
				t.Errorf("bonus = %d, want exactly 500", r.BonusMMR)
			}
		}
	}
}

func TestProcessSessionDivisionsDoNotInteract(t *testing.T) {
	players := []PlayerScore{
		{PlayerID: 1, Game1: 210, Game2: 220, CurrentMMR: 8000, Division: 1},
		{PlayerID: 2, Game1: 200, Game2: 205, CurrentMMR: 8000, Division: 1},
		// Lone division 2 player: zero opponents, zero Elo change.
		{PlayerID: 3, Game1: 250, Game2: 250, CurrentMMR: 8000, Division: 2},
	}

	results, err := ProcessSession(players, 100, BonusConfig{}, nil)
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}

	for _, r := range results {
		if r.PlayerID == 3 {
			if r.EloChange != 0 || r.MMRChange != 0 || r.NewMMR != 8000 {
				t.Errorf("lone division player changed: %+v", r)
			}
		}
	}
}

func TestProcessSessionRoundsOnceAtEnd(t *testing.T) {
	// Three players so the raw pairwise sum is fractional; the integer change
	// must be the rounded sum, not a sum of per-matchup roundings.
	players := []PlayerScore{
		{PlayerID: 1, Game1: 210, Game2: 215, CurrentMMR: 8000, Division: 1},
		{PlayerID: 2, Game1: 200, Game2: 200, CurrentMMR: 8100, Division: 1},
		{PlayerID: 3, Game1: 190, Game2: 195, CurrentMMR: 7900, Division: 1},
	}

	results, err := ProcessSession(players, 50, BonusConfig{}, nil)
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}

	for _, r := range results {
		if r.NewMMR != r.OldMMR+float64(r.MMRChange) {
			t.Errorf("player %d: new MMR %v != old %v + change %d", r.PlayerID, r.NewMMR, r.OldMMR, r.MMRChange)
		}
	}
}

func TestProcessSessionRankRoundTrip(t *testing.T) {
	tiers := []RankTier{
		{Name: "Bronze", Threshold: 6600, Color: "#CD7F32"},
		{Name: "Silver", Threshold: 7400, Color: "#C0C0C0"},
		{Name: "Gold", Threshold: 8200, Color: "#FFD700"},
	}
	players := []PlayerScore{
		{PlayerID: 1, Game1: 260, Game2: 255, CurrentMMR: 8190, Division: 1},
		{PlayerID: 2, Game1: 150, Game2: 140, CurrentMMR: 7410, Division: 1},
	}

	results, err := ProcessSession(players, 100, BonusConfig{Game250: 10}, tiers)
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}

	for _, r := range results {
		if got := ResolveRank(r.NewMMR, tiers); got != r.NewRank {
			t.Errorf("player %d: re-resolved rank %+v != result rank %+v", r.PlayerID, got, r.NewRank)
		}
		if got := ResolveRank(r.OldMMR, tiers); got != r.OldRank {
			t.Errorf("player %d: re-resolved old rank mismatch", r.PlayerID)
		}
		if r.RankChanged() != (r.OldRank.Name != r.NewRank.Name) {
			t.Errorf("player %d: RankChanged inconsistent", r.PlayerID)
		}
	}
}
