package rating

import "testing"

var testTiers = []RankTier{
	{Name: "Bronze", Threshold: 6600, Color: "#CD7F32"},
	{Name: "Silver", Threshold: 7400, Color: "#C0C0C0"},
	{Name: "Gold", Threshold: 8200, Color: "#FFD700"},
}

func TestResolveRank(t *testing.T) {
	tests := []struct {
		mmr  float64
		want string
	}{
		{6599, "Unranked"},
		{6600, "Bronze"}, // boundary inclusive
		{7399, "Bronze"},
		{7400, "Silver"},
		{8200, "Gold"},
		{12000, "Gold"},
		{0, "Unranked"},
	}
	for _, tt := range tests {
		got := ResolveRank(tt.mmr, testTiers)
		if got.Name != tt.want {
			t.Errorf("ResolveRank(%v) = %q, want %q", tt.mmr, got.Name, tt.want)
		}
	}
}

func TestResolveRankEmptyTierList(t *testing.T) {
	got := ResolveRank(8000, nil)
	if got.Name != "Unranked" || got.Threshold != 0 {
		t.Errorf("ResolveRank with no tiers = %+v, want Unranked floor", got)
	}
}

func TestResolveRankUnsortedInput(t *testing.T) {
	shuffled := []RankTier{testTiers[2], testTiers[0], testTiers[1]}
	if got := ResolveRank(7500, shuffled); got.Name != "Silver" {
		t.Errorf("ResolveRank on unsorted tiers = %q, want Silver", got.Name)
	}
}
