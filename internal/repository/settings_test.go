package repository

import (
	"context"
	"path/filepath"
	"testing"

	"bowling-tracker/internal/config"
	"bowling-tracker/internal/database"
	"bowling-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func newTestRepo(t *testing.T) *SettingsRepository {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "settings.db")}
	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsRepository(db, zerolog.Nop())
}

func TestSnapshotSeededDefaults(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if s.KFactor != 50 || s.DecayAmount != 200 || s.DecayThreshold != 4 || s.ActivationThreshold != 3 {
		t.Errorf("seeded config = k%d decay%d/%d activation%d, want 50/200/4/3",
			s.KFactor, s.DecayAmount, s.DecayThreshold, s.ActivationThreshold)
	}
	if s.Bonus.Game200 != 5 || s.Bonus.Game225 != 8 || s.Bonus.Game250 != 12 ||
		s.Bonus.Game275 != 20 || s.Bonus.PerfectGame != 50 {
		t.Errorf("seeded bonus ladder = %+v", s.Bonus)
	}
	if len(s.Tiers) != 5 {
		t.Errorf("seeded tiers = %d, want 5", len(s.Tiers))
	}
}

func TestSnapshotSkipsMalformedBonusRules(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// Missing and unrecognized thresholds must not break the load.
	if err := repo.SetBonusRule(ctx, domain.BonusRule{Name: "No Threshold", Amount: 99, IsActive: true}); err != nil {
		t.Fatalf("set rule: %v", err)
	}
	odd := 180
	if err := repo.SetBonusRule(ctx, domain.BonusRule{Name: "Odd Rung", Amount: 7, Threshold: &odd, IsActive: true}); err != nil {
		t.Fatalf("set rule: %v", err)
	}

	s, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Bonus.Game200 != 5 || s.Bonus.PerfectGame != 50 {
		t.Errorf("ladder disturbed by malformed rules: %+v", s.Bonus)
	}
}

func TestSnapshotNonIntegerValueFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.SetValue(ctx, "k_factor", "not-a-number"); err != nil {
		t.Fatalf("set value: %v", err)
	}

	s, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.KFactor != 50 {
		t.Errorf("k_factor = %d, want default 50 on garbage value", s.KFactor)
	}
}

func TestSnapshotDisablingRuleRemovesBonus(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	threshold := 225
	if err := repo.SetBonusRule(ctx, domain.BonusRule{Name: "225 Game", Amount: 8, Threshold: &threshold, IsActive: false}); err != nil {
		t.Fatalf("set rule: %v", err)
	}

	s, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Bonus.Game225 != 0 {
		t.Errorf("Game225 = %d, want 0 once the rule is inactive", s.Bonus.Game225)
	}
	if s.Bonus.Game200 != 5 {
		t.Errorf("Game200 = %d, other rungs must survive", s.Bonus.Game200)
	}
}
