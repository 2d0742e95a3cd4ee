package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bowling-tracker/internal/constants"
	"bowling-tracker/internal/domain"
	"bowling-tracker/internal/rating"

	"github.com/rs/zerolog"
)

type SettingsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSettingsRepository(sqlDB *sql.DB, logger zerolog.Logger) *SettingsRepository {
	return &SettingsRepository{db: sqlDB, logger: logger}
}

// Snapshot loads the full typed configuration consumed by a reveal. It is
// read fresh each time; there is no process-level cache to go stale mid-reveal.
func (r *SettingsRepository) Snapshot(ctx context.Context) (*domain.Settings, error) {
	s := &domain.Settings{
		KFactor:             r.intValue(ctx, "k_factor", constants.DefaultKFactor),
		DecayAmount:         r.intValue(ctx, "decay_amount", constants.DefaultDecayAmount),
		DecayThreshold:      r.intValue(ctx, "decay_threshold", constants.DefaultDecayThreshold),
		ActivationThreshold: r.intValue(ctx, "activation_threshold", constants.DefaultActivationThreshold),
	}

	if s.KFactor <= 0 {
		return nil, fmt.Errorf("invalid k_factor %d: must be positive", s.KFactor)
	}
	if s.ActivationThreshold < 1 {
		return nil, fmt.Errorf("invalid activation_threshold %d: must be at least 1", s.ActivationThreshold)
	}

	bonus, err := r.bonusConfig(ctx)
	if err != nil {
		return nil, err
	}
	s.Bonus = bonus

	tiers, err := r.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	s.Tiers = tiers

	r.logger.Debug().
		Int("k_factor", s.KFactor).
		Int("decay_amount", s.DecayAmount).
		Int("decay_threshold", s.DecayThreshold).
		Int("activation_threshold", s.ActivationThreshold).
		Int("tiers", len(s.Tiers)).
		Msg("settings snapshot loaded")

	return s, nil
}

func (r *SettingsRepository) intValue(ctx context.Context, key string, fallback int) int {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("failed to read config value, using default")
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.logger.Warn().Str("key", key).Str("value", raw).Msg("non-integer config value, using default")
		return fallback
	}
	return n
}

func (r *SettingsRepository) SetValue(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	r.logger.Info().Str("key", key).Str("value", value).Msg("config updated")
	return nil
}

// bonusConfig maps the active score-threshold rules onto the fixed ladder.
// Malformed rows (missing threshold, unrecognized or duplicate values) are
// skipped with a warning rather than failing the load.
func (r *SettingsRepository) bonusConfig(ctx context.Context) (rating.BonusConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, amount, threshold FROM bonus_rules WHERE is_active = 1`)
	if err != nil {
		return rating.BonusConfig{}, fmt.Errorf("failed to load bonus rules: %w", err)
	}
	defer rows.Close()

	var cfg rating.BonusConfig
	seen := make(map[int]bool)

	for rows.Next() {
		var name string
		var amount float64
		var threshold sql.NullInt64
		if err := rows.Scan(&name, &amount, &threshold); err != nil {
			return rating.BonusConfig{}, fmt.Errorf("failed to scan bonus rule: %w", err)
		}

		if !threshold.Valid {
			r.logger.Warn().Str("rule", name).Msg("bonus rule missing threshold, skipping")
			continue
		}
		t := int(threshold.Int64)
		if seen[t] {
			r.logger.Warn().Str("rule", name).Int("threshold", t).Msg("duplicate bonus threshold, skipping")
			continue
		}

		switch t {
		case 200:
			cfg.Game200 = int(amount)
		case 225:
			cfg.Game225 = int(amount)
		case 250:
			cfg.Game250 = int(amount)
		case 275:
			cfg.Game275 = int(amount)
		case 300:
			cfg.PerfectGame = int(amount)
		default:
			r.logger.Warn().Str("rule", name).Int("threshold", t).Msg("unrecognized bonus threshold, skipping")
			continue
		}
		seen[t] = true
	}
	return cfg, rows.Err()
}

func (r *SettingsRepository) ListTiers(ctx context.Context) ([]rating.RankTier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, mmr_threshold, color FROM rank_tiers ORDER BY mmr_threshold`)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank tiers: %w", err)
	}
	defer rows.Close()

	var tiers []rating.RankTier
	for rows.Next() {
		var t rating.RankTier
		if err := rows.Scan(&t.Name, &t.Threshold, &t.Color); err != nil {
			return nil, fmt.Errorf("failed to scan rank tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// UpsertTier adds or updates one rung of the rank ladder. Name and threshold
// uniqueness are enforced by the schema.
func (r *SettingsRepository) UpsertTier(ctx context.Context, tier rating.RankTier) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rank_tiers (name, mmr_threshold, color) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET mmr_threshold = excluded.mmr_threshold, color = excluded.color`,
		tier.Name, tier.Threshold, tier.Color)
	if err != nil {
		return fmt.Errorf("failed to upsert rank tier %q: %w", tier.Name, err)
	}
	r.logger.Info().Str("tier", tier.Name).Int("threshold", tier.Threshold).Msg("rank tier upserted")
	return nil
}

// SetBonusRule adds or updates one threshold rule.
func (r *SettingsRepository) SetBonusRule(ctx context.Context, rule domain.BonusRule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bonus_rules (name, amount, threshold, is_active) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET amount = excluded.amount, threshold = excluded.threshold, is_active = excluded.is_active`,
		rule.Name, rule.Amount, rule.Threshold, rule.IsActive)
	if err != nil {
		return fmt.Errorf("failed to set bonus rule %q: %w", rule.Name, err)
	}
	r.logger.Info().Str("rule", rule.Name).Float64("amount", rule.Amount).Bool("active", rule.IsActive).Msg("bonus rule saved")
	return nil
}
