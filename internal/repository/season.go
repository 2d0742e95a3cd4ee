package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bowling-tracker/internal/domain"

	"github.com/rs/zerolog"
)

var ErrNoActiveSeason = errors.New("no active season")

type SeasonRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSeasonRepository(sqlDB *sql.DB, logger zerolog.Logger) *SeasonRepository {
	return &SeasonRepository{db: sqlDB, logger: logger}
}

// Create inserts a new season and deactivates every other season in the same
// transaction, keeping exactly one season active.
func (r *SeasonRepository) Create(ctx context.Context, name string, startDate time.Time) (*domain.Season, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE seasons SET is_active = 0, updated_at = ? WHERE is_active = 1`, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to deactivate seasons: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO seasons (name, start_date, is_active) VALUES (?, ?, 1)`, name, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create season: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read season id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit season creation: %w", err)
	}

	r.logger.Info().Int64("season_id", id).Str("name", name).Msg("season created and activated")
	return r.GetByID(ctx, id)
}

func (r *SeasonRepository) GetByID(ctx context.Context, id int64) (*domain.Season, error) {
	return r.get(ctx, `SELECT id, name, start_date, end_date, is_active, created_at, updated_at FROM seasons WHERE id = ?`, id)
}

func (r *SeasonRepository) GetActive(ctx context.Context) (*domain.Season, error) {
	season, err := r.get(ctx, `SELECT id, name, start_date, end_date, is_active, created_at, updated_at FROM seasons WHERE is_active = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSeason
	}
	return season, err
}

func (r *SeasonRepository) get(ctx context.Context, query string, args ...any) (*domain.Season, error) {
	var s domain.Season
	var endDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&s.ID, &s.Name, &s.StartDate, &endDate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	if endDate.Valid {
		s.EndDate = &endDate.Time
	}
	return &s, nil
}
