package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bowling-tracker/internal/domain"

	"github.com/rs/zerolog"
)

var ErrStatsNotFound = errors.New("season stats not found")

type StatsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStatsRepository(sqlDB *sql.DB, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{db: sqlDB, logger: logger}
}

const statsColumns = `id, player_id, season_id, games_played, total_pins, season_average, highest_game, highest_series, starting_mmr, peak_mmr`

func scanStats(row interface{ Scan(...any) error }) (*domain.SeasonStats, error) {
	var s domain.SeasonStats
	err := row.Scan(&s.ID, &s.PlayerID, &s.SeasonID, &s.GamesPlayed, &s.TotalPins,
		&s.SeasonAverage, &s.HighestGame, &s.HighestSeries, &s.StartingMMR, &s.PeakMMR)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get reads stats against the given DBTX so reveal can read-modify-write
// inside its transaction.
func (r *StatsRepository) Get(ctx context.Context, q DBTX, playerID, seasonID int64) (*domain.SeasonStats, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+statsColumns+` FROM player_season_stats WHERE player_id = ? AND season_id = ?`,
		playerID, seasonID)
	s, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season stats: %w", err)
	}
	return s, nil
}

func (r *StatsRepository) Upsert(ctx context.Context, q DBTX, s domain.SeasonStats) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO player_season_stats
		   (player_id, season_id, games_played, total_pins, season_average, highest_game, highest_series, starting_mmr, peak_mmr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id, season_id) DO UPDATE SET
		   games_played = excluded.games_played,
		   total_pins = excluded.total_pins,
		   season_average = excluded.season_average,
		   highest_game = excluded.highest_game,
		   highest_series = excluded.highest_series,
		   peak_mmr = excluded.peak_mmr`,
		s.PlayerID, s.SeasonID, s.GamesPlayed, s.TotalPins, s.SeasonAverage,
		s.HighestGame, s.HighestSeries, s.StartingMMR, s.PeakMMR)
	if err != nil {
		return fmt.Errorf("failed to upsert season stats for player %d: %w", s.PlayerID, err)
	}
	return nil
}

// GetForSeason is the non-transactional read used by player-facing queries.
func (r *StatsRepository) GetForSeason(ctx context.Context, playerID, seasonID int64) (*domain.SeasonStats, error) {
	return r.Get(ctx, r.db, playerID, seasonID)
}

func (r *StatsRepository) ListBySeason(ctx context.Context, seasonID int64) ([]domain.SeasonStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statsColumns+` FROM player_season_stats WHERE season_id = ? ORDER BY season_average DESC`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season stats: %w", err)
	}
	defer rows.Close()

	var all []domain.SeasonStats
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan season stats: %w", err)
		}
		all = append(all, *s)
	}
	return all, rows.Err()
}
