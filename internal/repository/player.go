package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bowling-tracker/internal/constants"
	"bowling-tracker/internal/domain"

	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

const playerColumns = `id, name, current_mmr, division, unexcused_misses, rank_name, created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.Name, &p.CurrentMMR, &p.Division, &p.UnexcusedMisses, &p.RankName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) Create(ctx context.Context, name string, division int, startingMMR float64, rankName string) (*domain.Player, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO players (name, division, current_mmr, rank_name) VALUES (?, ?, ?, ?)`,
		name, division, startingMMR, rankName)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read player id: %w", err)
	}

	r.logger.Info().
		Int64("player_id", id).
		Str("name", name).
		Int("division", division).
		Float64("starting_mmr", startingMMR).
		Msg("player registered")

	return r.GetByID(ctx, id)
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return p, nil
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE name = ?`, name)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %q: %w", name, err)
	}
	return p, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players ORDER BY current_mmr DESC LIMIT ?`,
		constants.LeaderboardLimit)
}

func (r *PlayerRepository) ListByDivision(ctx context.Context, division int) ([]domain.Player, error) {
	return r.list(ctx, `SELECT `+playerColumns+` FROM players WHERE division = ? ORDER BY current_mmr DESC LIMIT ?`,
		division, constants.LeaderboardLimit)
}

func (r *PlayerRepository) list(ctx context.Context, query string, args ...any) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// SetSeed is the administrative MMR override; rank is re-resolved by the caller.
func (r *PlayerRepository) SetSeed(ctx context.Context, id int64, mmr float64, rankName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET current_mmr = ?, rank_name = ?, updated_at = ? WHERE id = ?`,
		mmr, rankName, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to seed player %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlayerNotFound
	}

	r.logger.Info().Int64("player_id", id).Float64("mmr", mmr).Str("rank", rankName).Msg("player MMR seeded")
	return nil
}

// ApplyRatingState writes the post-reveal MMR, rank and miss counter for one
// player. It runs against the reveal transaction.
func (r *PlayerRepository) ApplyRatingState(ctx context.Context, q DBTX, id int64, mmr float64, misses int, rankName string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE players SET current_mmr = ?, unexcused_misses = ?, rank_name = ?, updated_at = ? WHERE id = ?`,
		mmr, misses, rankName, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update rating state for player %d: %w", id, err)
	}
	return nil
}
