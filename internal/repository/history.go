package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bowling-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RatingHistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingHistoryRepository {
	return &RatingHistoryRepository{db: sqlDB, logger: logger}
}

// InsertBatch writes one audit row per processed player. It runs against the
// reveal transaction so a failed reveal leaves no history behind.
func (r *RatingHistoryRepository) InsertBatch(ctx context.Context, q DBTX, records []domain.RatingHistory) error {
	for _, record := range records {
		id := record.ID
		if id == "" {
			var err error
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}

		_, err := q.ExecContext(ctx,
			`INSERT INTO rating_history
			   (id, player_id, session_id, series, mmr_change, elo_change, bonus_mmr, decay_applied, mmr_after, rank_name, revealed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, record.PlayerID, record.SessionID, record.Series, record.MMRChange,
			record.EloChange, record.BonusMMR, record.DecayApplied, record.MMRAfter,
			record.RankName, record.RevealedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rating history for player %d: %w", record.PlayerID, err)
		}
	}
	return nil
}

func (r *RatingHistoryRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.RatingHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, player_id, session_id, series, mmr_change, elo_change, bonus_mmr, decay_applied, mmr_after, rank_name, revealed_at
		 FROM rating_history WHERE player_id = ? ORDER BY revealed_at DESC LIMIT ?`,
		playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history: %w", err)
	}
	defer rows.Close()

	var records []domain.RatingHistory
	for rows.Next() {
		var h domain.RatingHistory
		if err := rows.Scan(&h.ID, &h.PlayerID, &h.SessionID, &h.Series, &h.MMRChange,
			&h.EloChange, &h.BonusMMR, &h.DecayApplied, &h.MMRAfter, &h.RankName, &h.RevealedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating history: %w", err)
		}
		records = append(records, h)
	}
	return records, rows.Err()
}
