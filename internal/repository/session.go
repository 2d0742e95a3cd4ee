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

var (
	ErrNoOpenSession = errors.New("no unrevealed session")
	ErrScoreNotFound = errors.New("score not found")
)

type SessionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSessionRepository(sqlDB *sql.DB, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{db: sqlDB, logger: logger}
}

const sessionColumns = `id, season_id, session_date, is_active, is_revealed, auto_reveal_notified, event_multiplier, created_at, revealed_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var s domain.Session
	var revealedAt sql.NullTime
	err := row.Scan(&s.ID, &s.SeasonID, &s.SessionDate, &s.IsActive, &s.IsRevealed,
		&s.AutoRevealNotified, &s.EventMultiplier, &s.CreatedAt, &revealedAt)
	if err != nil {
		return nil, err
	}
	if revealedAt.Valid {
		s.RevealedAt = &revealedAt.Time
	}
	return &s, nil
}

// Create inserts a new session. The partial unique index on unrevealed
// sessions makes a second concurrent create fail rather than silently
// produce two open sessions.
func (r *SessionRepository) Create(ctx context.Context, seasonID int64, date time.Time) (*domain.Session, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (season_id, session_date) VALUES (?, ?)`, seasonID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read session id: %w", err)
	}

	r.logger.Info().Int64("session_id", id).Int64("season_id", seasonID).Msg("session created")
	return r.GetByID(ctx, id)
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}
	return s, nil
}

// GetUnrevealed returns the season's single open session, if any.
func (r *SessionRepository) GetUnrevealed(ctx context.Context, seasonID int64) (*domain.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE season_id = ? AND is_revealed = 0`, seasonID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unrevealed session: %w", err)
	}
	return s, nil
}

// Delete cancels an unrevealed session; check-ins and scores cascade.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND is_revealed = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoOpenSession
	}
	r.logger.Info().Int64("session_id", id).Msg("session cancelled")
	return nil
}

// SetActive latches the activation flag; it is never reset.
func (r *SessionRepository) SetActive(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to activate session %d: %w", id, err)
	}
	return nil
}

// SetAutoRevealNotified latches the one-shot notification flag.
func (r *SessionRepository) SetAutoRevealNotified(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET auto_reveal_notified = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to set auto reveal flag for session %d: %w", id, err)
	}
	return nil
}

// MarkRevealed runs inside the reveal transaction.
func (r *SessionRepository) MarkRevealed(ctx context.Context, q DBTX, id int64, revealedAt time.Time) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE sessions SET is_revealed = 1, revealed_at = ? WHERE id = ?`, revealedAt, id); err != nil {
		return fmt.Errorf("failed to mark session %d revealed: %w", id, err)
	}
	return nil
}

// CheckIn records a positive check-in signal; repeating it is a no-op.
func (r *SessionRepository) CheckIn(ctx context.Context, sessionID, playerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_check_ins (session_id, player_id) VALUES (?, ?)`, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to check in player %d: %w", playerID, err)
	}
	r.logger.Info().Int64("session_id", sessionID).Int64("player_id", playerID).Msg("player checked in")
	return nil
}

// RemoveCheckIn handles a negative or withdrawn check-in signal.
func (r *SessionRepository) RemoveCheckIn(ctx context.Context, sessionID, playerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session_check_ins WHERE session_id = ? AND player_id = ?`, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove check-in for player %d: %w", playerID, err)
	}
	r.logger.Info().Int64("session_id", sessionID).Int64("player_id", playerID).Msg("player check-in removed")
	return nil
}

func (r *SessionRepository) IsCheckedIn(ctx context.Context, sessionID, playerID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_check_ins WHERE session_id = ? AND player_id = ?`, sessionID, playerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check check-in: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) ListCheckIns(ctx context.Context, sessionID int64) ([]domain.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, player_id, has_submitted, checked_in_at FROM session_check_ins WHERE session_id = ? ORDER BY checked_in_at`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []domain.CheckIn
	for rows.Next() {
		var c domain.CheckIn
		if err := rows.Scan(&c.ID, &c.SessionID, &c.PlayerID, &c.HasSubmitted, &c.CheckedInAt); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}

func (r *SessionRepository) SetHasSubmitted(ctx context.Context, sessionID, playerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_check_ins SET has_submitted = 1 WHERE session_id = ? AND player_id = ?`, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to mark submitted for player %d: %w", playerID, err)
	}
	return nil
}

// InsertScore records a submitted game with neutral MMR placeholders; the
// reveal transaction overwrites them.
func (r *SessionRepository) InsertScore(ctx context.Context, s domain.Score) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scores (player_id, session_id, game_number, score, mmr_before, mmr_after, mmr_change, bonus_applied)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0)`,
		s.PlayerID, s.SessionID, s.GameNumber, s.Score, s.MMRBefore, s.MMRBefore)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	r.logger.Info().
		Int64("session_id", s.SessionID).
		Int64("player_id", s.PlayerID).
		Int("game", s.GameNumber).
		Int("score", s.Score).
		Msg("score recorded")
	return nil
}

func (r *SessionRepository) PlayerScores(ctx context.Context, sessionID, playerID int64) ([]domain.Score, error) {
	return r.scores(ctx,
		`SELECT id, player_id, session_id, game_number, score, mmr_before, mmr_after, mmr_change, bonus_applied, created_at
		 FROM scores WHERE session_id = ? AND player_id = ? ORDER BY game_number`, sessionID, playerID)
}

func (r *SessionRepository) SessionScores(ctx context.Context, sessionID int64) ([]domain.Score, error) {
	return r.scores(ctx,
		`SELECT id, player_id, session_id, game_number, score, mmr_before, mmr_after, mmr_change, bonus_applied, created_at
		 FROM scores WHERE session_id = ? ORDER BY player_id, game_number`, sessionID)
}

func (r *SessionRepository) scores(ctx context.Context, query string, args ...any) ([]domain.Score, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []domain.Score
	for rows.Next() {
		var s domain.Score
		if err := rows.Scan(&s.ID, &s.PlayerID, &s.SessionID, &s.GameNumber, &s.Score,
			&s.MMRBefore, &s.MMRAfter, &s.MMRChange, &s.BonusApplied, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *SessionRepository) UpdateScoreValue(ctx context.Context, sessionID, playerID int64, gameNumber, newScore int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scores SET score = ? WHERE session_id = ? AND player_id = ? AND game_number = ?`,
		newScore, sessionID, playerID, gameNumber)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScoreNotFound
	}

	r.logger.Info().
		Int64("session_id", sessionID).
		Int64("player_id", playerID).
		Int("game", gameNumber).
		Int("score", newScore).
		Msg("score updated")
	return nil
}

func (r *SessionRepository) CountGame1(ctx context.Context, sessionID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scores WHERE session_id = ? AND game_number = 1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count game 1 scores: %w", err)
	}
	return n, nil
}

// UpdateScoreSnapshots overwrites a player's placeholder MMR fields at
// reveal. Runs inside the reveal transaction.
func (r *SessionRepository) UpdateScoreSnapshots(ctx context.Context, q DBTX, sessionID, playerID int64, before, after float64, change, bonus float64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE scores SET mmr_before = ?, mmr_after = ?, mmr_change = ?, bonus_applied = ?
		 WHERE session_id = ? AND player_id = ?`,
		before, after, change, bonus, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update score snapshots for player %d: %w", playerID, err)
	}
	return nil
}
