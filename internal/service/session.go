package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"bowling-tracker/internal/constants"
	"bowling-tracker/internal/domain"
	"bowling-tracker/internal/rating"
	"bowling-tracker/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Notifier is the outward-facing collaborator for session announcements.
// Failures on this boundary must never block a lifecycle transition.
type Notifier interface {
	CheckInOpened(sessionID int64, date time.Time)
	RevealReady(sessionID int64)
	ResultsPosted(sessionID int64, summary []string)
}

// DecayNotice describes one attendance decay applied during a reveal.
type DecayNotice struct {
	PlayerID        int64
	MMRBeforeDecay  float64
	MMRAfterDecay   float64
	DecayApplied    int
	UnexcusedMisses int
}

// RevealOutcome is everything a reveal produced, for display by callers.
type RevealOutcome struct {
	SessionID int64
	Results   []rating.Result
	Decays    []DecayNotice
}

type pendingCorrection struct {
	SessionID  int64
	PlayerID   int64
	GameNumber int
	NewScore   int
	ExpiresAt  time.Time
}

type SessionService struct {
	sessions *repository.SessionRepository
	seasons  *repository.SeasonRepository
	players  *repository.PlayerRepository
	settings *repository.SettingsRepository
	stats    *repository.StatsRepository
	history  *repository.RatingHistoryRepository
	db       *sql.DB
	notifier Notifier
	logger   zerolog.Logger

	// revealMu serializes reveals; two concurrent triggers must not both run.
	revealMu sync.Mutex

	correctionsMu sync.Mutex
	corrections   map[string]pendingCorrection
}

func NewSessionService(
	sessions *repository.SessionRepository,
	seasons *repository.SeasonRepository,
	players *repository.PlayerRepository,
	settings *repository.SettingsRepository,
	stats *repository.StatsRepository,
	history *repository.RatingHistoryRepository,
	sqlDB *sql.DB,
	notifier Notifier,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		seasons:     seasons,
		players:     players,
		settings:    settings,
		stats:       stats,
		history:     history,
		db:          sqlDB,
		notifier:    notifier,
		logger:      logger,
		corrections: make(map[string]pendingCorrection),
	}
}

// StartCheckIn creates a new session for the active season. At most one
// unrevealed session may exist per season.
func (s *SessionService) StartCheckIn(ctx context.Context) (*domain.Session, error) {
	season, err := s.seasons.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if existing, err := s.sessions.GetUnrevealed(ctx, season.ID); err == nil {
		s.logger.Info().Int64("session_id", existing.ID).Msg("unrevealed session already exists")
		return nil, fmt.Errorf("%w (session %d from %s)", ErrSessionExists,
			existing.ID, existing.SessionDate.Format("2006-01-02"))
	} else if err != repository.ErrNoOpenSession {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, season.ID, time.Now())
	if err != nil {
		return nil, err
	}

	s.notifier.CheckInOpened(session.ID, session.SessionDate)
	return session, nil
}

// StartAutomatic is the nightly scheduler entry point. Unlike StartCheckIn it
// skips silently when a session is already open or no season is active.
func (s *SessionService) StartAutomatic(ctx context.Context) {
	session, err := s.StartCheckIn(ctx)
	if err != nil {
		s.logger.Info().Err(err).Msg("automated check-in skipped")
		return
	}
	s.logger.Info().Int64("session_id", session.ID).Msg("automated check-in opened")
}

// CheckIn records a player's intent to play in the current session.
func (s *SessionService) CheckIn(ctx context.Context, playerID int64) error {
	session, err := s.currentSession(ctx)
	if err != nil {
		return err
	}
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return err
	}
	return s.sessions.CheckIn(ctx, session.ID, playerID)
}

// Decline withdraws a check-in; a decline without a prior check-in is a no-op.
func (s *SessionService) Decline(ctx context.Context, playerID int64) error {
	session, err := s.currentSession(ctx)
	if err != nil {
		return err
	}
	return s.sessions.RemoveCheckIn(ctx, session.ID, playerID)
}

// SubmitScore records one game for a checked-in player. Game numbers are
// auto-assigned: first submission is Game 1, second is Game 2, a third is
// refused. The activation latch and the auto-reveal readiness check both
// hang off this operation.
func (s *SessionService) SubmitScore(ctx context.Context, playerID int64, score int) (gameNumber int, err error) {
	if score < 0 || score > 300 {
		return 0, ErrInvalidScore
	}

	session, err := s.currentSession(ctx)
	if err != nil {
		return 0, err
	}

	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return 0, err
	}

	checkedIn, err := s.sessions.IsCheckedIn(ctx, session.ID, playerID)
	if err != nil {
		return 0, err
	}
	if !checkedIn {
		return 0, ErrNotCheckedIn
	}

	existing, err := s.sessions.PlayerScores(ctx, session.ID, playerID)
	if err != nil {
		return 0, err
	}
	if len(existing) >= 2 {
		return 0, ErrBothGamesSubmitted
	}
	gameNumber = len(existing) + 1

	err = s.sessions.InsertScore(ctx, domain.Score{
		PlayerID:   playerID,
		SessionID:  session.ID,
		GameNumber: gameNumber,
		Score:      score,
		MMRBefore:  player.CurrentMMR,
	})
	if err != nil {
		return 0, err
	}

	switch gameNumber {
	case 1:
		if err := s.maybeActivate(ctx, session); err != nil {
			s.logger.Error().Err(err).Int64("session_id", session.ID).Msg("activation check failed")
		}
	case 2:
		if err := s.sessions.SetHasSubmitted(ctx, session.ID, playerID); err != nil {
			s.logger.Error().Err(err).Int64("player_id", playerID).Msg("failed to mark submission complete")
		}
		if err := s.maybeNotifyRevealReady(ctx, session.ID); err != nil {
			s.logger.Error().Err(err).Int64("session_id", session.ID).Msg("auto-reveal readiness check failed")
		}
	}

	return gameNumber, nil
}

// maybeActivate latches is_active once the count of Game-1 submissions
// reaches the configured threshold. The count is read after the write that
// may have tripped it, and the latch is one-way.
func (s *SessionService) maybeActivate(ctx context.Context, session *domain.Session) error {
	if session.IsActive {
		return nil
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	count, err := s.sessions.CountGame1(ctx, session.ID)
	if err != nil {
		return err
	}
	if count < settings.ActivationThreshold {
		return nil
	}

	if err := s.sessions.SetActive(ctx, session.ID); err != nil {
		return err
	}
	s.logger.Info().
		Int64("session_id", session.ID).
		Int("game1_count", count).
		Int("threshold", settings.ActivationThreshold).
		Msg("session activated")
	return nil
}

// maybeNotifyRevealReady fires the one-shot ready-for-reveal notification
// once every checked-in player has two recorded scores. The
// auto_reveal_notified latch prevents repeat alerts.
func (s *SessionService) maybeNotifyRevealReady(ctx context.Context, sessionID int64) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsActive || session.AutoRevealNotified {
		return nil
	}

	ready, err := s.allSubmitted(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	if err := s.sessions.SetAutoRevealNotified(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info().Int64("session_id", sessionID).Msg("session ready for reveal")

	g := new(errgroup.Group)
	g.Go(func() error {
		s.notifier.RevealReady(sessionID)
		return nil
	})
	go func() { _ = g.Wait() }()

	return nil
}

func (s *SessionService) allSubmitted(ctx context.Context, sessionID int64) (bool, error) {
	checkIns, err := s.sessions.ListCheckIns(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if len(checkIns) == 0 {
		return false, nil
	}
	for _, ci := range checkIns {
		scores, err := s.sessions.PlayerScores(ctx, sessionID, ci.PlayerID)
		if err != nil {
			return false, err
		}
		if len(scores) < 2 {
			return false, nil
		}
	}
	return true, nil
}

// EditScore lets a player correct their own submission before reveal.
func (s *SessionService) EditScore(ctx context.Context, playerID int64, gameNumber, newScore int) error {
	if gameNumber != 1 && gameNumber != 2 {
		return ErrInvalidGameNumber
	}
	if newScore < 0 || newScore > 300 {
		return ErrInvalidScore
	}

	session, err := s.currentSession(ctx)
	if err != nil {
		return err
	}
	return s.sessions.UpdateScoreValue(ctx, session.ID, playerID, gameNumber, newScore)
}

// ProposeCorrection stages an admin score correction. It must be confirmed
// within the correction timeout or it is discarded.
func (s *SessionService) ProposeCorrection(ctx context.Context, playerID int64, gameNumber, newScore int) (string, error) {
	if gameNumber != 1 && gameNumber != 2 {
		return "", ErrInvalidGameNumber
	}
	if newScore < 0 || newScore > 300 {
		return "", ErrInvalidScore
	}

	session, err := s.currentSession(ctx)
	if err != nil {
		return "", err
	}

	scores, err := s.sessions.PlayerScores(ctx, session.ID, playerID)
	if err != nil {
		return "", err
	}
	found := false
	for _, sc := range scores {
		if sc.GameNumber == gameNumber {
			found = true
		}
	}
	if !found {
		return "", repository.ErrScoreNotFound
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate correction id: %w", err)
	}

	s.correctionsMu.Lock()
	s.pruneExpiredLocked()
	s.corrections[id] = pendingCorrection{
		SessionID:  session.ID,
		PlayerID:   playerID,
		GameNumber: gameNumber,
		NewScore:   newScore,
		ExpiresAt:  time.Now().Add(constants.CorrectionTimeout),
	}
	s.correctionsMu.Unlock()

	s.logger.Info().
		Str("correction_id", id).
		Int64("player_id", playerID).
		Int("game", gameNumber).
		Int("score", newScore).
		Msg("score correction proposed")
	return id, nil
}

// ConfirmCorrection applies a staged correction if it has not expired.
func (s *SessionService) ConfirmCorrection(ctx context.Context, correctionID string) error {
	s.correctionsMu.Lock()
	pc, ok := s.corrections[correctionID]
	delete(s.corrections, correctionID)
	s.correctionsMu.Unlock()

	if !ok {
		return ErrCorrectionNotFound
	}
	if time.Now().After(pc.ExpiresAt) {
		s.logger.Info().Str("correction_id", correctionID).Msg("correction expired, discarded")
		return ErrCorrectionExpired
	}

	session, err := s.currentSession(ctx)
	if err != nil {
		return err
	}
	if session.ID != pc.SessionID {
		// The session it targeted is gone; the correction cannot apply.
		return ErrCorrectionExpired
	}

	if err := s.sessions.UpdateScoreValue(ctx, pc.SessionID, pc.PlayerID, pc.GameNumber, pc.NewScore); err != nil {
		return err
	}
	s.logger.Info().Str("correction_id", correctionID).Msg("score correction applied")
	return nil
}

// CancelCorrection discards a staged correction.
func (s *SessionService) CancelCorrection(correctionID string) error {
	s.correctionsMu.Lock()
	defer s.correctionsMu.Unlock()
	if _, ok := s.corrections[correctionID]; !ok {
		return ErrCorrectionNotFound
	}
	delete(s.corrections, correctionID)
	return nil
}

func (s *SessionService) pruneExpiredLocked() {
	now := time.Now()
	for id, pc := range s.corrections {
		if now.After(pc.ExpiresAt) {
			delete(s.corrections, id)
		}
	}
}

// Cancel deletes the current unrevealed session with its check-ins and
// scores. Nothing has been committed to players or stats yet, so nothing
// else changes.
func (s *SessionService) Cancel(ctx context.Context) error {
	session, err := s.currentSession(ctx)
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, session.ID)
}

// Status reports the lifecycle summary of the current session.
func (s *SessionService) Status(ctx context.Context) (*domain.SessionStatus, error) {
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	checkIns, err := s.sessions.ListCheckIns(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	game1Count, err := s.sessions.CountGame1(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	complete := 0
	for _, ci := range checkIns {
		scores, err := s.sessions.PlayerScores(ctx, session.ID, ci.PlayerID)
		if err != nil {
			return nil, err
		}
		if len(scores) >= 2 {
			complete++
		}
	}

	ready, err := s.allSubmitted(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &domain.SessionStatus{
		SessionID:          session.ID,
		SessionDate:        session.SessionDate,
		IsActive:           session.IsActive,
		IsRevealed:         session.IsRevealed,
		CheckedIn:          len(checkIns),
		Game1Submissions:   game1Count,
		PlayersComplete:    complete,
		ReadyForActivation: game1Count >= settings.ActivationThreshold,
		ReadyForReveal:     session.IsActive && ready,
	}, nil
}

func (s *SessionService) currentSession(ctx context.Context) (*domain.Session, error) {
	season, err := s.seasons.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.sessions.GetUnrevealed(ctx, season.ID)
}
