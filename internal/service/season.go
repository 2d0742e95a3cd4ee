package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bowling-tracker/internal/domain"
	"bowling-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type SeasonService struct {
	seasons  *repository.SeasonRepository
	sessions *repository.SessionRepository
	stats    *repository.StatsRepository
	logger   zerolog.Logger
}

func NewSeasonService(
	seasons *repository.SeasonRepository,
	sessions *repository.SessionRepository,
	stats *repository.StatsRepository,
	logger zerolog.Logger,
) *SeasonService {
	return &SeasonService{seasons: seasons, sessions: sessions, stats: stats, logger: logger}
}

// Create starts a new season. An unrevealed session in the outgoing season
// must be revealed or cancelled first; deactivating it mid-flight would
// orphan its check-ins.
func (s *SeasonService) Create(ctx context.Context, name string, startDate time.Time) (*domain.Season, error) {
	if name == "" {
		return nil, errors.New("season name is required")
	}

	current, err := s.seasons.GetActive(ctx)
	if err == nil {
		if _, err := s.sessions.GetUnrevealed(ctx, current.ID); err == nil {
			return nil, fmt.Errorf("%w in season %q", ErrSessionExists, current.Name)
		} else if !errors.Is(err, repository.ErrNoOpenSession) {
			return nil, err
		}
	} else if !errors.Is(err, repository.ErrNoActiveSeason) {
		return nil, err
	}

	return s.seasons.Create(ctx, name, startDate)
}

func (s *SeasonService) Active(ctx context.Context) (*domain.Season, error) {
	return s.seasons.GetActive(ctx)
}

// PlayerStats returns one player's aggregates for the active season.
func (s *SeasonService) PlayerStats(ctx context.Context, playerID int64) (*domain.SeasonStats, error) {
	season, err := s.seasons.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.stats.GetForSeason(ctx, playerID, season.ID)
}

// Standings returns the per-player season aggregates for the active season.
func (s *SeasonService) Standings(ctx context.Context) ([]domain.SeasonStats, error) {
	season, err := s.seasons.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.stats.ListBySeason(ctx, season.ID)
}
