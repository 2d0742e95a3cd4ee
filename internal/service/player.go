package service

import (
	"context"
	"errors"

	"bowling-tracker/internal/constants"
	"bowling-tracker/internal/domain"
	"bowling-tracker/internal/rating"
	"bowling-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type PlayerService struct {
	players  *repository.PlayerRepository
	settings *repository.SettingsRepository
	history  *repository.RatingHistoryRepository
	logger   zerolog.Logger
}

func NewPlayerService(
	players *repository.PlayerRepository,
	settings *repository.SettingsRepository,
	history *repository.RatingHistoryRepository,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{players: players, settings: settings, history: history, logger: logger}
}

// Register creates a player with the default starting MMR unless an explicit
// seed is given, and resolves their initial rank tier.
func (s *PlayerService) Register(ctx context.Context, name string, division int, startingMMR *float64) (*domain.Player, error) {
	if name == "" {
		return nil, errors.New("player name is required")
	}
	if division != 1 && division != 2 {
		return nil, ErrInvalidDivision
	}

	mmr := domain.DefaultStartingMMR
	if startingMMR != nil {
		if *startingMMR < 0 {
			return nil, errors.New("starting MMR must not be negative")
		}
		mmr = *startingMMR
	}

	tiers, err := s.settings.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	rank := rating.ResolveRank(mmr, tiers)

	return s.players.Create(ctx, name, division, mmr, rank.Name)
}

// Seed is the administrative MMR override; the rank tier is re-resolved.
func (s *PlayerService) Seed(ctx context.Context, playerID int64, mmr float64) (*domain.Player, error) {
	if mmr < 0 {
		return nil, errors.New("MMR must not be negative")
	}
	tiers, err := s.settings.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	rank := rating.ResolveRank(mmr, tiers)

	if err := s.players.SetSeed(ctx, playerID, mmr, rank.Name); err != nil {
		return nil, err
	}
	return s.players.GetByID(ctx, playerID)
}

func (s *PlayerService) Get(ctx context.Context, playerID int64) (*domain.Player, error) {
	return s.players.GetByID(ctx, playerID)
}

func (s *PlayerService) GetByName(ctx context.Context, name string) (*domain.Player, error) {
	return s.players.GetByName(ctx, name)
}

// Leaderboard lists players by MMR, optionally restricted to one division.
func (s *PlayerService) Leaderboard(ctx context.Context, division int) ([]domain.Player, error) {
	switch division {
	case 0:
		return s.players.List(ctx)
	case 1, 2:
		return s.players.ListByDivision(ctx, division)
	default:
		return nil, ErrInvalidDivision
	}
}

// History returns the player's most recent reveal audit rows.
func (s *PlayerService) History(ctx context.Context, playerID int64, limit int) ([]domain.RatingHistory, error) {
	if limit <= 0 {
		limit = constants.HistoryDefaultSize
	}
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return nil, err
	}
	return s.history.ListByPlayer(ctx, playerID, limit)
}
