package scheduler

import (
	"context"
	"fmt"

	"bowling-tracker/internal/config"
	"bowling-tracker/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Scheduler opens league-night check-in on a daily timer so nobody has
// to remember to start the session by hand.
type Scheduler struct {
	inner    gocron.Scheduler
	sessions *service.SessionService
	logger   zerolog.Logger
	hour     int
	minute   int
}

func New(cfg *config.Config, sessions *service.SessionService, logger zerolog.Logger) (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		inner:    inner,
		sessions: sessions,
		logger:   logger,
		hour:     cfg.CheckInHour,
		minute:   cfg.CheckInMinute,
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.inner.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(s.hour), uint(s.minute), 0),
		)),
		gocron.NewTask(func() {
			s.logger.Info().
				Int("hour", s.hour).
				Int("minute", s.minute).
				Msg("nightly check-in trigger fired")
			s.sessions.StartAutomatic(context.Background())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule nightly check-in: %w", err)
	}

	s.inner.Start()
	s.logger.Info().
		Str("at", fmt.Sprintf("%02d:%02d", s.hour, s.minute)).
		Msg("check-in scheduler started")
	return nil
}

func (s *Scheduler) Stop() error {
	return s.inner.Shutdown()
}
