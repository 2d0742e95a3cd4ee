package fx

import (
	"bowling-tracker/internal/config"
	"bowling-tracker/internal/database"
	"bowling-tracker/internal/logger"
	"bowling-tracker/internal/notify"
	"bowling-tracker/internal/repository"
	"bowling-tracker/internal/scheduler"
	"bowling-tracker/internal/server"
	"bowling-tracker/internal/service"

	"go.uber.org/fx"
)

func ProvideNotifier(n *notify.Notifier) service.Notifier {
	return n
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewSeasonRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(repository.NewSettingsRepository),
	fx.Provide(repository.NewStatsRepository),
	fx.Provide(repository.NewRatingHistoryRepository),
	// webhook client
	fx.Provide(notify.NewNotifier),
	fx.Provide(ProvideNotifier),
	// svc
	fx.Provide(service.NewSessionService),
	fx.Provide(service.NewSeasonService),
	fx.Provide(service.NewPlayerService),
	// scheduler + server
	fx.Provide(scheduler.New),
	fx.Provide(server.NewLeagueServer),
)
