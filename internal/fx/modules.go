package fx

import (
	"geo-jigsaw/internal/api"
	"geo-jigsaw/internal/catalog"
	"geo-jigsaw/internal/clock"
	"geo-jigsaw/internal/config"
	"geo-jigsaw/internal/database"
	"geo-jigsaw/internal/logger"
	"geo-jigsaw/internal/repository"
	"geo-jigsaw/internal/server"
	"geo-jigsaw/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ApplyLogLevel lowers or raises the global level once the config is known.
func ApplyLogLevel(cfg *config.Config, log zerolog.Logger) error {
	level, err := logger.ApplyLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.Info().Str("level", level.String()).Msg("log level applied")
	return nil
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Invoke(ApplyLogLevel),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewSessionRepository),
	// region data
	fx.Provide(catalog.New),
	fx.Provide(api.NewCatalogClient),
	// svc
	fx.Provide(clock.NewReal),
	fx.Provide(service.NewPuzzleService),
	// server
	fx.Provide(server.NewPuzzleServer),
)
