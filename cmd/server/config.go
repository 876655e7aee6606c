package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/sheepify-api/internal/config"
)

// loadAppConfig loads the configuration and logs what was found, never the
// secrets themselves.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("auto_migrate", cfg.Database.AutoMigrate),
		slog.String("generation_schedule", cfg.Economy.GenerationSchedule),
		slog.Bool("leaderboard_enabled", cfg.Redis.Addr != ""))

	return cfg, nil
}
