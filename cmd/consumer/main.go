package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"waterwatch/internal/config"
	"waterwatch/internal/consumer"
	"waterwatch/internal/logger"
	"waterwatch/internal/notify"
	"waterwatch/internal/rules"
)

func main() {
	cfg := config.FromEnv()
	logger.Init(cfg.LogLevel)

	set := rules.Defaults()
	if cfg.RulesFile != "" {
		loaded, err := rules.Load(cfg.RulesFile)
		if err != nil {
			logger.Logger.Error().Err(err).Str("path", cfg.RulesFile).Msg("failed to load rules file")
			os.Exit(1)
		}
		set = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := consumer.New(cfg, set, notify.NewConsoleNotifier())
	if err := svc.Run(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("consumer exited with error")
		os.Exit(1)
	}
}
