package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waterwatch/internal/config"
	"waterwatch/internal/logger"
	"waterwatch/internal/publisher"
)

func main() {
	interval := flag.Int("interval", 5, "seconds between published measurements")
	flag.Parse()

	if *interval <= 0 {
		fmt.Fprintln(os.Stderr, "interval must be a positive number of seconds")
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := publisher.New(cfg, time.Duration(*interval)*time.Second)
	if err := svc.Run(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("publisher exited with error")
		os.Exit(1)
	}
}
