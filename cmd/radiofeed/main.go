// Package main выполняет один прогон: загружает плейлисты станций и записывает RSS-ленты.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"radiofeed/internal/app"
	"radiofeed/internal/config"
	"radiofeed/internal/station"
	"radiofeed/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		bootstrap, _ := logger.New(logger.DefaultConfig())
		bootstrap.Error("Failed to load configuration", zap.Error(err))
		return 1
	}

	// Инициализация логгера
	log, err := logger.New(cfg.Log)
	if err != nil {
		bootstrap, _ := logger.New(logger.DefaultConfig())
		bootstrap.Error("Failed to create logger", zap.Error(err))
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
	}()

	runner, cleanup := app.NewComponentFactory(cfg, log).CreateRunner(ctx)
	defer cleanup()

	result, err := runner.Run(ctx, station.Default())
	if err != nil {
		log.Error("Run failed", zap.Error(err))
		return 1
	}

	if len(result.Files) == 0 {
		log.Warn("No feeds written")
	}
	return 0
}
