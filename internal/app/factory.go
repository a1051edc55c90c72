package app

import (
	"context"
	"fmt"

	"radiofeed/internal/config"
	"radiofeed/internal/external/scraper"
	"radiofeed/internal/external/spotify"
	"radiofeed/internal/external/telegram"
	"radiofeed/internal/storage"

	"go.uber.org/zap"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(cfg *config.Config, logger *zap.Logger) *ComponentFactory {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComponentFactory{config: cfg, logger: logger}
}

// ScraperConfig переносит настройки загрузки в конфигурацию scraper
func (f *ComponentFactory) ScraperConfig() scraper.Config {
	return scraper.Config{
		UserAgent:      f.config.UserAgent,
		RequestDelay:   f.config.RequestDelay,
		RequestTimeout: f.config.RequestTimeout,
		HTTPClient: scraper.HTTPClientConfig{
			MaxIdleConns:          f.config.HTTPClientConfig.MaxIdleConns,
			MaxIdleConnsPerHost:   f.config.HTTPClientConfig.MaxIdleConnsPerHost,
			IdleConnTimeout:       f.config.HTTPClientConfig.IdleConnTimeout,
			TLSHandshakeTimeout:   f.config.HTTPClientConfig.TLSHandshakeTimeout,
			ResponseHeaderTimeout: f.config.HTTPClientConfig.ResponseHeaderTimeout,
			DisableKeepAlives:     f.config.HTTPClientConfig.DisableKeepAlives,
		},
		Retry: scraper.RetryConfig{
			MaxRetries:        f.config.RetryConfig.MaxRetries,
			InitialDelay:      f.config.RetryConfig.InitialDelay,
			MaxDelay:          f.config.RetryConfig.MaxDelay,
			BackoffMultiplier: f.config.RetryConfig.BackoffMultiplier,
		},
	}
}

// Options возвращает параметры вывода прогона
func (f *ComponentFactory) Options() Options {
	return Options{
		OutputDir:     f.config.OutputDir,
		Mode:          f.config.OutputMode,
		CombinedFile:  f.config.CombinedFile,
		FeedLocation:  f.config.FeedLocation(),
		FetchLocation: f.config.FetchLocation(),
	}
}

// CreateFetcher создает загрузчик страниц
func (f *ComponentFactory) CreateFetcher() *scraper.Fetcher {
	return scraper.NewFetcher(f.ScraperConfig(), f.logger)
}

// CreateDatabase подключается к архиву и создает схему
func (f *ComponentFactory) CreateDatabase(ctx context.Context) (*storage.Postgres, error) {
	if !f.config.ArchiveEnabled() {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := storage.NewPostgres(ctx, f.config.DatabaseURL, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	f.logger.Info("Database connection created successfully")
	return db, nil
}

// CreateCoverResolver создает поиск обложек Spotify
func (f *ComponentFactory) CreateCoverResolver() (*spotify.CoverResolver, error) {
	httpClient := scraper.NewHTTPClient(f.ScraperConfig().HTTPClient, f.config.RequestTimeout)

	resolver, err := spotify.NewCoverResolver(f.config.SpotifyClientID, f.config.SpotifyClientSecret, httpClient, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}

	f.logger.Info("Spotify cover resolver created successfully")
	return resolver, nil
}

// CreateNotifier создает уведомления в Telegram
func (f *ComponentFactory) CreateNotifier() (*telegram.Notifier, error) {
	bot, err := telegram.NewBotSender(f.config.TelegramBotToken, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return telegram.NewNotifier(bot, f.config.TelegramChatID, f.logger), nil
}

// CreateRunner собирает Runner со всеми включенными компонентами.
// Недоступные необязательные компоненты отключаются с предупреждением.
// Возвращаемая функция освобождает ресурсы.
func (f *ComponentFactory) CreateRunner(ctx context.Context) (*Runner, func()) {
	var (
		options []RunnerOption
		closers []func() error
	)

	if f.config.SpotifyEnabled() {
		if resolver, err := f.CreateCoverResolver(); err != nil {
			f.logger.Warn("Cover resolver disabled", zap.Error(err))
		} else {
			options = append(options, WithCoverResolver(resolver))
		}
	}

	if f.config.ArchiveEnabled() {
		db, err := f.CreateDatabase(ctx)
		if err != nil {
			f.logger.Warn("Archive disabled", zap.Error(err))
		} else {
			closers = append(closers, db.Close)
			options = append(options, WithArchive(db.GetPlayRepository(f.config.FeedLocation())))

			if f.config.TelegramEnabled() {
				if notifier, err := f.CreateNotifier(); err != nil {
					f.logger.Warn("Notifier disabled", zap.Error(err))
				} else {
					options = append(options, WithNotifier(notifier))
				}
			}
		}
	}

	runner := NewRunner(f.Options(), f.CreateFetcher(), f.logger, options...)

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				f.logger.Warn("Failed to close resource", zap.Error(err))
			}
		}
	}
	return runner, cleanup
}
