// Package storage содержит работу с базой данных.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"radiofeed/internal/model"
	"radiofeed/internal/storage/repository"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

const (
	connectAttempts = 3
	retryDelay      = 2 * time.Second
	pingTimeout     = 10 * time.Second
)

// Postgres представляет подключение к PostgreSQL
type Postgres struct {
	db     *bun.DB
	logger *zap.Logger
}

// Open создает bun.DB поверх pgdriver без проверки соединения
func Open(databaseURL string, logger *zap.Logger) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))

	// Запуск разовый, большой пул не нужен
	sqldb.SetMaxOpenConns(5)
	sqldb.SetMaxIdleConns(2)
	sqldb.SetConnMaxLifetime(5 * time.Minute)
	sqldb.SetConnMaxIdleTime(1 * time.Minute)

	db := bun.NewDB(sqldb, pgdialect.New())

	if logger.Core().Enabled(zap.DebugLevel) {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	return db
}

// NewPostgres подключается к PostgreSQL, повторяя попытки при недоступности базы
func NewPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db := Open(databaseURL, logger)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			logger.Info("Connected to PostgreSQL database with Bun ORM", zap.Int("attempt", attempt))
			return &Postgres{db: db, logger: logger}, nil
		}

		logger.Warn("Failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}

		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

// Migrate создает таблицу воспроизведений и уникальный индекс
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := createTableQuery(p.db).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create track_plays: %w", err)
	}
	if _, err := createIndexQuery(p.db).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create track_plays index: %w", err)
	}
	return nil
}

func createTableQuery(db *bun.DB) *bun.CreateTableQuery {
	return db.NewCreateTable().
		Model((*model.TrackPlay)(nil)).
		IfNotExists()
}

func createIndexQuery(db *bun.DB) *bun.CreateIndexQuery {
	return db.NewCreateIndex().
		Model((*model.TrackPlay)(nil)).
		Index("track_plays_natural_key").
		Unique().
		IfNotExists().
		Column(model.UniqueColumns...)
}

// Close закрывает соединение с базой данных
func (p *Postgres) Close() error {
	return p.db.Close()
}

// GetPlayRepository возвращает репозиторий воспроизведений
func (p *Postgres) GetPlayRepository(loc *time.Location) model.PlayRepository {
	return repository.NewPlayRepository(p.db, loc, p.logger)
}
