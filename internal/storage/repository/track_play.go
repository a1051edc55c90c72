// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"radiofeed/internal/model"
	"radiofeed/internal/track"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PlayRepository реализует архив воспроизведений
type PlayRepository struct {
	db       bun.IDB
	location *time.Location
	logger   *zap.Logger
}

// NewPlayRepository создает новый репозиторий воспроизведений.
// loc - зона, в которой разбирается время эфира.
func NewPlayRepository(db bun.IDB, loc *time.Location, logger *zap.Logger) *PlayRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PlayRepository{
		db:       db,
		location: loc,
		logger:   logger,
	}
}

// SaveNew сохраняет записи и возвращает те, которых еще не было в архиве.
// Записи без времени эфира не архивируются: без времени их нельзя отличить от повторов.
func (r *PlayRepository) SaveNew(ctx context.Context, records []track.Record) ([]track.Record, error) {
	var fresh []track.Record

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, rec := range records {
			if !rec.HasTime() {
				continue
			}

			res, err := insertQuery(tx, model.NewTrackPlay(rec, r.location)).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to insert play %s/%s: %w", rec.Station, rec.ArtistTitle(), err)
			}

			if n, err := res.RowsAffected(); err == nil && n > 0 {
				fresh = append(fresh, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Archived plays",
		zap.Int("records", len(records)),
		zap.Int("new", len(fresh)))
	return fresh, nil
}

func insertQuery(db bun.IDB, play *model.TrackPlay) *bun.InsertQuery {
	return db.NewInsert().
		Model(play).
		On("CONFLICT (" + strings.Join(model.UniqueColumns, ", ") + ") DO NOTHING")
}
