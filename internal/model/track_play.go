// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: TrackPlay, PlayRepository
package model

import (
	"context"
	"time"

	"radiofeed/internal/track"

	"github.com/uptrace/bun"
)

// TrackPlay представляет одно прозвучавшее в эфире воспроизведение
type TrackPlay struct {
	bun.BaseModel `bun:"table:track_plays"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Station       string    `bun:"station,notnull" json:"station"`
	StationLink   string    `bun:"station_link,notnull" json:"station_link"`
	Artist        string    `bun:"artist,notnull" json:"artist"`
	Title         string    `bun:"title,notnull" json:"title"`
	BroadcastTime string    `bun:"broadcast_time,notnull" json:"broadcast_time"`
	PlayedAt      time.Time `bun:"played_at,nullzero" json:"played_at"`
	VideoID       string    `bun:"video_id" json:"video_id,omitempty"`
	CoverURL      string    `bun:"cover_url" json:"cover_url,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// UniqueColumns - естественный ключ воспроизведения
var UniqueColumns = []string{"station", "broadcast_time", "artist", "title"}

// NewTrackPlay строит модель из записи; время эфира разбирается в loc
func NewTrackPlay(r track.Record, loc *time.Location) *TrackPlay {
	play := &TrackPlay{
		Station:       r.Station,
		StationLink:   r.StationLink,
		Artist:        r.Artist,
		Title:         r.Title,
		BroadcastTime: r.BroadcastTime,
		VideoID:       r.VideoID,
		CoverURL:      r.CoverURL,
	}
	if at, ok := r.Time(loc); ok {
		play.PlayedAt = at
	}
	return play
}

// PlayRepository определяет интерфейс для работы с архивом воспроизведений
type PlayRepository interface {
	SaveNew(ctx context.Context, records []track.Record) ([]track.Record, error)
}
