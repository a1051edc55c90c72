// Package track содержит каноническую запись о треке, сборку и сортировку записей.
package track

import (
	"strings"
	"time"
)

// Unparsed - маркер времени эфира для макетов, которые не сообщают дату
const Unparsed = "unparsed"

// TimeLayout - канонический формат времени эфира DD.MM.YYYY HH:MM
const TimeLayout = "02.01.2006 15:04"

// Family определяет семейство сайтов с плейлистами
type Family int

const (
	// FamilyUnknown - сайт без парсера
	FamilyUnknown Family = iota
	// FamilyA - myradioonline.pl
	FamilyA
	// FamilyB - ukradiolive.com
	FamilyB
)

// String возвращает имя семейства для логов
func (f Family) String() string {
	switch f {
	case FamilyA:
		return "layout_A"
	case FamilyB:
		return "layout_B"
	default:
		return "unknown"
	}
}

// Layout определяет конкретный вариант разметки внутри семейства
type Layout int

const (
	// LayoutAPlain - контейнеры songCont с текстом "HH:MM ARTIST - TITLE"
	LayoutAPlain Layout = iota + 1
	// LayoutAMicrodata - контейнеры yt-row с itemprop-полями
	LayoutAMicrodata
	// LayoutB - элементы списка "H:MM AM - ARTIST - TITLE"
	LayoutB
)

// String возвращает имя макета для логов
func (l Layout) String() string {
	switch l {
	case LayoutAPlain:
		return "layout_A/plain"
	case LayoutAMicrodata:
		return "layout_A/microdata"
	case LayoutB:
		return "layout_B"
	default:
		return "unknown"
	}
}

// Fields - сырые поля, извлеченные из одного фрагмента страницы
type Fields struct {
	Layout       Layout
	Artist       string
	Title        string
	RawTime      string
	VideoID      string
	CoverBase    string
	DisplayLabel string
}

// Source описывает станцию, к которой относится запись
type Source struct {
	Name string
	Link string
}

// Record - каноническая запись о прозвучавшем треке.
// После сборки не изменяется; обогащение возвращает копию.
type Record struct {
	Station       string
	StationLink   string
	Artist        string
	Title         string
	BroadcastTime string
	VideoID       string
	CoverURL      string
	DisplayLabel  string
}

// Label возвращает отображаемое название: подпись обложки либо "ARTIST - TITLE"
func (r Record) Label() string {
	if r.DisplayLabel != "" {
		return r.DisplayLabel
	}
	return r.ArtistTitle()
}

// ArtistTitle возвращает "ARTIST - TITLE" или только название, если артиста нет
func (r Record) ArtistTitle() string {
	if r.Artist == "" {
		return r.Title
	}
	return r.Artist + " - " + r.Title
}

// HasTime сообщает, известно ли время эфира
func (r Record) HasTime() bool {
	return r.BroadcastTime != "" && r.BroadcastTime != Unparsed
}

// Time разбирает каноническое время эфира в указанной зоне
func (r Record) Time(loc *time.Location) (time.Time, bool) {
	if !r.HasTime() {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(TimeLayout, r.BroadcastTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WithCover возвращает копию записи с новой обложкой
func (r Record) WithCover(coverURL string) Record {
	r.CoverURL = strings.TrimSpace(coverURL)
	return r
}

// key используется для схлопывания точных дублей внутри станции
func (r Record) key() string {
	return strings.Join([]string{r.Station, r.BroadcastTime, r.Artist, r.Title}, "\x1f")
}
