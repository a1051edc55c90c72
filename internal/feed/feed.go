// Package feed собирает RSS 2.0 из записей о треках и записывает его в файл.
package feed

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"radiofeed/internal/media"
	"radiofeed/internal/track"

	"github.com/microcosm-cc/bluemonday"
)

const rssVersion = "2.0"

// Channel - метаданные канала
type Channel struct {
	Title       string
	Link        string
	Description string
}

// Document - RSS-документ, готовый к сериализации
type Document struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel channelXML `xml:"channel"`
}

type channelXML struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []itemXML `xml:"item"`
}

type itemXML struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link,omitempty"`
	Description string  `xml:"description"`
	GUID        guidXML `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
}

type guidXML struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Option настраивает Renderer
type Option func(*Renderer)

// WithStationPrefix включает префикс "[Station] " в заголовках элементов
func WithStationPrefix(show bool) Option {
	return func(r *Renderer) { r.showStation = show }
}

// WithLocation задает зону, в которой разбирается время эфира
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// Renderer превращает записи в RSS-документ
type Renderer struct {
	showStation bool
	location    *time.Location
	now         func() time.Time
	policy      *bluemonday.Policy
}

// NewRenderer создает Renderer. По умолчанию зона UTC, без префикса станции.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		location: time.UTC,
		now:      time.Now,
		policy:   descriptionPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// descriptionPolicy пропускает только разметку, которую строит renderItem
func descriptionPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "br")
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return p
}

// Render строит документ, сохраняя порядок записей
func (r *Renderer) Render(records []track.Record, ch Channel) Document {
	generated := r.now()

	items := make([]itemXML, 0, len(records))
	for _, rec := range records {
		items = append(items, r.renderItem(rec, generated))
	}

	return Document{
		Version: rssVersion,
		Channel: channelXML{
			Title:         ch.Title,
			Link:          ch.Link,
			Description:   ch.Description,
			LastBuildDate: generated.Format(time.RFC1123Z),
			Items:         items,
		},
	}
}

func (r *Renderer) renderItem(rec track.Record, generated time.Time) itemXML {
	return itemXML{
		Title:       r.ItemTitle(rec),
		Link:        rec.StationLink,
		Description: r.ItemDescription(rec),
		GUID:        guidXML{Value: guid(rec)},
		PubDate:     r.pubDate(rec, generated),
	}
}

// ItemTitle возвращает "[Station] LABEL | TIME"; части без данных опускаются
func (r *Renderer) ItemTitle(rec track.Record) string {
	var b strings.Builder
	if r.showStation && rec.Station != "" {
		b.WriteString("[" + rec.Station + "] ")
	}
	b.WriteString(rec.Label())
	if rec.HasTime() {
		b.WriteString(" | " + rec.BroadcastTime)
	}
	return b.String()
}

// ItemDescription возвращает HTML-описание элемента
func (r *Renderer) ItemDescription(rec track.Record) string {
	var b strings.Builder

	if rec.CoverURL != "" {
		fmt.Fprintf(&b, `<img src="%s"><br><br>`, html.EscapeString(rec.CoverURL))
	}
	fmt.Fprintf(&b, "<b>%s</b><br>", html.EscapeString(rec.ArtistTitle()))
	if rec.HasTime() {
		b.WriteString(html.EscapeString(rec.BroadcastTime) + " | ")
	}
	fmt.Fprintf(&b, `<a href="%s">COVER</a>`, html.EscapeString(media.CoverSearchLink(rec.Artist, rec.Title)))
	if link := media.VideoLink(rec.VideoID); link != "" {
		fmt.Fprintf(&b, ` | <a href="%s">YOUTUBE</a>`, html.EscapeString(link))
	}

	return r.policy.Sanitize(b.String())
}

func (r *Renderer) pubDate(rec track.Record, generated time.Time) string {
	if at, ok := rec.Time(r.location); ok {
		return at.Format(time.RFC1123Z)
	}
	return generated.Format(time.RFC1123Z)
}

func guid(rec track.Record) string {
	return strings.Join([]string{rec.Station, rec.BroadcastTime, rec.Artist, rec.Title}, "|")
}

// Encode пишет документ в w вместе с XML-декларацией
func Encode(w io.Writer, doc Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write xml header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode rss: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("failed to flush rss: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Write атомарно записывает документ в path: сначала во временный файл, затем переименование
func Write(path string, doc Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move feed to %s: %w", path, err)
	}
	return nil
}
