// Package app связывает загрузку, извлечение, сборку и запись лент в один прогон.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"radiofeed/internal/config"
	"radiofeed/internal/extract"
	"radiofeed/internal/feed"
	"radiofeed/internal/station"
	"radiofeed/internal/track"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Метаданные общей ленты
const (
	CombinedTitle       = "Agregowana Playlista Radiowa"
	CombinedLink        = "https://github.com/lily-monroe/RSS"
	CombinedDescription = "Playlista z wielu stacji radiowych"
)

// Fetcher загружает страницу плейлиста
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CoverResolver заполняет отсутствующие обложки
type CoverResolver interface {
	Enrich(ctx context.Context, records []track.Record) []track.Record
}

// Archive сохраняет записи и возвращает новые
type Archive interface {
	SaveNew(ctx context.Context, records []track.Record) ([]track.Record, error)
}

// Notifier сообщает о новых записях
type Notifier interface {
	Notify(ctx context.Context, records []track.Record) error
}

// Options - параметры вывода прогона
type Options struct {
	OutputDir     string
	Mode          config.OutputMode
	CombinedFile  string
	FeedLocation  *time.Location
	FetchLocation *time.Location
}

// Result - статистика прогона
type Result struct {
	StationsOK      int
	StationsFailed  int
	StationsSkipped int
	Accepted        int
	Rejected        int
	Records         int
	NewRecords      int
	Files           []string
}

// Runner выполняет один прогон по таблице станций
type Runner struct {
	opts      Options
	fetcher   Fetcher
	extractor *extract.Extractor
	covers    CoverResolver
	archive   Archive
	notifier  Notifier
	now       func() time.Time
	logger    *zap.Logger
}

// RunnerOption подключает необязательные компоненты
type RunnerOption func(*Runner)

// WithCoverResolver подключает поиск обложек
func WithCoverResolver(c CoverResolver) RunnerOption {
	return func(r *Runner) { r.covers = c }
}

// WithArchive подключает архив воспроизведений
func WithArchive(a Archive) RunnerOption {
	return func(r *Runner) { r.archive = a }
}

// WithNotifier подключает уведомления о новых треках
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner создает Runner
func NewRunner(opts Options, fetcher Fetcher, logger *zap.Logger, options ...RunnerOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = config.OutputCombined
	}
	if opts.CombinedFile == "" {
		opts.CombinedFile = "ALL_RADIO.xml"
	}
	if opts.FeedLocation == nil {
		opts.FeedLocation = time.UTC
	}
	if opts.FetchLocation == nil {
		opts.FetchLocation = time.Local
	}

	r := &Runner{
		opts:      opts,
		fetcher:   fetcher,
		extractor: extract.New(logger),
		now:       time.Now,
		logger:    logger,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// stationBatch - записи одной станции
type stationBatch struct {
	station station.Station
	records []track.Record
}

// Run загружает станции по очереди и записывает ленты.
// Ошибка одной станции не прерывает прогон. Без записей файлы не создаются.
func (r *Runner) Run(ctx context.Context, stations []station.Station) (Result, error) {
	var (
		result  Result
		batches []stationBatch
	)

	for _, st := range stations {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		st = st.Resolved()
		if st.Family == track.FamilyUnknown {
			r.logger.Warn("Skipping station with unsupported site",
				zap.String("station", st.Name),
				zap.String("url", st.URL))
			result.StationsSkipped++
			continue
		}

		records, rejected, err := r.scrapeStation(ctx, st)
		if err != nil {
			r.logger.Warn("Failed to scrape station",
				zap.String("station", st.Name),
				zap.String("url", st.URL),
				zap.Error(err))
			result.StationsFailed++
			continue
		}

		result.StationsOK++
		result.Accepted += len(records)
		result.Rejected += rejected
		batches = append(batches, stationBatch{station: st, records: records})
	}

	if r.covers != nil {
		for i := range batches {
			batches[i].records = r.covers.Enrich(ctx, batches[i].records)
		}
	}

	perStation := make([][]track.Record, len(batches))
	for i, b := range batches {
		perStation[i] = b.records
	}
	all := track.Aggregate(perStation...)
	result.Records = len(all)

	if len(all) == 0 {
		r.logger.Warn("No records scraped, feeds not written", zap.Int("stations", len(stations)))
		return result, nil
	}

	result.NewRecords = r.archiveAndNotify(ctx, all)

	files, err := r.writeFeeds(all, batches)
	result.Files = files
	if err != nil {
		return result, err
	}

	r.logger.Info("Run completed",
		zap.Int("stations_ok", result.StationsOK),
		zap.Int("stations_failed", result.StationsFailed),
		zap.Int("stations_skipped", result.StationsSkipped),
		zap.Int("records", result.Records),
		zap.Int("rejected", result.Rejected),
		zap.Int("new", result.NewRecords),
		zap.Strings("files", result.Files))
	return result, nil
}

func (r *Runner) scrapeStation(ctx context.Context, st station.Station) ([]track.Record, int, error) {
	body, err := r.fetcher.Fetch(ctx, st.URL)
	if err != nil {
		return nil, 0, err
	}
	fetched := r.now().In(r.opts.FetchLocation)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fields := r.extractor.ExtractPage(doc, st.Family)
	records, rejected := track.NewAssembler(fetched, r.logger).AssembleAll(st.Source(), fields)

	r.logger.Info("Scraped station",
		zap.String("station", st.Name),
		zap.String("family", st.Family.String()),
		zap.Int("fragments", len(fields)),
		zap.Int("records", len(records)),
		zap.Int("rejected", rejected))
	return records, rejected, nil
}

// archiveAndNotify возвращает число новых записей; сбои не мешают записи лент
func (r *Runner) archiveAndNotify(ctx context.Context, all []track.Record) int {
	if r.archive == nil {
		return 0
	}

	fresh, err := r.archive.SaveNew(ctx, all)
	if err != nil {
		r.logger.Error("Failed to archive plays", zap.Error(err))
		return 0
	}

	if r.notifier != nil && len(fresh) > 0 {
		if err := r.notifier.Notify(ctx, fresh); err != nil {
			r.logger.Error("Failed to notify about new tracks", zap.Error(err))
		}
	}
	return len(fresh)
}

func (r *Runner) writeFeeds(all []track.Record, batches []stationBatch) ([]string, error) {
	var (
		files []string
		errs  []error
	)

	write := func(name string, doc feed.Document) {
		path := filepath.Join(r.opts.OutputDir, name)
		if err := feed.Write(path, doc); err != nil {
			errs = append(errs, err)
			return
		}
		r.logger.Info("Feed written", zap.String("path", path), zap.Int("items", len(doc.Channel.Items)))
		files = append(files, path)
	}

	if r.opts.Mode.Combined() {
		renderer := r.renderer(true)
		write(r.opts.CombinedFile, renderer.Render(all, feed.Channel{
			Title:       CombinedTitle,
			Link:        CombinedLink,
			Description: CombinedDescription,
		}))
	}

	if r.opts.Mode.PerStation() {
		renderer := r.renderer(false)
		for _, b := range batches {
			records := track.Aggregate(b.records)
			if len(records) == 0 {
				r.logger.Warn("No records for station, feed not written", zap.String("station", b.station.Name))
				continue
			}
			write(b.station.FileName(), renderer.Render(records, StationChannel(b.station)))
		}
	}

	return files, errors.Join(errs...)
}

func (r *Runner) renderer(showStation bool) *feed.Renderer {
	return feed.NewRenderer(
		feed.WithStationPrefix(showStation),
		feed.WithLocation(r.opts.FeedLocation),
		feed.WithClock(r.now),
	)
}

// StationChannel возвращает метаданные ленты одной станции
func StationChannel(st station.Station) feed.Channel {
	return feed.Channel{
		Title:       st.Name,
		Link:        st.URL,
		Description: "Aktualna playlista " + st.Name,
	}
}
