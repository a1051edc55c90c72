package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetcher загружает страницы плейлистов
type Fetcher struct {
	config    Config
	logger    *zap.Logger
	collector *colly.Collector
}

// NewFetcher создает новый загрузчик. Общий collector хранит транспорт и ограничения частоты.
func NewFetcher(config Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}

	f := &Fetcher{config: config, logger: logger}
	f.collector = f.newCollector()
	return f
}

// newCollector создает collector с транспортом, таймаутом и задержкой между запросами
func (f *Fetcher) newCollector() *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
	)

	collector.WithTransport(NewTransport(f.config.HTTPClient))
	collector.SetRequestTimeout(f.config.RequestTimeout)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.config.RequestDelay,
	}); err != nil {
		f.logger.Warn("Failed to set request limit", zap.Error(err))
	}

	return collector
}

// Fetch загружает страницу и возвращает тело ответа.
// Ответ вне 2xx возвращается как *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := WithRetry(ctx, f.logger, f.config.Retry, func() error {
		var err error
		body, err = f.fetchOnce(ctx, url)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	c := f.collector.Clone()
	c.Context = ctx

	var (
		body      []byte
		received  bool
		statusErr *StatusError
	)

	c.OnRequest(func(r *colly.Request) {
		f.logger.Debug("Making request", zap.String("url", r.URL.String()))
	})

	c.OnResponse(func(r *colly.Response) {
		f.logger.Debug("Received response",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Int("size", len(r.Body)))
		body = r.Body
		received = true
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			statusErr = &StatusError{URL: url, StatusCode: r.StatusCode}
		}
	})

	if err := c.Visit(url); err != nil {
		if statusErr != nil {
			return nil, statusErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if statusErr != nil {
		return nil, statusErr
	}
	if !received {
		return nil, errors.New("empty response")
	}
	return body, nil
}
