// Package scraper загружает страницы плейлистов через colly.
package scraper

import (
	"fmt"
	"time"
)

// DefaultUserAgent - десктопный UA, с которым сайты плейлистов отдают полную разметку
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Config представляет конфигурацию загрузчика
type Config struct {
	UserAgent      string
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	HTTPClient     HTTPClientConfig
	Retry          RetryConfig
}

// HTTPClientConfig представляет конфигурацию HTTP транспорта
type HTTPClientConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	DisableKeepAlives     bool
}

// RetryConfig представляет конфигурацию повторов. MaxRetries == 0 отключает повторы.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// StatusError - ответ сервера с кодом вне 2xx
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// Temporary сообщает, имеет ли смысл повторять запрос
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
