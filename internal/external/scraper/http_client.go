package scraper

import (
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// NewTransport создает HTTP транспорт с настройками пула соединений
func NewTransport(config HTTPClientConfig) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DisableKeepAlives:     config.DisableKeepAlives,
	}
}

// NewHTTPClient создает клиент поверх NewTransport. Используется вне colly, например для OAuth.
func NewHTTPClient(config HTTPClientConfig, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{
		Transport: NewTransport(config),
		Timeout:   timeout,
	}
}
