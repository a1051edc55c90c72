// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"radiofeed/pkg/logger"

	"github.com/joho/godotenv"
)

// OutputMode определяет, какие файлы лент записываются
type OutputMode string

const (
	// OutputCombined - одна общая лента всех станций
	OutputCombined OutputMode = "combined"
	// OutputPerStation - отдельная лента на каждую станцию
	OutputPerStation OutputMode = "per-station"
	// OutputBoth - общая лента и ленты станций
	OutputBoth OutputMode = "both"
)

// Combined сообщает, нужна ли общая лента
func (m OutputMode) Combined() bool { return m == OutputCombined || m == OutputBoth }

// PerStation сообщает, нужны ли ленты станций
func (m OutputMode) PerStation() bool { return m == OutputPerStation || m == OutputBoth }

// Config представляет конфигурацию приложения
type Config struct {
	// Output
	OutputDir    string
	OutputMode   OutputMode
	CombinedFile string

	// Timezones
	FeedTimezone  string
	FetchTimezone string

	// Fetch
	UserAgent      string
	RequestDelay   time.Duration
	RequestTimeout time.Duration

	// HTTP Client
	HTTPClientConfig HTTPClientConfig

	// Retry
	RetryConfig RetryConfig

	// Logging
	Log logger.Config

	// Database
	DatabaseURL string

	// Spotify
	SpotifyClientID     string
	SpotifyClientSecret string

	// Telegram
	TelegramBotToken string
	TelegramChatID   int64
}

// HTTPClientConfig представляет конфигурацию HTTP клиента
type HTTPClientConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	DisableKeepAlives     bool
}

// RetryConfig представляет конфигурацию retry механизма
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Load загружает конфигурацию из .env и переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	defaults := logger.DefaultConfig()
	config := &Config{
		OutputDir:      getEnv("OUTPUT_DIR", "."),
		OutputMode:     OutputMode(getEnv("OUTPUT_MODE", string(OutputCombined))),
		CombinedFile:   getEnv("COMBINED_FILE", "ALL_RADIO.xml"),
		FeedTimezone:   getEnv("FEED_TIMEZONE", "UTC"),
		FetchTimezone:  getEnv("FETCH_TIMEZONE", "Local"),
		UserAgent:      getEnv("USER_AGENT", ""),
		RequestDelay:   getEnvDuration("REQUEST_DELAY", time.Second),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		HTTPClientConfig: HTTPClientConfig{
			MaxIdleConns:          getEnvInt("HTTP_MAX_IDLE_CONNS", 100),
			MaxIdleConnsPerHost:   getEnvInt("HTTP_MAX_IDLE_CONNS_PER_HOST", 10),
			IdleConnTimeout:       getEnvDuration("HTTP_IDLE_CONN_TIMEOUT", 90*time.Second),
			TLSHandshakeTimeout:   getEnvDuration("HTTP_TLS_HANDSHAKE_TIMEOUT", 10*time.Second),
			ResponseHeaderTimeout: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
			DisableKeepAlives:     getEnvBool("HTTP_DISABLE_KEEP_ALIVES", false),
		},
		RetryConfig: RetryConfig{
			MaxRetries:        getEnvInt("RETRY_MAX_RETRIES", 0),
			InitialDelay:      getEnvDuration("RETRY_INITIAL_DELAY", 1*time.Second),
			MaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
			BackoffMultiplier: getEnvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0),
		},
		Log: logger.Config{
			Level:      getEnv("LOG_LEVEL", defaults.Level),
			Format:     getEnv("LOG_FORMAT", defaults.Format),
			Output:     getEnv("LOG_OUTPUT", defaults.Output),
			FilePath:   getEnv("LOG_FILE_PATH", defaults.FilePath),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", defaults.MaxSize),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", defaults.MaxBackups),
			MaxAge:     getEnvInt("LOG_MAX_AGE", defaults.MaxAge),
		},
		DatabaseURL:         getEnv("DB_DSN", ""),
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:      getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	switch c.OutputMode {
	case OutputCombined, OutputPerStation, OutputBoth:
	default:
		return fmt.Errorf("OUTPUT_MODE must be one of combined, per-station, both: got %q", c.OutputMode)
	}

	if c.OutputMode.Combined() && c.CombinedFile == "" {
		return errors.New("COMBINED_FILE is required for combined output")
	}

	if _, err := time.LoadLocation(c.FeedTimezone); err != nil {
		return fmt.Errorf("invalid FEED_TIMEZONE: %w", err)
	}
	if _, err := time.LoadLocation(c.FetchTimezone); err != nil {
		return fmt.Errorf("invalid FETCH_TIMEZONE: %w", err)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.RequestDelay < 0 {
		return errors.New("REQUEST_DELAY must not be negative")
	}

	if c.RetryConfig.MaxRetries < 0 {
		return errors.New("RETRY_MAX_RETRIES must not be negative")
	}
	if c.RetryConfig.MaxRetries > 0 && c.RetryConfig.BackoffMultiplier < 1 {
		return errors.New("RETRY_BACKOFF_MULTIPLIER must be at least 1")
	}

	if (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		return errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}

	if c.TelegramBotToken != "" {
		if c.TelegramChatID == 0 {
			return errors.New("TELEGRAM_CHAT_ID is required with TELEGRAM_BOT_TOKEN")
		}
		if c.DatabaseURL == "" {
			return errors.New("DB_DSN is required with TELEGRAM_BOT_TOKEN")
		}
	}

	return nil
}

// FeedLocation возвращает зону для дат в лентах
func (c *Config) FeedLocation() *time.Location {
	return mustLocation(c.FeedTimezone)
}

// FetchLocation возвращает зону, в которой определяется дата загрузки
func (c *Config) FetchLocation() *time.Location {
	return mustLocation(c.FetchTimezone)
}

// ArchiveEnabled сообщает, включен ли архив прослушиваний
func (c *Config) ArchiveEnabled() bool { return c.DatabaseURL != "" }

// SpotifyEnabled сообщает, включен ли поиск обложек
func (c *Config) SpotifyEnabled() bool { return c.SpotifyClientID != "" }

// TelegramEnabled сообщает, включены ли уведомления
func (c *Config) TelegramEnabled() bool { return c.TelegramBotToken != "" }

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 получает переменную окружения как int64 (id чатов Telegram)
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
