package scraper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// WithRetry выполняет fn, повторяя временные ошибки с экспоненциальной задержкой.
// Ошибки 4xx (кроме 429) не повторяются.
func WithRetry(ctx context.Context, logger *zap.Logger, config RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Debug("Request succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		lastErr = err
		if attempt == config.MaxRetries || !retryable(err) {
			break
		}

		delay := backoff(config, attempt)
		logger.Debug("Request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", config.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("request failed after retries: %w", lastErr)
}

func backoff(config RetryConfig, attempt int) time.Duration {
	multiplier := config.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
