package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// DefaultMaxRetries bounds retries when no limit is configured.
const DefaultMaxRetries = 5

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a retrier that re-runs an operation up to maxRetries
// times after a version conflict, deadlock or serialization failure.
func NewRetrier(maxRetries uint64, logger zerolog.Logger) *Retrier {
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Retrier{
		maxRetries:      maxRetries,
		initialInterval: 20 * time.Millisecond,
		maxInterval:     500 * time.Millisecond,
		maxElapsedTime:  5 * time.Second,
		logger:          logger.With().Str("component", "retrier").Logger(),
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx)

	retry := 0
	return backoff.RetryNotify(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		retry++
		r.logger.Warn().
			Err(err).
			Int("retry", retry).
			Dur("backoff", wait).
			Msg("retryable conflict, retrying")
	})
}

// isRetryableError reports whether err is a lost version race or a
// transient PostgreSQL conflict.
func isRetryableError(err error) bool {
	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
