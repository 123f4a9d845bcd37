package service

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// GuardConfig bounds the retry loop of ConflictGuard.
type GuardConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultGuardConfig is used when no explicit configuration is given.
var DefaultGuardConfig = GuardConfig{
	MaxAttempts: 5,
	BaseDelay:   25 * time.Millisecond,
	MaxDelay:    400 * time.Millisecond,
}

// ConflictGuard makes check-then-write sequences on a (table, date) scope
// atomic. Each attempt runs inside Transactor.RunInScope; attempts that lose
// a transaction race are retried with capped exponential backoff until the
// attempt budget runs out.
type ConflictGuard struct {
	tx     Transactor
	cfg    GuardConfig
	logger *zap.Logger
}

func NewConflictGuard(tx Transactor, cfg GuardConfig, logger *zap.Logger) *ConflictGuard {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultGuardConfig.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return &ConflictGuard{tx: tx, cfg: cfg, logger: logger}
}

// ScopeKey identifies the serialisation scope of a table on a calendar date.
func ScopeKey(tableID uuid.UUID, date time.Time) string {
	return tableID.String() + "/" + schedule.FormatDate(date)
}

// Do runs fn atomically within scope.
func (g *ConflictGuard) Do(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(g.cfg.BaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithCappedDuration(g.cfg.MaxDelay, backoff)
	backoff = retry.WithMaxRetries(uint64(g.cfg.MaxAttempts-1), backoff)

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := g.tx.RunInScope(ctx, scope, fn)
		if errors.Is(err, base.ErrTxConflict) {
			g.logger.Debug("Transaction conflict, retrying",
				zap.String("scope", scope),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, base.ErrTxConflict):
		g.logger.Warn("Retry budget exhausted",
			zap.String("scope", scope),
			zap.Int("attempts", attempts),
		)
		return wrap(ErrConcurrencyConflict, "scope %s: gave up after %d attempts", scope, attempts)
	case errors.Is(err, base.ErrOverlap):
		return wrap(ErrSlotUnavailable, "table already booked for an overlapping interval")
	}
	return err
}
