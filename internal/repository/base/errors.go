package base

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrTxConflict marks a transaction that lost a race and may be retried.
	ErrTxConflict = errors.New("transaction conflict")
	// ErrOverlap is raised by the reservations exclusion constraint.
	ErrOverlap = errors.New("overlapping reservation")
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeExclusionViolation   = "23P01"
)

// Classify maps Postgres errors onto the sentinels above, keeping the
// original error in the chain. Other errors are returned unchanged.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%w: %w", ErrTxConflict, err)
	case codeExclusionViolation:
		return fmt.Errorf("%w: %w", ErrOverlap, err)
	}
	return err
}
