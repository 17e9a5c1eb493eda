package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
)

// Postgres SQLSTATEs worth running the admission again for.
var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// classify marks transient store failures with domain.ErrRetryable and
// leaves every other error untouched.
func classify(err error) error {
	if err == nil || errors.Is(err, domain.ErrRetryable) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableCodes[pgErr.Code] {
		return fmt.Errorf("%w: %w", domain.ErrRetryable, err)
	}
	return err
}

func lockTimeoutSetting(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
