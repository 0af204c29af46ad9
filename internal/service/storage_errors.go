package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

const defaultStorageTimeout = 5 * time.Second

// withTimeout bounds a storage call. Callers must cancel.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStorageTimeout
	}
	return context.WithTimeout(ctx, d)
}

// storageErr maps lower-layer failures onto the service taxonomy: a
// missing row is NOT_FOUND, an expired deadline is UNAVAILABLE, and
// everything else is INTERNAL_ERROR with the given message.
func storageErr(err error, notFoundMsg, internalMsg string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Clone(appErrors.ErrUnavailable, "storage timeout: "+internalMsg)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMsg)
	}
}

// transient reports whether a storage failure is worth one retry.
func transient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
