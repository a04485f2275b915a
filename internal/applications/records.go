// Package applications implements the application lifecycle: identifier issuance,
// role-gated status transitions and the operation surface exposed to transports.
package applications

import (
	"context"
	"errors"
	"time"

	"incubator-portal/internal/applications/store"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"
)

// resolve loads a record by applicationId or internal id depending on its shape.
func resolve(ctx context.Context, s store.Store, id string) (*models.Application, error) {
	var (
		app *models.Application
		err error
	)
	if models.IsApplicationID(id) {
		app, err = s.FindByField(ctx, "applicationId", id)
	} else {
		app, err = s.FindByID(ctx, id)
	}
	if err != nil {
		return nil, storeError("lookup", id, err)
	}
	return app, nil
}

// storeError maps store failures into the error taxonomy.
func storeError(operation, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFoundError(id)
	}
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return apperrors.NewStoreUnavailableError(operation, err)
}

// nextTimestamp returns a store-precision instant strictly after prev.
func nextTimestamp(now time.Time, prev time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	if !next.After(prev) {
		next = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return next
}

var (
	errSearchDisabled     = errors.New("search index is not configured")
	errRevocationDisabled = errors.New("token revocation is not configured")
)
