// Package store persists application records. The record store is the system of
// record; every other view (search index, workflow engine) is derived from it.
package store

import (
	"context"
	"errors"
	"time"

	"incubator-portal/internal/models"
)

// ErrNotFound is returned when no record matches a lookup or update.
var ErrNotFound = errors.New("application record not found")

// ErrUnknownField is returned by FindByField for fields that are not indexed.
var ErrUnknownField = errors.New("unknown lookup field")

// Store is the persistence contract for application records.
//
// Insert fails with a DUPLICATE_ID StandardError when applicationId is already
// taken. Infrastructure failures, including context deadline expiry, surface as
// STORE_UNAVAILABLE.
type Store interface {
	Insert(ctx context.Context, app *models.Application) (*models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByField(ctx context.Context, field, value string) (*models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Application, error)
	// List returns every record, newest submission first.
	List(ctx context.Context) ([]*models.Application, error)
}

// lookupColumns maps the fields FindByField accepts to their columns.
var lookupColumns = map[string]string{
	"applicationId":    "application_id",
	"applicationEmail": "application_email",
	"startupName":      "startup_name",
}
