package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const selectColumns = `id, application_id, application_email, application_phone, program_applied,
	startup_name, description, status, submission_date, updated_date_time`

// PostgresStore implements Store on the applications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, app *models.Application) (*models.Application, error) {
	rec := app.Clone()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, application_id, application_email, application_phone, program_applied,
			startup_name, description, status, submission_date, updated_date_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID,
		rec.ApplicationID,
		rec.ApplicationEmail,
		rec.ApplicationPhone,
		rec.ProgramApplied,
		rec.StartupName,
		rec.Description,
		string(rec.Status),
		rec.SubmissionDate,
		rec.UpdatedDateTime,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, apperrors.NewDuplicateIDError(rec.ApplicationID, err)
		}
		return nil, apperrors.NewStoreUnavailableError("insert", err)
	}

	return rec, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	// Non-UUID input can never match and would make Postgres reject the cast.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM applications WHERE id = $1`, id)
	return scanOne(row, "findById")
}

func (s *PostgresStore) FindByField(ctx context.Context, field, value string) (*models.Application, error) {
	column, ok := lookupColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM applications WHERE `+column+` = $1 LIMIT 1`, value)
	return scanOne(row, "findByField")
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE applications SET status = $2, updated_date_time = $3
		WHERE id = $1
		RETURNING `+selectColumns,
		id, string(status), updatedAt)
	return scanOne(row, "updateStatus")
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM applications ORDER BY submission_date DESC, application_id`)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list", err)
	}
	defer rows.Close()

	apps := []*models.Application{}
	for rows.Next() {
		app, err := scan(rows)
		if err != nil {
			return nil, apperrors.NewStoreUnavailableError("list", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("list", err)
	}
	return apps, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(row scanner) (*models.Application, error) {
	var app models.Application
	var status string
	err := row.Scan(
		&app.ID,
		&app.ApplicationID,
		&app.ApplicationEmail,
		&app.ApplicationPhone,
		&app.ProgramApplied,
		&app.StartupName,
		&app.Description,
		&status,
		&app.SubmissionDate,
		&app.UpdatedDateTime,
	)
	if err != nil {
		return nil, err
	}
	app.Status = models.Status(status)
	app.SubmissionDate = app.SubmissionDate.UTC()
	app.UpdatedDateTime = app.UpdatedDateTime.UTC()
	return &app, nil
}

func scanOne(row *sql.Row, operation string) (*models.Application, error) {
	app, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(operation, err)
	}
	return app, nil
}
