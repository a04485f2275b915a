package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local runs without Postgres.
// It enforces the same applicationId uniqueness as the unique index.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.Application
	appIDs map[string]string // applicationId -> id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*models.Application),
		appIDs: make(map[string]string),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, app *models.Application) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.appIDs[app.ApplicationID]; taken {
		return nil, apperrors.NewDuplicateIDError(app.ApplicationID,
			fmt.Errorf("applicationId %s already exists", app.ApplicationID))
	}

	rec := app.Clone()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, taken := s.byID[rec.ID]; taken {
		return nil, apperrors.NewDuplicateIDError(rec.ApplicationID,
			fmt.Errorf("id %s already exists", rec.ID))
	}

	s.byID[rec.ID] = rec
	s.appIDs[rec.ApplicationID] = rec.ID
	return rec.Clone(), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("findById", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) FindByField(ctx context.Context, field, value string) (*models.Application, error) {
	if _, ok := lookupColumns[field]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("findByField", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if field == "applicationId" {
		id, ok := s.appIDs[value]
		if !ok {
			return nil, ErrNotFound
		}
		return s.byID[id].Clone(), nil
	}

	for _, rec := range s.sortedLocked() {
		if fieldValue(rec, field) == value {
			return rec.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("updateStatus", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Status = status
	rec.UpdatedDateTime = updatedAt
	return rec.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("list", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedLocked()
	out := make([]*models.Application, len(sorted))
	for i, rec := range sorted {
		out[i] = rec.Clone()
	}
	return out, nil
}

// sortedLocked orders records like the Postgres List query. Caller holds mu.
func (s *MemoryStore) sortedLocked() []*models.Application {
	recs := make([]*models.Application, 0, len(s.byID))
	for _, rec := range s.byID {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].SubmissionDate.Equal(recs[j].SubmissionDate) {
			return recs[i].SubmissionDate.After(recs[j].SubmissionDate)
		}
		return recs[i].ApplicationID < recs[j].ApplicationID
	})
	return recs
}

func fieldValue(app *models.Application, field string) string {
	switch field {
	case "applicationId":
		return app.ApplicationID
	case "applicationEmail":
		return app.ApplicationEmail
	case "startupName":
		return app.StartupName
	}
	return ""
}
