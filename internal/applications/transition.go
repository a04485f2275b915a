package applications

import (
	"context"
	"time"

	"incubator-portal/internal/applications/store"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/models"
)

type transitionKey struct {
	from, to models.Status
}

// TransitionTable decides which status changes are allowed. A nil allowed map
// permits every pair.
type TransitionTable struct {
	allowed map[transitionKey]bool
}

// PermissiveTransitions allows any status to move to any other, including itself.
func PermissiveTransitions() TransitionTable {
	return TransitionTable{}
}

// StrictTransitions allows Pending -> Under Review -> {Accepted, Rejected}. Staying
// in the same status is always allowed.
func StrictTransitions() TransitionTable {
	return TransitionTable{allowed: map[transitionKey]bool{
		{models.StatusPending, models.StatusUnderReview}:  true,
		{models.StatusUnderReview, models.StatusAccepted}: true,
		{models.StatusUnderReview, models.StatusRejected}: true,
	}}
}

func (t TransitionTable) Allowed(from, to models.Status) bool {
	if t.allowed == nil || from == to {
		return true
	}
	return t.allowed[transitionKey{from, to}]
}

// Authority performs status transitions. It reads the record once and writes it
// once on success; every rejection happens before the write.
type Authority struct {
	store  store.Store
	table  TransitionTable
	now    func() time.Time
	logger logger.Logger
}

func NewAuthority(s store.Store, table TransitionTable, log logger.Logger) *Authority {
	return &Authority{
		store:  s,
		table:  table,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "transition-authority"}),
	}
}

// Transition sets the status of the record identified by id. Unknown ids fail
// NOT_FOUND whatever the role; then the role must be admin, then requested must
// be a known status allowed by the table. It returns the updated record and the
// status it had before.
func (a *Authority) Transition(ctx context.Context, id, requested string, role models.Role) (*models.Application, models.Status, error) {
	current, err := resolve(ctx, a.store, id)
	if err != nil {
		return nil, "", err
	}

	if role != models.RoleAdmin {
		return nil, "", apperrors.NewForbiddenError("setStatus", string(role))
	}

	status, err := models.ParseStatus(requested)
	if err != nil {
		return nil, "", apperrors.NewInvalidStatusError(requested)
	}

	if !a.table.Allowed(current.Status, status) {
		return nil, "", apperrors.NewInvalidTransitionError(string(current.Status), string(status))
	}

	updatedAt := nextTimestamp(a.now(), current.UpdatedDateTime)
	updated, err := a.store.UpdateStatus(ctx, current.ID, status, updatedAt)
	if err != nil {
		return nil, "", storeError("updateStatus", id, err)
	}

	a.logger.Info("application status changed", map[string]interface{}{
		"applicationId": updated.ApplicationID,
		"from":          string(current.Status),
		"to":            string(updated.Status),
	})

	return updated, current.Status, nil
}
