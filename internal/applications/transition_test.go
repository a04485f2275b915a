package applications

import (
	"context"
	"testing"
	"time"

	"incubator-portal/internal/applications/store"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthority(t *testing.T, table TransitionTable) (*Authority, *countingStore, *models.Application) {
	t.Helper()
	st := &countingStore{Store: store.NewMemoryStore()}
	app := seed(t, st.Store, "app-111111-aaaaaaaa", time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	return NewAuthority(st, table, logger.NewTestLogger(t)), st, app
}

func TestAuthority_AdminTransition(t *testing.T) {
	a, st, app := setupAuthority(t, PermissiveTransitions())

	updated, previous, err := a.Transition(context.Background(), app.ApplicationID, "Accepted", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, updated.Status)
	assert.Equal(t, models.StatusPending, previous)
	assert.True(t, updated.UpdatedDateTime.After(app.UpdatedDateTime))
	assert.Equal(t, app.SubmissionDate, updated.SubmissionDate)

	reads, writes := st.counts()
	assert.Equal(t, 1, reads)
	assert.Equal(t, 1, writes)
}

func TestAuthority_ResolvesInternalID(t *testing.T) {
	a, _, app := setupAuthority(t, PermissiveTransitions())

	updated, _, err := a.Transition(context.Background(), app.ID, "Rejected", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, app.ApplicationID, updated.ApplicationID)
	assert.Equal(t, models.StatusRejected, updated.Status)
}

func TestAuthority_NonAdminForbiddenAndUnchanged(t *testing.T) {
	for _, role := range []models.Role{models.RoleApplicant, models.RoleMentor, models.Role("")} {
		t.Run(string(role), func(t *testing.T) {
			a, st, app := setupAuthority(t, PermissiveTransitions())

			_, _, err := a.Transition(context.Background(), app.ApplicationID, "Accepted", role)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrForbidden)

			_, writes := st.counts()
			assert.Equal(t, 0, writes)

			stored, err := st.Store.FindByID(context.Background(), app.ID)
			require.NoError(t, err)
			assert.Equal(t, app, stored)
		})
	}
}

func TestAuthority_NotFoundRegardlessOfRole(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleMentor, models.RoleApplicant} {
		for _, id := range []string{"app-999999-ffffffff", "6a1e0c57-0000-4000-8000-000000000000"} {
			t.Run(string(role)+"/"+id, func(t *testing.T) {
				a, st, _ := setupAuthority(t, PermissiveTransitions())

				_, _, err := a.Transition(context.Background(), id, "Accepted", role)
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrNotFound)

				_, writes := st.counts()
				assert.Equal(t, 0, writes)
			})
		}
	}
}

func TestAuthority_InvalidStatus(t *testing.T) {
	for _, requested := range []string{"Approved", "under review", "UnderReview", "", "PENDING"} {
		t.Run(requested, func(t *testing.T) {
			a, st, _ := setupAuthority(t, PermissiveTransitions())

			_, _, err := a.Transition(context.Background(), "app-111111-aaaaaaaa", requested, models.RoleAdmin)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

			_, writes := st.counts()
			assert.Equal(t, 0, writes)
		})
	}
}

func TestAuthority_SameStateRefreshesTimestamp(t *testing.T) {
	a, _, app := setupAuthority(t, PermissiveTransitions())
	frozen := app.UpdatedDateTime
	a.now = fixedClock(frozen)

	first, _, err := a.Transition(context.Background(), app.ApplicationID, "Pending", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.True(t, first.UpdatedDateTime.After(frozen))

	second, _, err := a.Transition(context.Background(), app.ApplicationID, "Pending", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, second.UpdatedDateTime.After(first.UpdatedDateTime))
}

func TestAuthority_AnyToAny(t *testing.T) {
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			assert.True(t, PermissiveTransitions().Allowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestAuthority_StrictLifecycle(t *testing.T) {
	tests := []struct {
		from    models.Status
		to      models.Status
		allowed bool
	}{
		{models.StatusPending, models.StatusUnderReview, true},
		{models.StatusPending, models.StatusAccepted, false},
		{models.StatusPending, models.StatusRejected, false},
		{models.StatusUnderReview, models.StatusAccepted, true},
		{models.StatusUnderReview, models.StatusRejected, true},
		{models.StatusUnderReview, models.StatusPending, false},
		{models.StatusAccepted, models.StatusRejected, false},
		{models.StatusRejected, models.StatusUnderReview, false},
		{models.StatusAccepted, models.StatusAccepted, true},
	}
	table := StrictTransitions()
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, table.Allowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	a, st, app := setupAuthority(t, table)
	_, _, err := a.Transition(context.Background(), app.ApplicationID, "Accepted", models.RoleAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, writes := st.counts()
	assert.Equal(t, 0, writes)
}

func TestNextTimestamp(t *testing.T) {
	prev := time.Date(2026, 1, 1, 0, 0, 0, 1_500, time.UTC)

	assert.Equal(t, prev.Truncate(time.Microsecond).Add(time.Microsecond), nextTimestamp(prev, prev))
	assert.Equal(t, prev.Truncate(time.Microsecond).Add(time.Microsecond), nextTimestamp(prev.Add(-time.Hour), prev))

	later := prev.Add(time.Second)
	assert.Equal(t, later.Truncate(time.Microsecond), nextTimestamp(later, prev))
}
