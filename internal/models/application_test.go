package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := ParseStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}

	for _, raw := range []string{"", "UnderReview", "pending", "Approved", "under review"} {
		_, err := ParseStatus(raw)
		assert.Error(t, err, raw)
	}
}

func TestIsApplicationID(t *testing.T) {
	assert.True(t, IsApplicationID("app-123456-0a1b2c3d"))
	assert.False(t, IsApplicationID("app-12345-0a1b2c3d"))
	assert.False(t, IsApplicationID("app-123456-0A1B2C3D"))
	assert.False(t, IsApplicationID("6f1c8a52-8c4e-4b53-9d42-0f3f1c2b9e10"))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestApplication_CloneIsIndependent(t *testing.T) {
	original := &Application{ApplicationID: "app-123456-0a1b2c3d", Status: StatusPending}
	c := original.Clone()
	c.Status = StatusAccepted

	assert.Equal(t, StatusPending, original.Status)
	assert.Nil(t, (*Application)(nil).Clone())
}
