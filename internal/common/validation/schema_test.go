package validation

import (
	"strings"
	"testing"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() models.SubmissionFields {
	return models.SubmissionFields{
		ApplicationEmail: "a@b.com",
		ApplicationPhone: "123",
		ProgramApplied:   "Accel",
		StartupName:      "Acme",
		Description:      "x",
	}
}

func TestSubmissionValidator_Validate(t *testing.T) {
	v, err := NewSubmissionValidator()
	require.NoError(t, err)

	tests := []struct {
		name           string
		mutate         func(f *models.SubmissionFields)
		expectedFields []string
	}{
		{
			name:   "valid submission",
			mutate: func(f *models.SubmissionFields) {},
		},
		{
			name:   "description is optional",
			mutate: func(f *models.SubmissionFields) { f.Description = "" },
		},
		{
			name:           "missing startup name",
			mutate:         func(f *models.SubmissionFields) { f.StartupName = "" },
			expectedFields: []string{"startupName"},
		},
		{
			name:           "whitespace only counts as empty",
			mutate:         func(f *models.SubmissionFields) { f.ProgramApplied = "   " },
			expectedFields: []string{"programApplied"},
		},
		{
			name:           "malformed email",
			mutate:         func(f *models.SubmissionFields) { f.ApplicationEmail = "not-an-email" },
			expectedFields: []string{"applicationEmail"},
		},
		{
			name: "several fields reported once each",
			mutate: func(f *models.SubmissionFields) {
				f.ApplicationEmail = ""
				f.ApplicationPhone = ""
				f.StartupName = ""
			},
			expectedFields: []string{"applicationEmail", "applicationPhone", "startupName"},
		},
		{
			name:           "oversized description",
			mutate:         func(f *models.SubmissionFields) { f.Description = strings.Repeat("d", 10001) },
			expectedFields: []string{"description"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validSubmission()
			tt.mutate(&fields)

			err := v.Validate(fields)
			if tt.expectedFields == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			stdErr := apperrors.AsStandardError(err)
			assert.Equal(t, tt.expectedFields, stdErr.Fields)
		})
	}
}
