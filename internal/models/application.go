package models

import (
	"fmt"
	"regexp"
	"time"
)

// Status is the lifecycle stage of an Application. The string values are the
// literals transmitted on the wire and persisted in the store.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusUnderReview Status = "Under Review"
	StatusAccepted    Status = "Accepted"
	StatusRejected    Status = "Rejected"
)

// AllStatuses lists every persisted status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusUnderReview, StatusAccepted, StatusRejected}

// Valid reports whether s is one of the four enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ParseStatus accepts only the exact wire literals.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// ApplicationIDPattern matches identifiers minted by the issuer.
var ApplicationIDPattern = regexp.MustCompile(`^app-\d{6}-[0-9a-f]{8}$`)

// IsApplicationID reports whether id has the public identifier shape rather than
// the store's internal id.
func IsApplicationID(id string) bool {
	return ApplicationIDPattern.MatchString(id)
}

// Application is one startup's incubation submission.
type Application struct {
	ID               string    `json:"_id" db:"id"`
	ApplicationID    string    `json:"applicationId" db:"application_id"`
	ApplicationEmail string    `json:"applicationEmail" db:"application_email"`
	ApplicationPhone string    `json:"applicationPhone" db:"application_phone"`
	ProgramApplied   string    `json:"programApplied" db:"program_applied"`
	StartupName      string    `json:"startupName" db:"startup_name"`
	Description      string    `json:"description" db:"description"`
	Status           Status    `json:"status" db:"status"`
	SubmissionDate   time.Time `json:"submissionDate" db:"submission_date"`
	UpdatedDateTime  time.Time `json:"updatedDateTime" db:"updated_date_time"`
}

// Clone returns a copy safe to hand across component boundaries.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// SubmissionFields is the public submission payload.
type SubmissionFields struct {
	ApplicationEmail string `json:"applicationEmail"`
	ApplicationPhone string `json:"applicationPhone"`
	ProgramApplied   string `json:"programApplied"`
	StartupName      string `json:"startupName"`
	Description      string `json:"description"`
}

// ToMap renders the payload for schema validation. Every key is always present so
// that validation failures are reported against the field, not the document root.
func (f SubmissionFields) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"applicationEmail": f.ApplicationEmail,
		"applicationPhone": f.ApplicationPhone,
		"programApplied":   f.ProgramApplied,
		"startupName":      f.StartupName,
		"description":      f.Description,
	}
}

// SearchQuery filters the admin search over the secondary index.
type SearchQuery struct {
	Text   string `json:"q"`
	Status Status `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}
