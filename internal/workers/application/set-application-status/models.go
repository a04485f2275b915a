// internal/workers/application/set-application-status/models.go
package setapplicationstatus

type Input struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	UpdatedDateTime   string `json:"updatedDateTime"` // RFC 3339
}
