package models

import "time"

// EventType names an application lifecycle event published to the workflow engine.
type EventType string

const (
	EventApplicationSubmitted     EventType = "application-submitted"
	EventApplicationStatusChanged EventType = "application-status-changed"
)

// LifecycleEvent is emitted after a mutation has been persisted.
type LifecycleEvent struct {
	Type           EventType `json:"type"`
	ApplicationID  string    `json:"applicationId"`
	Status         Status    `json:"status"`
	PreviousStatus Status    `json:"previousStatus,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}
