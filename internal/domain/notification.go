package domain

import "time"

// NotificationKind represents the type of a notification event.
type NotificationKind string

// Notification kinds.
const (
	NotificationCreated       NotificationKind = "created"
	NotificationAssigned      NotificationKind = "assigned"
	NotificationStatusChanged NotificationKind = "status-changed"
	NotificationSLAWarning    NotificationKind = "sla-warning"
	NotificationSLABreach     NotificationKind = "sla-breach"
	NotificationResolved      NotificationKind = "resolved"
	NotificationDailySummary  NotificationKind = "daily-summary"
)

// NotificationPriority orders notifications in the in-app inbox.
type NotificationPriority string

// Notification priorities.
const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityMedium NotificationPriority = "MEDIUM"
	PriorityHigh   NotificationPriority = "HIGH"
)

// Notification is a delivered in-app message for a single user.
type Notification struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	Kind       NotificationKind     `json:"kind"`
	IncidentID *string              `json:"incident_id,omitempty"`
	Title      string               `json:"title"`
	Message    string               `json:"message"`
	Priority   NotificationPriority `json:"priority"`
	Read       bool                 `json:"read"`
	CreatedAt  time.Time            `json:"created_at"`
}
