package domain

import "time"

// SLAPolicy defines the per-severity response and resolution budgets.
// Budgets are whole hours; the resolution budget must exceed the response
// budget.
type SLAPolicy struct {
	ID              string    `json:"id"`
	Severity        Severity  `json:"severity"`
	ResponseHours   int       `json:"response_hours"`
	ResolutionHours int       `json:"resolution_hours"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
