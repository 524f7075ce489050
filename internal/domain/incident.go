package domain

import "time"

// Severity represents the impact tier of an incident. It drives the SLA
// resolution budget.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusOpen          IncidentStatus = "OPEN"
	IncidentStatusAssigned      IncidentStatus = "ASSIGNED"
	IncidentStatusInvestigating IncidentStatus = "INVESTIGATING"
	IncidentStatusResolved      IncidentStatus = "RESOLVED"
	IncidentStatusClosed        IncidentStatus = "CLOSED"
	IncidentStatusReopened      IncidentStatus = "REOPENED"
)

// IsValid checks if the status is valid.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusAssigned, IncidentStatusInvestigating,
		IncidentStatusResolved, IncidentStatusClosed, IncidentStatusReopened:
		return true
	}
	return false
}

// IsLive reports whether the status keeps the incident's SLA clock running.
// Resolved and closed incidents are excluded from the periodic sweep.
func (s IncidentStatus) IsLive() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusAssigned,
		IncidentStatusInvestigating, IncidentStatusReopened:
		return true
	}
	return false
}

// SLAStatus classifies an incident's health relative to its deadline.
type SLAStatus string

// SLA classifications.
const (
	SLAStatusWithin      SLAStatus = "WITHIN_SLA"
	SLAStatusApproaching SLAStatus = "APPROACHING_BREACH"
	SLAStatusBreached    SLAStatus = "BREACHED"
)

// Incident is the central entity: a reported problem with a time-bound
// resolution commitment.
type Incident struct {
	ID              string         `json:"id"`
	Number          string         `json:"number"` // INC-<year>-<4-digit-seq>, assigned once
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Severity        Severity       `json:"severity"`
	Status          IncidentStatus `json:"status"`
	ReporterID      string         `json:"reporter_id"`
	ResponderID     *string        `json:"responder_id,omitempty"`
	AffectedService string         `json:"affected_service,omitempty"`
	ImpactedUsers   *int           `json:"impacted_users,omitempty"`
	ReportedAt      time.Time      `json:"reported_at"`
	AcknowledgedAt  *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time     `json:"closed_at,omitempty"`
	SLADeadline     time.Time      `json:"sla_deadline"`
	SLAStatus       SLAStatus      `json:"sla_status"`
	SLABreachedAt   *time.Time     `json:"sla_breached_at,omitempty"`
	SLAMet          *bool          `json:"sla_met,omitempty"` // set at resolution, retained afterwards
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	StatusLog []StatusLogEntry `json:"status_log,omitempty"`
	Comments  []Comment        `json:"comments,omitempty"`
}

// StatusLogEntry is one immutable row in an incident's status-change log.
// Entries are append-only and never edited.
type StatusLogEntry struct {
	ID         string          `json:"id"`
	IncidentID string          `json:"incident_id"`
	OldStatus  *IncidentStatus `json:"old_status,omitempty"`
	NewStatus  IncidentStatus  `json:"new_status"`
	ActorID    string          `json:"actor_id"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Comment is an append-only note on an incident. Internal comments are
// visible to responders and admins only.
type Comment struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	AuthorID   string    `json:"author_id"`
	AuthorRole Role      `json:"author_role"`
	Body       string    `json:"body"`
	Internal   bool      `json:"internal"`
	CreatedAt  time.Time `json:"created_at"`
}
