package notifications

import (
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Event is an abstract notification request produced by the incident core.
// The dispatcher turns it into an in-app notification row and, when email is
// enabled, a queued email. Events are ephemeral; delivery state never flows
// back into the core.
type Event struct {
	Kind        domain.NotificationKind
	RecipientID string
	IncidentID  string
	Payload     Payload
}

// Payload carries the data needed to compose a notification message.
// Fields are filled per kind; unused fields stay zero.
type Payload struct {
	IncidentNumber string
	Title          string
	Severity       domain.Severity
	OldStatus      domain.IncidentStatus
	NewStatus      domain.IncidentStatus
	Deadline       time.Time
	TimeRemaining  string
	Note           string
	Summary        *SummaryData
}

// SummaryData holds the aggregate counts carried by a daily-summary event.
type SummaryData struct {
	Date          time.Time
	Open          int
	InProgress    int
	ResolvedToday int
	Breached      int
}
