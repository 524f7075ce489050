package sla

import (
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// approachingThreshold is the fraction of the allotted window below which an
// incident is classified as approaching breach.
const approachingThreshold = 0.20

// Evaluation is the result of classifying an incident against its deadline.
type Evaluation struct {
	Status        domain.SLAStatus `json:"status"`
	TimeRemaining time.Duration    `json:"time_remaining"`
	Remaining     string           `json:"remaining"`
}

// Evaluate classifies an incident's SLA health at the given instant. It is
// the single source of truth for classification: both the periodic sweep and
// the incident detail view go through here.
//
// Only meaningful for live incidents; resolved and closed incidents keep
// their last stored classification.
func Evaluate(inc *domain.Incident, now time.Time) Evaluation {
	remaining := inc.SLADeadline.Sub(now)

	if remaining < 0 {
		return Evaluation{
			Status:        domain.SLAStatusBreached,
			TimeRemaining: 0,
			Remaining:     "Overdue",
		}
	}

	total := inc.SLADeadline.Sub(inc.ReportedAt)
	status := domain.SLAStatusWithin
	if total > 0 && float64(remaining)/float64(total) < approachingThreshold {
		status = domain.SLAStatusApproaching
	}

	return Evaluation{
		Status:        status,
		TimeRemaining: remaining,
		Remaining:     FormatRemaining(remaining),
	}
}

// FormatRemaining renders a duration in the coarsest two units that capture
// its magnitude: days+hours when at least a day, hours+minutes when at least
// an hour, minutes otherwise.
func FormatRemaining(d time.Duration) string {
	minutes := int(d.Minutes())
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// ResponseTime returns the duration between report and first acknowledgement,
// or false if the incident was never acknowledged.
func ResponseTime(inc *domain.Incident) (time.Duration, bool) {
	if inc.AcknowledgedAt == nil {
		return 0, false
	}
	return inc.AcknowledgedAt.Sub(inc.ReportedAt), true
}

// ResolutionTime returns the duration between report and resolution, or
// false if the incident is unresolved.
func ResolutionTime(inc *domain.Incident) (time.Duration, bool) {
	if inc.ResolvedAt == nil {
		return 0, false
	}
	return inc.ResolvedAt.Sub(inc.ReportedAt), true
}

// Met reports whether the incident was resolved within its deadline, or
// false in the second value if it is unresolved.
func Met(inc *domain.Incident) (bool, bool) {
	if inc.ResolvedAt == nil {
		return false, false
	}
	return !inc.ResolvedAt.After(inc.SLADeadline), true
}
