package incidents

import "github.com/opsdesk/opsdesk/internal/domain"

// transitions is the single adjacency map of legal status moves. Every
// status change, whether user-driven or via assignment, is validated against
// this table and nowhere else.
var transitions = map[domain.IncidentStatus][]domain.IncidentStatus{
	domain.IncidentStatusOpen:          {domain.IncidentStatusAssigned, domain.IncidentStatusInvestigating},
	domain.IncidentStatusAssigned:      {domain.IncidentStatusInvestigating, domain.IncidentStatusOpen},
	domain.IncidentStatusInvestigating: {domain.IncidentStatusResolved, domain.IncidentStatusAssigned},
	domain.IncidentStatusResolved:      {domain.IncidentStatusClosed, domain.IncidentStatusReopened},
	domain.IncidentStatusClosed:        {domain.IncidentStatusReopened},
	domain.IncidentStatusReopened:      {domain.IncidentStatusInvestigating, domain.IncidentStatusAssigned},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to domain.IncidentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal destination statuses for a status.
// The returned slice must not be modified.
func AllowedTransitions(from domain.IncidentStatus) []domain.IncidentStatus {
	return transitions[from]
}
