package incidents

import "errors"

// Incident operation errors.
var (
	ErrIncidentNotFound  = errors.New("incident not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSeverity   = errors.New("invalid severity")
	ErrInvalidResponder  = errors.New("invalid responder")
	ErrAlreadyAssigned   = errors.New("incident already assigned")
	ErrSeverityLocked    = errors.New("severity can only be changed while the incident is open")
	ErrAccessDenied      = errors.New("access denied")

	// ErrConcurrentUpdate is returned when an incident changed between read
	// and write; callers may retry.
	ErrConcurrentUpdate = errors.New("incident was modified concurrently")
)
