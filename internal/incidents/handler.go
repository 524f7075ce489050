package incidents

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/pkg/httputil"
	"github.com/opsdesk/opsdesk/internal/sla"
)

// Handler handles HTTP requests for incidents.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incident handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers routes available to every authenticated user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Post("/", h.CreateIncident)
		r.Get("/", h.ListIncidents)
		r.Get("/{id}", h.GetIncident)
		r.Post("/{id}/comments", h.AddComment)
	})
}

// RegisterResponderRoutes registers routes that require responder role.
func (h *Handler) RegisterResponderRoutes(r chi.Router) {
	r.Patch("/incidents/{id}/status", h.UpdateStatus)
}

// RegisterAdminRoutes registers routes that require admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/incidents/{id}/assign", h.AssignIncident)
	r.Patch("/incidents/{id}/severity", h.UpdateSeverity)
}

var incidentErrorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidTransition, Status: http.StatusConflict},
	{Error: ErrAlreadyAssigned, Status: http.StatusConflict},
	{Error: ErrInvalidResponder, Status: http.StatusBadRequest},
	{Error: ErrInvalidSeverity, Status: http.StatusBadRequest},
	{Error: ErrSeverityLocked, Status: http.StatusConflict},
	{Error: ErrAccessDenied, Status: http.StatusForbidden},
	{Error: ErrConcurrentUpdate, Status: http.StatusConflict, Message: "incident was modified concurrently, retry"},
}

func actorFrom(r *http.Request) Actor {
	return Actor{
		ID:   httputil.GetUserID(r.Context()),
		Role: httputil.GetRole(r.Context()),
	}
}

// IncidentResponse is an incident plus its live SLA evaluation.
type IncidentResponse struct {
	*domain.Incident
	SLA *sla.Evaluation `json:"sla,omitempty"`
}

// toResponse attaches a live evaluation to non-terminal incidents. Resolved
// and closed incidents keep their stored classification frozen.
func toResponse(inc *domain.Incident) IncidentResponse {
	resp := IncidentResponse{Incident: inc}
	if inc.Status.IsLive() {
		eval := sla.Evaluate(inc, time.Now())
		resp.SLA = &eval
	}
	return resp
}

// CreateIncidentRequest represents the request body for reporting an incident.
type CreateIncidentRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=255"`
	Description     string `json:"description" validate:"required"`
	Severity        string `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	AffectedService string `json:"affected_service" validate:"omitempty,max=255"`
	ImpactedUsers   *int   `json:"impacted_users" validate:"omitempty,min=0"`
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	inc, err := h.service.Create(r.Context(), CreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Severity:        domain.Severity(req.Severity),
		AffectedService: req.AffectedService,
		ImpactedUsers:   req.ImpactedUsers,
	}, actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, toResponse(inc))
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.IncidentStatus(status)
		if !s.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &s
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		sev := domain.Severity(severity)
		if !sev.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid severity filter")
			return
		}
		filter.Severity = &sev
	}

	list, err := h.service.List(r.Context(), filter, actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	resp := make([]IncidentResponse, 0, len(list))
	for _, inc := range list {
		resp = append(resp, toResponse(inc))
	}
	httputil.Success(w, http.StatusOK, resp)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	inc, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, toResponse(inc))
}

// AssignIncidentRequest represents the request body for assigning an incident.
type AssignIncidentRequest struct {
	ResponderID string `json:"responder_id" validate:"required,uuid"`
}

// AssignIncident handles POST /incidents/{id}/assign.
func (h *Handler) AssignIncident(w http.ResponseWriter, r *http.Request) {
	var req AssignIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	inc, err := h.service.Assign(r.Context(), chi.URLParam(r, "id"), req.ResponderID, actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, toResponse(inc))
}

// UpdateStatusRequest represents the request body for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=OPEN ASSIGNED INVESTIGATING RESOLVED CLOSED REOPENED"`
	Note   string `json:"note" validate:"omitempty,max=1000"`
}

// UpdateStatus handles PATCH /incidents/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	inc, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"),
		domain.IncidentStatus(req.Status), actorFrom(r), req.Note)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, toResponse(inc))
}

// UpdateSeverityRequest represents the request body for a severity change.
type UpdateSeverityRequest struct {
	Severity string `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// UpdateSeverity handles PATCH /incidents/{id}/severity.
func (h *Handler) UpdateSeverity(w http.ResponseWriter, r *http.Request) {
	var req UpdateSeverityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	inc, err := h.service.UpdateSeverity(r.Context(), chi.URLParam(r, "id"),
		domain.Severity(req.Severity), actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, toResponse(inc))
}

// AddCommentRequest represents the request body for adding a comment.
type AddCommentRequest struct {
	Body     string `json:"body" validate:"required,min=1,max=5000"`
	Internal bool   `json:"internal"`
}

// AddComment handles POST /incidents/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"),
		req.Body, req.Internal, actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, comment)
}
