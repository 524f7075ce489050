package sla

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/opsdesk/opsdesk/internal/domain"
	"github.com/opsdesk/opsdesk/internal/pkg/httputil"
)

// Handler handles HTTP requests for SLA policy administration.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new SLA policy handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers policy administration routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sla-policies", func(r chi.Router) {
		r.Get("/", h.ListPolicies)
		r.Post("/", h.CreatePolicy)
		r.Get("/{id}", h.GetPolicy)
		r.Patch("/{id}", h.UpdatePolicy)
		r.Delete("/{id}", h.DeletePolicy)
	})
}

var policyErrorMappings = []httputil.ErrorMapping{
	{Error: ErrPolicyNotFound, Status: http.StatusNotFound},
	{Error: ErrPolicyExists, Status: http.StatusConflict},
	{Error: ErrBudgetInverted, Status: http.StatusBadRequest},
	{Error: ErrInvalidSeverity, Status: http.StatusBadRequest},
}

// CreatePolicyRequest represents the request body for creating a policy.
type CreatePolicyRequest struct {
	Severity        string `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	ResponseHours   int    `json:"response_hours" validate:"required,min=1"`
	ResolutionHours int    `json:"resolution_hours" validate:"required,min=1"`
}

// CreatePolicy handles POST /sla-policies.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	policy, err := h.service.CreatePolicy(r.Context(), CreatePolicyInput{
		Severity:        domain.Severity(req.Severity),
		ResponseHours:   req.ResponseHours,
		ResolutionHours: req.ResolutionHours,
	}, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, policyErrorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, policy)
}

// UpdatePolicyRequest represents the request body for updating a policy.
type UpdatePolicyRequest struct {
	ResponseHours   *int `json:"response_hours" validate:"omitempty,min=1"`
	ResolutionHours *int `json:"resolution_hours" validate:"omitempty,min=1"`
}

// UpdatePolicy handles PATCH /sla-policies/{id}.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	policy, err := h.service.UpdatePolicy(r.Context(), chi.URLParam(r, "id"), UpdatePolicyInput{
		ResponseHours:   req.ResponseHours,
		ResolutionHours: req.ResolutionHours,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, policyErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, policy)
}

// ListPolicies handles GET /sla-policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.ListPolicies(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, policyErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, policies)
}

// GetPolicy handles GET /sla-policies/{id}.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.GetPolicyByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, policyErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, policy)
}

// DeletePolicy handles DELETE /sla-policies/{id}.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePolicy(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, policyErrorMappings)
		return
	}
	httputil.JSON(w, http.StatusNoContent, nil)
}
