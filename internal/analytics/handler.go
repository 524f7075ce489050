package analytics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/opsdesk/internal/pkg/httputil"
)

// Handler handles HTTP requests for analytics.
type Handler struct {
	service *Service
}

// NewHandler creates a new analytics handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers analytics routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/sla-compliance", h.Compliance)
	})
}

var analyticsErrorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidRange, Status: http.StatusBadRequest},
}

// Dashboard handles GET /analytics/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, analyticsErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, stats)
}

// Compliance handles GET /analytics/sla-compliance. from/to are RFC 3339
// dates; the default is the trailing 30 days.
func (h *Handler) Compliance(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = parsed
	}

	report, err := h.service.Compliance(r.Context(), from, to)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, analyticsErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, report)
}
