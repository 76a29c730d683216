package reportshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/reports"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
)

type Handler struct {
	Reports *reports.Service
}

func NewHandler(reportsSvc *reports.Service) *Handler {
	return &Handler{Reports: reportsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/reports/dashboard", h.HandleDashboard)
	})
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	summary, err := h.Reports.Dashboard(r.Context(), actor)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, summary, reqID)
}
