package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
}

func NewHandler(auditSvc *audit.Service) *Handler {
	return &Handler{Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/audit/events", h.HandleList)
		r.Get("/audit/events/export", h.HandleExportCSV)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 500)
	query := r.URL.Query()

	filter := audit.Filter{
		ActorUser:  query.Get("actorId"),
		Action:     query.Get("action"),
		EntityType: query.Get("entityType"),
		EntityID:   query.Get("entityId"),
	}

	total, err := h.Audit.Count(r.Context(), actor.OrgID, filter)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	events, err := h.Audit.List(r.Context(), actor.OrgID, filter, query.Get("details") == "true", page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	api.Success(w, map[string]any{
		"events": events,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, reqID)
}

func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	events, err := h.Audit.ListExport(r.Context(), actor.OrgID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-events.csv"`)
	if err := audit.WriteCSV(w, events); err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_error", "failed to write csv", reqID)
	}
}
