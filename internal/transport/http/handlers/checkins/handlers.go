package checkinshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/checkin"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	CheckIns *checkin.Service
}

func NewHandler(checkinSvc *checkin.Service) *Handler {
	return &Handler{CheckIns: checkinSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/checkins", h.HandleListOwn)
		r.Post("/checkins", h.HandleSubmit)
		r.Get("/checkins/team", h.HandleListTeam)
	})
}

type submitCheckInRequest struct {
	Achievements string `json:"achievements" validate:"required,min=1,max=5000"`
	Challenges   string `json:"challenges" validate:"max=5000"`
	NextWeekPlan string `json:"nextWeekPlan" validate:"max=5000"`
	Mood         int    `json:"mood" validate:"required,gte=1,lte=5"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload submitCheckInRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	c, err := h.CheckIns.Submit(r.Context(), actor, payload.Achievements, payload.Challenges, payload.NextWeekPlan, payload.Mood, time.Now())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, c, reqID)
}

func (h *Handler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 12, 52)

	checkIns, err := h.CheckIns.ListOwn(r.Context(), actor, page.Limit)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, checkIns, reqID)
}

// HandleListTeam returns the given week's check-ins for the actor's managed
// teams; ?week=YYYY-MM-DD selects any day inside the wanted week.
func (h *Handler) HandleListTeam(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	at := time.Now()
	if raw := r.URL.Query().Get("week"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "week", Reason: "must be a valid date"}})
			return
		}
		at = parsed
	}

	checkIns, err := h.CheckIns.ListTeamWeek(r.Context(), actor, at)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, checkIns, reqID)
}
