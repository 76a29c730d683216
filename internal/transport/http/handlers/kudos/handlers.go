package kudoshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/kudos"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	Kudos *kudos.Service
}

func NewHandler(kudosSvc *kudos.Service) *Handler {
	return &Handler{Kudos: kudosSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/kudos", h.HandleList)
		r.Post("/kudos", h.HandleCreate)
		r.Get("/kudos/categories", h.HandleCategories)
	})
}

type createKudosRequest struct {
	ToUserID string `json:"toUserId" validate:"required"`
	Category string `json:"category" validate:"required"`
	Message  string `json:"message" validate:"required,min=1,max=2000"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createKudosRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	k, err := h.Kudos.Create(r.Context(), actor, payload.ToUserID, payload.Category, payload.Message, kudos.SourceWeb)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, k, reqID)
}

// HandleList serves the org feed; ?filter=received or ?filter=given narrows
// to the actor's own kudos.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filter := kudos.Filter{
		Category: r.URL.Query().Get("category"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	switch r.URL.Query().Get("filter") {
	case "received":
		filter.ToUserID = actor.UserID
	case "given":
		filter.FromUserID = actor.UserID
	}

	feed, err := h.Kudos.List(r.Context(), actor, filter)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, feed, reqID)
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	api.Success(w, kudos.Categories, requestctx.GetRequestID(r.Context()))
}
