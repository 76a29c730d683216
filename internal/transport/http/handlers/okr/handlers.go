package okrhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/okr"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	OKR *okr.Service
}

func NewHandler(okrSvc *okr.Service) *Handler {
	return &Handler{OKR: okrSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/objectives", h.HandleListObjectives)
		r.Post("/objectives", h.HandleCreateObjective)
		r.Get("/objectives/{objectiveID}", h.HandleGetObjective)
		r.Patch("/objectives/{objectiveID}/status", h.HandleUpdateObjectiveStatus)
		r.Delete("/objectives/{objectiveID}", h.HandleDeleteObjective)
		r.Post("/objectives/{objectiveID}/key-results", h.HandleCreateKeyResult)
		r.Patch("/key-results/{keyResultID}", h.HandleUpdateKeyResult)
		r.Post("/key-results/{keyResultID}/checkins", h.HandleCheckIn)
		r.Get("/key-results/{keyResultID}/checkins", h.HandleListCheckIns)
	})
}

func (h *Handler) HandleListObjectives(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()

	objectives, err := h.OKR.ListObjectives(r.Context(), actor, query.Get("ownerType"), query.Get("ownerId"), query.Get("quarter"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, objectives, reqID)
}

type createObjectiveRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=300"`
	Description string `json:"description" validate:"max=5000"`
	OwnerType   string `json:"ownerType" validate:"required,oneof=COMPANY TEAM INDIVIDUAL"`
	OwnerTeamID string `json:"ownerTeamId"`
	OwnerUserID string `json:"ownerUserId"`
	ParentID    string `json:"parentId"`
	Status      string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE"`
	Quarter     string `json:"quarter" validate:"required"`
}

func (h *Handler) HandleCreateObjective(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createObjectiveRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	id, err := h.OKR.CreateObjective(r.Context(), actor, okr.Objective{
		Title:       payload.Title,
		Description: payload.Description,
		OwnerType:   payload.OwnerType,
		OwnerTeamID: payload.OwnerTeamID,
		OwnerUserID: payload.OwnerUserID,
		ParentID:    payload.ParentID,
		Status:      payload.Status,
		Quarter:     payload.Quarter,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleGetObjective(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	view, err := h.OKR.GetObjectiveView(r.Context(), actor, chi.URLParam(r, "objectiveID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, view, reqID)
}

type updateObjectiveStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT ACTIVE COMPLETED CANCELLED"`
}

func (h *Handler) HandleUpdateObjectiveStatus(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload updateObjectiveStatusRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	if err := h.OKR.UpdateObjectiveStatus(r.Context(), actor, chi.URLParam(r, "objectiveID"), payload.Status); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": payload.Status}, reqID)
}

func (h *Handler) HandleDeleteObjective(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.OKR.DeleteObjective(r.Context(), actor, chi.URLParam(r, "objectiveID")); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

type createKeyResultRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=300"`
	Type            string   `json:"type" validate:"required,oneof=METRIC MILESTONE"`
	StartValue      float64  `json:"startValue"`
	TargetValue     float64  `json:"targetValue"`
	MilestoneStatus string   `json:"milestoneStatus" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS DONE"`
	Confidence      *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

func (h *Handler) HandleCreateKeyResult(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createKeyResultRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	id, err := h.OKR.CreateKeyResult(r.Context(), actor, okr.KeyResult{
		ObjectiveID:     chi.URLParam(r, "objectiveID"),
		Title:           payload.Title,
		Type:            payload.Type,
		StartValue:      payload.StartValue,
		TargetValue:     payload.TargetValue,
		MilestoneStatus: payload.MilestoneStatus,
		Confidence:      payload.Confidence,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

type updateKeyResultRequest struct {
	Title           *string  `json:"title" validate:"omitempty,min=1,max=300"`
	CurrentValue    *float64 `json:"currentValue"`
	MilestoneStatus string   `json:"milestoneStatus" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS DONE"`
	Progress        *float64 `json:"progress" validate:"omitempty,gte=0,lte=1"`
	Confidence      *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

func (h *Handler) HandleUpdateKeyResult(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload updateKeyResultRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	kr, err := h.OKR.UpdateKeyResult(r.Context(), actor, chi.URLParam(r, "keyResultID"),
		payload.CurrentValue, payload.MilestoneStatus, payload.Progress, payload.Confidence, payload.Title)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, kr, reqID)
}

type checkInRequest struct {
	CurrentValue float64  `json:"currentValue"`
	Confidence   *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Comment      string   `json:"comment" validate:"max=2000"`
}

func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload checkInRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	checkIn, err := h.OKR.CheckIn(r.Context(), actor, chi.URLParam(r, "keyResultID"), payload.CurrentValue, payload.Confidence, payload.Comment)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, checkIn, reqID)
}

func (h *Handler) HandleListCheckIns(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	checkIns, err := h.OKR.ListCheckIns(r.Context(), actor, chi.URLParam(r, "keyResultID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, checkIns, reqID)
}
