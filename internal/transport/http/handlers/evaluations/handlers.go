package evaluationshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/evaluation"
	"teamspark/internal/domain/identity"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	Evaluations *evaluation.Service
	Users       *identity.Store
}

func NewHandler(evalSvc *evaluation.Service, users *identity.Store) *Handler {
	return &Handler{Evaluations: evalSvc, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/evaluations", h.HandleList)
		r.Post("/evaluations", h.HandleCreate)
		r.Get("/evaluations/{evaluationID}", h.HandleGet)
		r.Patch("/evaluations/{evaluationID}", h.HandleUpdateDraft)
		r.Post("/evaluations/{evaluationID}/submit", h.HandleSubmit)
		r.Post("/evaluations/{evaluationID}/review", h.HandleReview)
		r.Post("/evaluations/{evaluationID}/share", h.HandleShare)
		r.Delete("/evaluations/{evaluationID}", h.HandleDelete)
		r.Get("/evaluations/{evaluationID}/pdf", h.HandleExportPDF)

		r.Get("/cycles", h.HandleListCycles)
		r.Post("/cycles", h.HandleCreateCycle)
		r.Get("/competencies", h.HandleListCompetencies)
		r.Post("/competencies", h.HandleCreateCompetency)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	evals, err := h.Evaluations.List(r.Context(), actor, r.URL.Query().Get("cycleId"), page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, evals, reqID)
}

type createEvaluationRequest struct {
	CycleID     string `json:"cycleId" validate:"required"`
	EvaluateeID string `json:"evaluateeId" validate:"required"`
	EvaluatorID string `json:"evaluatorId" validate:"required"`
	ReviewerID  string `json:"reviewerId"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createEvaluationRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	id, err := h.Evaluations.Create(r.Context(), actor, payload.CycleID, payload.EvaluateeID, payload.EvaluatorID, payload.ReviewerID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	eval, ratings, err := h.Evaluations.Get(r.Context(), actor, chi.URLParam(r, "evaluationID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"evaluation": eval, "ratings": ratings}, reqID)
}

type updateDraftRequest struct {
	OverallRating *float64 `json:"overallRating" validate:"omitempty,gte=1,lte=5"`
	Comments      *string  `json:"comments"`
	Ratings       []struct {
		CompetencyID string  `json:"competencyId" validate:"required"`
		Rating       float64 `json:"rating" validate:"gte=1,lte=5"`
		Comment      string  `json:"comment"`
	} `json:"ratings"`
}

func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload updateDraftRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	update := evaluation.DraftUpdate{
		OverallRating: payload.OverallRating,
		Comments:      payload.Comments,
	}
	if payload.Ratings != nil {
		update.Ratings = make([]evaluation.CompetencyRating, 0, len(payload.Ratings))
		for _, rating := range payload.Ratings {
			update.Ratings = append(update.Ratings, evaluation.CompetencyRating{
				CompetencyID: rating.CompetencyID,
				Rating:       rating.Rating,
				Comment:      rating.Comment,
			})
		}
	}

	eval, err := h.Evaluations.UpdateDraft(r.Context(), actor, chi.URLParam(r, "evaluationID"), update)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, eval, reqID)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	eval, err := h.Evaluations.Submit(r.Context(), actor, chi.URLParam(r, "evaluationID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, eval, reqID)
}

type reviewRequest struct {
	Approved        bool     `json:"approved"`
	ManagerComments string   `json:"managerComments"`
	OverallRating   *float64 `json:"overallRating" validate:"omitempty,gte=1,lte=5"`
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload reviewRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	eval, err := h.Evaluations.Review(r.Context(), actor, chi.URLParam(r, "evaluationID"), payload.Approved, payload.ManagerComments, payload.OverallRating)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, eval, reqID)
}

func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	eval, err := h.Evaluations.Share(r.Context(), actor, chi.URLParam(r, "evaluationID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, eval, reqID)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.Evaluations.Delete(r.Context(), actor, chi.URLParam(r, "evaluationID")); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

// HandleExportPDF renders a shared evaluation as a PDF download. Access rules
// are the same as for viewing; drafts and in-review evaluations never export.
func (h *Handler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	evaluationID := chi.URLParam(r, "evaluationID")

	eval, ratings, err := h.Evaluations.Get(r.Context(), actor, evaluationID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if eval.Status != evaluation.StatusShared {
		api.FailError(w, apperr.Invalid("not_shared", "only shared evaluations can be exported"), reqID)
		return
	}

	cycleName := ""
	if cycles, err := h.Evaluations.ListCycles(r.Context(), actor); err == nil {
		for _, cycle := range cycles {
			if cycle.ID == eval.CycleID {
				cycleName = cycle.Name
				break
			}
		}
	}
	_, evaluateeName, _ := h.Users.UserEmail(r.Context(), actor.OrgID, eval.EvaluateeID)
	_, evaluatorName, _ := h.Users.UserEmail(r.Context(), actor.OrgID, eval.EvaluatorID)

	competencyNames := map[string]string{}
	if competencies, err := h.Evaluations.ListCompetencies(r.Context(), actor); err == nil {
		for _, competency := range competencies {
			competencyNames[competency.ID] = competency.Name
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="evaluation-`+evaluationID+`.pdf"`)
	if err := evaluation.RenderPDF(w, eval, ratings, cycleName, evaluateeName, evaluatorName, competencyNames); err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_error", "failed to render pdf", reqID)
	}
}

func (h *Handler) HandleListCycles(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	cycles, err := h.Evaluations.ListCycles(r.Context(), actor)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, cycles, reqID)
}

type createCycleRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

func (h *Handler) HandleCreateCycle(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createCycleRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	start, err := shared.ParseDate(payload.StartDate)
	if err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "startDate", Reason: "must be a valid date"}})
		return
	}
	end, err := shared.ParseDate(payload.EndDate)
	if err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "endDate", Reason: "must be a valid date"}})
		return
	}
	if end.Before(start) {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "endDate", Reason: "must be on or after startDate"}})
		return
	}

	id, err := h.Evaluations.CreateCycle(r.Context(), actor, payload.Name, start, end)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleListCompetencies(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	competencies, err := h.Evaluations.ListCompetencies(r.Context(), actor)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, competencies, reqID)
}

type createCompetencyRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) HandleCreateCompetency(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createCompetencyRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	id, err := h.Evaluations.CreateCompetency(r.Context(), actor, payload.Name, payload.Description)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}
