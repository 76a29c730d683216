package surveyshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/survey"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	Surveys *survey.Service
}

func NewHandler(surveySvc *survey.Service) *Handler {
	return &Handler{Surveys: surveySvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/surveys", h.HandleList)
		r.Post("/surveys", h.HandleCreate)
		r.Get("/surveys/{surveyID}", h.HandleGet)
		r.Post("/surveys/{surveyID}/open", h.HandleOpen)
		r.Post("/surveys/{surveyID}/close", h.HandleClose)
		r.Post("/surveys/{surveyID}/responses", h.HandleRespond)
		r.Get("/surveys/{surveyID}/results", h.HandleResults)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	surveys, err := h.Surveys.List(r.Context(), actor)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, surveys, reqID)
}

type createSurveyRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=300"`
	Anonymous bool   `json:"anonymous"`
	Questions []struct {
		Text string `json:"text" validate:"required,min=1,max=2000"`
		Type string `json:"type" validate:"required,oneof=TEXT SCALE"`
	} `json:"questions" validate:"required,min=1,dive"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createSurveyRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	questions := make([]survey.Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		questions = append(questions, survey.Question{Text: q.Text, Type: q.Type})
	}

	id, err := h.Surveys.Create(r.Context(), actor, payload.Title, payload.Anonymous, questions)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	sv, questions, err := h.Surveys.Get(r.Context(), actor, chi.URLParam(r, "surveyID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"survey": sv, "questions": questions}, reqID)
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.Surveys.Open(r.Context(), actor, chi.URLParam(r, "surveyID")); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": survey.StatusOpen}, reqID)
}

func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.Surveys.Close(r.Context(), actor, chi.URLParam(r, "surveyID")); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": survey.StatusClosed}, reqID)
}

type respondRequest struct {
	Answers []struct {
		QuestionID  string `json:"questionId" validate:"required"`
		AnswerText  string `json:"answerText"`
		AnswerScale *int   `json:"answerScale"`
	} `json:"answers" validate:"required,min=1,dive"`
}

func (h *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload respondRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	answers := make([]survey.Answer, 0, len(payload.Answers))
	for _, a := range payload.Answers {
		answers = append(answers, survey.Answer{QuestionID: a.QuestionID, AnswerText: a.AnswerText, AnswerScale: a.AnswerScale})
	}

	if err := h.Surveys.Respond(r.Context(), actor, chi.URLParam(r, "surveyID"), answers); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"status": "submitted"}, reqID)
}

func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	sv, responses, err := h.Surveys.Results(r.Context(), actor, chi.URLParam(r, "surveyID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"survey": sv, "responses": responses}, reqID)
}
