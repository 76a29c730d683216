package survey

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
)

// Notifier announces a survey opening to the organization; nil disables it.
type Notifier interface {
	SurveyPublished(ctx context.Context, orgID, surveyID, title string) error
}

type Service struct {
	store    *Store
	audit    *audit.Service
	notifier Notifier
}

func NewService(store *Store, auditSvc *audit.Service, notifier Notifier) *Service {
	return &Service{store: store, audit: auditSvc, notifier: notifier}
}

func (s *Service) load(ctx context.Context, actor auth.UserContext, surveyID string) (Survey, error) {
	sv, err := s.store.Get(ctx, actor.OrgID, surveyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Survey{}, apperr.NotFound("survey_not_found", "survey not found")
	}
	return sv, err
}

func (s *Service) List(ctx context.Context, actor auth.UserContext) ([]Survey, error) {
	surveys, err := s.store.List(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	// Non-admins only see surveys that have been opened.
	if actor.Role != auth.RoleAdmin {
		filtered := surveys[:0]
		for _, sv := range surveys {
			if sv.Status != StatusDraft {
				filtered = append(filtered, sv)
			}
		}
		surveys = filtered
	}
	return surveys, nil
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, surveyID string) (Survey, []Question, error) {
	sv, err := s.load(ctx, actor, surveyID)
	if err != nil {
		return Survey{}, nil, err
	}
	if sv.Status == StatusDraft && actor.Role != auth.RoleAdmin {
		return Survey{}, nil, apperr.NotFound("survey_not_found", "survey not found")
	}
	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return Survey{}, nil, err
	}
	return sv, questions, nil
}

func (s *Service) Create(ctx context.Context, actor auth.UserContext, title string, anonymous bool, questions []Question) (string, error) {
	if actor.Role != auth.RoleAdmin {
		return "", apperr.Forbidden("forbidden", "only admins can create surveys")
	}
	if strings.TrimSpace(title) == "" {
		return "", apperr.Invalid("invalid_payload", "survey title required")
	}
	if len(questions) == 0 {
		return "", apperr.Invalid("invalid_payload", "at least one question required")
	}
	for _, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return "", apperr.Invalid("invalid_payload", "question text required")
		}
		if q.Type != QuestionText && q.Type != QuestionScale {
			return "", apperr.Invalid("invalid_payload", "question type must be TEXT or SCALE")
		}
	}

	sv := Survey{OrgID: actor.OrgID, Title: title, Status: StatusDraft, Anonymous: anonymous, CreatedBy: actor.UserID}
	id, err := s.store.Create(ctx, sv, questions)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "survey.create", "survey", id, nil, sv, true)
	return id, nil
}

func (s *Service) Open(ctx context.Context, actor auth.UserContext, surveyID string) error {
	sv, err := s.requireAdminSurvey(ctx, actor, surveyID)
	if err != nil {
		return err
	}
	if sv.Status != StatusDraft {
		return apperr.Conflict("invalid_transition", "only draft surveys can be opened")
	}
	if err := s.store.SetStatus(ctx, actor.OrgID, surveyID, StatusOpen, time.Now()); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "survey.open", "survey", surveyID,
		map[string]string{"status": sv.Status}, map[string]string{"status": StatusOpen}, true)

	if s.notifier != nil {
		if err := s.notifier.SurveyPublished(ctx, actor.OrgID, surveyID, sv.Title); err != nil {
			slog.Warn("survey publish notification failed", "error", err, "surveyId", surveyID)
		}
	}
	return nil
}

func (s *Service) Close(ctx context.Context, actor auth.UserContext, surveyID string) error {
	sv, err := s.requireAdminSurvey(ctx, actor, surveyID)
	if err != nil {
		return err
	}
	if sv.Status != StatusOpen {
		return apperr.Conflict("invalid_transition", "only open surveys can be closed")
	}
	if err := s.store.SetStatus(ctx, actor.OrgID, surveyID, StatusClosed, time.Now()); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "survey.close", "survey", surveyID,
		map[string]string{"status": sv.Status}, map[string]string{"status": StatusClosed}, true)
	return nil
}

func (s *Service) requireAdminSurvey(ctx context.Context, actor auth.UserContext, surveyID string) (Survey, error) {
	if actor.Role != auth.RoleAdmin {
		return Survey{}, apperr.Forbidden("forbidden", "only admins can manage surveys")
	}
	return s.load(ctx, actor, surveyID)
}

// Respond submits the actor's answer set. Only OPEN surveys accept responses,
// and each user submits at most once.
func (s *Service) Respond(ctx context.Context, actor auth.UserContext, surveyID string, answers []Answer) error {
	sv, err := s.load(ctx, actor, surveyID)
	if err != nil {
		return err
	}
	if sv.Status != StatusOpen {
		return apperr.Conflict("survey_not_open", "survey is not accepting responses")
	}

	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return err
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	if len(answers) == 0 {
		return apperr.Invalid("invalid_payload", "no answers submitted")
	}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return apperr.Invalid("unknown_question", "answer references a question outside this survey")
		}
		switch q.Type {
		case QuestionScale:
			if a.AnswerScale == nil || *a.AnswerScale < 1 || *a.AnswerScale > 5 {
				return apperr.Invalid("invalid_answer", "scale answers must be between 1 and 5")
			}
		case QuestionText:
			if strings.TrimSpace(a.AnswerText) == "" {
				return apperr.Invalid("invalid_answer", "text answers cannot be empty")
			}
		}
	}

	if err := s.store.SubmitResponses(ctx, surveyID, actor.UserID, sv.Anonymous, answers); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("already_responded", "you have already responded to this survey")
		}
		return err
	}

	// The audit row records participation, never answer content; anonymous
	// surveys stay anonymous in the trail.
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "survey.respond", "survey", surveyID, nil, nil, true)
	return nil
}

// Results returns the raw responses; admin only.
func (s *Service) Results(ctx context.Context, actor auth.UserContext, surveyID string) (Survey, []Response, error) {
	sv, err := s.requireAdminSurvey(ctx, actor, surveyID)
	if err != nil {
		return Survey{}, nil, err
	}
	responses, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return Survey{}, nil, err
	}
	return sv, responses, nil
}
