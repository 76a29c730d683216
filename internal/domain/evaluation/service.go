package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
)

// Notifier tells the evaluatee their evaluation is visible; nil disables it.
type Notifier interface {
	EvaluationShared(ctx context.Context, orgID, evaluateeID, evaluationID, cycleName string) error
}

type Service struct {
	store    StoreIface
	audit    *audit.Service
	notifier Notifier
}

func NewService(store StoreIface, auditSvc *audit.Service) *Service {
	return &Service{store: store, audit: auditSvc}
}

// WithNotifier enables share notifications.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) access(e Evaluation) auth.EvaluationAccess {
	return auth.EvaluationAccess{
		EvaluateeID: e.EvaluateeID,
		EvaluatorID: e.EvaluatorID,
		ReviewerID:  e.ReviewerID,
		Status:      string(e.Status),
		IsVisible:   e.IsVisible,
	}
}

// load fetches an evaluation scoped to the actor's organization. Missing and
// cross-organization records are indistinguishable to the caller (404).
func (s *Service) load(ctx context.Context, actor auth.UserContext, evaluationID string) (Evaluation, error) {
	eval, err := s.store.GetEvaluation(ctx, actor.OrgID, evaluationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, apperr.NotFound("evaluation_not_found", "evaluation not found")
	}
	if err != nil {
		return Evaluation{}, err
	}
	return eval, nil
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, evaluationID string) (Evaluation, []CompetencyRating, error) {
	eval, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, nil, err
	}
	if !auth.CanViewEvaluation(actor, s.access(eval)) {
		return Evaluation{}, nil, apperr.Forbidden("forbidden", "you cannot view this evaluation")
	}
	ratings, err := s.store.ListRatings(ctx, actor.OrgID, evaluationID)
	if err != nil {
		return Evaluation{}, nil, err
	}
	return eval, ratings, nil
}

func (s *Service) List(ctx context.Context, actor auth.UserContext, cycleID string, limit, offset int) ([]Evaluation, error) {
	participantID := ""
	if actor.Role == auth.RoleMember {
		participantID = actor.UserID
	}
	evals, err := s.store.ListEvaluations(ctx, actor.OrgID, cycleID, participantID, limit, offset)
	if err != nil {
		return nil, err
	}
	// Members see their own evaluations only once shared, unless they are the
	// evaluator on someone else's.
	if actor.Role == auth.RoleMember {
		filtered := evals[:0]
		for _, eval := range evals {
			if auth.CanViewEvaluation(actor, s.access(eval)) {
				filtered = append(filtered, eval)
			}
		}
		evals = filtered
	}
	return evals, nil
}

func (s *Service) Create(ctx context.Context, actor auth.UserContext, cycleID, evaluateeID, evaluatorID, reviewerID string) (string, error) {
	if !auth.CanReviewEvaluation(actor.Role) {
		return "", apperr.Forbidden("forbidden", "admin or manager role required")
	}
	if evaluateeID == "" || evaluatorID == "" {
		return "", apperr.Invalid("invalid_payload", "evaluatee and evaluator are required")
	}
	if _, err := s.store.GetCycle(ctx, actor.OrgID, cycleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("cycle_not_found", "evaluation cycle not found")
		}
		return "", err
	}

	id, err := s.store.CreateEvaluation(ctx, actor.OrgID, cycleID, evaluateeID, evaluatorID, reviewerID)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.create", "evaluation", id, nil,
		map[string]string{"cycleId": cycleID, "evaluateeId": evaluateeID, "evaluatorId": evaluatorID}, true)
	return id, nil
}

// UpdateDraft edits evaluation fields while in DRAFT, replacing the full
// competency rating set when one is submitted.
func (s *Service) UpdateDraft(ctx context.Context, actor auth.UserContext, evaluationID string, update DraftUpdate) (Evaluation, error) {
	eval, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	if !auth.CanEditEvaluation(actor, s.access(eval)) {
		return Evaluation{}, apperr.Forbidden("forbidden", "you cannot edit this evaluation")
	}
	if eval.Status != StatusDraft {
		return Evaluation{}, apperr.Conflict("not_draft", "only draft evaluations can be edited")
	}
	if update.OverallRating != nil && (*update.OverallRating < 1 || *update.OverallRating > 5) {
		return Evaluation{}, apperr.Invalid("invalid_rating", "overall rating must be between 1 and 5")
	}
	for _, rating := range update.Ratings {
		if rating.CompetencyID == "" {
			return Evaluation{}, apperr.Invalid("invalid_payload", "competency id required on each rating")
		}
		if rating.Rating < 1 || rating.Rating > 5 {
			return Evaluation{}, apperr.Invalid("invalid_rating", "competency ratings must be between 1 and 5")
		}
	}

	if err := s.store.UpdateDraft(ctx, actor.OrgID, evaluationID, update); err != nil {
		return Evaluation{}, err
	}

	updated, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.update", "evaluation", evaluationID, eval, updated, true)
	return updated, nil
}

// Submit moves a draft to SUBMITTED; the evaluatee's action.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, evaluationID string) (Evaluation, error) {
	eval, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	if !auth.CanEditEvaluation(actor, s.access(eval)) {
		return Evaluation{}, apperr.Forbidden("forbidden", "you cannot submit this evaluation")
	}
	if err := GuardTransition(eval.Status, StatusSubmitted); err != nil {
		return Evaluation{}, err
	}

	if err := s.store.MarkSubmitted(ctx, actor.OrgID, evaluationID); err != nil {
		return Evaluation{}, err
	}
	updated, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.submit", "evaluation", evaluationID,
		map[string]string{"status": string(eval.Status)}, map[string]string{"status": string(updated.Status)}, true)
	return updated, nil
}

// Review approves (SUBMITTED -> REVIEWED) or rejects (SUBMITTED -> DRAFT,
// clearing review fields and storing manager comments).
func (s *Service) Review(ctx context.Context, actor auth.UserContext, evaluationID string, approved bool, managerComments string, overallRating *float64) (Evaluation, error) {
	if !auth.CanReviewEvaluation(actor.Role) {
		return Evaluation{}, apperr.Forbidden("forbidden", "admin or manager role required")
	}
	eval, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}

	if approved {
		if err := GuardTransition(eval.Status, StatusReviewed); err != nil {
			return Evaluation{}, err
		}
		if err := s.store.MarkReviewed(ctx, actor.OrgID, evaluationID, actor.UserID, overallRating); err != nil {
			return Evaluation{}, err
		}
	} else {
		if err := GuardTransition(eval.Status, StatusDraft); err != nil {
			return Evaluation{}, err
		}
		if strings.TrimSpace(managerComments) == "" {
			return Evaluation{}, apperr.Invalid("invalid_payload", "manager comments are required when rejecting")
		}
		if err := s.store.MarkRejected(ctx, actor.OrgID, evaluationID, managerComments); err != nil {
			return Evaluation{}, err
		}
	}

	updated, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	action := "evaluation.review.approve"
	if !approved {
		action = "evaluation.review.reject"
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, action, "evaluation", evaluationID,
		map[string]string{"status": string(eval.Status)}, map[string]string{"status": string(updated.Status)}, true)
	return updated, nil
}

// Share makes a reviewed evaluation visible to the evaluatee.
func (s *Service) Share(ctx context.Context, actor auth.UserContext, evaluationID string) (Evaluation, error) {
	if !auth.CanReviewEvaluation(actor.Role) {
		return Evaluation{}, apperr.Forbidden("forbidden", "admin or manager role required")
	}
	eval, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	if err := GuardTransition(eval.Status, StatusShared); err != nil {
		return Evaluation{}, err
	}

	if err := s.store.MarkShared(ctx, actor.OrgID, evaluationID); err != nil {
		return Evaluation{}, err
	}
	updated, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.share", "evaluation", evaluationID,
		map[string]string{"status": string(eval.Status)}, map[string]string{"status": string(updated.Status)}, true)

	if s.notifier != nil {
		cycleName := ""
		if cycle, err := s.store.GetCycle(ctx, actor.OrgID, updated.CycleID); err == nil {
			cycleName = cycle.Name
		}
		if err := s.notifier.EvaluationShared(ctx, actor.OrgID, updated.EvaluateeID, evaluationID, cycleName); err != nil {
			slog.Warn("evaluation share notification failed", "error", err, "evaluationId", evaluationID)
		}
	}
	return updated, nil
}

// Delete removes an evaluation. Only drafts can go, and only an admin can
// remove them: the status check fires first so a non-draft delete reads as a
// validation failure regardless of role.
func (s *Service) Delete(ctx context.Context, actor auth.UserContext, evaluationID string) error {
	eval, err := s.load(ctx, actor, evaluationID)
	if err != nil {
		return err
	}
	if eval.Status != StatusDraft {
		return apperr.Invalid("not_draft", "only draft evaluations can be deleted")
	}
	if actor.Role != auth.RoleAdmin {
		return apperr.Forbidden("forbidden", "admin role required")
	}

	if err := s.store.DeleteEvaluation(ctx, actor.OrgID, evaluationID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.delete", "evaluation", evaluationID, eval, nil, true)
	return nil
}

func (s *Service) ListCycles(ctx context.Context, actor auth.UserContext) ([]Cycle, error) {
	return s.store.ListCycles(ctx, actor.OrgID)
}

func (s *Service) CreateCycle(ctx context.Context, actor auth.UserContext, name string, start, end time.Time) (string, error) {
	if actor.Role != auth.RoleAdmin {
		return "", apperr.Forbidden("forbidden", "admin role required")
	}
	if strings.TrimSpace(name) == "" {
		return "", apperr.Invalid("invalid_payload", "cycle name required")
	}
	if end.Before(start) {
		return "", apperr.Invalid("invalid_payload", "cycle end date must not precede start date")
	}
	id, err := s.store.CreateCycle(ctx, actor.OrgID, name, start, end, CycleStatusActive)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.cycle.create", "evaluation_cycle", id, nil,
		map[string]string{"name": name}, true)
	return id, nil
}

func (s *Service) ListCompetencies(ctx context.Context, actor auth.UserContext) ([]Competency, error) {
	return s.store.ListCompetencies(ctx, actor.OrgID)
}

func (s *Service) CreateCompetency(ctx context.Context, actor auth.UserContext, name, description string) (string, error) {
	if actor.Role != auth.RoleAdmin {
		return "", apperr.Forbidden("forbidden", "admin role required")
	}
	if strings.TrimSpace(name) == "" {
		return "", apperr.Invalid("invalid_payload", "competency name required")
	}
	id, err := s.store.CreateCompetency(ctx, actor.OrgID, name, description)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "evaluation.competency.create", "competency", id, nil,
		map[string]string{"name": name}, true)
	return id, nil
}
