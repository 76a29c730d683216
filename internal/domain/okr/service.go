package okr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
)

type Service struct {
	store *Store
	audit *audit.Service
}

func NewService(store *Store, auditSvc *audit.Service) *Service {
	return &Service{store: store, audit: auditSvc}
}

func (s *Service) loadObjective(ctx context.Context, actor auth.UserContext, objectiveID string) (Objective, error) {
	objective, err := s.store.GetObjective(ctx, actor.OrgID, objectiveID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Objective{}, apperr.NotFound("objective_not_found", "objective not found")
	}
	return objective, err
}

// GetObjectiveView assembles the read model; aggregate progress and
// confidence are recomputed on every read.
func (s *Service) GetObjectiveView(ctx context.Context, actor auth.UserContext, objectiveID string) (ObjectiveView, error) {
	objective, err := s.loadObjective(ctx, actor, objectiveID)
	if err != nil {
		return ObjectiveView{}, err
	}
	keyResults, err := s.store.ListKeyResults(ctx, actor.OrgID, objectiveID)
	if err != nil {
		return ObjectiveView{}, err
	}
	return ObjectiveView{
		Objective:         objective,
		KeyResults:        keyResults,
		AverageProgress:   AverageProgress(keyResults),
		AverageConfidence: AverageConfidence(keyResults),
	}, nil
}

func (s *Service) ListObjectives(ctx context.Context, actor auth.UserContext, ownerType, ownerID, quarter string) ([]Objective, error) {
	return s.store.ListObjectives(ctx, actor.OrgID, ownerType, ownerID, quarter)
}

func validateOwner(o Objective) error {
	switch o.OwnerType {
	case OwnerCompany:
		if o.OwnerTeamID != "" || o.OwnerUserID != "" {
			return apperr.Invalid("invalid_owner", "company objectives carry no team or user owner")
		}
	case OwnerTeam:
		if o.OwnerTeamID == "" || o.OwnerUserID != "" {
			return apperr.Invalid("invalid_owner", "team objectives require exactly a team owner")
		}
	case OwnerIndividual:
		if o.OwnerUserID == "" || o.OwnerTeamID != "" {
			return apperr.Invalid("invalid_owner", "individual objectives require exactly a user owner")
		}
	default:
		return apperr.Invalid("invalid_owner", "owner type must be COMPANY, TEAM or INDIVIDUAL")
	}
	return nil
}

func (s *Service) canManageObjective(actor auth.UserContext, o Objective) bool {
	switch o.OwnerType {
	case OwnerCompany:
		return actor.Role == auth.RoleAdmin
	case OwnerTeam:
		return actor.Role == auth.RoleAdmin || actor.Role == auth.RoleManager
	case OwnerIndividual:
		return actor.Role == auth.RoleAdmin || actor.Role == auth.RoleManager || actor.UserID == o.OwnerUserID
	}
	return false
}

func (s *Service) CreateObjective(ctx context.Context, actor auth.UserContext, o Objective) (string, error) {
	o.OrgID = actor.OrgID
	if strings.TrimSpace(o.Title) == "" {
		return "", apperr.Invalid("invalid_payload", "objective title required")
	}
	if err := validateOwner(o); err != nil {
		return "", err
	}
	if !s.canManageObjective(actor, o) {
		return "", apperr.Forbidden("forbidden", "you cannot create this objective")
	}
	if o.Status == "" {
		o.Status = ObjectiveStatusDraft
	}
	if o.Status != ObjectiveStatusDraft && o.Status != ObjectiveStatusActive {
		return "", apperr.Invalid("invalid_payload", "new objectives start as DRAFT or ACTIVE")
	}
	if o.ParentID != "" {
		if _, err := s.loadObjective(ctx, actor, o.ParentID); err != nil {
			return "", err
		}
	}

	id, err := s.store.CreateObjective(ctx, o)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.objective.create", "objective", id, nil, o, true)
	return id, nil
}

func (s *Service) UpdateObjectiveStatus(ctx context.Context, actor auth.UserContext, objectiveID, status string) error {
	objective, err := s.loadObjective(ctx, actor, objectiveID)
	if err != nil {
		return err
	}
	if !s.canManageObjective(actor, objective) {
		return apperr.Forbidden("forbidden", "you cannot update this objective")
	}
	switch status {
	case ObjectiveStatusDraft, ObjectiveStatusActive, ObjectiveStatusCompleted, ObjectiveStatusCancelled:
	default:
		return apperr.Invalid("invalid_payload", "unknown objective status")
	}
	if objective.Status == ObjectiveStatusCancelled {
		return apperr.Conflict("cancelled", "cancelled objectives cannot change status")
	}

	if err := s.store.UpdateObjectiveStatus(ctx, actor.OrgID, objectiveID, status); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.objective.status", "objective", objectiveID,
		map[string]string{"status": objective.Status}, map[string]string{"status": status}, true)
	return nil
}

// DeleteObjective hard-deletes drafts only. Anything that has been ACTIVE is
// soft-cancelled so history stays intact.
func (s *Service) DeleteObjective(ctx context.Context, actor auth.UserContext, objectiveID string) error {
	objective, err := s.loadObjective(ctx, actor, objectiveID)
	if err != nil {
		return err
	}
	if !s.canManageObjective(actor, objective) {
		return apperr.Forbidden("forbidden", "you cannot delete this objective")
	}

	if objective.Status == ObjectiveStatusDraft {
		if err := s.store.DeleteObjective(ctx, actor.OrgID, objectiveID); err != nil {
			return err
		}
		s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.objective.delete", "objective", objectiveID, objective, nil, true)
		return nil
	}

	if objective.Status == ObjectiveStatusCancelled {
		return apperr.Conflict("cancelled", "objective is already cancelled")
	}
	if err := s.store.UpdateObjectiveStatus(ctx, actor.OrgID, objectiveID, ObjectiveStatusCancelled); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.objective.cancel", "objective", objectiveID,
		map[string]string{"status": objective.Status}, map[string]string{"status": ObjectiveStatusCancelled}, true)
	return nil
}

func (s *Service) CreateKeyResult(ctx context.Context, actor auth.UserContext, kr KeyResult) (string, error) {
	objective, err := s.loadObjective(ctx, actor, kr.ObjectiveID)
	if err != nil {
		return "", err
	}
	if !s.canManageObjective(actor, objective) {
		return "", apperr.Forbidden("forbidden", "you cannot add key results to this objective")
	}
	if strings.TrimSpace(kr.Title) == "" {
		return "", apperr.Invalid("invalid_payload", "key result title required")
	}

	switch kr.Type {
	case KeyResultMetric:
		kr.CurrentValue = kr.StartValue
		kr.Progress = MetricProgress(kr.StartValue, kr.TargetValue, kr.CurrentValue)
		kr.MilestoneStatus = ""
	case KeyResultMilestone:
		if kr.MilestoneStatus == "" {
			kr.MilestoneStatus = MilestoneNotStarted
		}
		kr.Progress = clamp(kr.Progress, 0, 1)
	default:
		return "", apperr.Invalid("invalid_payload", "key result type must be METRIC or MILESTONE")
	}

	id, err := s.store.CreateKeyResult(ctx, actor.OrgID, kr)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.keyresult.create", "key_result", id, nil, kr, true)
	return id, nil
}

// UpdateKeyResult recomputes METRIC progress from the value range; MILESTONE
// progress is taken as given alongside its status.
func (s *Service) UpdateKeyResult(ctx context.Context, actor auth.UserContext, keyResultID string, currentValue *float64, milestoneStatus string, progress, confidence *float64, title *string) (KeyResult, error) {
	kr, err := s.loadKeyResult(ctx, actor, keyResultID)
	if err != nil {
		return KeyResult{}, err
	}
	objective, err := s.loadObjective(ctx, actor, kr.ObjectiveID)
	if err != nil {
		return KeyResult{}, err
	}
	if !s.canManageObjective(actor, objective) {
		return KeyResult{}, apperr.Forbidden("forbidden", "you cannot update this key result")
	}

	before := kr
	if title != nil {
		kr.Title = *title
	}
	if confidence != nil {
		kr.Confidence = confidence
	}

	switch kr.Type {
	case KeyResultMetric:
		if currentValue != nil {
			kr.CurrentValue = *currentValue
		}
		kr.Progress = MetricProgress(kr.StartValue, kr.TargetValue, kr.CurrentValue)
	case KeyResultMilestone:
		if milestoneStatus != "" {
			switch milestoneStatus {
			case MilestoneNotStarted, MilestoneInProgress, MilestoneDone:
				kr.MilestoneStatus = milestoneStatus
			default:
				return KeyResult{}, apperr.Invalid("invalid_payload", "unknown milestone status")
			}
		}
		if progress != nil {
			kr.Progress = clamp(*progress, 0, 1)
		}
		if kr.MilestoneStatus == MilestoneDone {
			kr.Progress = 1
		}
	}

	if err := s.store.UpdateKeyResult(ctx, actor.OrgID, kr); err != nil {
		return KeyResult{}, err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.keyresult.update", "key_result", keyResultID, before, kr, true)
	return kr, nil
}

func (s *Service) loadKeyResult(ctx context.Context, actor auth.UserContext, keyResultID string) (KeyResult, error) {
	kr, err := s.store.GetKeyResult(ctx, actor.OrgID, keyResultID)
	if errors.Is(err, pgx.ErrNoRows) {
		return KeyResult{}, apperr.NotFound("key_result_not_found", "key result not found")
	}
	return kr, err
}

// CheckIn appends a progress snapshot and refreshes the parent key result's
// cached progress atomically.
func (s *Service) CheckIn(ctx context.Context, actor auth.UserContext, keyResultID string, currentValue float64, confidence *float64, comment string) (CheckIn, error) {
	kr, err := s.loadKeyResult(ctx, actor, keyResultID)
	if err != nil {
		return CheckIn{}, err
	}
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return CheckIn{}, apperr.Invalid("invalid_payload", "confidence must be between 0 and 1")
	}

	progress := kr.Progress
	if kr.Type == KeyResultMetric {
		progress = MetricProgress(kr.StartValue, kr.TargetValue, currentValue)
	}

	checkIn := CheckIn{
		KeyResultID:  keyResultID,
		CurrentValue: currentValue,
		Progress:     progress,
		Confidence:   confidence,
		Comment:      comment,
		CreatedBy:    actor.UserID,
	}
	id, err := s.store.CreateCheckIn(ctx, actor.OrgID, checkIn)
	if err != nil {
		return CheckIn{}, err
	}
	checkIn.ID = id
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "okr.checkin.create", "okr_checkin", id, nil, checkIn, true)
	return checkIn, nil
}

func (s *Service) ListCheckIns(ctx context.Context, actor auth.UserContext, keyResultID string) ([]CheckIn, error) {
	if _, err := s.loadKeyResult(ctx, actor, keyResultID); err != nil {
		return nil, err
	}
	return s.store.ListCheckIns(ctx, actor.OrgID, keyResultID)
}
