package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
)

type memStore struct {
	orgID   string
	evals   map[string]*Evaluation
	ratings map[string][]CompetencyRating
	cycles  map[string]Cycle
	nextID  int
}

func newMemStore(orgID string) *memStore {
	return &memStore{
		orgID:   orgID,
		evals:   map[string]*Evaluation{},
		ratings: map[string][]CompetencyRating{},
		cycles:  map[string]Cycle{"cycle-1": {ID: "cycle-1", OrgID: orgID, Name: "Q1", Status: CycleStatusActive}},
	}
}

func (m *memStore) seed(e Evaluation) {
	copied := e
	m.evals[e.ID] = &copied
}

func (m *memStore) GetEvaluation(_ context.Context, orgID, id string) (Evaluation, error) {
	if orgID != m.orgID {
		return Evaluation{}, pgx.ErrNoRows
	}
	eval, ok := m.evals[id]
	if !ok {
		return Evaluation{}, pgx.ErrNoRows
	}
	return *eval, nil
}

func (m *memStore) ListEvaluations(_ context.Context, orgID, cycleID, participantID string, _, _ int) ([]Evaluation, error) {
	var out []Evaluation
	if orgID != m.orgID {
		return nil, nil
	}
	for _, eval := range m.evals {
		if cycleID != "" && eval.CycleID != cycleID {
			continue
		}
		if participantID != "" && eval.EvaluateeID != participantID && eval.EvaluatorID != participantID && eval.ReviewerID != participantID {
			continue
		}
		out = append(out, *eval)
	}
	return out, nil
}

func (m *memStore) CreateEvaluation(_ context.Context, orgID, cycleID, evaluateeID, evaluatorID, reviewerID string) (string, error) {
	if orgID != m.orgID {
		return "", pgx.ErrNoRows
	}
	m.nextID++
	id := "eval-new"
	m.evals[id] = &Evaluation{ID: id, CycleID: cycleID, EvaluateeID: evaluateeID, EvaluatorID: evaluatorID, ReviewerID: reviewerID, Status: StatusDraft}
	return id, nil
}

func (m *memStore) UpdateDraft(_ context.Context, orgID, id string, update DraftUpdate) error {
	if orgID != m.orgID {
		return pgx.ErrNoRows
	}
	eval, ok := m.evals[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if update.OverallRating != nil {
		eval.OverallRating = update.OverallRating
	}
	if update.Comments != nil {
		eval.Comments = *update.Comments
	}
	if update.Ratings != nil {
		m.ratings[id] = append([]CompetencyRating(nil), update.Ratings...)
	}
	return nil
}

func (m *memStore) MarkSubmitted(_ context.Context, orgID, id string) error {
	return m.setStatus(orgID, id, StatusSubmitted)
}

func (m *memStore) MarkReviewed(_ context.Context, orgID, id, reviewerID string, rating *float64) error {
	if err := m.setStatus(orgID, id, StatusReviewed); err != nil {
		return err
	}
	now := time.Now()
	eval := m.evals[id]
	eval.ReviewedAt = &now
	eval.ReviewedBy = reviewerID
	if rating != nil {
		eval.OverallRating = rating
	}
	return nil
}

func (m *memStore) MarkRejected(_ context.Context, orgID, id, comments string) error {
	if err := m.setStatus(orgID, id, StatusDraft); err != nil {
		return err
	}
	eval := m.evals[id]
	eval.ReviewedAt = nil
	eval.ReviewedBy = ""
	eval.ManagerComments = comments
	return nil
}

func (m *memStore) MarkShared(_ context.Context, orgID, id string) error {
	if err := m.setStatus(orgID, id, StatusShared); err != nil {
		return err
	}
	now := time.Now()
	eval := m.evals[id]
	eval.SharedAt = &now
	eval.IsVisible = true
	return nil
}

func (m *memStore) setStatus(orgID, id string, status Status) error {
	if orgID != m.orgID {
		return pgx.ErrNoRows
	}
	eval, ok := m.evals[id]
	if !ok {
		return pgx.ErrNoRows
	}
	eval.Status = status
	return nil
}

func (m *memStore) DeleteEvaluation(_ context.Context, orgID, id string) error {
	if orgID != m.orgID {
		return pgx.ErrNoRows
	}
	if _, ok := m.evals[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.evals, id)
	return nil
}

func (m *memStore) ListRatings(_ context.Context, orgID, id string) ([]CompetencyRating, error) {
	if orgID != m.orgID {
		return nil, nil
	}
	return m.ratings[id], nil
}

func (m *memStore) GetCycle(_ context.Context, orgID, cycleID string) (Cycle, error) {
	if orgID != m.orgID {
		return Cycle{}, pgx.ErrNoRows
	}
	cycle, ok := m.cycles[cycleID]
	if !ok {
		return Cycle{}, pgx.ErrNoRows
	}
	return cycle, nil
}

func (m *memStore) ListCycles(_ context.Context, orgID string) ([]Cycle, error) {
	return nil, nil
}

func (m *memStore) CreateCycle(_ context.Context, orgID, name string, _, _ any, status string) (string, error) {
	return "cycle-new", nil
}

func (m *memStore) ListCompetencies(_ context.Context, orgID string) ([]Competency, error) {
	return nil, nil
}

func (m *memStore) CreateCompetency(_ context.Context, orgID, name, description string) (string, error) {
	return "comp-new", nil
}

type noopAuditStore struct{}

func (noopAuditStore) Insert(context.Context, audit.Event) error { return nil }
func (noopAuditStore) Count(context.Context, string, audit.Filter) (int, error) {
	return 0, nil
}
func (noopAuditStore) List(context.Context, string, audit.Filter, bool, int, int) ([]audit.Event, error) {
	return nil, nil
}
func (noopAuditStore) ListExport(context.Context, string) ([]audit.Event, error) {
	return nil, nil
}
func (noopAuditStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestService(store *memStore) *Service {
	return NewService(store, audit.New(noopAuditStore{}))
}

var (
	adminActor     = auth.UserContext{UserID: "u-admin", OrgID: "org-1", Role: auth.RoleAdmin}
	managerActor   = auth.UserContext{UserID: "u-mgr", OrgID: "org-1", Role: auth.RoleManager}
	evaluateeActor = auth.UserContext{UserID: "u-target", OrgID: "org-1", Role: auth.RoleMember}
	foreignActor   = auth.UserContext{UserID: "u-foreign", OrgID: "org-2", Role: auth.RoleAdmin}
)

func draftEvaluation() Evaluation {
	return Evaluation{
		ID:          "eval-1",
		CycleID:     "cycle-1",
		EvaluateeID: "u-target",
		EvaluatorID: "u-mgr",
		Status:      StatusDraft,
	}
}

func TestCrossOrgAccessIsNotFound(t *testing.T) {
	store := newMemStore("org-1")
	store.seed(draftEvaluation())
	svc := newTestService(store)

	_, _, err := svc.Get(context.Background(), foreignActor, "eval-1")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for cross-org access, got %v", err)
	}
}

func TestReviewRequiresSubmittedState(t *testing.T) {
	store := newMemStore("org-1")
	store.seed(draftEvaluation())
	svc := newTestService(store)

	_, err := svc.Review(context.Background(), managerActor, "eval-1", true, "", nil)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict reviewing a draft, got %v", err)
	}
	if store.evals["eval-1"].Status != StatusDraft {
		t.Fatalf("status must be unchanged after rejected transition, got %s", store.evals["eval-1"].Status)
	}
}

func TestFullWorkflow(t *testing.T) {
	store := newMemStore("org-1")
	store.seed(draftEvaluation())
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, evaluateeActor, "eval-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if store.evals["eval-1"].Status != StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", store.evals["eval-1"].Status)
	}

	updated, err := svc.Review(ctx, managerActor, "eval-1", true, "", nil)
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if updated.Status != StatusReviewed || updated.ReviewedBy != "u-mgr" || updated.ReviewedAt == nil {
		t.Fatalf("review fields not set: %+v", updated)
	}

	shared, err := svc.Share(ctx, managerActor, "eval-1")
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if shared.Status != StatusShared || !shared.IsVisible || shared.SharedAt == nil {
		t.Fatalf("share fields not set: %+v", shared)
	}

	// SHARED is terminal.
	if _, err := svc.Submit(ctx, evaluateeActor, "eval-1"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict submitting shared evaluation, got %v", err)
	}
}

func TestRejectReturnsToDraftAndClearsReviewFields(t *testing.T) {
	store := newMemStore("org-1")
	eval := draftEvaluation()
	eval.Status = StatusSubmitted
	store.seed(eval)
	svc := newTestService(store)

	updated, err := svc.Review(context.Background(), managerActor, "eval-1", false, "needs more detail", nil)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if updated.Status != StatusDraft {
		t.Fatalf("expected DRAFT after reject, got %s", updated.Status)
	}
	if updated.ReviewedAt != nil || updated.ReviewedBy != "" {
		t.Fatalf("review fields must be cleared: %+v", updated)
	}
	if updated.ManagerComments != "needs more detail" {
		t.Fatalf("manager comments not stored: %q", updated.ManagerComments)
	}
}

func TestRejectRequiresComments(t *testing.T) {
	store := newMemStore("org-1")
	eval := draftEvaluation()
	eval.Status = StatusSubmitted
	store.seed(eval)
	svc := newTestService(store)

	_, err := svc.Review(context.Background(), managerActor, "eval-1", false, "  ", nil)
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReviewRequiresManagerRole(t *testing.T) {
	store := newMemStore("org-1")
	eval := draftEvaluation()
	eval.Status = StatusSubmitted
	store.seed(eval)
	svc := newTestService(store)

	_, err := svc.Review(context.Background(), evaluateeActor, "eval-1", true, "", nil)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for member review, got %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	store := newMemStore("org-1")
	eval := draftEvaluation()
	eval.Status = StatusSubmitted
	store.seed(eval)
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Delete(ctx, adminActor, "eval-1"); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected validation error deleting non-draft, got %v", err)
	}
	if _, ok := store.evals["eval-1"]; !ok {
		t.Fatal("record must remain intact after failed delete")
	}

	store.evals["eval-1"].Status = StatusDraft
	if err := svc.Delete(ctx, managerActor, "eval-1"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden deleting draft as non-admin, got %v", err)
	}

	if err := svc.Delete(ctx, adminActor, "eval-1"); err != nil {
		t.Fatalf("admin draft delete failed: %v", err)
	}
	if _, ok := store.evals["eval-1"]; ok {
		t.Fatal("expected record gone after admin delete")
	}
}

func TestUpdateDraftReplacesRatingsIdempotently(t *testing.T) {
	store := newMemStore("org-1")
	store.seed(draftEvaluation())
	svc := newTestService(store)
	ctx := context.Background()

	ratings := []CompetencyRating{
		{CompetencyID: "c-1", Rating: 4, Comment: "solid"},
		{CompetencyID: "c-2", Rating: 3, Comment: "improving"},
	}
	if _, err := svc.UpdateDraft(ctx, evaluateeActor, "eval-1", DraftUpdate{Ratings: ratings}); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if _, err := svc.UpdateDraft(ctx, evaluateeActor, "eval-1", DraftUpdate{Ratings: ratings}); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if got := len(store.ratings["eval-1"]); got != 2 {
		t.Fatalf("expected 2 ratings after resubmission, got %d", got)
	}
}

func TestUpdateDraftRejectsNonDraft(t *testing.T) {
	store := newMemStore("org-1")
	eval := draftEvaluation()
	eval.Status = StatusSubmitted
	store.seed(eval)
	svc := newTestService(store)

	comments := "late edit"
	_, err := svc.UpdateDraft(context.Background(), evaluateeActor, "eval-1", DraftUpdate{Comments: &comments})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict editing non-draft, got %v", err)
	}
}

func TestUpdateDraftRejectsOutOfRangeRating(t *testing.T) {
	store := newMemStore("org-1")
	store.seed(draftEvaluation())
	svc := newTestService(store)

	_, err := svc.UpdateDraft(context.Background(), evaluateeActor, "eval-1", DraftUpdate{
		Ratings: []CompetencyRating{{CompetencyID: "c-1", Rating: 9}},
	})
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
