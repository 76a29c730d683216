package evaluation

import "context"

// ErrNotFound is signalled by stores as pgx.ErrNoRows; the service translates
// it so handlers see only apperr kinds.
type StoreIface interface {
	GetEvaluation(ctx context.Context, orgID, evaluationID string) (Evaluation, error)
	ListEvaluations(ctx context.Context, orgID, cycleID, participantID string, limit, offset int) ([]Evaluation, error)
	CreateEvaluation(ctx context.Context, orgID, cycleID, evaluateeID, evaluatorID, reviewerID string) (string, error)
	UpdateDraft(ctx context.Context, orgID, evaluationID string, update DraftUpdate) error
	MarkSubmitted(ctx context.Context, orgID, evaluationID string) error
	MarkReviewed(ctx context.Context, orgID, evaluationID, reviewerID string, overallRating *float64) error
	MarkRejected(ctx context.Context, orgID, evaluationID, managerComments string) error
	MarkShared(ctx context.Context, orgID, evaluationID string) error
	DeleteEvaluation(ctx context.Context, orgID, evaluationID string) error
	ListRatings(ctx context.Context, orgID, evaluationID string) ([]CompetencyRating, error)

	GetCycle(ctx context.Context, orgID, cycleID string) (Cycle, error)
	ListCycles(ctx context.Context, orgID string) ([]Cycle, error)
	CreateCycle(ctx context.Context, orgID, name string, start, end any, status string) (string, error)

	ListCompetencies(ctx context.Context, orgID string) ([]Competency, error)
	CreateCompetency(ctx context.Context, orgID, name, description string) (string, error)
}
