package evaluation

import "time"

type Cycle struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	CycleStatusDraft  = "DRAFT"
	CycleStatusActive = "ACTIVE"
	CycleStatusClosed = "CLOSED"
)

type Evaluation struct {
	ID              string     `json:"id"`
	CycleID         string     `json:"cycleId"`
	EvaluateeID     string     `json:"evaluateeId"`
	EvaluatorID     string     `json:"evaluatorId"`
	ReviewerID      string     `json:"reviewerId,omitempty"`
	Status          Status     `json:"status"`
	OverallRating   *float64   `json:"overallRating,omitempty"`
	Comments        string     `json:"comments"`
	ManagerComments string     `json:"managerComments,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	SharedAt        *time.Time `json:"sharedAt,omitempty"`
	IsVisible       bool       `json:"isVisible"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Competency struct {
	ID          string `json:"id"`
	OrgID       string `json:"orgId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CompetencyRating struct {
	EvaluationID string  `json:"evaluationId"`
	CompetencyID string  `json:"competencyId"`
	Rating       float64 `json:"rating"`
	Comment      string  `json:"comment"`
}

// DraftUpdate is the mutable surface while an evaluation is in DRAFT. A nil
// Ratings slice leaves existing competency ratings alone; a non-nil slice
// replaces them wholesale.
type DraftUpdate struct {
	OverallRating *float64
	Comments      *string
	Ratings       []CompetencyRating
}
