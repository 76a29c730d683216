package okr

import "time"

const (
	OwnerCompany    = "COMPANY"
	OwnerTeam       = "TEAM"
	OwnerIndividual = "INDIVIDUAL"
)

const (
	ObjectiveStatusDraft     = "DRAFT"
	ObjectiveStatusActive    = "ACTIVE"
	ObjectiveStatusCompleted = "COMPLETED"
	ObjectiveStatusCancelled = "CANCELLED"
)

const (
	KeyResultMetric    = "METRIC"
	KeyResultMilestone = "MILESTONE"
)

const (
	MilestoneNotStarted = "NOT_STARTED"
	MilestoneInProgress = "IN_PROGRESS"
	MilestoneDone       = "DONE"
)

type Objective struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerType   string    `json:"ownerType"`
	OwnerTeamID string    `json:"ownerTeamId,omitempty"`
	OwnerUserID string    `json:"ownerUserId,omitempty"`
	ParentID    string    `json:"parentId,omitempty"`
	Status      string    `json:"status"`
	Quarter     string    `json:"quarter"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type KeyResult struct {
	ID              string   `json:"id"`
	ObjectiveID     string   `json:"objectiveId"`
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	StartValue      float64  `json:"startValue"`
	TargetValue     float64  `json:"targetValue"`
	CurrentValue    float64  `json:"currentValue"`
	MilestoneStatus string   `json:"milestoneStatus,omitempty"`
	Progress        float64  `json:"progress"`
	Confidence      *float64 `json:"confidence,omitempty"`
}

// CheckIn is an append-only progress snapshot; rows are never updated or
// deleted once written.
type CheckIn struct {
	ID           string    `json:"id"`
	KeyResultID  string    `json:"keyResultId"`
	CurrentValue float64   `json:"currentValue"`
	Progress     float64   `json:"progress"`
	Confidence   *float64  `json:"confidence,omitempty"`
	Comment      string    `json:"comment"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ObjectiveView is the read model: aggregates are derived on every read and
// never persisted.
type ObjectiveView struct {
	Objective
	KeyResults        []KeyResult `json:"keyResults"`
	AverageProgress   float64     `json:"averageProgress"`
	AverageConfidence *float64    `json:"averageConfidence,omitempty"`
}
