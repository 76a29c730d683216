package survey

import "time"

const (
	StatusDraft  = "DRAFT"
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

const (
	QuestionText  = "TEXT"
	QuestionScale = "SCALE"
)

type Survey struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Anonymous bool      `json:"anonymous"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	OpenedAt  *time.Time `json:"openedAt,omitempty"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

type Question struct {
	ID       string `json:"id"`
	SurveyID string `json:"surveyId"`
	Order    int    `json:"order"`
	Text     string `json:"text"`
	Type     string `json:"type"`
}

// Response carries no user id when the survey is anonymous.
type Response struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"surveyId"`
	QuestionID  string    `json:"questionId"`
	UserID      string    `json:"userId,omitempty"`
	AnswerText  string    `json:"answerText,omitempty"`
	AnswerScale *int      `json:"answerScale,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Answer is one submitted answer keyed by question.
type Answer struct {
	QuestionID  string `json:"questionId"`
	AnswerText  string `json:"answerText"`
	AnswerScale *int   `json:"answerScale"`
}
