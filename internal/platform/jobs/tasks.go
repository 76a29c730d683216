package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeKudosReceived    = "notify:kudos_received"
	TypeSurveyPublished  = "notify:survey_published"
	TypeEvaluationShared = "notify:evaluation_shared"
	TypeCheckInReminder  = "notify:checkin_reminder"
	TypeAuditRetention   = "audit:retention"
)

type KudosReceivedPayload struct {
	OrgID    string `json:"orgId"`
	ToUserID string `json:"toUserId"`
	FromName string `json:"fromName"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type SurveyPublishedPayload struct {
	OrgID    string `json:"orgId"`
	SurveyID string `json:"surveyId"`
	Title    string `json:"title"`
}

type EvaluationSharedPayload struct {
	OrgID        string `json:"orgId"`
	EvaluateeID  string `json:"evaluateeId"`
	EvaluationID string `json:"evaluationId"`
	CycleName    string `json:"cycleName"`
}

func NewKudosReceivedTask(p KudosReceivedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeKudosReceived, payload), nil
}

func NewSurveyPublishedTask(p SurveyPublishedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSurveyPublished, payload), nil
}

func NewEvaluationSharedTask(p EvaluationSharedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvaluationShared, payload), nil
}

func NewAuditRetentionTask() *asynq.Task {
	return asynq.NewTask(TypeAuditRetention, nil)
}

func NewCheckInReminderTask() *asynq.Task {
	return asynq.NewTask(TypeCheckInReminder, nil)
}
