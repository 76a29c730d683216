package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"teamspark/internal/platform/config"
)

// Client enqueues notification tasks. A nil inner client (no Redis
// configured) turns every enqueue into a no-op, so callers never branch on
// whether background jobs are available.
type Client struct {
	inner *asynq.Client
}

func NewClient(cfg config.Config) *Client {
	if cfg.RedisAddr == "" {
		return &Client{}
	}
	return &Client{inner: asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})}
}

func (c *Client) Close() error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) error {
	if c.inner == nil {
		return nil
	}
	_, err := c.inner.EnqueueContext(ctx, task)
	return err
}

func (c *Client) KudosReceived(ctx context.Context, orgID, toUserID, fromName, category, message string) error {
	task, err := NewKudosReceivedTask(KudosReceivedPayload{
		OrgID:    orgID,
		ToUserID: toUserID,
		FromName: fromName,
		Category: category,
		Message:  message,
	})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) SurveyPublished(ctx context.Context, orgID, surveyID, title string) error {
	task, err := NewSurveyPublishedTask(SurveyPublishedPayload{OrgID: orgID, SurveyID: surveyID, Title: title})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) EvaluationShared(ctx context.Context, orgID, evaluateeID, evaluationID, cycleName string) error {
	task, err := NewEvaluationSharedTask(EvaluationSharedPayload{
		OrgID:        orgID,
		EvaluateeID:  evaluateeID,
		EvaluationID: evaluationID,
		CycleName:    cycleName,
	})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}
