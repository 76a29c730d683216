package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/identity"
	"teamspark/internal/domain/notifications"
	"teamspark/internal/platform/config"
)

// Worker processes notification and maintenance tasks off the request path.
type Worker struct {
	cfg    config.Config
	server *asynq.Server
	users  *identity.Store
	mailer notifications.Mailer
	audit  *audit.Service
}

func NewWorker(cfg config.Config, users *identity.Store, mailer notifications.Mailer, auditSvc *audit.Service) (*Worker, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required to run the worker")
	}
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
		asynq.Config{Concurrency: cfg.WorkerConcurrency},
	)
	return &Worker{cfg: cfg, server: server, users: users, mailer: mailer, audit: auditSvc}, nil
}

func (w *Worker) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeKudosReceived, w.handleKudosReceived)
	mux.HandleFunc(TypeSurveyPublished, w.handleSurveyPublished)
	mux.HandleFunc(TypeEvaluationShared, w.handleEvaluationShared)
	mux.HandleFunc(TypeAuditRetention, w.handleAuditRetention)
	return w.server.Run(mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleKudosReceived(ctx context.Context, task *asynq.Task) error {
	var p KudosReceivedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode kudos payload: %w", err)
	}
	email, _, err := w.users.UserEmail(ctx, p.OrgID, p.ToUserID)
	if err != nil {
		// Recipient may have been deleted between enqueue and delivery.
		slog.Warn("kudos notification recipient lookup failed", "userId", p.ToUserID, "err", err)
		return nil
	}
	subject, body := notifications.KudosReceivedMessage(p.FromName, p.Category, p.Message)
	return w.mailer.Send(ctx, w.cfg.EmailFrom, email, subject, body)
}

func (w *Worker) handleSurveyPublished(ctx context.Context, task *asynq.Task) error {
	var p SurveyPublishedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode survey payload: %w", err)
	}
	emails, err := w.users.ActiveUserEmails(ctx, p.OrgID)
	if err != nil {
		return err
	}
	link := w.cfg.AppBaseURL + "/surveys/" + p.SurveyID
	subject, body := notifications.SurveyPublishedMessage(p.Title, link)
	for _, email := range emails {
		if err := w.mailer.Send(ctx, w.cfg.EmailFrom, email, subject, body); err != nil {
			slog.Warn("survey notification send failed", "to", email, "err", err)
		}
	}
	return nil
}

func (w *Worker) handleEvaluationShared(ctx context.Context, task *asynq.Task) error {
	var p EvaluationSharedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode evaluation payload: %w", err)
	}
	email, _, err := w.users.UserEmail(ctx, p.OrgID, p.EvaluateeID)
	if err != nil {
		slog.Warn("evaluation notification recipient lookup failed", "userId", p.EvaluateeID, "err", err)
		return nil
	}
	link := w.cfg.AppBaseURL + "/evaluations/" + p.EvaluationID
	subject, body := notifications.EvaluationSharedMessage(p.CycleName, link)
	return w.mailer.Send(ctx, w.cfg.EmailFrom, email, subject, body)
}

func (w *Worker) handleAuditRetention(ctx context.Context, _ *asynq.Task) error {
	deleted, err := w.audit.RunRetention(ctx, w.cfg.AuditRetentionDays)
	if err != nil {
		return err
	}
	slog.Info("audit retention completed", "deleted", deleted, "retentionDays", w.cfg.AuditRetentionDays)
	return nil
}

// NewScheduler registers the periodic maintenance tasks. Retention runs
// nightly.
func NewScheduler(cfg config.Config) (*asynq.Scheduler, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required to run the scheduler")
	}
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
		nil,
	)
	if _, err := scheduler.Register("0 3 * * *", NewAuditRetentionTask()); err != nil {
		return nil, err
	}
	return scheduler, nil
}
