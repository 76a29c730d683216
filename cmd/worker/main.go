package main

import (
	"context"
	"log"
	"log/slog"

	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/identity"
	"teamspark/internal/platform/config"
	"teamspark/internal/platform/db"
	"teamspark/internal/platform/email"
	"teamspark/internal/platform/jobs"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	users := identity.NewStore(pool)
	mailer := email.New(cfg)
	auditSvc := audit.New(audit.NewStore(pool))

	worker, err := jobs.NewWorker(cfg, users, mailer, auditSvc)
	if err != nil {
		log.Fatalf("worker init failed: %v", err)
	}

	scheduler, err := jobs.NewScheduler(cfg)
	if err != nil {
		log.Fatalf("scheduler init failed: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler stopped", "err", err)
		}
	}()

	slog.Info("worker starting", "concurrency", cfg.WorkerConcurrency)
	if err := worker.Run(); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
}
