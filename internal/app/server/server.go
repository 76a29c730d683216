package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/checkin"
	"teamspark/internal/domain/evaluation"
	"teamspark/internal/domain/identity"
	"teamspark/internal/domain/kudos"
	"teamspark/internal/domain/okr"
	"teamspark/internal/domain/reports"
	"teamspark/internal/domain/survey"
	"teamspark/internal/platform/config"
	"teamspark/internal/platform/db"
	"teamspark/internal/platform/jobs"
	"teamspark/internal/platform/slack"
	adminhandler "teamspark/internal/transport/http/handlers/admin"
	audithandler "teamspark/internal/transport/http/handlers/audit"
	authhandler "teamspark/internal/transport/http/handlers/auth"
	checkinshandler "teamspark/internal/transport/http/handlers/checkins"
	evaluationshandler "teamspark/internal/transport/http/handlers/evaluations"
	kudoshandler "teamspark/internal/transport/http/handlers/kudos"
	okrhandler "teamspark/internal/transport/http/handlers/okr"
	reportshandler "teamspark/internal/transport/http/handlers/reports"
	slackhandler "teamspark/internal/transport/http/handlers/slack"
	surveyshandler "teamspark/internal/transport/http/handlers/surveys"
	"teamspark/internal/transport/http/middleware"
)

// App wires the full service graph; tests construct it against a disposable
// database and drive Router directly.
type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler

	jobsClient *jobs.Client
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, findMigrationsDir()); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	jobsClient := jobs.NewClient(cfg)

	auditSvc := audit.New(audit.NewStore(pool))

	identityStore := identity.NewStore(pool)
	identitySvc := identity.NewService(identityStore, auditSvc)

	evaluationSvc := evaluation.NewService(evaluation.NewStore(pool), auditSvc).WithNotifier(jobsClient)
	okrSvc := okr.NewService(okr.NewStore(pool), auditSvc)
	kudosSvc := kudos.NewService(kudos.NewStore(pool), identityStore, auditSvc, jobsClient)
	checkinSvc := checkin.NewService(checkin.NewStore(pool), identityStore, auditSvc)
	surveySvc := survey.NewService(survey.NewStore(pool), auditSvc, jobsClient)
	reportsSvc := reports.NewService(pool, kudosSvc, checkinSvc)

	slackWeb := slack.NewClient(cfg.SlackBotToken)

	var counterStore middleware.CounterStore
	if cfg.RedisAddr != "" {
		counterStore = middleware.NewRedisCounterStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}))
	} else {
		counterStore = middleware.NewMemoryCounterStore()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, counterStore))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(identityStore, auditSvc, cfg).RegisterRoutes(r)
		adminhandler.NewHandler(identitySvc).RegisterRoutes(r)
		evaluationshandler.NewHandler(evaluationSvc, identityStore).RegisterRoutes(r)
		okrhandler.NewHandler(okrSvc).RegisterRoutes(r)
		kudoshandler.NewHandler(kudosSvc).RegisterRoutes(r)
		checkinshandler.NewHandler(checkinSvc).RegisterRoutes(r)
		surveyshandler.NewHandler(surveySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		slackhandler.NewHandler(cfg.SlackSigningSecret, identityStore, kudosSvc, slackWeb).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router, jobsClient: jobsClient}, nil
}

func (a *App) Close() {
	if a.jobsClient != nil {
		if err := a.jobsClient.Close(); err != nil {
			slog.Warn("jobs client close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// findMigrationsDir walks up from the working directory so tests running in
// package directories find the repository-root migrations.
func findMigrationsDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "migrations"
		}
		dir = parent
	}
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("app init failed: %v", err)
	}
	defer app.Close()

	slog.Info("server listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
