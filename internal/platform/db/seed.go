package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamspark/internal/domain/auth"
	"teamspark/internal/platform/config"
)

// Seed ensures the default organization, its admin account, and the baseline
// competency set exist. Idempotent; safe to run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	orgID, err := ensureOrganization(ctx, pool, cfg.SeedOrgName)
	if err != nil {
		return err
	}

	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := ensureAdminUser(ctx, pool, orgID, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}

	return ensureCompetencies(ctx, pool, orgID)
}

func ensureOrganization(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, orgID, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE org_id = $1 AND lower(email) = lower($2)", orgID, email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (org_id, email, name, role, active, password_hash)
    VALUES ($1, lower($2), 'Administrator', $3, TRUE, $4)
  `, orgID, email, auth.RoleAdmin, hash)
	return err
}

func ensureCompetencies(ctx context.Context, pool *pgxpool.Pool, orgID string) error {
	defaults := map[string]string{
		"Communication":  "Shares information clearly and listens well",
		"Ownership":      "Takes responsibility for outcomes end to end",
		"Craftsmanship":  "Produces high quality, maintainable work",
		"Collaboration":  "Works effectively across team boundaries",
		"Growth Mindset": "Seeks feedback and keeps improving",
	}
	for name, description := range defaults {
		if _, err := pool.Exec(ctx, `
      INSERT INTO competencies (org_id, name, description)
      VALUES ($1, $2, $3)
      ON CONFLICT (org_id, name) DO NOTHING
    `, orgID, name, description); err != nil {
			return err
		}
	}
	return nil
}
