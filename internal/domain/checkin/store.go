package checkin

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, c CheckIn) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO checkins (org_id, user_id, week_start, achievements, challenges, next_week_plan, mood)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, c.OrgID, c.UserID, c.WeekStart, c.Achievements, c.Challenges, c.NextWeekPlan, c.Mood).Scan(&id)
	return id, err
}

func (s *Store) ListForUser(ctx context.Context, orgID, userID string, limit int) ([]CheckIn, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.org_id, c.user_id, u.name, c.week_start, c.achievements, c.challenges,
           c.next_week_plan, c.mood, c.created_at, c.updated_at
    FROM checkins c
    JOIN users u ON u.id = c.user_id
    WHERE c.org_id = $1 AND c.user_id = $2
    ORDER BY c.week_start DESC
    LIMIT $3
  `, orgID, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanCheckIns(rows)
}

// ListForUsers backs the manager view; userIDs come from the actor's managed
// team membership.
func (s *Store) ListForUsers(ctx context.Context, orgID string, userIDs []string, weekStart time.Time) ([]CheckIn, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.org_id, c.user_id, u.name, c.week_start, c.achievements, c.challenges,
           c.next_week_plan, c.mood, c.created_at, c.updated_at
    FROM checkins c
    JOIN users u ON u.id = c.user_id
    WHERE c.org_id = $1 AND c.user_id = ANY($2) AND c.week_start = $3
    ORDER BY u.name ASC
  `, orgID, userIDs, weekStart)
	if err != nil {
		return nil, err
	}
	return scanCheckIns(rows)
}

// WeekParticipation counts distinct submitters for the week, for the
// dashboard.
func (s *Store) WeekParticipation(ctx context.Context, orgID string, weekStart time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT user_id) FROM checkins WHERE org_id = $1 AND week_start = $2
  `, orgID, weekStart).Scan(&count)
	return count, err
}

func scanCheckIns(rows pgx.Rows) ([]CheckIn, error) {
	defer rows.Close()
	var out []CheckIn
	for rows.Next() {
		var c CheckIn
		if err := rows.Scan(&c.ID, &c.OrgID, &c.UserID, &c.UserName, &c.WeekStart, &c.Achievements,
			&c.Challenges, &c.NextWeekPlan, &c.Mood, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
