package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/auth"
	"teamspark/internal/domain/checkin"
	"teamspark/internal/domain/kudos"
)

// Summary is the org dashboard, computed on read.
type Summary struct {
	KudosByCategory    map[string]int `json:"kudosByCategory"`
	EvaluationByStatus map[string]int `json:"evaluationByStatus"`
	ActiveCycleID      string         `json:"activeCycleId,omitempty"`
	Objectives         OKRStats       `json:"objectives"`
	CheckInsThisWeek   int            `json:"checkInsThisWeek"`
	ActiveUsers        int            `json:"activeUsers"`
}

type OKRStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type Service struct {
	db       *pgxpool.Pool
	kudos    *kudos.Service
	checkins *checkin.Service
}

func NewService(db *pgxpool.Pool, kudosSvc *kudos.Service, checkinSvc *checkin.Service) *Service {
	return &Service{db: db, kudos: kudosSvc, checkins: checkinSvc}
}

func (s *Service) Dashboard(ctx context.Context, actor auth.UserContext) (Summary, error) {
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleManager {
		return Summary{}, apperr.Forbidden("forbidden", "only admins and managers can view the dashboard")
	}

	summary := Summary{
		KudosByCategory:    map[string]int{},
		EvaluationByStatus: map[string]int{},
	}

	byCategory, err := s.kudos.CountByCategory(ctx, actor.OrgID)
	if err != nil {
		return Summary{}, err
	}
	summary.KudosByCategory = byCategory

	cycleID, byStatus, err := s.activeCycleEvaluations(ctx, actor.OrgID)
	if err != nil {
		return Summary{}, err
	}
	summary.ActiveCycleID = cycleID
	summary.EvaluationByStatus = byStatus

	if err := s.db.QueryRow(ctx, `
    SELECT COUNT(*),
           COUNT(*) FILTER (WHERE status = 'ACTIVE'),
           COUNT(*) FILTER (WHERE status = 'COMPLETED')
    FROM objectives
    WHERE org_id = $1
  `, actor.OrgID).Scan(&summary.Objectives.Total, &summary.Objectives.Active, &summary.Objectives.Completed); err != nil {
		return Summary{}, err
	}

	participation, err := s.checkins.WeekParticipation(ctx, actor.OrgID, time.Now())
	if err != nil {
		return Summary{}, err
	}
	summary.CheckInsThisWeek = participation

	if err := s.db.QueryRow(ctx, `
    SELECT COUNT(*) FROM users WHERE org_id = $1 AND active
  `, actor.OrgID).Scan(&summary.ActiveUsers); err != nil {
		return Summary{}, err
	}

	return summary, nil
}

func (s *Service) activeCycleEvaluations(ctx context.Context, orgID string) (string, map[string]int, error) {
	byStatus := map[string]int{}

	var cycleID string
	err := s.db.QueryRow(ctx, `
    SELECT id FROM evaluation_cycles
    WHERE org_id = $1 AND status = 'ACTIVE'
    ORDER BY created_at DESC
    LIMIT 1
  `, orgID).Scan(&cycleID)
	if err != nil {
		// No active cycle is a normal state, not an error.
		return "", byStatus, nil
	}

	rows, err := s.db.Query(ctx, `
    SELECT status, COUNT(*) FROM evaluations WHERE cycle_id = $1 GROUP BY status
  `, cycleID)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return "", nil, err
		}
		byStatus[status] = count
	}
	return cycleID, byStatus, rows.Err()
}
