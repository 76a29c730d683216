package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
)

// Teams resolves managed team membership; satisfied by the identity store.
type Teams interface {
	ManagedTeamIDs(ctx context.Context, orgID, userID string) ([]string, error)
	TeamMemberUserIDs(ctx context.Context, orgID string, teamIDs []string) ([]string, error)
}

type Service struct {
	store *Store
	teams Teams
	audit *audit.Service
}

func NewService(store *Store, teams Teams, auditSvc *audit.Service) *Service {
	return &Service{store: store, teams: teams, audit: auditSvc}
}

// Submit records the actor's weekly check-in. The week is derived from the
// submission time, one row per user per week.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, achievements, challenges, nextWeekPlan string, mood int, at time.Time) (CheckIn, error) {
	if mood < 1 || mood > 5 {
		return CheckIn{}, apperr.Invalid("invalid_mood", "mood must be between 1 and 5")
	}

	c := CheckIn{
		OrgID:        actor.OrgID,
		UserID:       actor.UserID,
		WeekStart:    WeekStartFor(at),
		Achievements: achievements,
		Challenges:   challenges,
		NextWeekPlan: nextWeekPlan,
		Mood:         mood,
	}
	id, err := s.store.Insert(ctx, c)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return CheckIn{}, apperr.Conflict("duplicate_checkin", "a check-in for this week already exists")
		}
		return CheckIn{}, err
	}
	c.ID = id

	s.audit.Record(ctx, actor.OrgID, actor.UserID, "checkin.submit", "checkin", id, nil, c, true)
	return c, nil
}

func (s *Service) ListOwn(ctx context.Context, actor auth.UserContext, limit int) ([]CheckIn, error) {
	if limit <= 0 || limit > 52 {
		limit = 12
	}
	return s.store.ListForUser(ctx, actor.OrgID, actor.UserID, limit)
}

// ListTeamWeek returns the given week's check-ins for everyone on the teams
// the actor manages. Admins see the whole organization's managed set the same
// way, through their team memberships.
func (s *Service) ListTeamWeek(ctx context.Context, actor auth.UserContext, at time.Time) ([]CheckIn, error) {
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleManager {
		return nil, apperr.Forbidden("forbidden", "only managers can view team check-ins")
	}
	teamIDs, err := s.teams.ManagedTeamIDs(ctx, actor.OrgID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(teamIDs) == 0 && actor.Role != auth.RoleAdmin {
		return []CheckIn{}, nil
	}
	userIDs, err := s.teams.TeamMemberUserIDs(ctx, actor.OrgID, teamIDs)
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return []CheckIn{}, nil
	}
	return s.store.ListForUsers(ctx, actor.OrgID, userIDs, WeekStartFor(at))
}

func (s *Service) WeekParticipation(ctx context.Context, orgID string, at time.Time) (int, error) {
	return s.store.WeekParticipation(ctx, orgID, WeekStartFor(at))
}
