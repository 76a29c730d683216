package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
)

type Service struct {
	store      *Store
	audit      *audit.Service
	selfPolicy auth.SelfActionPolicy
}

func NewService(store *Store, auditSvc *audit.Service) *Service {
	return &Service{store: store, audit: auditSvc}
}

func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) ListUsers(ctx context.Context, actor auth.UserContext, limit, offset int) ([]User, error) {
	if !auth.CanAccessUserManagement(actor.Role) {
		return nil, apperr.Forbidden("forbidden", "user management requires admin or manager role")
	}
	return s.store.ListUsers(ctx, actor.OrgID, limit, offset)
}

func (s *Service) GetUser(ctx context.Context, actor auth.UserContext, userID string) (User, error) {
	user, err := s.store.GetUser(ctx, actor.OrgID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound("user_not_found", "user not found")
	}
	return user, err
}

func (s *Service) CreateUser(ctx context.Context, actor auth.UserContext, email, name, role, password string) (User, error) {
	if actor.Role != auth.RoleAdmin {
		return User{}, apperr.Forbidden("forbidden", "admin role required")
	}
	if !auth.IsValidRole(role) {
		return User{}, apperr.Invalid("invalid_role", "role must be one of ADMIN, MANAGER, MEMBER")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	id, err := s.store.CreateUser(ctx, actor.OrgID, strings.ToLower(strings.TrimSpace(email)), name, role, hash)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.GetUser(ctx, actor.OrgID, id)
	if err != nil {
		return User{}, err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.user.create", "user", id, nil, user, true)
	return user, nil
}

// UpdateUser applies a partial update. Role changes go through the manager
// scoping check and the self-action policy.
func (s *Service) UpdateUser(ctx context.Context, actor auth.UserContext, userID string, update UserUpdate) (User, error) {
	current, err := s.GetUser(ctx, actor, userID)
	if err != nil {
		return User{}, err
	}

	if err := s.requireManagementScope(ctx, actor, userID); err != nil {
		return User{}, err
	}

	if update.Role != nil {
		if !auth.IsValidRole(*update.Role) {
			return User{}, apperr.Invalid("invalid_role", "role must be one of ADMIN, MANAGER, MEMBER")
		}
		if s.selfPolicy.Blocked(actor.UserID, userID, auth.SelfActionChangeRole) {
			return User{}, apperr.Forbidden("self_action", "cannot change your own role")
		}
	}

	if err := s.store.UpdateUser(ctx, actor.OrgID, userID, update); err != nil {
		return User{}, err
	}

	updated, err := s.store.GetUser(ctx, actor.OrgID, userID)
	if err != nil {
		return User{}, err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.user.update", "user", userID, current, updated, true)
	return updated, nil
}

func (s *Service) SetActive(ctx context.Context, actor auth.UserContext, userID string, active bool) error {
	current, err := s.GetUser(ctx, actor, userID)
	if err != nil {
		return err
	}
	if err := s.requireManagementScope(ctx, actor, userID); err != nil {
		return err
	}
	if !active && s.selfPolicy.Blocked(actor.UserID, userID, auth.SelfActionDeactivate) {
		return apperr.Forbidden("self_action", "cannot deactivate yourself")
	}

	if err := s.store.SetUserActive(ctx, actor.OrgID, userID, active); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.user.set_active", "user", userID,
		map[string]bool{"active": current.Active}, map[string]bool{"active": active}, true)
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, actor auth.UserContext, userID string) error {
	current, err := s.GetUser(ctx, actor, userID)
	if err != nil {
		return err
	}
	if actor.Role != auth.RoleAdmin {
		return apperr.Forbidden("forbidden", "admin role required")
	}
	if s.selfPolicy.Blocked(actor.UserID, userID, auth.SelfActionDelete) {
		return apperr.Forbidden("self_action", "cannot delete yourself")
	}

	if err := s.store.DeleteUser(ctx, actor.OrgID, userID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.user.delete", "user", userID, current, nil, true)
	return nil
}

func (s *Service) requireManagementScope(ctx context.Context, actor auth.UserContext, targetUserID string) error {
	if actor.Role == auth.RoleAdmin {
		return nil
	}
	if actor.Role != auth.RoleManager {
		return apperr.Forbidden("forbidden", "user management requires admin or manager role")
	}

	targetTeams, err := s.store.TeamIDsForUser(ctx, actor.OrgID, targetUserID)
	if err != nil {
		return err
	}
	managedTeams, err := s.store.ManagedTeamIDs(ctx, actor.OrgID, actor.UserID)
	if err != nil {
		return err
	}
	if !auth.CanManageSpecificUser(actor, targetUserID, targetTeams, managedTeams) {
		return apperr.Forbidden("forbidden", "you do not manage this user")
	}
	return nil
}

func (s *Service) ListTeams(ctx context.Context, actor auth.UserContext) ([]Team, error) {
	return s.store.ListTeams(ctx, actor.OrgID)
}

func (s *Service) CreateTeam(ctx context.Context, actor auth.UserContext, name string) (string, error) {
	if actor.Role != auth.RoleAdmin {
		return "", apperr.Forbidden("forbidden", "admin role required")
	}
	if strings.TrimSpace(name) == "" {
		return "", apperr.Invalid("invalid_payload", "team name required")
	}
	id, err := s.store.CreateTeam(ctx, actor.OrgID, name)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.team.create", "team", id, nil, map[string]string{"name": name}, true)
	return id, nil
}

func (s *Service) AddTeamMember(ctx context.Context, actor auth.UserContext, teamID, userID, teamRole string) error {
	if !auth.CanAccessUserManagement(actor.Role) {
		return apperr.Forbidden("forbidden", "user management requires admin or manager role")
	}
	if teamRole != TeamRoleMember && teamRole != TeamRoleManager {
		return apperr.Invalid("invalid_payload", "team role must be MEMBER or MANAGER")
	}
	exists, err := s.store.TeamExists(ctx, actor.OrgID, teamID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("team_not_found", "team not found")
	}
	if _, err := s.GetUser(ctx, actor, userID); err != nil {
		return err
	}

	if err := s.store.AddTeamMember(ctx, teamID, userID, teamRole); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.team.add_member", "team", teamID, nil,
		map[string]string{"userId": userID, "teamRole": teamRole}, true)
	return nil
}

func (s *Service) RemoveTeamMember(ctx context.Context, actor auth.UserContext, teamID, userID string) error {
	if !auth.CanAccessUserManagement(actor.Role) {
		return apperr.Forbidden("forbidden", "user management requires admin or manager role")
	}
	exists, err := s.store.TeamExists(ctx, actor.OrgID, teamID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("team_not_found", "team not found")
	}

	if err := s.store.RemoveTeamMember(ctx, teamID, userID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.OrgID, actor.UserID, "admin.team.remove_member", "team", teamID,
		map[string]string{"userId": userID}, nil, true)
	return nil
}

func (s *Service) ListTeamMembers(ctx context.Context, actor auth.UserContext, teamID string) ([]TeamMember, error) {
	exists, err := s.store.TeamExists(ctx, actor.OrgID, teamID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("team_not_found", "team not found")
	}
	return s.store.ListTeamMembers(ctx, actor.OrgID, teamID)
}
