package identity

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetUser(ctx context.Context, orgID, userID string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, email, name, role, active, COALESCE(slack_user_id, ''), totp_enabled, created_at, updated_at
    FROM users
    WHERE org_id = $1 AND id = $2
  `, orgID, userID).Scan(&user.ID, &user.OrgID, &user.Email, &user.Name, &user.Role, &user.Active, &user.SlackUserID, &user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *Store) ListUsers(ctx context.Context, orgID string, limit, offset int) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, org_id, email, name, role, active, COALESCE(slack_user_id, ''), totp_enabled, created_at, updated_at
    FROM users
    WHERE org_id = $1
    ORDER BY created_at ASC
    LIMIT $2 OFFSET $3
  `, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.OrgID, &user.Email, &user.Name, &user.Role, &user.Active, &user.SlackUserID, &user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, orgID, email, name, role, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (org_id, email, name, role, password_hash, active)
    VALUES ($1, $2, $3, $4, $5, TRUE)
    RETURNING id
  `, orgID, email, name, role, passwordHash).Scan(&id)
	return id, err
}

func (s *Store) UpdateUser(ctx context.Context, orgID, userID string, update UserUpdate) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = COALESCE($3, name),
        role = COALESCE($4, role),
        slack_user_id = COALESCE($5, slack_user_id),
        updated_at = now()
    WHERE org_id = $1 AND id = $2
  `, orgID, userID, update.Name, update.Role, update.SlackUserID)
	return err
}

func (s *Store) SetUserActive(ctx context.Context, orgID, userID string, active bool) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET active = $3, updated_at = now()
    WHERE org_id = $1 AND id = $2
  `, orgID, userID, active)
	return err
}

func (s *Store) DeleteUser(ctx context.Context, orgID, userID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM users WHERE org_id = $1 AND id = $2", orgID, userID)
	return err
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, Credentials, error) {
	var user User
	var creds Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, email, name, role, active, COALESCE(slack_user_id, ''), totp_enabled,
           password_hash, COALESCE(totp_secret, '')
    FROM users
    WHERE lower(email) = lower($1) AND active = TRUE
  `, email).Scan(&user.ID, &user.OrgID, &user.Email, &user.Name, &user.Role, &user.Active, &user.SlackUserID, &user.TOTPEnabled, &creds.PasswordHash, &creds.TOTPSecret)
	creds.UserID = user.ID
	creds.TOTPEnabled = user.TOTPEnabled
	return user, creds, err
}

func (s *Store) FindUserBySlackID(ctx context.Context, orgID, slackUserID string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, email, name, role, active, COALESCE(slack_user_id, ''), totp_enabled, created_at, updated_at
    FROM users
    WHERE org_id = $1 AND slack_user_id = $2 AND active = TRUE
  `, orgID, slackUserID).Scan(&user.ID, &user.OrgID, &user.Email, &user.Name, &user.Role, &user.Active, &user.SlackUserID, &user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// FindUserBySlackIDAnyOrg resolves the sender of an inbound Slack command,
// where the organization is not yet known.
func (s *Store) FindUserBySlackIDAnyOrg(ctx context.Context, slackUserID string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, email, name, role, active, COALESCE(slack_user_id, ''), totp_enabled, created_at, updated_at
    FROM users
    WHERE slack_user_id = $1
  `, slackUserID).Scan(&user.ID, &user.OrgID, &user.Email, &user.Name, &user.Role, &user.Active, &user.SlackUserID, &user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// FindUserByName matches a bare @mention; name collisions resolve to the
// earliest-created account.
func (s *Store) FindUserByName(ctx context.Context, orgID, name string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, org_id, email, name, role, active, COALESCE(slack_user_id, ''), totp_enabled, created_at, updated_at
    FROM users
    WHERE org_id = $1 AND active = TRUE AND (lower(name) = lower($2) OR lower(split_part(email, '@', 1)) = lower($2))
    ORDER BY created_at ASC
    LIMIT 1
  `, orgID, name).Scan(&user.ID, &user.OrgID, &user.Email, &user.Name, &user.Role, &user.Active, &user.SlackUserID, &user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *Store) SetTOTPSecret(ctx context.Context, orgID, userID, secret string, enabled bool) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET totp_secret = $3, totp_enabled = $4, updated_at = now()
    WHERE org_id = $1 AND id = $2
  `, orgID, userID, secret, enabled)
	return err
}

func (s *Store) UserEmail(ctx context.Context, orgID, userID string) (string, string, error) {
	var email, name string
	err := s.DB.QueryRow(ctx, "SELECT email, name FROM users WHERE org_id = $1 AND id = $2", orgID, userID).Scan(&email, &name)
	return email, name, err
}

// PendingTOTPSecret returns the stored secret regardless of whether it has
// been confirmed yet.
func (s *Store) PendingTOTPSecret(ctx context.Context, orgID, userID string) (string, error) {
	var secret string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(totp_secret, '') FROM users WHERE org_id = $1 AND id = $2", orgID, userID).Scan(&secret)
	return secret, err
}

// ActiveUserEmails backs notification broadcasts.
func (s *Store) ActiveUserEmails(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT email FROM users WHERE org_id = $1 AND active ORDER BY email", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (s *Store) TeamIDsForUser(ctx context.Context, orgID, userID string) ([]string, error) {
	return s.teamIDs(ctx, orgID, userID, "")
}

func (s *Store) ManagedTeamIDs(ctx context.Context, orgID, userID string) ([]string, error) {
	return s.teamIDs(ctx, orgID, userID, TeamRoleManager)
}

func (s *Store) teamIDs(ctx context.Context, orgID, userID, teamRole string) ([]string, error) {
	query := `
    SELECT tm.team_id
    FROM team_members tm
    JOIN teams t ON t.id = tm.team_id
    WHERE t.org_id = $1 AND tm.user_id = $2
  `
	args := []any{orgID, userID}
	if teamRole != "" {
		query += " AND tm.team_role = $3"
		args = append(args, teamRole)
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListTeams(ctx context.Context, orgID string) ([]Team, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, org_id, name, created_at FROM teams WHERE org_id = $1 ORDER BY name ASC
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.OrgID, &team.Name, &team.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (s *Store) CreateTeam(ctx context.Context, orgID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "INSERT INTO teams (org_id, name) VALUES ($1, $2) RETURNING id", orgID, name).Scan(&id)
	return id, err
}

func (s *Store) TeamExists(ctx context.Context, orgID, teamID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM teams WHERE org_id = $1 AND id = $2", orgID, teamID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) AddTeamMember(ctx context.Context, teamID, userID, teamRole string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO team_members (team_id, user_id, team_role)
    VALUES ($1, $2, $3)
    ON CONFLICT (team_id, user_id) DO UPDATE SET team_role = EXCLUDED.team_role
  `, teamID, userID, teamRole)
	return err
}

func (s *Store) RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM team_members WHERE team_id = $1 AND user_id = $2", teamID, userID)
	return err
}

func (s *Store) ListTeamMembers(ctx context.Context, orgID, teamID string) ([]TeamMember, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT tm.team_id, tm.user_id, tm.team_role
    FROM team_members tm
    JOIN teams t ON t.id = tm.team_id
    WHERE t.org_id = $1 AND tm.team_id = $2
  `, orgID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var member TeamMember
		if err := rows.Scan(&member.TeamID, &member.UserID, &member.TeamRole); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *Store) TeamMemberUserIDs(ctx context.Context, orgID string, teamIDs []string) ([]string, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT tm.user_id
    FROM team_members tm
    JOIN teams t ON t.id = tm.team_id
    WHERE t.org_id = $1 AND tm.team_id = ANY($2)
  `, orgID, teamIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
