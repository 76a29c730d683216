package identity

import "time"

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	SlackUserID string    `json:"slackUserId,omitempty"`
	TOTPEnabled bool      `json:"totpEnabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Credentials carries the secret columns that never leave the auth path.
type Credentials struct {
	UserID       string
	PasswordHash string
	TOTPSecret   string
	TOTPEnabled  bool
}

type Team struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	TeamRoleMember  = "MEMBER"
	TeamRoleManager = "MANAGER"
)

type TeamMember struct {
	TeamID   string `json:"teamId"`
	UserID   string `json:"userId"`
	TeamRole string `json:"teamRole"`
}

type UserUpdate struct {
	Name        *string
	Role        *string
	SlackUserID *string
}
