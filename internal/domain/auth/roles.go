package auth

const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleMember  = "MEMBER"
)

var ValidRoles = []string{RoleAdmin, RoleManager, RoleMember}

// UserContext is the authenticated actor attached to every request.
type UserContext struct {
	UserID string
	OrgID  string
	Role   string
}

func IsValidRole(role string) bool {
	for _, candidate := range ValidRoles {
		if role == candidate {
			return true
		}
	}
	return false
}
