package auth

// Permission predicates are pure functions over (actor, resource). Handlers
// never duplicate role logic; they load the resource and ask here.

// EvaluationAccess carries the fields of an evaluation that matter for
// authorization, so predicates stay decoupled from the evaluation package.
type EvaluationAccess struct {
	EvaluateeID string
	EvaluatorID string
	ReviewerID  string
	Status      string
	IsVisible   bool
}

func CanAccessUserManagement(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// CanManageSpecificUser reports whether the actor may mutate the target user.
// Admins manage anyone in their organization; managers only users belonging to
// a team they manage.
func CanManageSpecificUser(actor UserContext, targetUserID string, targetTeamIDs, managedTeamIDs []string) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	if actor.Role != RoleManager {
		return false
	}
	for _, teamID := range targetTeamIDs {
		for _, managed := range managedTeamIDs {
			if teamID == managed {
				return true
			}
		}
	}
	return false
}

func CanViewEvaluation(actor UserContext, eval EvaluationAccess) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	if actor.UserID == eval.EvaluatorID || actor.UserID == eval.ReviewerID {
		return true
	}
	if actor.UserID == eval.EvaluateeID {
		return eval.IsVisible
	}
	return false
}

// CanEditEvaluation gates the DRAFT edit path: the evaluatee themself, the
// assigned evaluator, or an admin.
func CanEditEvaluation(actor UserContext, eval EvaluationAccess) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.UserID == eval.EvaluateeID || actor.UserID == eval.EvaluatorID
}

func CanReviewEvaluation(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// SelfAction names an admin mutation that must never target the actor.
type SelfAction string

const (
	SelfActionChangeRole SelfAction = "change_role"
	SelfActionDeactivate SelfAction = "deactivate"
	SelfActionDelete     SelfAction = "delete"
)

// SelfActionPolicy centralizes self-action guards. Every admin user mutation
// consults it instead of repeating the check per route.
type SelfActionPolicy struct{}

func (SelfActionPolicy) Blocked(actorUserID, targetUserID string, action SelfAction) bool {
	if actorUserID == "" || actorUserID != targetUserID {
		return false
	}
	switch action {
	case SelfActionChangeRole, SelfActionDeactivate, SelfActionDelete:
		return true
	}
	return false
}
