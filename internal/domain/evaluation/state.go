package evaluation

import "teamspark/internal/domain/apperr"

// Status advances only along the transition graph below. SHARED is terminal.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusReviewed  Status = "REVIEWED"
	StatusShared    Status = "SHARED"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusReviewed, StatusDraft},
	StatusReviewed:  {StatusShared},
	StatusShared:    {},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GuardTransition returns a Conflict error for any edge outside the graph,
// leaving the caller's record untouched.
func GuardTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return apperr.Conflict("invalid_transition", "evaluation in status "+string(from)+" cannot move to "+string(to))
	}
	return nil
}
