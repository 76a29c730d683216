package evaluation

import (
	"testing"

	"teamspark/internal/domain/apperr"
)

func TestTransitionGraph(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusSubmitted},
		{StatusSubmitted, StatusReviewed},
		{StatusSubmitted, StatusDraft},
		{StatusReviewed, StatusShared},
	}
	for _, edge := range allowed {
		if !CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be allowed", edge.from, edge.to)
		}
	}

	all := []Status{StatusDraft, StatusSubmitted, StatusReviewed, StatusShared}
	allowedSet := map[[2]Status]bool{}
	for _, edge := range allowed {
		allowedSet[[2]Status{edge.from, edge.to}] = true
	}
	for _, from := range all {
		for _, to := range all {
			if allowedSet[[2]Status{from, to}] {
				continue
			}
			if CanTransition(from, to) {
				t.Errorf("expected %s -> %s to be rejected", from, to)
			}
		}
	}
}

func TestSharedIsTerminal(t *testing.T) {
	for _, to := range []Status{StatusDraft, StatusSubmitted, StatusReviewed, StatusShared} {
		if CanTransition(StatusShared, to) {
			t.Errorf("SHARED must be terminal, but SHARED -> %s was allowed", to)
		}
	}
}

func TestGuardTransitionReturnsConflict(t *testing.T) {
	err := GuardTransition(StatusDraft, StatusReviewed)
	if err == nil {
		t.Fatal("expected error for DRAFT -> REVIEWED")
	}
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict kind, got %v", err)
	}

	if err := GuardTransition(StatusSubmitted, StatusReviewed); err != nil {
		t.Fatalf("unexpected error for legal transition: %v", err)
	}
}
