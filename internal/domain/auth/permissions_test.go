package auth

import "testing"

func TestCanManageSpecificUser(t *testing.T) {
	admin := UserContext{UserID: "u-admin", OrgID: "org-1", Role: RoleAdmin}
	manager := UserContext{UserID: "u-mgr", OrgID: "org-1", Role: RoleManager}
	member := UserContext{UserID: "u-mem", OrgID: "org-1", Role: RoleMember}

	cases := []struct {
		name           string
		actor          UserContext
		targetTeamIDs  []string
		managedTeamIDs []string
		want           bool
	}{
		{"admin manages anyone", admin, nil, nil, true},
		{"manager of target team", manager, []string{"t1", "t2"}, []string{"t2"}, true},
		{"manager of unrelated team", manager, []string{"t1"}, []string{"t3"}, false},
		{"manager with no managed teams", manager, []string{"t1"}, nil, false},
		{"member never manages", member, []string{"t1"}, []string{"t1"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanManageSpecificUser(tc.actor, "u-target", tc.targetTeamIDs, tc.managedTeamIDs)
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCanViewEvaluation(t *testing.T) {
	eval := EvaluationAccess{
		EvaluateeID: "u-target",
		EvaluatorID: "u-evaluator",
		ReviewerID:  "u-reviewer",
		Status:      "SUBMITTED",
	}

	if !CanViewEvaluation(UserContext{UserID: "x", Role: RoleAdmin}, eval) {
		t.Fatal("admin should view any evaluation")
	}
	if !CanViewEvaluation(UserContext{UserID: "u-evaluator", Role: RoleMember}, eval) {
		t.Fatal("evaluator should view their evaluation")
	}
	if !CanViewEvaluation(UserContext{UserID: "u-reviewer", Role: RoleManager}, eval) {
		t.Fatal("reviewer should view their evaluation")
	}
	if CanViewEvaluation(UserContext{UserID: "u-target", Role: RoleMember}, eval) {
		t.Fatal("evaluatee should not view an unshared evaluation")
	}

	eval.IsVisible = true
	if !CanViewEvaluation(UserContext{UserID: "u-target", Role: RoleMember}, eval) {
		t.Fatal("evaluatee should view a shared evaluation")
	}
	if CanViewEvaluation(UserContext{UserID: "u-other", Role: RoleMember}, eval) {
		t.Fatal("unrelated member should never view")
	}
}

func TestCanEditEvaluation(t *testing.T) {
	eval := EvaluationAccess{EvaluateeID: "u-target", EvaluatorID: "u-evaluator", Status: "DRAFT"}

	if !CanEditEvaluation(UserContext{UserID: "u-target", Role: RoleMember}, eval) {
		t.Fatal("evaluatee should edit their draft")
	}
	if !CanEditEvaluation(UserContext{UserID: "u-evaluator", Role: RoleManager}, eval) {
		t.Fatal("evaluator should edit the draft")
	}
	if !CanEditEvaluation(UserContext{UserID: "x", Role: RoleAdmin}, eval) {
		t.Fatal("admin should edit any draft")
	}
	if CanEditEvaluation(UserContext{UserID: "u-other", Role: RoleMember}, eval) {
		t.Fatal("unrelated member should not edit")
	}
}

func TestSelfActionPolicy(t *testing.T) {
	var policy SelfActionPolicy

	for _, action := range []SelfAction{SelfActionChangeRole, SelfActionDeactivate, SelfActionDelete} {
		if !policy.Blocked("u-1", "u-1", action) {
			t.Fatalf("expected %s to be blocked against self", action)
		}
		if policy.Blocked("u-1", "u-2", action) {
			t.Fatalf("expected %s against another user to be allowed", action)
		}
	}

	if policy.Blocked("", "", SelfActionDelete) {
		t.Fatal("empty actor id must not trip the policy")
	}
}
