package kudos

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
	"teamspark/internal/domain/identity"
)

type memStore struct {
	kudos []Kudos
}

func (m *memStore) Insert(_ context.Context, k Kudos) (string, error) {
	k.ID = "k-1"
	m.kudos = append(m.kudos, k)
	return k.ID, nil
}

func (m *memStore) List(_ context.Context, orgID string, f Filter) ([]Kudos, error) {
	var out []Kudos
	for _, k := range m.kudos {
		if k.OrgID != orgID {
			continue
		}
		if f.Category != "" && k.Category != f.Category {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

func (m *memStore) CountByCategory(_ context.Context, orgID string) (map[string]int, error) {
	out := map[string]int{}
	for _, k := range m.kudos {
		if k.OrgID == orgID {
			out[k.Category]++
		}
	}
	return out, nil
}

type stubDirectory struct {
	users map[string]identity.User
}

func (d *stubDirectory) GetUser(_ context.Context, orgID, userID string) (identity.User, error) {
	user, ok := d.users[userID]
	if !ok || user.OrgID != orgID {
		return identity.User{}, pgx.ErrNoRows
	}
	return user, nil
}

type noopAuditStore struct{}

func (noopAuditStore) Insert(context.Context, audit.Event) error { return nil }
func (noopAuditStore) Count(context.Context, string, audit.Filter) (int, error) {
	return 0, nil
}
func (noopAuditStore) List(context.Context, string, audit.Filter, bool, int, int) ([]audit.Event, error) {
	return nil, nil
}
func (noopAuditStore) ListExport(context.Context, string) ([]audit.Event, error) { return nil, nil }
func (noopAuditStore) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func testAudit() *audit.Service {
	return audit.New(noopAuditStore{})
}

type recordingNotifier struct {
	calls int
	last  string
}

func (n *recordingNotifier) KudosReceived(_ context.Context, _, toUserID, _, _, _ string) error {
	n.calls++
	n.last = toUserID
	return nil
}

func newTestService(t *testing.T, notifier Notifier) (*Service, *memStore) {
	t.Helper()
	store := &memStore{}
	directory := &stubDirectory{users: map[string]identity.User{
		"alice": {ID: "alice", OrgID: "org-1", Name: "Alice", Active: true},
		"bob":   {ID: "bob", OrgID: "org-1", Name: "Bob", Active: true},
		"carol": {ID: "carol", OrgID: "org-1", Name: "Carol", Active: false},
	}}
	return NewService(store, directory, testAudit(), notifier), store
}

func TestCreateRejectsSelfKudos(t *testing.T) {
	svc, _ := newTestService(t, nil)
	actor := auth.UserContext{UserID: "alice", OrgID: "org-1", Role: auth.RoleMember}

	_, err := svc.Create(context.Background(), actor, "alice", "TEAMWORK", "nice work", SourceWeb)
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestCreateNormalizesCategory(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, store := newTestService(t, notifier)
	actor := auth.UserContext{UserID: "alice", OrgID: "org-1", Role: auth.RoleMember}

	k, err := svc.Create(context.Background(), actor, "bob", "teamwork", "great sprint", SourceWeb)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if k.Category != CategoryTeamwork {
		t.Fatalf("expected canonical category, got %q", k.Category)
	}
	if len(store.kudos) != 1 {
		t.Fatalf("expected 1 stored kudos, got %d", len(store.kudos))
	}
	if notifier.calls != 1 || notifier.last != "bob" {
		t.Fatalf("expected one notification to bob, got %d to %q", notifier.calls, notifier.last)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t, nil)
	actor := auth.UserContext{UserID: "alice", OrgID: "org-1", Role: auth.RoleMember}

	_, err := svc.Create(context.Background(), actor, "bob", "AWESOMENESS", "hi", SourceWeb)
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestCreateRejectsInactiveRecipient(t *testing.T) {
	svc, _ := newTestService(t, nil)
	actor := auth.UserContext{UserID: "alice", OrgID: "org-1", Role: auth.RoleMember}

	_, err := svc.Create(context.Background(), actor, "carol", "TEAMWORK", "hi", SourceWeb)
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestCreateUnknownRecipientIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)
	actor := auth.UserContext{UserID: "alice", OrgID: "org-1", Role: auth.RoleMember}

	_, err := svc.Create(context.Background(), actor, "nobody", "TEAMWORK", "hi", SourceWeb)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListNormalizesCategoryFilter(t *testing.T) {
	svc, _ := newTestService(t, nil)
	actor := auth.UserContext{UserID: "alice", OrgID: "org-1", Role: auth.RoleMember}

	if _, err := svc.Create(context.Background(), actor, "bob", "Leadership", "led the launch", SourceSlack); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := svc.List(context.Background(), actor, Filter{Category: "leadership"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 kudos, got %d", len(out))
	}
	if out[0].Source != SourceSlack {
		t.Fatalf("expected SLACK source, got %q", out[0].Source)
	}
}
