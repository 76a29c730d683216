package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubStore struct {
	inserted  []Event
	insertErr error
}

func (s *stubStore) Insert(_ context.Context, evt Event) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, evt)
	return nil
}

func (s *stubStore) Count(context.Context, string, Filter) (int, error) {
	return len(s.inserted), nil
}

func (s *stubStore) List(context.Context, string, Filter, bool, int, int) ([]Event, error) {
	return s.inserted, nil
}

func (s *stubStore) ListExport(context.Context, string) ([]Event, error) {
	return s.inserted, nil
}

func (s *stubStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestRecordWritesSnapshots(t *testing.T) {
	store := &stubStore{}
	svc := New(store)

	before := map[string]string{"role": "MEMBER"}
	after := map[string]string{"role": "MANAGER"}
	svc.Record(context.Background(), "org-1", "u-1", "admin.user.update", "user", "u-2", before, after, true)

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.inserted))
	}
	evt := store.inserted[0]
	if evt.Action != "admin.user.update" || evt.OrgID != "org-1" || !evt.Success {
		t.Fatalf("unexpected event: %+v", evt)
	}

	var decodedBefore, decodedAfter map[string]string
	if err := json.Unmarshal(evt.Before, &decodedBefore); err != nil {
		t.Fatalf("failed to decode before snapshot: %v", err)
	}
	if err := json.Unmarshal(evt.After, &decodedAfter); err != nil {
		t.Fatalf("failed to decode after snapshot: %v", err)
	}
	if decodedBefore["role"] != "MEMBER" || decodedAfter["role"] != "MANAGER" {
		t.Fatalf("snapshots do not match deltas: before=%v after=%v", decodedBefore, decodedAfter)
	}
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	store := &stubStore{insertErr: errors.New("connection refused")}
	svc := New(store)

	// Best-effort contract: a failing audit backend must never surface to the
	// caller. Record has no error return and must not panic.
	svc.Record(context.Background(), "org-1", "u-1", "admin.user.delete", "user", "u-2", nil, nil, true)

	if len(store.inserted) != 0 {
		t.Fatal("no event should have been stored")
	}
}

func TestWriteCSVEscapesFields(t *testing.T) {
	events := []Event{
		{
			ID:         "evt-1",
			ActorID:    "u-1",
			Action:     `kudos.create, "bulk"`,
			EntityType: "kudos",
			EntityID:   "k-1",
			RequestID:  "req-1",
			IP:         "203.0.113.9",
			Success:    true,
			CreatedAt:  time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"kudos.create, ""bulk"""`) {
		t.Fatalf("expected quoted field in output, got %q", out)
	}
	if !strings.HasPrefix(out, "id,actorId,action") {
		t.Fatalf("expected header row, got %q", out)
	}
	if !strings.Contains(out, "2026-02-03T10:00:00Z") {
		t.Fatalf("expected RFC3339 timestamp, got %q", out)
	}
}
