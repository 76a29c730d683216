package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"time"

	"teamspark/internal/requestctx"
)

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Record writes an audit event best-effort: marshal or insert failures are
// logged and swallowed so the mutation being audited is never blocked or
// rolled back by the audit trail. Callers must not depend on the write
// having happened.
func (s *Service) Record(ctx context.Context, orgID, actorID, action, entityType, entityID string, before, after any, success bool) {
	evt := Event{
		OrgID:      orgID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		IP:         requestctx.GetClientIP(ctx),
		Success:    success,
	}

	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			slog.Warn("audit before snapshot marshal failed", "action", action, "err", err)
		} else {
			evt.Before = payload
		}
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			slog.Warn("audit after snapshot marshal failed", "action", action, "err", err)
		} else {
			evt.After = payload
		}
	}

	if err := s.store.Insert(ctx, evt); err != nil {
		slog.Warn("audit record failed", "action", action, "entityType", entityType, "err", err)
	}
}

func (s *Service) Count(ctx context.Context, orgID string, filter Filter) (int, error) {
	return s.store.Count(ctx, orgID, filter)
}

func (s *Service) List(ctx context.Context, orgID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	return s.store.List(ctx, orgID, filter, includeDetails, limit, offset)
}

func (s *Service) ListExport(ctx context.Context, orgID string) ([]Event, error) {
	return s.store.ListExport(ctx, orgID)
}

// RunRetention deletes events older than the configured window. This is the
// only path that removes audit rows.
func (s *Service) RunRetention(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.store.DeleteOlderThan(ctx, cutoff)
}

// WriteCSV streams events as CSV. encoding/csv quote-wraps fields containing
// commas or quotes.
func WriteCSV(w io.Writer, events []Event) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actorId", "action", "entityType", "entityId", "requestId", "ip", "success", "createdAt"}); err != nil {
		return err
	}
	for _, evt := range events {
		record := []string{
			evt.ID,
			evt.ActorID,
			evt.Action,
			evt.EntityType,
			evt.EntityID,
			evt.RequestID,
			evt.IP,
			strconv.FormatBool(evt.Success),
			evt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
