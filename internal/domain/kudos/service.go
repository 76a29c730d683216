package kudos

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"teamspark/internal/domain/apperr"
	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
	"teamspark/internal/domain/identity"
)

type StoreIface interface {
	Insert(ctx context.Context, k Kudos) (string, error)
	List(ctx context.Context, orgID string, f Filter) ([]Kudos, error)
	CountByCategory(ctx context.Context, orgID string) (map[string]int, error)
}

// Directory resolves recipients; satisfied by the identity store.
type Directory interface {
	GetUser(ctx context.Context, orgID, userID string) (identity.User, error)
}

// Notifier delivers the "kudos received" notification out of band. A nil
// notifier disables notifications.
type Notifier interface {
	KudosReceived(ctx context.Context, orgID, toUserID, fromName, category, message string) error
}

type Service struct {
	store    StoreIface
	users    Directory
	audit    *audit.Service
	notifier Notifier
}

func NewService(store StoreIface, users Directory, auditSvc *audit.Service, notifier Notifier) *Service {
	return &Service{store: store, users: users, audit: auditSvc, notifier: notifier}
}

func (s *Service) Create(ctx context.Context, actor auth.UserContext, toUserID, category, message, source string) (Kudos, error) {
	if toUserID == actor.UserID {
		return Kudos{}, apperr.Invalid("self_kudos", "you cannot send kudos to yourself")
	}
	canonical, ok := NormalizeCategory(category)
	if !ok {
		return Kudos{}, apperr.Invalid("invalid_category", "unknown kudos category")
	}
	if strings.TrimSpace(message) == "" {
		return Kudos{}, apperr.Invalid("invalid_payload", "kudos message required")
	}
	if source != SourceWeb && source != SourceSlack {
		source = SourceWeb
	}

	recipient, err := s.users.GetUser(ctx, actor.OrgID, toUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Kudos{}, apperr.NotFound("user_not_found", "recipient not found")
	}
	if err != nil {
		return Kudos{}, err
	}
	if !recipient.Active {
		return Kudos{}, apperr.Invalid("inactive_recipient", "recipient is deactivated")
	}

	k := Kudos{
		OrgID:      actor.OrgID,
		FromUserID: actor.UserID,
		ToUserID:   toUserID,
		Category:   canonical,
		Message:    strings.TrimSpace(message),
		Source:     source,
	}
	id, err := s.store.Insert(ctx, k)
	if err != nil {
		return Kudos{}, err
	}
	k.ID = id

	s.audit.Record(ctx, actor.OrgID, actor.UserID, "kudos.create", "kudos", id, nil, k, true)

	if s.notifier != nil {
		sender, err := s.users.GetUser(ctx, actor.OrgID, actor.UserID)
		fromName := sender.Name
		if err != nil {
			fromName = "A colleague"
		}
		if err := s.notifier.KudosReceived(ctx, actor.OrgID, toUserID, fromName, canonical, k.Message); err != nil {
			slog.Warn("kudos notification enqueue failed", "error", err, "kudosId", id)
		}
	}
	return k, nil
}

func (s *Service) List(ctx context.Context, actor auth.UserContext, f Filter) ([]Kudos, error) {
	if f.Category != "" {
		canonical, ok := NormalizeCategory(f.Category)
		if !ok {
			return nil, apperr.Invalid("invalid_category", "unknown kudos category")
		}
		f.Category = canonical
	}
	return s.store.List(ctx, actor.OrgID, f)
}

func (s *Service) CountByCategory(ctx context.Context, orgID string) (map[string]int, error) {
	return s.store.CountByCategory(ctx, orgID)
}
