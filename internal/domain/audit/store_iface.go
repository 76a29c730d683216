package audit

import (
	"context"
	"time"
)

type Store interface {
	Insert(ctx context.Context, evt Event) error
	Count(ctx context.Context, orgID string, filter Filter) (int, error)
	List(ctx context.Context, orgID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error)
	ListExport(ctx context.Context, orgID string) ([]Event, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
