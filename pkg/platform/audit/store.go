package audit

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"time"

	"minbar/pkg/domain"
)

// Store persists audit entries. Implementations must never mutate an appended entry.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter, page domain.Page) ([]Entry, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}
