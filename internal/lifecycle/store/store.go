// Package store holds the persistence contract shared by the lifecycle stores.
//
// Error contract for every implementation:
//   - sentinel.ErrNotFound when an account or institution does not exist
//   - sentinel.ErrConflict when a Commit's expected version is stale
//   - sentinel.ErrAlreadyUsed when an application reuses an email
//   - ctx.Err() (possibly wrapped) when the context expires
package store

import (
	"slices"
	"strings"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
)

// SortAccounts orders accounts oldest first, ties broken by ID, so paging is stable.
func SortAccounts(accounts []*models.AdminAccount) {
	slices.SortFunc(accounts, func(a, b *models.AdminAccount) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}

// PageOf slices one page out of a sorted result.
func PageOf[T any](items []T, page domain.Page) []T {
	start, end := page.Bounds(len(items))
	return items[start:end]
}
