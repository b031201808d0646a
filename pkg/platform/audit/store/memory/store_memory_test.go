package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"minbar/pkg/domain"
	audit "minbar/pkg/platform/audit"
)

type AuditStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *AuditStoreSuite) append(id string, action audit.ActionType, role domain.Role, actorName, targetName string, at time.Time) {
	s.Require().NoError(s.store.Append(s.ctx, audit.Entry{
		ID:          id,
		ActionType:  action,
		PerformedBy: domain.Actor{ID: "actor-" + id, Role: role, Name: actorName},
		Target:      audit.Target{Type: audit.TargetAdminAccount, ID: "target-" + id, Name: targetName},
		Details:     map[string]any{"reason": "test"},
		Timestamp:   at,
		Outcome:     audit.OutcomeSuccess,
	}))
}

func (s *AuditStoreSuite) TestListOrdering() {
	s.append("01A", audit.ActionAdminApproved, domain.RoleSuperAdmin, "Amina", "Yusuf", s.base)
	s.append("01C", audit.ActionAdminRejected, domain.RoleSuperAdmin, "Amina", "Bilal", s.base.Add(time.Hour))
	s.append("01B", audit.ActionAdminApplied, domain.RoleApplicant, "Bilal", "Bilal", s.base)

	s.Run("defaults to timestamp descending with id tie-break", func() {
		entries, total, err := s.store.List(s.ctx, audit.Filter{}, domain.Page{})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Equal([]string{"01C", "01B", "01A"}, ids(entries))
	})

	s.Run("ascending when requested", func() {
		entries, _, err := s.store.List(s.ctx, audit.Filter{SortAscending: true}, domain.Page{})
		s.Require().NoError(err)
		s.Equal([]string{"01A", "01B", "01C"}, ids(entries))
	})

	s.Run("paginates after sorting", func() {
		entries, total, err := s.store.List(s.ctx, audit.Filter{}, domain.Page{Limit: 1, Offset: 1})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Equal([]string{"01B"}, ids(entries))
	})
}

func (s *AuditStoreSuite) TestListFilters() {
	s.append("01A", audit.ActionAdminApproved, domain.RoleSuperAdmin, "Amina", "Yusuf", s.base)
	s.append("01B", audit.ActionAdminApplied, domain.RoleApplicant, "Bilal", "Bilal", s.base.Add(time.Hour))
	s.append("01C", audit.ActionAdminRejected, domain.RoleSuperAdmin, "Amina", "Bilal", s.base.Add(48*time.Hour))

	s.Run("by action type", func() {
		entries, total, err := s.store.List(s.ctx, audit.Filter{ActionType: audit.ActionAdminApplied}, domain.Page{})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal([]string{"01B"}, ids(entries))
	})

	s.Run("by actor role", func() {
		entries, _, err := s.store.List(s.ctx, audit.Filter{ActorRole: domain.RoleSuperAdmin}, domain.Page{})
		s.Require().NoError(err)
		s.Equal([]string{"01C", "01A"}, ids(entries))
	})

	s.Run("by date range", func() {
		entries, _, err := s.store.List(s.ctx, audit.Filter{From: s.base.Add(time.Minute), To: s.base.Add(24 * time.Hour)}, domain.Page{})
		s.Require().NoError(err)
		s.Equal([]string{"01B"}, ids(entries))
	})

	s.Run("free text on actor and target names", func() {
		entries, _, err := s.store.List(s.ctx, audit.Filter{Search: "yUSu"}, domain.Page{})
		s.Require().NoError(err)
		s.Equal([]string{"01A"}, ids(entries))
	})
}

func (s *AuditStoreSuite) TestDeletion() {
	s.append("01A", audit.ActionAdminApproved, domain.RoleSuperAdmin, "Amina", "Yusuf", s.base)
	s.append("01B", audit.ActionAdminApplied, domain.RoleApplicant, "Bilal", "Bilal", s.base.Add(time.Hour))
	s.append("01C", audit.ActionAdminRejected, domain.RoleSuperAdmin, "Amina", "Bilal", s.base.Add(48*time.Hour))

	s.Run("older than cutoff", func() {
		n, err := s.store.DeleteOlderThan(s.ctx, s.base.Add(30*time.Minute))
		s.Require().NoError(err)
		s.Equal(1, n)
		s.Equal(2, s.store.Len())
	})

	s.Run("by ids ignores unknown ids", func() {
		n, err := s.store.DeleteByIDs(s.ctx, []string{"01C", "missing"})
		s.Require().NoError(err)
		s.Equal(1, n)
		s.Equal(1, s.store.Len())
	})
}

func (s *AuditStoreSuite) TestReturnedEntriesAreCopies() {
	s.append("01A", audit.ActionAdminApproved, domain.RoleSuperAdmin, "Amina", "Yusuf", s.base)

	entries, _, err := s.store.List(s.ctx, audit.Filter{}, domain.Page{})
	s.Require().NoError(err)
	entries[0].Details["reason"] = "tampered"

	again, _, err := s.store.List(s.ctx, audit.Filter{}, domain.Page{})
	s.Require().NoError(err)
	s.Equal("test", again[0].Details["reason"])
}

func ids(entries []audit.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
