package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minbar/internal/lifecycle/store/memory"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/audit/recorder"
	auditmemory "minbar/pkg/platform/audit/store/memory"
)

func newAuditLogService(t *testing.T, entries ...audit.Entry) (*Service, *auditmemory.InMemoryStore) {
	t.Helper()
	auditStore := auditmemory.NewInMemoryStore()
	for _, e := range entries {
		require.NoError(t, auditStore.Append(context.Background(), e))
	}
	return New(memory.New(), recorder.New(auditStore), auditStore), auditStore
}

func exportFixture() []audit.Entry {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	applicant := domain.Actor{ID: "7f1c2d4e-0000-4000-8000-000000000001", Role: domain.RoleApplicant, Name: "Yusuf Rahman"}
	super := domain.Actor{ID: "super-1", Role: domain.RoleSuperAdmin, Name: "Amina"}
	account := audit.Target{Type: audit.TargetAdminAccount, ID: applicant.ID, Name: "Yusuf Rahman"}
	return []audit.Entry{
		{
			ID:          "01J9ZK0000000000000000000A",
			ActionType:  audit.ActionAdminApplied,
			PerformedBy: applicant,
			Target:      account,
			Details: map[string]any{
				"email":          "yusuf@example.org",
				"institution_id": "5b2f8c1a-0000-4000-8000-000000000002",
			},
			Timestamp: base,
			Outcome:   audit.OutcomeSuccess,
		},
		{
			ID:          "01J9ZK0000000000000000000B",
			ActionType:  audit.ActionAdminRejected,
			PerformedBy: super,
			Target:      account,
			Details: map[string]any{
				"reason":          "missing letter, resubmit",
				"rejection_count": 1,
				"banned":          false,
			},
			Timestamp: base.Add(5 * time.Minute),
			Outcome:   audit.OutcomeSuccess,
		},
		{
			ID:          "01J9ZK0000000000000000000C",
			ActionType:  audit.ActionLogsPurged,
			PerformedBy: super,
			Target:      audit.Target{Type: audit.TargetAuditLog, ID: "audit_log", Name: "older than 90 days"},
			Details: map[string]any{
				"older_than_days": 90,
				"reason":          "",
				"error_code":      "validation_error",
				"error":           "justification must be at least 10 characters",
			},
			Timestamp: base.Add(10 * time.Minute),
			Outcome:   audit.OutcomeFailed,
		},
	}
}

func TestExportAuditLogGolden(t *testing.T) {
	svc, _ := newAuditLogService(t, exportFixture()...)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportAuditLog(context.Background(), audit.Filter{}, &buf))

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "export_audit_log", buf.Bytes())
}

func TestExportAuditLogPagesThroughEverything(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]audit.Entry, 0, 1203)
	for i := range 1203 {
		entries = append(entries, audit.Entry{
			ID:         fmt.Sprintf("01J%023d", i),
			ActionType: audit.ActionAdminApplied,
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Outcome:    audit.OutcomeSuccess,
		})
	}
	svc, _ := newAuditLogService(t, entries...)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportAuditLog(context.Background(), audit.Filter{SortAscending: true}, &buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1204)
	assert.True(t, strings.HasPrefix(lines[1], entries[0].ID))
	assert.True(t, strings.HasPrefix(lines[1203], entries[1202].ID))
}

func TestExportAuditLogIgnoresEntriesRecordedMidExport(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := base.Add(time.Hour)
	auditStore := auditmemory.NewInMemoryStore()
	n := domain.MaxPageLimit + 20
	for i := range n {
		require.NoError(t, auditStore.Append(context.Background(), audit.Entry{
			ID:         fmt.Sprintf("01J%023d", i),
			ActionType: audit.ActionAdminApplied,
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Outcome:    audit.OutcomeSuccess,
		}))
	}
	live := &liveAuditLog{InMemoryStore: auditStore, late: audit.Entry{
		ID:         "01JZZZZZZZZZZZZZZZZZZZZZZZ",
		ActionType: audit.ActionAdminApproved,
		Timestamp:  start.Add(time.Second),
		Outcome:    audit.OutcomeSuccess,
	}}
	svc := New(memory.New(), recorder.New(auditStore), live, WithClock(func() time.Time { return start }))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportAuditLog(context.Background(), audit.Filter{}, &buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")[1:]
	require.Len(t, lines, n)
	seen := make(map[string]bool, n)
	for _, line := range lines {
		id, _, _ := strings.Cut(line, ",")
		assert.False(t, seen[id], "entry %s exported twice", id)
		seen[id] = true
	}
	assert.False(t, seen[live.late.ID])
	assert.Equal(t, n+1, auditStore.Len())
}

// liveAuditLog records one more entry right after the first page is read.
type liveAuditLog struct {
	*auditmemory.InMemoryStore
	late     audit.Entry
	appended bool
}

func (l *liveAuditLog) List(ctx context.Context, filter audit.Filter, page domain.Page) ([]audit.Entry, int, error) {
	items, total, err := l.InMemoryStore.List(ctx, filter, page)
	if err == nil && !l.appended {
		l.appended = true
		err = l.InMemoryStore.Append(ctx, l.late)
	}
	return items, total, err
}

func TestListAuditLog(t *testing.T) {
	svc, _ := newAuditLogService(t, exportFixture()...)
	ctx := context.Background()

	t.Run("newest first by default", func(t *testing.T) {
		page, err := svc.ListAuditLog(ctx, audit.Filter{}, domain.Page{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "01J9ZK0000000000000000000C", page.Items[0].ID)
		assert.Equal(t, "01J9ZK0000000000000000000B", page.Items[1].ID)
	})

	t.Run("filters by role and search", func(t *testing.T) {
		page, err := svc.ListAuditLog(ctx, audit.Filter{ActorRole: domain.RoleSuperAdmin, Search: "OLDER than"}, domain.Page{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, audit.ActionLogsPurged, page.Items[0].ActionType)
	})

	t.Run("rejects unknown action type", func(t *testing.T) {
		_, err := svc.ListAuditLog(ctx, audit.Filter{ActionType: "logs_shredded"}, domain.Page{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		now := time.Now()
		_, err := svc.ListAuditLog(ctx, audit.Filter{From: now, To: now.Add(-time.Hour)}, domain.Page{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
