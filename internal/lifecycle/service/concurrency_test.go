package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minbar/internal/lifecycle/models"
	"minbar/internal/lifecycle/store/memory"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/audit/recorder"
	auditmemory "minbar/pkg/platform/audit/store/memory"
)

// barrierStore holds the first n commits until all n have arrived, so every
// racer evaluates its guards against the same snapshot. Later commits pass.
type barrierStore struct {
	*memory.InMemoryStore
	mu      sync.Mutex
	waiting int
	release chan struct{}
}

func newBarrierStore(n int) *barrierStore {
	return &barrierStore{InMemoryStore: memory.New(), waiting: n, release: make(chan struct{})}
}

func (b *barrierStore) Commit(ctx context.Context, t models.Transition) error {
	b.mu.Lock()
	if b.waiting > 0 {
		b.waiting--
		if b.waiting == 0 {
			close(b.release)
		}
		b.mu.Unlock()
		select {
		case <-b.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		b.mu.Unlock()
	}
	return b.InMemoryStore.Commit(ctx, t)
}

type raceFixture struct {
	ctx        context.Context
	store      *barrierStore
	auditStore *auditmemory.InMemoryStore
	svc        *Service
	super      domain.Actor
}

func newRaceFixture(t *testing.T, racers int) *raceFixture {
	t.Helper()
	f := &raceFixture{
		ctx:        context.Background(),
		store:      newBarrierStore(racers),
		auditStore: auditmemory.NewInMemoryStore(),
		super:      domain.Actor{ID: "super-1", Role: domain.RoleSuperAdmin},
	}
	f.svc = New(f.store, recorder.New(f.auditStore), f.auditStore, WithTimeout(5*time.Second))
	return f
}

// Fixtures are written straight to the store so they do not pass the barrier.
func (f *raceFixture) institution(t *testing.T, code string) *models.Institution {
	t.Helper()
	inst, err := models.NewInstitution(domain.NewInstitutionID(), "Masjid Al-Noor", "Cairo", code, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.CreateInstitution(f.ctx, inst))
	return inst
}

func (f *raceFixture) account(t *testing.T, inst *models.Institution, email string) *models.AdminAccount {
	t.Helper()
	account, err := models.NewAdminAccount(domain.NewAdminID(), models.ApplicantInfo{
		Name: "Yusuf Rahman", Email: email, Phone: "+201001234567",
	}, inst.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.CreateAccount(f.ctx, account))
	return account
}

// inactive seeds an account that was rejected once and granted reapplication.
func (f *raceFixture) inactive(t *testing.T, inst *models.Institution, email string) *models.AdminAccount {
	t.Helper()
	account := f.account(t, inst, email)
	stored, err := f.store.FindAccount(f.ctx, account.ID)
	require.NoError(t, err)
	stored.ApplyRejection("super-1", "incomplete", time.Now())
	stored.ApplyReapplyGrant(time.Now())
	require.NoError(t, f.store.InMemoryStore.Commit(f.ctx, models.AccountCommit(stored)))
	return stored
}

func race(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn(i)
		}()
	}
	wg.Wait()
	return errs
}

func tally(errs []error) (ok int, byCode map[dErrors.Code]int) {
	byCode = map[dErrors.Code]int{}
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		byCode[dErrors.CodeOf(err)]++
	}
	return ok, byCode
}

func TestConcurrentApproveClaimsOnce(t *testing.T) {
	f := newRaceFixture(t, 2)
	inst := f.institution(t, "XJ4K9QRT")
	accounts := []*models.AdminAccount{
		f.account(t, inst, "first@example.org"),
		f.account(t, inst, "second@example.org"),
	}

	errs := race(2, func(i int) error {
		_, err := f.svc.Approve(f.ctx, accounts[i].ID, f.super)
		return err
	})

	ok, byCode := tally(errs)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, byCode[dErrors.CodeInstitutionAlreadyClaimed], "loser retries and sees the claim: %v", errs)

	stored, err := f.store.FindInstitution(f.ctx, inst.ID)
	require.NoError(t, err)
	approved := 0
	for _, a := range accounts {
		current, err := f.store.FindAccount(f.ctx, a.ID)
		require.NoError(t, err)
		if current.Status() == models.StatusApproved {
			approved++
			assert.Equal(t, current.ID, stored.AdminID)
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, 2, f.auditStore.Len())
}

func TestConcurrentReapplySameInstitution(t *testing.T) {
	f := newRaceFixture(t, 2)
	home := f.institution(t, "XJ4K9QRT")
	target := f.institution(t, "PQ7M2WNA")
	accounts := []*models.AdminAccount{
		f.inactive(t, home, "first@example.org"),
		f.inactive(t, home, "second@example.org"),
	}

	errs := race(2, func(i int) error {
		actor := domain.Actor{ID: accounts[i].ID.String(), Role: domain.RoleApplicant}
		_, err := f.svc.Reapply(f.ctx, accounts[i].ID, actor, target.ID, "PQ7M2WNA", "")
		return err
	})

	ok, byCode := tally(errs)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, byCode[dErrors.CodeConflict], "reapply does not retry: %v", errs)

	pending := 0
	for _, a := range accounts {
		current, err := f.store.FindAccount(f.ctx, a.ID)
		require.NoError(t, err)
		if current.Status() == models.StatusPending {
			pending++
			assert.False(t, current.CanReapply)
		} else {
			assert.True(t, current.CanReapply, "the loser keeps its grant")
		}
	}
	assert.Equal(t, 1, pending)
}

func TestConcurrentReapplySameAccount(t *testing.T) {
	f := newRaceFixture(t, 2)
	home := f.institution(t, "XJ4K9QRT")
	first := f.institution(t, "PQ7M2WNA")
	second := f.institution(t, "HT3B8KZD")
	account := f.inactive(t, home, "only@example.org")
	actor := domain.Actor{ID: account.ID.String(), Role: domain.RoleApplicant}
	targets := []*models.Institution{first, second}

	errs := race(2, func(i int) error {
		_, err := f.svc.Reapply(f.ctx, account.ID, actor, targets[i].ID, targets[i].VerificationCode, "")
		return err
	})

	ok, byCode := tally(errs)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, byCode[dErrors.CodeConflict])

	entries, _, err := f.auditStore.List(f.ctx, audit.Filter{ActionType: audit.ActionAdminReapplied}, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
