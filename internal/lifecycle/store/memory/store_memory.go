package memory

import (
	"context"
	"fmt"
	"sync"

	"minbar/internal/lifecycle/models"
	"minbar/internal/lifecycle/store"
	"minbar/pkg/domain"
	"minbar/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts and institutions in maps guarded by one mutex,
// which makes every Commit trivially atomic across both rows.
type InMemoryStore struct {
	mu           sync.RWMutex
	accounts     map[domain.AdminID]*models.AdminAccount
	emails       map[string]domain.AdminID
	institutions map[domain.InstitutionID]*models.Institution
}

func New() *InMemoryStore {
	return &InMemoryStore{
		accounts:     make(map[domain.AdminID]*models.AdminAccount),
		emails:       make(map[string]domain.AdminID),
		institutions: make(map[domain.InstitutionID]*models.Institution),
	}
}

func (s *InMemoryStore) CreateInstitution(ctx context.Context, inst *models.Institution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.institutions[inst.ID]; ok {
		return fmt.Errorf("institution %s exists: %w", inst.ID, sentinel.ErrConflict)
	}
	inst.Version = 1
	s.institutions[inst.ID] = inst.Clone()
	return nil
}

func (s *InMemoryStore) FindInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[id]
	if !ok {
		return nil, fmt.Errorf("institution %s: %w", id, sentinel.ErrNotFound)
	}
	return inst.Clone(), nil
}

func (s *InMemoryStore) CreateAccount(ctx context.Context, account *models.AdminAccount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[account.Email]; ok {
		return fmt.Errorf("email %s: %w", account.Email, sentinel.ErrAlreadyUsed)
	}
	if _, ok := s.accounts[account.ID]; ok {
		return fmt.Errorf("account %s exists: %w", account.ID, sentinel.ErrConflict)
	}
	account.Version = 1
	s.accounts[account.ID] = account.Clone()
	s.emails[account.Email] = account.ID
	return nil
}

func (s *InMemoryStore) FindAccount(ctx context.Context, id domain.AdminID) (*models.AdminAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, sentinel.ErrNotFound)
	}
	return account.Clone(), nil
}

// FindAccountByEmail looks an account up by its normalized (lowercase) email.
func (s *InMemoryStore) FindAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, fmt.Errorf("account with email %s: %w", email, sentinel.ErrNotFound)
	}
	return s.accounts[id].Clone(), nil
}

// ListAccounts returns accounts with the given status, or all accounts when status is empty.
func (s *InMemoryStore) ListAccounts(ctx context.Context, status models.Status, page domain.Page) ([]*models.AdminAccount, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	s.mu.RLock()
	matched := make([]*models.AdminAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		if status == "" || a.Status() == status {
			matched = append(matched, a.Clone())
		}
	}
	s.mu.RUnlock()

	store.SortAccounts(matched)
	return store.PageOf(matched, page), len(matched), nil
}

// Commit applies t if every expected version still matches. On success the
// versions on t.Account and t.Institution are advanced to the stored values.
func (s *InMemoryStore) Commit(ctx context.Context, t models.Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Account != nil {
		current, ok := s.accounts[t.Account.ID]
		if !ok {
			return fmt.Errorf("account %s: %w", t.Account.ID, sentinel.ErrNotFound)
		}
		if current.Version != t.ExpectedAccount {
			return fmt.Errorf("account %s version %d, expected %d: %w",
				t.Account.ID, current.Version, t.ExpectedAccount, sentinel.ErrConflict)
		}
	}
	if t.Institution != nil {
		current, ok := s.institutions[t.Institution.ID]
		if !ok {
			return fmt.Errorf("institution %s: %w", t.Institution.ID, sentinel.ErrNotFound)
		}
		if current.Version != t.ExpectedInstitution {
			return fmt.Errorf("institution %s version %d, expected %d: %w",
				t.Institution.ID, current.Version, t.ExpectedInstitution, sentinel.ErrConflict)
		}
	}

	if t.Account != nil {
		t.Account.Version = t.ExpectedAccount + 1
		s.accounts[t.Account.ID] = t.Account.Clone()
	}
	if t.Institution != nil {
		if t.DeleteInstitution {
			delete(s.institutions, t.Institution.ID)
		} else {
			t.Institution.Version = t.ExpectedInstitution + 1
			s.institutions[t.Institution.ID] = t.Institution.Clone()
		}
	}
	return nil
}
