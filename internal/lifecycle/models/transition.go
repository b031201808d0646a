package models

import "minbar/pkg/domain"

// Transition is one atomic store commit. Each present row is written only if
// its stored version still equals the expected version; on success the store
// bumps the version of every written row.
type Transition struct {
	Account         *AdminAccount
	ExpectedAccount int64

	Institution         *Institution
	ExpectedInstitution int64
	// DeleteInstitution removes the institution row instead of updating it.
	DeleteInstitution bool
}

// AccountCommit builds a transition for an account that was loaded at its current version.
func AccountCommit(account *AdminAccount) Transition {
	return Transition{Account: account, ExpectedAccount: account.Version}
}

// WithInstitution adds an institution loaded at its current version.
func (t Transition) WithInstitution(inst *Institution) Transition {
	t.Institution = inst
	t.ExpectedInstitution = inst.Version
	return t
}

// InstitutionID returns the institution touched by the transition, if any.
func (t Transition) InstitutionID() (domain.InstitutionID, bool) {
	if t.Institution == nil {
		return domain.InstitutionID{}, false
	}
	return t.Institution.ID, true
}
