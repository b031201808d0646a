package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
)

func TestCodeMatches(t *testing.T) {
	inst := &Institution{VerificationCode: "XJ4K9QRT"}

	assert.True(t, inst.CodeMatches("XJ4K9QRT"))
	assert.True(t, inst.CodeMatches("xj4k9qrt"))
	assert.True(t, inst.CodeMatches("  xJ4k9Qrt\n"))
	assert.False(t, inst.CodeMatches("XJ4K9QR"))
	assert.False(t, inst.CodeMatches(""))
	assert.False(t, inst.CodeMatches("   "))
}

func TestNewVerificationCode(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		code, err := NewVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, VerificationCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestInstitutionClaim(t *testing.T) {
	inst, err := NewInstitution(domain.NewInstitutionID(), "  Masjid Al-Noor ", "Leeds", "ABCD2345", t0)
	require.NoError(t, err)
	assert.Equal(t, "Masjid Al-Noor", inst.Name)
	assert.False(t, inst.IsClaimed())

	first := domain.NewAdminID()
	require.NoError(t, inst.CanBeClaimedBy(first))
	inst.ApplyClaim(first, t0)
	assert.True(t, inst.IsClaimed())

	err = inst.CanBeClaimedBy(domain.NewAdminID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInstitutionAlreadyClaimed))

	inst.ApplyRelease(t0)
	assert.False(t, inst.IsClaimed())
}

func TestNewInstitutionValidation(t *testing.T) {
	_, err := NewInstitution(domain.NewInstitutionID(), " ", "Leeds", "ABCD2345", t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewInstitution(domain.NewInstitutionID(), "Masjid", "Leeds", "", t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
