package service

import (
	"context"
	"time"

	"minbar/internal/lifecycle/models"
	"minbar/internal/lifecycle/throttle"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/audit/recorder"
	"minbar/pkg/requestcontext"
)

// throttled rebuilds the engine over the same stores with an attempt limiter
// that never refills during the test.
func (s *ServiceSuite) throttled(burst int) {
	clock := func() time.Time { return s.now }
	rec := recorder.New(s.auditStore, recorder.WithClock(clock))
	s.svc = New(s.store, rec, s.auditStore,
		WithClock(clock),
		WithMetrics(s.metrics),
		WithSessionRevoker(s.sessions),
		WithCodeGenerator(s.nextCode),
		WithAttemptLimiter(throttle.New(0.0001, burst, throttle.WithClock(clock))),
	)
}

func (s *ServiceSuite) TestSignIn() {
	inst := s.institution("Masjid Al-Noor")
	other := s.institution("Masjid Al-Rahma")
	account := s.apply(inst)

	s.Run("email and current code", func() {
		signedIn, err := s.svc.SignIn(s.ctx, " YUSUF1@example.org ", inst.ID, "xj4k9qrt")
		s.Require().NoError(err)
		s.Equal(account.ID, signedIn.ID)

		entry := s.lastEntry()
		s.Equal(audit.ActionApplicantSignedIn, entry.ActionType)
		s.Equal(audit.OutcomeSuccess, entry.Outcome)
		s.Equal(account.ID.String(), entry.PerformedBy.ID)
		s.Equal(domain.RoleApplicant, entry.PerformedBy.Role)
	})

	failures := []struct {
		name  string
		email string
		inst  domain.InstitutionID
		code  string
	}{
		{"wrong code", "yusuf1@example.org", inst.ID, "ZZZZZZZZ"},
		{"unknown email", "nobody@example.org", inst.ID, inst.VerificationCode},
		{"code of another institution", "yusuf1@example.org", other.ID, other.VerificationCode},
		{"unknown institution", "yusuf1@example.org", domain.NewInstitutionID(), inst.VerificationCode},
	}
	for _, tc := range failures {
		s.Run(tc.name, func() {
			_, err := s.svc.SignIn(s.ctx, tc.email, tc.inst, tc.code)
			s.requireCode(err, dErrors.CodeUnauthorized)
			s.Equal("email or verification code does not match", dErrors.MessageOf(err))

			entry := s.lastEntry()
			s.Equal(audit.ActionApplicantSignedIn, entry.ActionType)
			s.Equal(audit.OutcomeFailed, entry.Outcome)
			s.Equal(string(dErrors.CodeUnauthorized), entry.Details["error_code"])
		})
	}

	s.Run("missing code", func() {
		_, err := s.svc.SignIn(s.ctx, "yusuf1@example.org", inst.ID, " ")
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestSignInFollowsCodeRotation() {
	inst := s.institution("Masjid Al-Noor")
	account := s.approved(inst)
	s.tick()

	rotated, err := s.svc.RegenerateCode(s.ctx, inst.ID, s.super, "code leaked")
	s.Require().NoError(err)
	revoked, err := s.sessions.IsRevoked(s.ctx, account.ID.String(), s.now.Add(-time.Second))
	s.Require().NoError(err)
	s.True(revoked)

	_, err = s.svc.SignIn(s.ctx, "yusuf1@example.org", inst.ID, "XJ4K9QRT")
	s.requireCode(err, dErrors.CodeUnauthorized)

	signedIn, err := s.svc.SignIn(s.ctx, "yusuf1@example.org", inst.ID, rotated.VerificationCode)
	s.Require().NoError(err)
	s.Equal(models.StatusCodeRegenerated, signedIn.Status())
}

func (s *ServiceSuite) TestSignInAfterInstitutionDeleted() {
	gone := s.institution("Masjid Al-Noor")
	next := s.institution("Masjid Al-Rahma")
	account := s.approved(gone)
	s.Require().NoError(s.svc.DeleteInstitution(s.ctx, gone.ID, s.super, "closed permanently"))

	signedIn, err := s.svc.SignIn(s.ctx, "yusuf1@example.org", next.ID, next.VerificationCode)
	s.Require().NoError(err)
	s.Equal(account.ID, signedIn.ID)
	s.Equal(models.StatusInstitutionDeleted, signedIn.Status())

	_, err = s.svc.Reapply(s.ctx, account.ID, applicant(account.ID), next.ID, next.VerificationCode, "")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCodeAttemptsAreThrottled() {
	inst := s.institution("Masjid Al-Noor")
	s.throttled(2)

	s.Run("anonymous applications per client address", func() {
		ctx := requestcontext.WithClientMetadata(s.ctx, "203.0.113.7", "test")
		guess := func(ctx context.Context) error {
			_, err := s.svc.ApplyForInstitution(ctx, domain.Actor{}, models.ApplicantInfo{
				Name: "Omar Farouk", Email: "omar@example.org", Phone: "+201001112224", VerificationCode: "ZZZZZZZZ",
			}, inst.ID)
			return err
		}
		for range 2 {
			s.requireCode(guess(ctx), dErrors.CodeInvalidVerificationCode)
		}
		s.requireCode(guess(ctx), dErrors.CodeRateLimited)

		entry := s.lastEntry()
		s.Equal(audit.ActionAdminApplied, entry.ActionType)
		s.Equal(audit.OutcomeFailed, entry.Outcome)
		s.Equal(string(dErrors.CodeRateLimited), entry.Details["error_code"])

		elsewhere := requestcontext.WithClientMetadata(s.ctx, "198.51.100.20", "test")
		s.requireCode(guess(elsewhere), dErrors.CodeInvalidVerificationCode)
	})

	s.Run("reapplication per account", func() {
		target := s.institution("Masjid Al-Rahma")
		reapplicant := func() *models.AdminAccount {
			account := s.apply(inst)
			_, err := s.svc.Reject(s.ctx, account.ID, s.super, "incomplete")
			s.Require().NoError(err)
			_, err = s.svc.GrantReapply(s.ctx, account.ID, s.super, "")
			s.Require().NoError(err)
			return account
		}
		first, second := reapplicant(), reapplicant()

		for range 2 {
			_, err := s.svc.Reapply(s.ctx, first.ID, applicant(first.ID), target.ID, "ZZZZZZZZ", "")
			s.requireCode(err, dErrors.CodeInvalidVerificationCode)
		}
		_, err := s.svc.Reapply(s.ctx, first.ID, applicant(first.ID), target.ID, target.VerificationCode, "")
		s.requireCode(err, dErrors.CodeRateLimited)
		s.Equal(audit.ActionAdminReapplied, s.lastEntry().ActionType)
		s.Equal(string(dErrors.CodeRateLimited), s.lastEntry().Details["error_code"])

		// Someone else's guesses do not lock the second account out.
		_, err = s.svc.Reapply(s.ctx, second.ID, applicant(second.ID), target.ID, target.VerificationCode, "")
		s.NoError(err)
	})

	s.Run("sign in per client address and institution", func() {
		ctx := requestcontext.WithClientMetadata(s.ctx, "2001:db8::1", "test")
		for range 2 {
			_, err := s.svc.SignIn(ctx, "yusuf1@example.org", inst.ID, "ZZZZZZZZ")
			s.requireCode(err, dErrors.CodeUnauthorized)
		}
		// Same /64.
		ctx = requestcontext.WithClientMetadata(s.ctx, "2001:db8::2", "test")
		_, err := s.svc.SignIn(ctx, "yusuf1@example.org", inst.ID, inst.VerificationCode)
		s.requireCode(err, dErrors.CodeRateLimited)
		s.Equal(audit.ActionApplicantSignedIn, s.lastEntry().ActionType)
		s.Equal(audit.OutcomeFailed, s.lastEntry().Outcome)
	})
}
