package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"minbar/internal/lifecycle/handler/mocks"
	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/testutil"
)

// accountView decodes the parts of models.AccountStatus the tests assert on;
// the state payload is an interface and does not decode generically.
type accountView struct {
	AdminID domain.AdminID `json:"admin_id"`
	Status  models.Status  `json:"status"`
}

type applyView struct {
	Account     accountView `json:"account"`
	AccessToken string      `json:"access_token"`
	ExpiresIn   int         `json:"expires_in"`
}

type accountListView struct {
	Items []accountView `json:"items"`
	Total int           `json:"total"`
}

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	svc     *mocks.MockService
	tokens  *mocks.MockTokenIssuer
	router  chi.Router
	now     time.Time
	instID  domain.InstitutionID
	adminID domain.AdminID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.instID = domain.NewInstitutionID()
	s.adminID = domain.NewAdminID()

	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithTokenIssuer(s.tokens, time.Hour),
	)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) institution() *models.Institution {
	return &models.Institution{
		ID: s.instID, Name: "Masjid Al-Noor", Location: "Cairo",
		VerificationCode: "XJ4K9QRT", CreatedAt: s.now, UpdatedAt: s.now, Version: 1,
	}
}

func (s *HandlerSuite) account() *models.AdminAccount {
	account, err := models.NewAdminAccount(s.adminID, models.ApplicantInfo{
		Name: "Yusuf Rahman", Email: "yusuf@example.org", Phone: "+201001234567",
	}, s.instID, s.now)
	s.Require().NoError(err)
	return account
}

func (s *HandlerSuite) TestCreateInstitutionReturnsCode() {
	super := testutil.SuperAdmin()
	s.svc.EXPECT().CreateInstitution(gomock.Any(), super, "Masjid Al-Noor", "Cairo").Return(s.institution(), nil)

	req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/institutions",
		CreateInstitutionRequest{Name: "Masjid Al-Noor", Location: "Cairo"}), super)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[InstitutionResponse](s.T(), rr)
	s.Equal("XJ4K9QRT", resp.VerificationCode)
	s.False(resp.Claimed)
}

func (s *HandlerSuite) TestGetInstitutionHidesCode() {
	s.svc.EXPECT().GetInstitution(gomock.Any(), s.instID).Return(s.institution(), nil)

	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/institutions/"+s.instID.String()), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	s.NotContains(rr.Body.String(), "XJ4K9QRT")
}

func (s *HandlerSuite) TestGetInstitutionRequiresSuperAdmin() {
	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/institutions/"+s.instID.String()),
		testutil.Applicant(s.adminID))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func (s *HandlerSuite) TestAnonymousApplyIssuesApplicantToken() {
	account := s.account()
	s.svc.EXPECT().ApplyForInstitution(gomock.Any(), domain.Actor{}, gomock.Any(), s.instID).
		DoAndReturn(func(_ context.Context, _ domain.Actor, info models.ApplicantInfo, _ domain.InstitutionID) (*models.AdminAccount, error) {
			s.Equal("XJ4K9QRT", info.VerificationCode)
			s.Equal("yusuf@example.org", info.Email)
			return account, nil
		})
	s.tokens.EXPECT().GenerateAccessToken(domain.Actor{ID: s.adminID.String(), Role: domain.RoleApplicant, Name: "Yusuf Rahman"}, time.Hour).
		Return("signed-token", nil)

	body := map[string]any{
		"institution_id":    s.instID.String(),
		"name":              "Yusuf Rahman",
		"email":             "yusuf@example.org",
		"phone":             "+201001234567",
		"verification_code": "XJ4K9QRT",
	}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", body))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[applyView](s.T(), rr)
	s.Equal("signed-token", resp.AccessToken)
	s.Equal(3600, resp.ExpiresIn)
	s.Equal(models.StatusPending, resp.Account.Status)
}

func (s *HandlerSuite) TestApplyValidatesBeforeCallingEngine() {
	body := map[string]any{"institution_id": s.instID.String(), "name": "Y", "email": "not-an-email"}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *HandlerSuite) TestMalformedBody() {
	req := testutil.WithActor(testutil.NewRequestWithBody(s.T(), http.MethodPost,
		"/admins/"+s.adminID.String()+"/reject", `{"reason":`), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *HandlerSuite) TestTransitionErrorsMapToStatus() {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid transition", models.InvalidTransition(models.ActionApprove, models.StatusRejected, "not pending"), http.StatusConflict},
		{"institution claimed", dErrors.New(dErrors.CodeInstitutionAlreadyClaimed, "claimed"), http.StatusConflict},
		{"not found", dErrors.New(dErrors.CodeNotFound, "admin account not found"), http.StatusNotFound},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "operation timed out"), http.StatusGatewayTimeout},
		{"internal", dErrors.New(dErrors.CodeInternal, "db gone"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.svc.EXPECT().Approve(gomock.Any(), s.adminID, testutil.SuperAdmin()).Return(nil, tt.err)
			req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodPost, "/admins/"+s.adminID.String()+"/approve"), testutil.SuperAdmin())
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatus(s.T(), rr, tt.status)
		})
	}
}

func (s *HandlerSuite) TestInternalErrorsDoNotLeak() {
	s.svc.EXPECT().Approve(gomock.Any(), s.adminID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInternal, "pq: relation admin_accounts does not exist"))
	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodPost, "/admins/"+s.adminID.String()+"/approve"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)
	s.NotContains(rr.Body.String(), "admin_accounts")
}

func (s *HandlerSuite) TestTransitionsPassTheirBodies() {
	super := testutil.SuperAdmin()
	account := s.account()

	s.svc.EXPECT().Reject(gomock.Any(), s.adminID, super, "letter unsigned").Return(account, nil)
	s.svc.EXPECT().RemoveAdmin(gomock.Any(), s.adminID, super, "stepped down").Return(account, nil)
	s.svc.EXPECT().GrantReapply(gomock.Any(), s.adminID, super, "second chance").Return(account, nil)

	for _, tc := range []struct {
		path string
		body any
	}{
		{"/reject", ReasonRequest{Reason: "letter unsigned"}},
		{"/remove", ReasonRequest{Reason: "stepped down"}},
		{"/grant-reapply", NotesRequest{Notes: "second chance"}},
	} {
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admins/"+s.adminID.String()+tc.path, tc.body), super)
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	}
}

func (s *HandlerSuite) TestInvalidAdminID() {
	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodPost, "/admins/not-a-uuid/approve"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *HandlerSuite) TestTransitionsRequireAuthentication() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/admins/"+s.adminID.String()+"/approve"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
}

func (s *HandlerSuite) TestAccountStatusVisibility() {
	status := models.NewAccountStatus(s.account(), s.institution())
	s.svc.EXPECT().GetAccountStatus(gomock.Any(), s.adminID).Return(&status, nil).Times(2)
	path := "/admins/" + s.adminID.String()

	testutil.Given(s.T(), "the applicant who owns the account", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, path), testutil.Applicant(s.adminID)))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "institution_name", "Masjid Al-Noor")
	})
	testutil.Given(s.T(), "a super admin", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, path), testutil.SuperAdmin()))
		testutil.AssertStatusOK(t, rr)
	})
	testutil.Given(s.T(), "another applicant", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, path), testutil.Applicant(domain.NewAdminID())))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}

func (s *HandlerSuite) TestThrottledReapplyMapsToTooManyRequests() {
	applicant := testutil.Applicant(s.adminID)
	s.svc.EXPECT().Reapply(gomock.Any(), s.adminID, applicant, s.instID, "WRONG123", "").
		Return(nil, dErrors.New(dErrors.CodeRateLimited, "too many verification attempts, try again later"))

	body := ReapplyRequest{InstitutionID: s.instID.String(), VerificationCode: "WRONG123"}
	req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admins/"+s.adminID.String()+"/reapply", body), applicant)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, string(dErrors.CodeRateLimited))
}

func (s *HandlerSuite) TestSignInIssuesFreshToken() {
	account := s.account()
	s.svc.EXPECT().SignIn(gomock.Any(), "yusuf@example.org", s.instID, "XJ4K9QRT").Return(account, nil)
	s.tokens.EXPECT().GenerateAccessToken(domain.Actor{ID: s.adminID.String(), Role: domain.RoleApplicant, Name: "Yusuf Rahman"}, time.Hour).
		Return("fresh-token", nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications/session", SignInRequest{
		Email: "yusuf@example.org", InstitutionID: s.instID.String(), VerificationCode: "XJ4K9QRT",
	}))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[applyView](s.T(), rr)
	s.Equal("fresh-token", resp.AccessToken)
	s.Equal(3600, resp.ExpiresIn)
	s.Equal(s.adminID, resp.Account.AdminID)
}

func (s *HandlerSuite) TestSignInFailures() {
	body := SignInRequest{Email: "yusuf@example.org", InstitutionID: s.instID.String(), VerificationCode: "WRONG123"}

	testutil.Given(s.T(), "credentials that do not match", func(t *testing.T) {
		s.svc.EXPECT().SignIn(gomock.Any(), body.Email, s.instID, body.VerificationCode).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "email or verification code does not match"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/applications/session", body))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
	testutil.Given(s.T(), "a caller over the attempt limit", func(t *testing.T) {
		s.svc.EXPECT().SignIn(gomock.Any(), body.Email, s.instID, body.VerificationCode).
			Return(nil, dErrors.New(dErrors.CodeRateLimited, "too many verification attempts, try again later"))
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/applications/session", body))
		testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, string(dErrors.CodeRateLimited))
	})
	testutil.Given(s.T(), "a request without a code", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/applications/session",
			map[string]any{"email": body.Email, "institution_id": s.instID.String()}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func TestSignInRouteNeedsTokenIssuer(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := New(mocks.NewMockService(ctrl), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/applications/session",
		SignInRequest{Email: "yusuf@example.org", InstitutionID: domain.NewInstitutionID().String(), VerificationCode: "XJ4K9QRT"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestListAdmins() {
	account := s.account()
	s.svc.EXPECT().ListByStatus(gomock.Any(), models.StatusPending, domain.Page{Limit: 10, Offset: 20}).
		Return(&domain.Paged[*models.AdminAccount]{Items: []*models.AdminAccount{account}, Total: 21, Limit: 10, Offset: 20}, nil)

	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/admins?status=pending&limit=10&offset=20"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[accountListView](s.T(), rr)
	s.Equal(21, resp.Total)
	s.Require().Len(resp.Items, 1)
	s.Equal(s.adminID, resp.Items[0].AdminID)
}

func (s *HandlerSuite) TestListAdminsRejectsBadPage() {
	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/admins?limit=-1"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *HandlerSuite) TestAuditExportStreamsCSV() {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.svc.EXPECT().ExportAuditLog(gomock.Any(), audit.Filter{ActionType: audit.ActionAdminRejected, From: from}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ audit.Filter, w io.Writer) error {
			_, err := io.WriteString(w, "id,timestamp\n")
			return err
		})

	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet,
		"/audit/export?action_type=admin_rejected&from=2026-01-01T00:00:00Z"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	s.Contains(rr.Header().Get("Content-Disposition"), "attachment")
	s.Equal("id,timestamp\n", rr.Body.String())
}

func (s *HandlerSuite) TestAuditExportFailureBeforeOutput() {
	s.svc.EXPECT().ExportAuditLog(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeValidation, "from must not be after to"))
	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/audit/export"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *HandlerSuite) TestAuditQueryRejectsBadTimestamp() {
	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/audit?from=yesterday"), testutil.SuperAdmin())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *HandlerSuite) TestPurgeAudit() {
	system := domain.Actor{ID: "retention-job", Role: domain.RoleSystem}
	s.svc.EXPECT().PurgeAuditLog(gomock.Any(), system, 90, "quarterly retention").Return(42, nil)

	req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/audit/purge",
		PurgeAuditRequest{OlderThanDays: 90, Reason: "quarterly retention"}), system)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "deleted", float64(42))
}

func (s *HandlerSuite) TestBulkDeleteIsClosedToApplicants() {
	req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/audit/bulk-delete",
		BulkDeleteAuditRequest{IDs: []string{"01J9ZK0000000000000000000A"}, Reason: "test data cleanup"}), testutil.Applicant(s.adminID))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}
