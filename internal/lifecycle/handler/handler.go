// Package handler exposes the admin lifecycle over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/httputil"
	adminmw "minbar/pkg/platform/middleware/admin"
	request "minbar/pkg/platform/middleware/request"
	"minbar/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// maxBodyBytes caps request bodies; the largest legitimate one is a bulk delete.
const maxBodyBytes = 1 << 20

// Service is the lifecycle engine as seen by the transport.
type Service interface {
	CreateInstitution(ctx context.Context, actor domain.Actor, name, location string) (*models.Institution, error)
	GetInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error)
	DeleteInstitution(ctx context.Context, id domain.InstitutionID, actor domain.Actor, reason string) error
	RegenerateCode(ctx context.Context, id domain.InstitutionID, actor domain.Actor, reason string) (*models.Institution, error)

	ApplyForInstitution(ctx context.Context, actor domain.Actor, info models.ApplicantInfo, institutionID domain.InstitutionID) (*models.AdminAccount, error)
	Approve(ctx context.Context, adminID domain.AdminID, actor domain.Actor) (*models.AdminAccount, error)
	Reject(ctx context.Context, adminID domain.AdminID, actor domain.Actor, reason string) (*models.AdminAccount, error)
	RemoveAdmin(ctx context.Context, adminID domain.AdminID, actor domain.Actor, reason string) (*models.AdminAccount, error)
	GrantReapply(ctx context.Context, adminID domain.AdminID, actor domain.Actor, notes string) (*models.AdminAccount, error)
	Reapply(ctx context.Context, adminID domain.AdminID, actor domain.Actor, institutionID domain.InstitutionID, code, notes string) (*models.AdminAccount, error)
	SignIn(ctx context.Context, email string, institutionID domain.InstitutionID, code string) (*models.AdminAccount, error)

	GetAccountStatus(ctx context.Context, adminID domain.AdminID) (*models.AccountStatus, error)
	ListByStatus(ctx context.Context, status models.Status, page domain.Page) (*domain.Paged[*models.AdminAccount], error)

	ListAuditLog(ctx context.Context, filter audit.Filter, page domain.Page) (*domain.Paged[audit.Entry], error)
	ExportAuditLog(ctx context.Context, filter audit.Filter, w io.Writer) error
	PurgeAuditLog(ctx context.Context, actor domain.Actor, olderThanDays int, reason string) (int, error)
	BulkDeleteAuditLog(ctx context.Context, actor domain.Actor, ids []string, reason string) (int, error)
}

// TokenIssuer mints applicant bearer tokens.
type TokenIssuer interface {
	GenerateAccessToken(actor domain.Actor, expiresIn time.Duration) (string, error)
}

type Handler struct {
	svc      Service
	logger   *slog.Logger
	tokens   TokenIssuer
	tokenTTL time.Duration
}

type Option func(*Handler)

// WithTokenIssuer makes a successful application or sign-in return an
// applicant token. Without it the sign-in route is not mounted.
func WithTokenIssuer(issuer TokenIssuer, ttl time.Duration) Option {
	return func(h *Handler) {
		h.tokens = issuer
		h.tokenTTL = ttl
	}
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r. Lifecycle operations are not gated by
// role here: the engine refuses and audits callers without the right role.
// Reads that leave no audit trail are restricted up front.
func (h *Handler) Register(r chi.Router) {
	staff := adminmw.RequireRole(h.logger, domain.RoleSuperAdmin)
	maintainers := adminmw.RequireRole(h.logger, domain.RoleSuperAdmin, domain.RoleSystem)

	r.Post("/applications", h.handleApply)
	if h.tokens != nil {
		r.Post("/applications/session", h.handleSignIn)
	}

	r.Route("/institutions", func(r chi.Router) {
		r.Post("/", h.handleCreateInstitution)
		r.With(staff).Get("/{id}", h.handleGetInstitution)
		r.Delete("/{id}", h.handleDeleteInstitution)
		r.Post("/{id}/code/regenerate", h.handleRegenerateCode)
	})

	r.Route("/admins", func(r chi.Router) {
		r.With(staff).Get("/", h.handleListAdmins)
		r.Get("/{id}", h.handleGetAccountStatus)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/reject", h.handleReject)
		r.Post("/{id}/remove", h.handleRemove)
		r.Post("/{id}/grant-reapply", h.handleGrantReapply)
		r.Post("/{id}/reapply", h.handleReapply)
	})

	r.Route("/audit", func(r chi.Router) {
		r.With(staff).Get("/", h.handleListAudit)
		r.With(staff).Get("/export", h.handleExportAudit)
		r.With(maintainers).Post("/purge", h.handlePurgeAudit)
		r.With(maintainers).Post("/bulk-delete", h.handleBulkDeleteAudit)
	})
}

// requireActor returns the authenticated caller. Only the application and
// sign-in routes admit anonymous callers.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := requestcontext.Actor(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return actor, ok
}

// decode reads a JSON body into dst and runs its validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if isTooLarge(err) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body too large"))
			return false
		}
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", request.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	if err := models.Validate(dst); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}

// fail logs by severity and writes the coded error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", request.GetRequestID(ctx),
		"operation", op,
		"error", err.Error(),
	}
	if httputil.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "lifecycle request failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "lifecycle request refused", attrs...)
	}
	httputil.WriteError(w, err)
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func adminIDParam(r *http.Request) (domain.AdminID, error) {
	return domain.ParseAdminID(chi.URLParam(r, "id"))
}

func institutionIDParam(r *http.Request) (domain.InstitutionID, error) {
	return domain.ParseInstitutionID(chi.URLParam(r, "id"))
}

func parsePage(get func(string) string) (domain.Page, error) {
	var page domain.Page
	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &page.Limit}, {"offset", &page.Offset}} {
		raw := get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, dErrors.New(dErrors.CodeValidation, p.key+" must be a non-negative integer")
		}
		*p.dst = n
	}
	return page, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
