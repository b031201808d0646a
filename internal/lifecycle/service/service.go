// Package service is the admin lifecycle engine. Every exported operation loads
// current state, evaluates the state table guards, commits the transition
// atomically through the Store, and records exactly one audit entry before it
// returns, whether the call succeeded or failed.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minbar/internal/lifecycle/metrics"
	"minbar/internal/lifecycle/models"
	"minbar/internal/lifecycle/reapply"
	"minbar/internal/lifecycle/throttle"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/sentinel"
	"minbar/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks

// DefaultTimeout bounds an operation whose context carries no deadline.
const DefaultTimeout = 5 * time.Second

// Store persists accounts and institutions. See the store package for the error contract.
type Store interface {
	CreateInstitution(ctx context.Context, inst *models.Institution) error
	FindInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error)
	CreateAccount(ctx context.Context, account *models.AdminAccount) error
	FindAccount(ctx context.Context, id domain.AdminID) (*models.AdminAccount, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	ListAccounts(ctx context.Context, status models.Status, page domain.Page) ([]*models.AdminAccount, int, error)
	Commit(ctx context.Context, t models.Transition) error
}

// AuditRecorder writes one entry per operation and never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) audit.Entry
}

// AuditLog is the read and maintenance side of the audit store.
type AuditLog interface {
	List(ctx context.Context, filter audit.Filter, page domain.Page) ([]audit.Entry, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

// AttemptLimiter rations verification-code attempts per key.
type AttemptLimiter interface {
	Allow(key string) bool
}

// SessionRevoker invalidates an admin's sessions once they leave the approved state.
type SessionRevoker interface {
	RevokeAdmin(ctx context.Context, adminID domain.AdminID, at time.Time) error
}

type Service struct {
	store     Store
	validator *reapply.Validator
	recorder  AuditRecorder
	auditLog  AuditLog
	revoker   SessionRevoker
	limiter   AttemptLimiter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
	timeout   time.Duration

	newAdminID       func() domain.AdminID
	newInstitutionID func() domain.InstitutionID
	newCode          func() (string, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the request time carried in the context.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSessionRevoker(r SessionRevoker) Option {
	return func(s *Service) { s.revoker = r }
}

// WithTimeout sets the deadline applied when the caller's context has none.
// Zero disables it.
// WithAttemptLimiter throttles every operation that checks a verification
// code. Throttled calls fail with rate_limited and are audited like any other
// refusal.
func WithAttemptLimiter(l AttemptLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithIDGenerators replaces the random account and institution identifiers.
func WithIDGenerators(admin func() domain.AdminID, institution func() domain.InstitutionID) Option {
	return func(s *Service) {
		if admin != nil {
			s.newAdminID = admin
		}
		if institution != nil {
			s.newInstitutionID = institution
		}
	}
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func New(store Store, recorder AuditRecorder, auditLog AuditLog, opts ...Option) *Service {
	s := &Service{
		store:            store,
		validator:        reapply.New(store),
		recorder:         recorder,
		auditLog:         auditLog,
		logger:           slog.Default(),
		tracer:           otel.Tracer("minbar/lifecycle"),
		timeout:          DefaultTimeout,
		newAdminID:       domain.NewAdminID,
		newInstitutionID: domain.NewInstitutionID,
		newCode:          models.NewVerificationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return requestcontext.Now(ctx).UTC()
}

// run wraps one operation in a span, the operation timeout and metrics. The
// error it returns is always coded.
func (s *Service) run(ctx context.Context, action models.Action, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "lifecycle."+string(action), trace.WithAttributes(attrs...))
	defer span.End()

	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := translate(fn(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(string(action), string(dErrors.CodeOf(err)), start)
	}
	return err
}

// withRetry re-runs fn once when its commit lost an optimistic version check.
// fn must reload state and re-evaluate its guards.
func (s *Service) withRetry(ctx context.Context, action models.Action, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, sentinel.ErrConflict) {
		return err
	}
	s.logger.InfoContext(ctx, "retrying after version conflict", "action", action)
	err = fn(ctx)
	if s.metrics != nil {
		s.metrics.IncConflict(string(action), !errors.Is(err, sentinel.ErrConflict))
	}
	return err
}

// translate turns store sentinels and context errors into coded errors.
// Errors that already carry a code pass through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation timed out")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "state changed concurrently, try again")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeValidation, "an account with this email already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "unexpected store failure")
	}
}

func (s *Service) allow(key string) error {
	if s.limiter == nil || s.limiter.Allow(key) {
		return nil
	}
	return dErrors.New(dErrors.CodeRateLimited, "too many verification attempts, try again later")
}

// callerKey names who is guessing: the signed-in actor if there is one,
// otherwise the client address.
func callerKey(ctx context.Context, actor domain.Actor) string {
	if actor.ID != "" {
		return actor.ID
	}
	return throttle.ClientKey(requestcontext.ClientIP(ctx))
}

func (s *Service) loadAccount(ctx context.Context, id domain.AdminID) (*models.AdminAccount, error) {
	account, err := s.store.FindAccount(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "admin account not found")
	}
	return account, err
}

func (s *Service) loadInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	inst, err := s.store.FindInstitution(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeInstitutionNotFound, "institution not found")
	}
	return inst, err
}

// revokeSessions runs after the commit. A failure leaves the transition in
// place; it is logged and counted for follow-up.
func (s *Service) revokeSessions(ctx context.Context, adminID domain.AdminID, at time.Time) {
	if s.revoker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTimeout)
	defer cancel()
	if err := s.revoker.RevokeAdmin(ctx, adminID, at); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke admin sessions",
			"admin_id", adminID.String(),
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncRevocationFailure()
		}
	}
}

// record writes the single audit entry for an operation. The outcome and the
// error code follow err.
func (s *Service) record(ctx context.Context, action audit.ActionType, actor domain.Actor, target audit.Target, details map[string]any, err error) {
	if details == nil {
		details = map[string]any{}
	}
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = audit.OutcomeFailed
		details["error_code"] = string(dErrors.CodeOf(err))
		details["error"] = dErrors.MessageOf(err)
	}
	s.recorder.Record(ctx, audit.Entry{
		ActionType:  action,
		PerformedBy: actor,
		Target:      target,
		Details:     details,
		Outcome:     outcome,
	})
	s.logger.InfoContext(ctx, "lifecycle operation",
		"log_type", "audit",
		"action", action,
		"actor_id", actor.ID,
		"actor_role", actor.Role,
		"target_id", target.ID,
		"outcome", outcome,
	)
}

func accountTarget(id domain.AdminID, account *models.AdminAccount) audit.Target {
	t := audit.Target{Type: audit.TargetAdminAccount, ID: id.String()}
	if account != nil {
		t.Name = account.Name
	}
	return t
}

func institutionTarget(id domain.InstitutionID, inst *models.Institution) audit.Target {
	t := audit.Target{Type: audit.TargetInstitution, ID: id.String()}
	if inst != nil {
		t.Name = inst.Name
	}
	return t
}

func requireSuperAdmin(action models.Action, from models.Status, actor domain.Actor) error {
	if !actor.IsSuperAdmin() {
		return models.InvalidTransition(action, from, "requires a super admin")
	}
	return nil
}
