// Package recorder writes audit entries for every lifecycle operation.
//
// Recording never fails the caller. A lost entry is a compliance incident, so a
// failed append is logged at ERROR with a CRITICAL marker, counted, and handed
// to the configured Alerter. Persisted entries are mirrored to an optional Sink.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"

	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/audit/stream"
	"minbar/pkg/platform/ids"
	"minbar/pkg/requestcontext"
)

// Sink receives entries after they are persisted. It is called on the request
// path and must not block on the network.
type Sink interface {
	Publish(ctx context.Context, entry audit.Entry) error
}

// Alerter is notified when an entry could not be persisted.
type Alerter interface {
	AuditPersistFailed(ctx context.Context, entry audit.Entry, err error)
}

// Recorder appends entries to the audit store.
type Recorder struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	sink    Sink
	alerter Alerter
	now     func() time.Time
	newID   func(time.Time) string
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithSink mirrors persisted entries to sink.
func WithSink(sink Sink) Option {
	return func(r *Recorder) { r.sink = sink }
}

func WithAlerter(a Alerter) Option {
	return func(r *Recorder) { r.alerter = a }
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithIDGenerator(fn func(time.Time) string) Option {
	return func(r *Recorder) { r.newID = fn }
}

func New(store audit.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  ids.NewULID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps, enriches and persists entry, returning the stored form.
func (r *Recorder) Record(ctx context.Context, entry audit.Entry) audit.Entry {
	start := time.Now()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}
	if entry.ID == "" {
		entry.ID = r.newID(entry.Timestamp)
	}
	if entry.Outcome == "" {
		entry.Outcome = audit.OutcomeSuccess
	}
	entry.Details = enrich(ctx, entry.Details)

	// The caller's deadline may already be spent by the operation it audits.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.Append(persistCtx, entry); err != nil {
		if r.metrics != nil {
			r.metrics.PersistFailures.Inc()
		}
		r.logger.ErrorContext(ctx, "CRITICAL: audit entry not persisted",
			"audit_id", entry.ID,
			"action", entry.ActionType,
			"actor_id", entry.PerformedBy.ID,
			"target_type", entry.Target.Type,
			"target_id", entry.Target.ID,
			"outcome", entry.Outcome,
			"error", err,
		)
		if r.alerter != nil {
			r.alerter.AuditPersistFailed(ctx, entry, err)
		}
		return entry
	}

	if r.metrics != nil {
		r.metrics.Recorded.WithLabelValues(string(entry.ActionType), string(entry.Outcome)).Inc()
		r.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}

	if r.sink != nil {
		if err := r.sink.Publish(persistCtx, entry); err != nil &&
			!errors.Is(err, stream.ErrBreakerOpen) && !errors.Is(err, stream.ErrQueueFull) {
			r.logger.WarnContext(ctx, "audit entry not mirrored to stream",
				"audit_id", entry.ID,
				"error", err,
			)
		}
	}
	return entry
}

func enrich(ctx context.Context, details map[string]any) map[string]any {
	out := make(map[string]any, len(details)+3)
	maps.Copy(out, details)
	if id := requestcontext.RequestID(ctx); id != "" {
		out["request_id"] = id
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		out["client_ip"] = ip
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		out["user_agent"] = ua
	}
	return out
}
