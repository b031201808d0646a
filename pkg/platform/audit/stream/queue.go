package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "minbar/pkg/platform/audit"
)

// ErrQueueFull is returned when the publish queue has no room for an entry.
var ErrQueueFull = errors.New("audit stream queue full")

// Publisher sends one entry to the stream.
type Publisher interface {
	Publish(ctx context.Context, entry audit.Entry) error
}

// Queue hands entries to a single background publisher so a slow or
// unreachable broker never holds up the request that recorded them. When the
// queue is full the entry is dropped; the audit store still has it.
type Queue struct {
	next    Publisher
	entries chan audit.Entry
	done    chan struct{}
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics

	mu     sync.RWMutex
	closed bool
}

type QueueOption func(*Queue)

func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) { q.logger = logger }
}

func WithQueueMetrics(m *Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// WithPublishTimeout bounds each background publish.
func WithPublishTimeout(d time.Duration) QueueOption {
	return func(q *Queue) { q.timeout = d }
}

// NewQueue starts the background publisher. Close stops it.
func NewQueue(next Publisher, size int, opts ...QueueOption) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		next:    next,
		entries: make(chan audit.Entry, size),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.run()
	return q
}

// Publish enqueues entry without waiting for the broker.
func (q *Queue) Publish(_ context.Context, entry audit.Entry) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueFull
	}
	select {
	case q.entries <- entry:
		return nil
	default:
		if q.metrics != nil {
			q.metrics.QueueDropped.Inc()
		}
		return ErrQueueFull
	}
}

// Close stops accepting entries and waits for the queued ones to be sent.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.entries)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for entry := range q.entries {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.next.Publish(ctx, entry)
		cancel()
		if err != nil && !errors.Is(err, ErrBreakerOpen) {
			q.logger.Warn("audit entry not mirrored to stream",
				"audit_id", entry.ID,
				"error", err,
			)
		}
	}
}
