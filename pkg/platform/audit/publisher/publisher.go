// Package publisher hands audit events to an audit.Store, optionally from a
// background goroutine. Events are compliance records: a full buffer slows
// the caller down instead of losing the event.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/audit/metrics"
)

// persistTimeout bounds one background append.
const persistTimeout = 5 * time.Second

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.RWMutex
	queue  chan audit.Event
	closed bool
	wg     sync.WaitGroup
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer persists events from a background goroutine through a
// queue of the given size. Size 0 keeps Emit synchronous.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan audit.Event, size)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

func NewPublisher(store audit.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit stamps and validates event, then persists or queues it. A queued
// event's store error is logged, not returned.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Subject == "" || !audit.AuditEvent(event.Action).Known() {
		return dErrors.New(dErrors.CodeValidation, "audit event needs a subject and a known action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if p.metrics != nil {
		p.metrics.IncEmitted(event.Action)
	}
	if p.enqueue(event) {
		return nil
	}
	return p.persist(ctx, event)
}

// enqueue reports false when the caller must persist inline: no queue,
// publisher closed, or queue full.
func (p *Publisher) enqueue(event audit.Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.queue == nil || p.closed {
		return false
	}
	select {
	case p.queue <- event:
		return true
	default:
		if p.metrics != nil {
			p.metrics.IncOverflow()
		}
		p.logger.Warn("audit buffer full, persisting inline",
			"action", event.Action,
			"subject", event.Subject,
		)
		return false
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := p.persist(ctx, event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"subject", event.Subject,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		cancel()
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	start := time.Now()
	err := p.store.Append(ctx, event)
	if p.metrics != nil {
		p.metrics.ObservePersist(time.Since(start).Seconds())
		if err != nil {
			p.metrics.IncPersistFailures(event.Action)
		}
	}
	return err
}

// Close drains the queue and waits for it. Later Emits persist inline.
// Close is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed || p.queue == nil {
		p.closed = true
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}
