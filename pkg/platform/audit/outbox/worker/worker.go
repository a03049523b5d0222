// Package worker moves queued audit events from the outbox to Kafka.
//
// Records are keyed by subject address, so every event of one subject lands
// on the same partition in the order it was queued. Delivery is at least
// once: an event published but not marked is sent again, and consumers
// dedupe on the outbox_id header.
package worker

import (
	"context"
	"log/slog"
	"time"

	"kycgate/internal/platform/kafka/producer"
	"kycgate/pkg/platform/audit/outbox"
	"kycgate/pkg/platform/audit/outbox/metrics"
)

const (
	DefaultTopic     = "kycgate.audit.events"
	defaultBatch     = 100
	defaultInterval  = 250 * time.Millisecond
	defaultLease     = 30 * time.Second
	defaultRetention = 7 * 24 * time.Hour
	drainTimeout     = 10 * time.Second
)

// Producer sends one record and waits for the ack. Satisfied by
// *producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

type Worker struct {
	store     outbox.Store
	producer  Producer
	topic     string
	batch     int
	interval  time.Duration
	lease     time.Duration
	retention time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) { w.topic = topic }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batch = n }
}

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

// WithLease sets how long a claimed entry stays hidden from other workers.
func WithLease(d time.Duration) Option {
	return func(w *Worker) { w.lease = d }
}

// WithRetention sets how long published entries are kept before Housekeep
// purges them. Zero keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(w *Worker) { w.retention = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func New(store outbox.Store, prod Producer, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		producer:  prod,
		topic:     DefaultTopic,
		batch:     defaultBatch,
		interval:  defaultInterval,
		lease:     defaultLease,
		retention: defaultRetention,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start polls in the background until Stop.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx)
}

// Stop ends polling and drains what is left. It returns ctx.Err() if the
// drain outlives ctx.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			_ = w.publishBatch(ctx)
		}
	}
}

// drain publishes until the outbox is empty or a whole batch fails, so a
// broker outage at shutdown cannot spin until the timeout.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	w.logger.InfoContext(ctx, "draining audit outbox")
	for ctx.Err() == nil {
		if w.publishBatch(ctx) == 0 {
			return
		}
	}
}

// publishBatch claims one batch and returns how many entries reached Kafka.
func (w *Worker) publishBatch(ctx context.Context) int {
	entries, err := w.store.Claim(ctx, w.batch, w.lease)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to claim audit outbox entries", "error", err)
		w.incFailures()
		return 0
	}
	if len(entries) == 0 {
		return 0
	}
	if w.metrics != nil {
		w.metrics.ObserveClaim(len(entries))
	}

	published := 0
	for _, entry := range entries {
		start := time.Now()
		if err := w.producer.Produce(ctx, w.message(entry)); err != nil {
			w.logger.WarnContext(ctx, "audit event not published",
				"outbox_id", entry.ID,
				"action", entry.Action,
				"attempt", entry.Attempts+1,
				"error", err,
			)
			w.incFailures()
			if rerr := w.store.Release(ctx, entry.ID, err.Error()); rerr != nil {
				w.logger.ErrorContext(ctx, "failed to release audit outbox entry", "outbox_id", entry.ID, "error", rerr)
			}
			continue
		}
		if w.metrics != nil {
			w.metrics.ObservePublish(time.Since(start).Seconds())
		}
		if err := w.store.MarkPublished(ctx, entry.ID, w.now()); err != nil {
			// the lease expires and the event goes out again
			w.logger.ErrorContext(ctx, "audit event published but not marked", "outbox_id", entry.ID, "error", err)
			continue
		}
		published++
		if w.metrics != nil {
			w.metrics.IncPublished(string(entry.Action))
		}
	}
	return published
}

func (w *Worker) message(entry *outbox.Entry) *producer.Message {
	return &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.Subject),
		Value: entry.Payload,
		Headers: map[string]string{
			"outbox_id": entry.ID.String(),
			"action":    string(entry.Action),
		},
	}
}

// Housekeep refreshes the backlog gauge and purges published entries older
// than the retention period. cmd/server calls it periodically.
func (w *Worker) Housekeep(ctx context.Context) error {
	backlog, err := w.store.Backlog(ctx)
	if err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.SetBacklog(backlog)
	}
	if w.retention <= 0 {
		return nil
	}
	purged, err := w.store.PurgePublished(ctx, w.now().Add(-w.retention))
	if err != nil {
		return err
	}
	if purged > 0 {
		w.logger.InfoContext(ctx, "purged published audit events", "count", purged)
		if w.metrics != nil {
			w.metrics.AddPurged(purged)
		}
	}
	return nil
}

func (w *Worker) incFailures() {
	if w.metrics != nil {
		w.metrics.IncFailures()
	}
}
