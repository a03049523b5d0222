package outbox

import (
	"context"
	"time"

	"kycgate/pkg/platform/audit"
)

// Sink is an audit.Store that queues events for Kafka instead of keeping
// them locally.
type Sink struct {
	store Store
	now   func() time.Time
}

func NewSink(store Store) *Sink {
	return &Sink{store: store, now: time.Now}
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	entry, err := NewEntry(event, s.now())
	if err != nil {
		return err
	}
	return s.store.Enqueue(ctx, entry)
}

var _ audit.Store = (*Sink)(nil)
