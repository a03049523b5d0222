package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kycgate/pkg/platform/audit"
)

// Entry is an audit event queued for publishing.
type Entry struct {
	ID          uuid.UUID
	Subject     string // partition key: a subject's events keep their order
	Action      audit.AuditEvent
	Payload     []byte // JSON audit.Event
	QueuedAt    time.Time
	Attempts    int    // failed publish attempts so far
	LastError   string // cause of the most recent failed attempt
	PublishedAt *time.Time
}

// NewEntry encodes event into a fresh entry queued at now.
func NewEntry(event audit.Event, now time.Time) (*Entry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	return &Entry{
		ID:       uuid.New(),
		Subject:  event.Subject,
		Action:   audit.AuditEvent(event.Action),
		Payload:  payload,
		QueuedAt: now,
	}, nil
}

func (e *Entry) Published() bool {
	return e.PublishedAt != nil
}

// Event decodes the queued audit event.
func (e *Entry) Event() (audit.Event, error) {
	var event audit.Event
	if err := json.Unmarshal(e.Payload, &event); err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox entry %s: %w", e.ID, err)
	}
	return event, nil
}
