package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`             // chain address of the subject
	Action    string    `json:"action"`              // one of the AuditEvent values
	ObjectID  string    `json:"object_id,omitempty"` // DID or credential object id
	Reference string    `json:"reference,omitempty"` // mirror key or transaction digest
	RequestID string    `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventSubjectRegistered AuditEvent = "subject_registered"
	EventDIDProvisioned    AuditEvent = "did_provisioned"
	EventVCIssued          AuditEvent = "vc_issued"
	EventVCRevoked         AuditEvent = "vc_revoked"
)

// Known reports whether a is one of the events above.
func (a AuditEvent) Known() bool {
	switch a {
	case EventSubjectRegistered, EventDIDProvisioned, EventVCIssued, EventVCRevoked:
		return true
	}
	return false
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}
