package kafka

import (
	"context"
	"fmt"
	"time"
)

const pingTimeout = 3 * time.Second

// Pinger reports whether a broker answers. Satisfied by *producer.Producer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is the readiness check for the audit event brokers. It reuses
// the producer's client so readiness reflects the connection audit events
// actually go through.
type HealthCheck struct {
	pinger  Pinger
	timeout time.Duration
}

func NewHealthCheck(p Pinger) *HealthCheck {
	return &HealthCheck{pinger: p, timeout: pingTimeout}
}

func (h *HealthCheck) Name() string { return "kafka" }

func (h *HealthCheck) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("kafka brokers unreachable: %w", err)
	}
	return nil
}
