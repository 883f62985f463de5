// Package notify publishes grant decisions to NATS so downstream
// consumers (mailers, dashboards) can react without polling the API.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/soultie/soultie-be/internal/access"
)

const subjectPrefix = "soultie.access."

// Publisher emits access-grant transition events. A nil *Publisher is
// a valid no-op, so callers never need to branch on configuration.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

var _ access.Notifier = (*Publisher)(nil)

// Connect dials the NATS server and returns a publisher bound to it.
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("soultie-backend"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
	}
}

// GrantTransition publishes the event on soultie.access.<newStatus>.
// Delivery is best-effort; failures are logged and never surfaced to
// the request that triggered the transition.
func (p *Publisher) GrantTransition(ctx context.Context, event access.TransitionEvent) {
	if p == nil || p.conn == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal transition event", "error", err)
		return
	}
	subject := subjectPrefix + event.NewStatus
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("publish transition event failed", "subject", subject, "error", err)
	}
}
