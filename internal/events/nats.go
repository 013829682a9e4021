package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// RequestIDHeader carries the ID of the HTTP request that caused an event.
const RequestIDHeader = "X-Request-ID"

// natsConn is the part of *nats.Conn the publisher needs.
type natsConn interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher publishes JSON events on core NATS subjects.
type NATSPublisher struct {
	conn   natsConn
	logger *slog.Logger
}

// Connect dials NATS and returns a publisher along with the connection so the
// caller can drain it on shutdown.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("savoir"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return NewNATSPublisher(nc, logger), nc, nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn natsConn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, logger: logger}
}

// Publish encodes payload as JSON and publishes it. Every message gets its
// own Nats-Msg-Id; the request ID, when present in ctx, travels in
// RequestIDHeader.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	if id := domain.RequestIDFromContext(ctx); id != "" {
		msg.Header.Set(RequestIDHeader, id)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.Debug("event published", "subject", subject, "bytes", len(data))
	return nil
}
