package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

const DefaultSubject = "roadreport.incidents"

// NATSBus shares incident events between instances. Every published event
// comes back through the subscription and is relayed to local subscribers,
// so the publishing instance sees its own events exactly once.
type NATSBus struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	local   *Broadcaster
	logger  *slog.Logger
}

func NewNATSBus(url, subject string, logger *slog.Logger) (*NATSBus, error) {
	const op = "events.NewNATSBus"

	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(url,
		nats.Name("roadreporthub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("op", op), slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	b := &NATSBus{
		conn:    nc,
		subject: subject,
		local:   NewBroadcaster(),
		logger:  logger,
	}

	sub, err := nc.Subscribe(subject, b.relay)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%s: subscribe: %w", op, err)
	}
	b.sub = sub

	return b, nil
}

func (b *NATSBus) relay(msg *nats.Msg) {
	var ev domain.IncidentEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		b.logger.Warn("drop malformed incident event",
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
		return
	}
	b.local.Broadcast(ev)
}

func (b *NATSBus) Publish(ctx context.Context, ev domain.IncidentEvent) error {
	const op = "events.NATSBus.Publish"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *NATSBus) Subscribe() (uint64, <-chan domain.IncidentEvent) {
	return b.local.Subscribe()
}

func (b *NATSBus) Unsubscribe(id uint64) {
	b.local.Unsubscribe(id)
}

// Ping round-trips to the server.
func (b *NATSBus) Ping(ctx context.Context) error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats: %s", b.conn.Status())
	}
	return b.conn.FlushWithContext(ctx)
}

func (b *NATSBus) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.conn.Close()
	return b.local.Close()
}
