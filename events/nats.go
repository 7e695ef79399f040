package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes events to "<subject>.<type>" and delivers everything
// received on "<subject>.>" to local subscribers, so a broadcast reaches the
// connections of every instance. Payloads arrive as json.RawMessage.
type NATSBus struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
	local   *LocalBus
	logger  *slog.Logger
}

// NewNATSBus connects to url and starts the delivery subscription.
func NewNATSBus(url, subject string, logger *slog.Logger) (*NATSBus, error) {
	conn, err := nats.Connect(url, nats.Name("arena_backend"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	b := &NATSBus{
		conn:    conn,
		subject: subject,
		local:   NewLocalBus(),
		logger:  logger,
	}

	b.sub, err = conn.Subscribe(subject+".>", b.onMessage)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s.>: %w", subject, err)
	}

	return b, nil
}

func (b *NATSBus) onMessage(msg *nats.Msg) {
	var wire struct {
		Type    string          `json:"type"`
		Group   string          `json:"group"`
		Target  string          `json:"target"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		b.logger.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
		return
	}

	b.local.deliver(Event{
		Type:    wire.Type,
		Group:   wire.Group,
		Target:  wire.Target,
		Payload: wire.Payload,
	})
}

func (b *NATSBus) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}
	return b.conn.Publish(b.subject+"."+subjectToken(ev.Type), data)
}

func (b *NATSBus) Subscribe(h Handler) {
	b.local.Subscribe(h)
}

// Close drains the subscription and closes the connection.
func (b *NATSBus) Close() error {
	if err := b.sub.Unsubscribe(); err != nil {
		b.logger.Warn("unsubscribe events", "error", err)
	}
	return b.conn.Drain()
}

// subjectToken turns an event type such as "chat message" into a single
// subject token.
func subjectToken(eventType string) string {
	out := []byte(eventType)
	for i, c := range out {
		switch c {
		case ' ', '.', '*', '>':
			out[i] = '_'
		}
	}
	return string(out)
}
