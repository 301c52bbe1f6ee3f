package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/nats-io/nats.go"
)

// Publisher emits ping transitions and alerts on NATS subjects rooted at prefix.
type Publisher struct {
	Conn   *nats.Conn
	prefix string
}

type alertMessage struct {
	Recipient string      `json:"recipient"`
	Alert     model.Alert `json:"alert"`
}

func NewPublisher(url, prefix string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("logpulse"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{Conn: conn, prefix: prefix}, nil
}

func TransitionSubject(prefix string, event model.TransitionEvent) string {
	return fmt.Sprintf("%s.transitions.%s", prefix, event.ProjectID)
}

func AlertSubject(prefix string, recipient model.Recipient) string {
	return fmt.Sprintf("%s.alerts.%s", prefix, recipient.ID)
}

func (p *Publisher) PublishTransition(ctx context.Context, event model.TransitionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode transition: %w", err)
	}
	return p.publish(TransitionSubject(p.prefix, event), data)
}

// Send makes the publisher usable as a notification channel.
func (p *Publisher) Send(ctx context.Context, recipient model.Recipient, alert model.Alert) error {
	data, err := json.Marshal(alertMessage{Recipient: recipient.ID, Alert: alert})
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	return p.publish(AlertSubject(p.prefix, recipient), data)
}

func (p *Publisher) publish(subject string, data []byte) error {
	if err := p.Conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.Conn != nil {
		p.Conn.Drain()
		p.Conn.Close()
	}
}
