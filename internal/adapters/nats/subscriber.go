package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Subscriber consumes incident events with a durable JetStream consumer.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and makes sure the incident stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStream(js, IncidentStream); err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeIncidents delivers each reported incident to handler. A handler
// error naks the message for redelivery, up to three attempts.
func (s *Subscriber) SubscribeIncidents(ctx context.Context, durable string, handler func(ctx context.Context, inc *domain.Incident) error) error {
	sub, err := s.js.Subscribe(SubjectIncidentReported, func(msg *nats.Msg) {
		var inc domain.Incident
		if err := json.Unmarshal(msg.Data, &inc); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &inc); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.DeliverAll(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
