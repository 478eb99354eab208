package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Subjects and stream names.
const (
	StreamIncidents         = "SAFEROUTE_INCIDENTS"
	SubjectIncidents        = "saferoute.incidents.>"
	SubjectIncidentReported = "saferoute.incidents.reported"
)

// IncidentStream is the JetStream stream backing incident events.
var IncidentStream = nats.StreamConfig{
	Name:      StreamIncidents,
	Subjects:  []string{SubjectIncidents},
	Retention: nats.LimitsPolicy,
	MaxAge:    7 * 24 * time.Hour,
	Storage:   nats.FileStorage,
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the incident stream exists.
func NewPublisher(url string) (*Publisher, error) {
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

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStream adds cfg, or updates it if it already exists.
func EnsureStream(js nats.JetStreamManager, cfg nats.StreamConfig) error {
	if _, err := js.AddStream(&cfg); err != nil {
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishIncident emits the incident on saferoute.incidents.reported. The
// incident ID is used as the message ID so JetStream drops duplicates.
func (p *Publisher) PublishIncident(ctx context.Context, inc *domain.Incident) error {
	data, err := json.Marshal(inc)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectIncidentReported, data, nats.Context(ctx), nats.MsgId(inc.ID))
	return err
}

// Conn exposes the underlying connection (e.g. for the WebSocket relay).
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("saferoute"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
