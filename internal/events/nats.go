package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/i474232898/route-weather/internal/search"
)

const (
	StreamName             = "ROUTEWEATHER_SEARCHES"
	SubjectSearchCompleted = "routeweather.search.completed"
)

// Publisher sends search events to NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the search stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("route-weather"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := StreamConfig()
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// StreamConfig describes the stream holding search events.
func StreamConfig() nats.StreamConfig {
	return nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"routeweather.search.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
}

func (p *Publisher) PublishSearchCompleted(ctx context.Context, ev search.Completed) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSearchCompleted, data, nats.Context(ctx))
	return err
}

// Connected reports whether the underlying connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Nop discards events. It is used when NATS is not configured.
type Nop struct{}

func (Nop) PublishSearchCompleted(context.Context, search.Completed) error { return nil }
