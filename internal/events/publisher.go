// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Corphon/VeoPromptStudio/internal/models"
)

// History subjects
const (
	SubjectHistoryCreated = "veo.history.created"
	SubjectHistoryDeleted = "veo.history.deleted"
)

const (
	natsConnectTimeout    = 5 * time.Second
	natsMaxReconnects     = 10
	natsReconnectInterval = 2 * time.Second
)

// HistoryEvent is the payload of every history subject. Clear is published as one
// deleted event with an empty ID and All set.
type HistoryEvent struct {
	ID        string             `json:"id,omitempty"`
	Type      models.HistoryType `json:"type,omitempty"`
	Timestamp int64              `json:"timestamp"`
	All       bool               `json:"all,omitempty"`
}

// Publisher receives history changes
type Publisher interface {
	Publish(ctx context.Context, subject string, event HistoryEvent) error
	Close()
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, HistoryEvent) error { return nil }
func (NopPublisher) Close()                                              {}

// NATSPublisher publishes events as JSON on core NATS subjects
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to url; reconnects are handled by the client
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("veo-prompt-studio"),
		nats.Timeout(natsConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event HistoryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, data)
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	_ = p.nc.Drain()
}

// Encode marshals an event
func Encode(event HistoryEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode history event: %w", err)
	}
	return data, nil
}
