package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher sends raw payloads to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Envelope wraps every event published to NATS
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     EventType       `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher mirrors bus events onto NATS subjects under a prefix
type NATSEventPublisher struct {
	client MessagePublisher
	prefix string

	// OnPublished, when set, is called after each successful publish
	OnPublished func(eventType string)
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client MessagePublisher, subjectPrefix string) *NATSEventPublisher {
	return &NATSEventPublisher{
		client: client,
		prefix: subjectPrefix,
	}
}

// SubjectFor maps an event to its NATS subject
func (p *NATSEventPublisher) SubjectFor(event Event) string {
	var suffix string
	switch event.Type() {
	case EventTypeChannelProvisioned:
		suffix = "channels.provisioned"
	case EventTypeProvisioningFailed:
		suffix = "channels.provisioning_failed"
	case EventTypeChannelTornDown:
		suffix = "channels.torn_down"
	case EventTypeOwnershipChanged:
		suffix = "channels.ownership_changed"
	default:
		suffix = fmt.Sprintf("unknown.%s", event.Type())
	}
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "." + suffix
}

// Publish wraps event in an envelope and sends it
func (p *NATSEventPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     event.Type(),
		Timestamp:     time.Now().UTC(),
		SourceService: "voicecreate",
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.SubjectFor(event)
	if err := p.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.OnPublished != nil {
		p.OnPublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

// SubscribeTo forwards every lifecycle event on bus. Publish failures are
// logged; the bus has already committed the change.
func (p *NATSEventPublisher) SubscribeTo(bus *Bus) {
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		if err := p.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to mirror event to NATS")
		}
	})
}
