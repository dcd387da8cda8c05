package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeChannelProvisioned EventType = "channel_provisioned"
	EventTypeProvisioningFailed EventType = "provisioning_failed"
	EventTypeChannelTornDown    EventType = "channel_torn_down"
	EventTypeOwnershipChanged   EventType = "ownership_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ChannelProvisionedEvent is emitted once a channel pair is created and recorded
type ChannelProvisionedEvent struct {
	GuildID         int64  `json:"guild_id"`
	OwnerID         int64  `json:"owner_id"`
	CreateChannelID int64  `json:"create_channel_id"`
	VoiceChannelID  int64  `json:"voice_channel_id"`
	TextChannelID   *int64 `json:"text_channel_id,omitempty"`
	Locked          bool   `json:"locked"`
}

func (e ChannelProvisionedEvent) Type() EventType {
	return EventTypeChannelProvisioned
}

// ProvisioningFailedEvent is emitted when a join to a create channel could not be served
type ProvisioningFailedEvent struct {
	GuildID         int64  `json:"guild_id"`
	UserID          int64  `json:"user_id"`
	CreateChannelID int64  `json:"create_channel_id"`
	Stage           string `json:"stage"`
	Reason          string `json:"reason"`
}

func (e ProvisioningFailedEvent) Type() EventType {
	return EventTypeProvisioningFailed
}

// ChannelTornDownEvent is emitted after a tracked pair's history row is written
type ChannelTornDownEvent struct {
	GuildID        int64  `json:"guild_id"`
	OwnerID        int64  `json:"owner_id"`
	VoiceChannelID int64  `json:"voice_channel_id"`
	TextChannelID  *int64 `json:"text_channel_id,omitempty"`
}

func (e ChannelTornDownEvent) Type() EventType {
	return EventTypeChannelTornDown
}

// OwnershipChangedEvent is emitted on transfer or claim
type OwnershipChangedEvent struct {
	GuildID        int64  `json:"guild_id"`
	VoiceChannelID int64  `json:"voice_channel_id"`
	OldOwnerID     int64  `json:"old_owner_id"`
	NewOwnerID     int64  `json:"new_owner_id"`
	Reason         string `json:"reason"` // "transfer" or "claim"
}

func (e OwnershipChangedEvent) Type() EventType {
	return EventTypeOwnershipChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds one handler to every lifecycle event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range []EventType{
		EventTypeChannelProvisioned,
		EventTypeProvisioningFailed,
		EventTypeChannelTornDown,
		EventTypeOwnershipChanged,
	} {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers. Handlers run on their
// own goroutines and a panicking handler is logged and dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish emits on a background context, for callers outside a unit of work
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// The transaction context may already be done by the time handlers run.
	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
