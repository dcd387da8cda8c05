package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type recordingClient struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (c *recordingClient) Publish(ctx context.Context, subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func (c *recordingClient) snapshot() []publishedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishedMessage(nil), c.messages...)
}

func TestNATSEventPublisher_SubjectFor(t *testing.T) {
	p := NewNATSEventPublisher(&recordingClient{}, "voicecreate")

	assert.Equal(t, "voicecreate.channels.provisioned", p.SubjectFor(ChannelProvisionedEvent{}))
	assert.Equal(t, "voicecreate.channels.provisioning_failed", p.SubjectFor(ProvisioningFailedEvent{}))
	assert.Equal(t, "voicecreate.channels.torn_down", p.SubjectFor(ChannelTornDownEvent{}))
	assert.Equal(t, "voicecreate.channels.ownership_changed", p.SubjectFor(OwnershipChangedEvent{}))

	bare := NewNATSEventPublisher(&recordingClient{}, "")
	assert.Equal(t, "channels.torn_down", bare.SubjectFor(ChannelTornDownEvent{}))
}

func TestNATSEventPublisher_PublishEnvelope(t *testing.T) {
	client := &recordingClient{}
	p := NewNATSEventPublisher(client, "voicecreate")

	var published []string
	p.OnPublished = func(eventType string) { published = append(published, eventType) }

	textID := int64(201)
	require.NoError(t, p.Publish(context.Background(), ChannelTornDownEvent{
		GuildID:        1,
		OwnerID:        7,
		VoiceChannelID: 200,
		TextChannelID:  &textID,
	}))

	messages := client.snapshot()
	require.Len(t, messages, 1)
	assert.Equal(t, "voicecreate.channels.torn_down", messages[0].subject)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(messages[0].data, &envelope))
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)
	assert.Equal(t, EventTypeChannelTornDown, envelope.EventType)
	assert.Equal(t, "voicecreate", envelope.SourceService)
	assert.WithinDuration(t, time.Now(), envelope.Timestamp, time.Minute)

	var payload ChannelTornDownEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, int64(200), payload.VoiceChannelID)
	require.NotNil(t, payload.TextChannelID)
	assert.Equal(t, int64(201), *payload.TextChannelID)

	assert.Equal(t, []string{string(EventTypeChannelTornDown)}, published)
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	p := NewNATSEventPublisher(&recordingClient{err: errors.New("no servers")}, "voicecreate")
	called := false
	p.OnPublished = func(string) { called = true }

	err := p.Publish(context.Background(), OwnershipChangedEvent{GuildID: 1})
	assert.ErrorContains(t, err, "no servers")
	assert.False(t, called)
}

func TestNATSEventPublisher_SubscribeTo(t *testing.T) {
	client := &recordingClient{}
	bus := NewBus()
	NewNATSEventPublisher(client, "vc").SubscribeTo(bus)

	bus.Publish(ChannelProvisionedEvent{GuildID: 1, VoiceChannelID: 200})
	bus.Publish(OwnershipChangedEvent{GuildID: 1, VoiceChannelID: 200, Reason: "claim"})

	require.Eventually(t, func() bool {
		return len(client.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	subjects := []string{client.snapshot()[0].subject, client.snapshot()[1].subject}
	assert.ElementsMatch(t, []string{"vc.channels.provisioned", "vc.channels.ownership_changed"}, subjects)
}

func TestNATSClient_PublishRequiresConnection(t *testing.T) {
	client := NewNATSClient("nats://localhost:4222")
	assert.False(t, client.IsConnected())
	assert.Error(t, client.Publish(context.Background(), "vc.test", []byte("{}")))
	assert.NoError(t, client.Close())
}
