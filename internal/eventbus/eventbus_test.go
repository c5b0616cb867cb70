// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestSerializeRoundTrip(t *testing.T) {
	event := NewXPEvent(EventLevelUp, "u1")
	event.VideoID = "v1"
	event.Amount = 50
	event.NewXP = 1000
	event.OldLevel = 1
	event.NewLevel = 2
	event.Rewards = []string{"profile_badge"}

	data, err := SerializeEvent(event)
	if err != nil {
		t.Fatalf("SerializeEvent: %v", err)
	}

	decoded, err := DeserializeEvent(data)
	if err != nil {
		t.Fatalf("DeserializeEvent: %v", err)
	}
	if decoded.EventID != event.EventID {
		t.Errorf("EventID = %q, want %q", decoded.EventID, event.EventID)
	}
	if decoded.Type != EventLevelUp {
		t.Errorf("Type = %q, want level_up", decoded.Type)
	}
	if decoded.NewLevel != 2 || decoded.OldLevel != 1 {
		t.Errorf("levels = %d->%d, want 1->2", decoded.OldLevel, decoded.NewLevel)
	}
	if len(decoded.Rewards) != 1 || decoded.Rewards[0] != "profile_badge" {
		t.Errorf("Rewards = %v", decoded.Rewards)
	}
}

func TestSerializeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		event *XPEvent
	}{
		{name: "missing event id", event: &XPEvent{Type: EventXPCredited, UserID: "u1"}},
		{name: "missing type", event: &XPEvent{EventID: "e1", UserID: "u1"}},
		{name: "missing user", event: &XPEvent{EventID: "e1", Type: EventXPCredited}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SerializeEvent(tt.event); err == nil {
				t.Error("SerializeEvent accepted invalid event")
			}
		})
	}
}

func TestDeserializeLegacySchemaVersion(t *testing.T) {
	event, err := DeserializeEvent([]byte(`{"event_id":"e1","type":"xp_credited","user_id":"u1"}`))
	if err != nil {
		t.Fatalf("DeserializeEvent: %v", err)
	}
	if event.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want 1", event.SchemaVersion)
	}
}

func TestEventTopic(t *testing.T) {
	if got := NewXPEvent(EventXPCredited, "u1").Topic(); got != TopicXPCredited {
		t.Errorf("Topic = %q, want %q", got, TopicXPCredited)
	}
	if got := NewXPEvent(EventLevelUp, "u1").Topic(); got != TopicLevelUp {
		t.Errorf("Topic = %q, want %q", got, TopicLevelUp)
	}
}

func TestPublishDelivery(t *testing.T) {
	bus := NewBus(16)
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicLevelUp)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	pub := NewPublisher(bus, DefaultPublisherConfig())

	event := NewXPEvent(EventLevelUp, "u1")
	event.OldLevel = 1
	event.NewLevel = 2
	if err := pub.PublishEvent(ctx, event); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	select {
	case msg := <-messages:
		decoded, err := DeserializeEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DeserializeEvent: %v", err)
		}
		if decoded.UserID != "u1" || decoded.NewLevel != 2 {
			t.Errorf("decoded = %+v", decoded)
		}
		if msg.Metadata.Get("type") != string(EventLevelUp) {
			t.Errorf("metadata type = %q", msg.Metadata.Get("type"))
		}
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPublisherClosed(t *testing.T) {
	bus := NewBus(16)
	t.Cleanup(func() { bus.Close() })

	pub := NewPublisher(bus, DefaultPublisherConfig())
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	event := NewXPEvent(EventXPCredited, "u1")
	if err := pub.PublishEvent(context.Background(), event); err == nil {
		t.Error("PublishEvent succeeded on closed publisher")
	}
}
