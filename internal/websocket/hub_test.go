// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/watchpoints/watchpoints/internal/eventbus"
	"github.com/watchpoints/watchpoints/internal/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub, cancel
}

// waitForClients polls until the hub has at least n clients or the
// timeout elapses.
func waitForClients(hub *Hub, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if hub.ClientCount() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub.ClientCount() >= n
}

func registerClient(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	client := NewClient(hub, nil, userID)
	hub.Register <- client
	if !waitForClients(hub, 1, 2*time.Second) {
		t.Fatal("client not registered")
	}
	return client
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestSendToUserTargetsOnlyThatUser(t *testing.T) {
	hub, _ := startHub(t)

	alice := registerClient(t, hub, "alice")
	bob := NewClient(hub, nil, "bob")
	hub.Register <- bob
	if !waitForClients(hub, 2, 2*time.Second) {
		t.Fatal("second client not registered")
	}

	hub.SendToUser("alice", MessageTypeXPCredited, map[string]int{"amount": 50})

	msg := receive(t, alice)
	if msg.Type != MessageTypeXPCredited {
		t.Errorf("type = %q, want xp_credited", msg.Type)
	}

	select {
	case msg := <-bob.send:
		t.Errorf("bob received %+v, want nothing", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSendToUserReachesAllUserConnections(t *testing.T) {
	hub, _ := startHub(t)

	first := registerClient(t, hub, "alice")
	second := NewClient(hub, nil, "alice")
	hub.Register <- second
	if !waitForClients(hub, 2, 2*time.Second) {
		t.Fatal("second connection not registered")
	}

	hub.SendToUser("alice", MessageTypeLevelUp, nil)

	if msg := receive(t, first); msg.Type != MessageTypeLevelUp {
		t.Errorf("first: type = %q", msg.Type)
	}
	if msg := receive(t, second); msg.Type != MessageTypeLevelUp {
		t.Errorf("second: type = %q", msg.Type)
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub, _ := startHub(t)

	alice := registerClient(t, hub, "alice")
	bob := NewClient(hub, nil, "bob")
	hub.Register <- bob
	if !waitForClients(hub, 2, 2*time.Second) {
		t.Fatal("second client not registered")
	}

	hub.Broadcast(MessageTypePing, nil)

	if msg := receive(t, alice); msg.Type != MessageTypePing {
		t.Errorf("alice: type = %q", msg.Type)
	}
	if msg := receive(t, bob); msg.Type != MessageTypePing {
		t.Errorf("bob: type = %q", msg.Type)
	}
}

func TestUnregisterRemovesClient(t *testing.T) {
	hub, _ := startHub(t)

	client := registerClient(t, hub, "alice")
	hub.Unregister <- client

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after unregister, want 0", hub.ClientCount())
	}

	// send channel is closed by the hub
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("received message on unregistered client")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed")
	}
}

func TestConsumerForwardsLevelUp(t *testing.T) {
	hub, _ := startHub(t)
	bus := eventbus.NewBus(16)
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	consumer := NewConsumer(bus, hub)
	go func() { _ = consumer.Run(ctx) }()

	client := registerClient(t, hub, "u1")

	// Give the consumer a moment to establish subscriptions
	time.Sleep(50 * time.Millisecond)

	pub := eventbus.NewPublisher(bus, eventbus.DefaultPublisherConfig())
	event := eventbus.NewXPEvent(eventbus.EventLevelUp, "u1")
	event.OldLevel = 4
	event.NewLevel = 5
	event.NewXP = 5000
	event.Rewards = []string{"profile_badge"}
	if err := pub.PublishEvent(ctx, event); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	msg := receive(t, client)
	if msg.Type != MessageTypeLevelUp {
		t.Fatalf("type = %q, want level_up", msg.Type)
	}
	notification, ok := msg.Data.(models.LevelUpNotification)
	if !ok {
		t.Fatalf("data type = %T", msg.Data)
	}
	if notification.NewLevel != 5 || notification.OldLevel != 4 {
		t.Errorf("levels = %d->%d, want 4->5", notification.OldLevel, notification.NewLevel)
	}
	if len(notification.Rewards) != 1 || notification.Rewards[0] != "profile_badge" {
		t.Errorf("Rewards = %v", notification.Rewards)
	}
}
