// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package websocket

import (
	"context"

	"github.com/watchpoints/watchpoints/internal/eventbus"
	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/models"
)

// Consumer subscribes to XP events on the bus and forwards them to the
// owning user's websocket connections.
type Consumer struct {
	bus *eventbus.Bus
	hub *Hub
}

// NewConsumer creates a bus-to-hub forwarder.
func NewConsumer(bus *eventbus.Bus, hub *Hub) *Consumer {
	return &Consumer{bus: bus, hub: hub}
}

// Run consumes both XP topics until ctx is cancelled. Designed for suture
// supervision; subscription channels close with the context.
func (c *Consumer) Run(ctx context.Context) error {
	credited, err := c.bus.Subscribe(ctx, eventbus.TopicXPCredited)
	if err != nil {
		return err
	}
	levelUps, err := c.bus.Subscribe(ctx, eventbus.TopicLevelUp)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Str("component", "websocket-consumer").
				Msg("event consumer stopped")
			return ctx.Err()

		case msg, ok := <-credited:
			if !ok {
				return ctx.Err()
			}
			c.forward(msg.Payload, MessageTypeXPCredited)
			msg.Ack()

		case msg, ok := <-levelUps:
			if !ok {
				return ctx.Err()
			}
			c.forward(msg.Payload, MessageTypeLevelUp)
			msg.Ack()
		}
	}
}

func (c *Consumer) forward(payload []byte, messageType string) {
	event, err := eventbus.DeserializeEvent(payload)
	if err != nil {
		logging.Warn().Err(err).Msg("dropping undecodable event")
		return
	}

	switch messageType {
	case MessageTypeLevelUp:
		c.hub.SendToUser(event.UserID, messageType, models.LevelUpNotification{
			UserID:    event.UserID,
			OldLevel:  event.OldLevel,
			NewLevel:  event.NewLevel,
			XP:        event.NewXP,
			Rewards:   event.Rewards,
			Timestamp: event.Timestamp,
		})
	default:
		c.hub.SendToUser(event.UserID, messageType, event)
	}
}
