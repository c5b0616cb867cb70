// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/metrics"
)

// PublisherConfig tunes the circuit breaker around publishes.
type PublisherConfig struct {
	// BreakerMaxFailures is the consecutive failure count before the
	// breaker opens.
	BreakerMaxFailures uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultPublisherConfig returns production settings.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
	}
}

// Publisher wraps a watermill publisher with circuit breaker protection.
// A failing bus trips the breaker and publishes become fast no-op errors;
// the write path logs and continues, it never blocks on notifications.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[any]
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher creates a breaker-protected publisher over the bus.
func NewPublisher(bus *Bus, cfg PublisherConfig) *Publisher {
	settings := gobreaker.Settings{
		Name:    "event-publisher",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.EventBreakerOpen.Set(1)
			} else {
				metrics.EventBreakerOpen.Set(0)
			}
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("event publisher breaker state change")
		},
	}

	return &Publisher{
		publisher:      bus.Publisher(),
		circuitBreaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// PublishEvent serializes the event and publishes it to its topic.
func (p *Publisher) PublishEvent(ctx context.Context, event *XPEvent) error {
	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("type", string(event.Type))
	msg.Metadata.Set("user_id", event.UserID)

	return p.Publish(ctx, event.Topic(), msg)
}

// Publish sends a message to the topic through the circuit breaker.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	_, err := p.circuitBreaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(topic, msg)
	})

	metrics.RecordEventPublish(topic, err)
	return err
}

// Close marks the publisher closed. The underlying bus is closed by its
// owner.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// BreakerState returns the current breaker state for health reporting.
func (p *Publisher) BreakerState() string {
	return p.circuitBreaker.State().String()
}
