// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package eventbus carries XP lifecycle events between the ledger-facing
// write path and in-process consumers such as the WebSocket hub. Events
// are notifications, not state: the ledger remains authoritative and
// nothing replays events to rebuild balances.
package eventbus

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version. Increment on breaking
// changes to XPEvent.
const SchemaVersion = 1

// Topics
const (
	// TopicXPCredited carries one event per successful ledger credit.
	TopicXPCredited = "xp.credited"

	// TopicLevelUp carries one event per level boundary crossed by a
	// credit.
	TopicLevelUp = "xp.levelup"
)

// EventType discriminates XPEvent payloads.
type EventType string

const (
	EventXPCredited EventType = "xp_credited"
	EventLevelUp    EventType = "level_up"
)

// XPEvent is the canonical event envelope for XP activity.
type XPEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`

	UserID    string `json:"user_id"`
	VideoID   string `json:"video_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// Credit details
	Amount int `json:"amount,omitempty"`
	NewXP  int `json:"new_xp"`

	// Level transition, set for level_up events
	OldLevel int      `json:"old_level,omitempty"`
	NewLevel int      `json:"new_level"`
	Rewards  []string `json:"rewards,omitempty"`
}

// NewXPEvent creates an event with a unique ID, timestamp, and schema
// version.
func NewXPEvent(eventType EventType, userID string) *XPEvent {
	return &XPEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          eventType,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *XPEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.Type == "" {
		return fmt.Errorf("type is required")
	}
	if e.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// Topic returns the bus topic for this event's type.
func (e *XPEvent) Topic() string {
	if e.Type == EventLevelUp {
		return TopicLevelUp
	}
	return TopicXPCredited
}

// SerializeEvent marshals a validated event to JSON.
func SerializeEvent(event *XPEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent unmarshals JSON to an event. Legacy payloads without a
// schema version are normalized to version 1.
func DeserializeEvent(data []byte) (*XPEvent, error) {
	var event XPEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.SchemaVersion == 0 {
		event.SchemaVersion = 1
	}
	return &event, nil
}
