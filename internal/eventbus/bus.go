// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package eventbus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/watchpoints/watchpoints/internal/logging"
)

// Bus is the in-process pub/sub fabric. GoChannel delivers each message to
// every subscriber of a topic; delivery stops when the bus closes.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the in-process bus. bufferSize is the per-subscriber
// output buffer; a slow consumer blocks only itself once its buffer fills.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
		},
		newWatermillLogger(),
	)
	return &Bus{pubsub: pubsub}
}

// Publisher returns the native watermill publisher for wrapping.
func (b *Bus) Publisher() message.Publisher {
	return b.pubsub
}

// Subscribe returns a channel of messages for the topic. The channel
// closes when ctx is cancelled or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts the global zerolog logger to watermill's
// LoggerAdapter interface.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) log(level string, msg string, err error, fields watermill.LogFields) {
	event := logging.Debug()
	switch level {
	case "info":
		event = logging.Info()
	case "error":
		event = logging.Error()
	}
	if err != nil {
		event = event.Err(err)
	}
	for k, v := range l.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log("error", msg, err, fields)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log("info", msg, nil, fields)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log("debug", msg, nil, fields)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log("debug", msg, nil, fields)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &watermillLogger{fields: merged}
}
