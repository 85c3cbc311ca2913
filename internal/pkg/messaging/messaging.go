// Package messaging publishes events to a broker: NSQ, NATS, Kafka or Google
// Pub/Sub. The service only emits OTP lifecycle events, so the surface is
// publish-only.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when Publish is called with an empty topic or subject.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("messaging: publisher is closed")
	// ErrUnsupported is returned when the broker cannot honour a message option, e.g. Delay.
	ErrUnsupported = errors.New("messaging: unsupported operation")
)

// Publisher sends messages to a destination (topic or subject).
type Publisher interface {
	io.Closer
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is a broker-agnostic message.
type OutgoingMessage struct {
	Body []byte
	// Key is used by Kafka for partitioning.
	Key []byte
	// Headers are carried natively by NATS and Kafka and as attributes by Pub/Sub.
	// NSQ has no headers and drops them.
	Headers []Header
	// OrderingKey is used by Google Pub/Sub.
	OrderingKey string
	// Delay defers delivery; only NSQ supports it.
	Delay time.Duration
}

type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker metadata.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Noop discards every message. It backs the "none" driver.
type Noop struct{}

func (Noop) Publish(_ context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (Noop) Close() error { return nil }
