package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
	// BatchTimeout bounds how long a single event waits for batch companions.
	BatchTimeout time.Duration
}

// Kafka publishes to Kafka topics, keeping one writer per topic.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	return &Kafka{cfg: cfg, writers: map[string]*kafka.Writer{}}, nil
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := checkPublish(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	w, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	headers := make([]kafka.Header, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		headers = append(headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	now := time.Now()
	if err := w.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Body, Time: now, Headers: headers}); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka write: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: now}, nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      k.cfg.Brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Dialer:       k.cfg.Dialer,
		BatchTimeout: k.cfg.BatchTimeout,
	})
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true

	var err error
	for _, w := range k.writers {
		err = errors.Join(err, w.Close())
	}
	k.writers = nil
	return err
}
