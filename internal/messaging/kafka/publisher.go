package kafka

import (
	"context"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/matheusmosca/bookstore-backoffice/internal/messaging"
)

// batchTimeout bounds how long a checkout response waits on the writer.
const batchTimeout = 10 * time.Millisecond

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Publisher writes events to a single topic through one long lived writer
type Publisher struct {
	w writer
}

// NewPublisher creates a publisher for topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           batchTimeout,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, key string, event messaging.Event) error {
	payload, err := messaging.Encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.w.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
