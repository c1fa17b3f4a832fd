package messaging

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

const EventTransactionCreated = "transaction.created"

// Event is the envelope written to the broker
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// TransactionCreated is published once a checkout has committed
type TransactionCreated struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Items         []ItemSold      `json:"items"`
}

type ItemSold struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// Publisher delivers events keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

func Encode(event Event) ([]byte, error) {
	return sonic.Marshal(event)
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }
func (Noop) Close() error                                 { return nil }
