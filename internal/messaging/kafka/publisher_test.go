package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/bookstore-backoffice/internal/messaging"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func TestPublish(t *testing.T) {
	// Arrange
	ctx := context.Background()
	w := new(MockWriter)
	var sent []kafkaGo.Message
	w.On("WriteMessages", ctx, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafkaGo.Message) }).
		Return(nil)
	publisher := &Publisher{w: w}

	event := messaging.Event{
		Type:       messaging.EventTransactionCreated,
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Payload:    messaging.TransactionCreated{TransactionID: "o-1", UserID: "u-1"},
	}

	// Act
	err := publisher.Publish(ctx, "o-1", event)

	// Assert
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, []byte("o-1"), sent[0].Key)
	assert.Equal(t, "event-type", sent[0].Headers[0].Key)

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(sent[0].Value, &decoded))
	assert.Equal(t, messaging.EventTransactionCreated, decoded["type"])
	assert.Equal(t, "o-1", decoded["payload"].(map[string]any)["transaction_id"])
}

func TestPublishPropagatesWriterError(t *testing.T) {
	ctx := context.Background()
	w := new(MockWriter)
	w.On("WriteMessages", ctx, mock.Anything).Return(errors.New("leader not available"))
	w.On("Close").Return(nil)
	publisher := &Publisher{w: w}

	err := publisher.Publish(ctx, "o-1", messaging.Event{Type: messaging.EventTransactionCreated})

	assert.EqualError(t, err, "leader not available")
	assert.NoError(t, publisher.Close())
	w.AssertExpectations(t)
}

func TestNewPublisherFlushesPromptly(t *testing.T) {
	publisher := NewPublisher([]string{"kafka-1:9092", "kafka-2:9092"}, "bookstore.transactions")

	w, ok := publisher.w.(*kafkaGo.Writer)
	require.True(t, ok)
	assert.Equal(t, "bookstore.transactions", w.Topic)
	assert.Equal(t, kafkaGo.RequireAll, w.RequiredAcks)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Positive(t, w.BatchTimeout)
}
