package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/messaging"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository/memory"
)

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, event messaging.Event) error {
	return m.Called(ctx, key, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type fixture struct {
	ctx   context.Context
	store *memory.Store
	genre *entity.Genre
	user  *entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.NewStore()}

	f.genre = entity.NewGenre("Science Fiction")
	require.NoError(t, f.store.Genres().Create(f.ctx, f.genre))

	f.user = entity.NewUser("u1@example.com", "u1", "hash")
	require.NoError(t, f.store.Users().Create(f.ctx, f.user))
	return f
}

func (f *fixture) book(t *testing.T, title string, stock int, price string) *entity.Book {
	t.Helper()
	book := entity.NewBook(title, "Writer", "Publisher", 1965, "", decimal.RequireFromString(price), stock, f.genre.ID)
	require.NoError(t, f.store.Books().Create(f.ctx, book))
	return book
}

func (f *fixture) stockOf(t *testing.T, bookID string) int {
	t.Helper()
	book, err := f.store.Books().GetByID(f.ctx, bookID)
	require.NoError(t, err)
	return book.StockQuantity
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	orders, err := f.store.Orders().List(f.ctx)
	require.NoError(t, err)
	return len(orders)
}

func (f *fixture) transactions(t *testing.T, publisher messaging.Publisher) *TransactionUseCase {
	t.Helper()
	uc, err := NewTransactionUseCase(f.store, publisher, tracenoop.NewTracerProvider().Tracer("test"), metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return uc
}
