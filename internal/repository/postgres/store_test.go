package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/bookstore-backoffice/internal/config"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

// MockQuerier stands in for a pool or an open transaction
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	mockArgs := m.Called(ctx, sql, args)
	return mockArgs.Get(0).(pgconn.CommandTag), mockArgs.Error(1)
}

func (m *MockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	mockArgs := m.Called(ctx, sql, args)
	rows, _ := mockArgs.Get(0).(pgx.Rows)
	return rows, mockArgs.Error(1)
}

func (m *MockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	mockArgs := m.Called(ctx, sql, args)
	return mockArgs.Get(0).(pgx.Row)
}

// MockRow returns a canned Scan result
type MockRow struct {
	scanFunc func(dest ...any) error
}

func (m *MockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

func TestNewStore(t *testing.T) {
	// Arrange
	var pool *pgxpool.Pool

	// Act
	store := NewStore(pool)

	// Assert
	assert.NotNil(t, store)
	assert.NotNil(t, store.Books())
	assert.NotNil(t, store.Orders())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, repository.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "books_title_key"}, repository.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "books_genre_id_fkey"}, repository.ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
	assert.NoError(t, translate(nil))
}

func TestMustAffect(t *testing.T) {
	assert.NoError(t, mustAffect(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, mustAffect(pgconn.NewCommandTag("UPDATE 0"), nil), repository.ErrNotFound)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := new(MockQuerier)
	db.On("QueryRow", ctx, mock.Anything, []any{"u-1"}).
		Return(&MockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
	repo := &userRepository{db: db}

	// Act
	user, err := repo.GetByID(ctx, "u-1")

	// Assert
	assert.Nil(t, user)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	db.AssertExpectations(t)
}

func TestBookRepository_GetForUpdate(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Now().UTC()
	db := new(MockQuerier)
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FOR UPDATE OF b")
	}), []any{"b-1"}).Return(&MockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = "b-1"
		*dest[1].(*string) = "Dune"
		*dest[6].(*decimal.Decimal) = decimal.RequireFromString("10.50")
		*dest[7].(*int) = 5
		*dest[8].(*string) = "g-1"
		*dest[9].(*time.Time) = now
		*dest[12].(*string) = "g-1"
		*dest[13].(*string) = "Sci-Fi"
		return nil
	}})
	repo := &bookRepository{db: db}

	// Act
	book, err := repo.GetForUpdate(ctx, "b-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 5, book.StockQuantity)
	assert.True(t, book.Price.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, "Sci-Fi", book.Genre.Name)
	db.AssertExpectations(t)
}

func TestBookRepository_UpdateStockMissingRow(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := new(MockQuerier)
	db.On("Exec", ctx, mock.Anything, []any{"b-1", 2}).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
	repo := &bookRepository{db: db}

	// Act
	err := repo.UpdateStock(ctx, "b-1", 2)

	// Assert
	assert.ErrorIs(t, err, repository.ErrNotFound)
	db.AssertExpectations(t)
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	// Arrange
	ctx := context.Background()
	order := entity.NewOrder("u-1")
	db := new(MockQuerier)
	db.On("Exec", ctx, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "orders_pkey"})
	repo := &orderRepository{db: db}

	// Act
	err := repo.Create(ctx, order)

	// Assert
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "orders_pkey")
}

func TestOrderRepository_ItemsKeepWriteOrder(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := new(MockQuerier)
	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "ORDER BY oi.order_id, oi.seq")
	}), []any{[]string{"o-1"}}).Return(nil, errors.New("connection reset"))
	repo := &orderRepository{db: db}

	// Act
	_, err := repo.itemsOf(ctx, []string{"o-1"})

	// Assert
	assert.EqualError(t, err, "connection reset")
	db.AssertExpectations(t)
	assert.Contains(t, schema, "ADD COLUMN IF NOT EXISTS seq BIGSERIAL")
}

func TestOpen_MigratesAfterConnecting(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cfg := config.Database{Host: "127.0.0.1", Port: "1", User: "root", Password: "pass", Name: "bookstore_db", MaxConns: 1}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	require.NoError(t, err)

	var steps []string
	o := opener{
		connect: func(context.Context, config.Database) (*pgxpool.Pool, error) {
			steps = append(steps, "connect")
			return pool, nil
		},
		migrate: func(_ context.Context, dsn string) error {
			steps = append(steps, "migrate")
			assert.Equal(t, cfg.DSN(), dsn)
			return nil
		},
	}

	// Act
	store, err := o.open(ctx, cfg)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Equal(t, []string{"connect", "migrate"}, steps)
	store.Close()
}

func TestOpen_SkipsMigrationWhenDatabaseNeverComesUp(t *testing.T) {
	// Arrange
	migrated := false
	o := opener{
		connect: func(context.Context, config.Database) (*pgxpool.Pool, error) {
			return nil, errors.New("failed to connect to database after 30 attempts")
		},
		migrate: func(context.Context, string) error {
			migrated = true
			return nil
		},
	}

	// Act
	store, err := o.open(context.Background(), config.Database{})

	// Assert
	assert.Nil(t, store)
	assert.EqualError(t, err, "failed to connect to database after 30 attempts")
	assert.False(t, migrated)
}
