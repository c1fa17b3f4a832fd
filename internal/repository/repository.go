package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
)

var (
	// ErrNotFound is returned by point lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique attribute is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidReference is returned when a foreign key points nowhere.
	ErrInvalidReference = errors.New("invalid reference")
)

// BookFilter selects a page of non-deleted books.
type BookFilter struct {
	Query   string
	GenreID string
	Page    int
	Limit   int
}

// Offset returns the number of rows skipped before the page.
func (f BookFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// GenreRepository persists genres
type GenreRepository interface {
	Create(ctx context.Context, genre *entity.Genre) error
	GetByID(ctx context.Context, id string) (*entity.Genre, error)
	GetByName(ctx context.Context, name string) (*entity.Genre, error)
	// List returns non-deleted genres, newest first.
	List(ctx context.Context) ([]entity.Genre, error)
	// Update writes name, updated_at and deleted_at.
	Update(ctx context.Context, genre *entity.Genre) error
}

// BookRepository persists books
type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	// GetByID returns the book with its genre, deleted or not.
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	// GetForUpdate returns the book and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*entity.Book, error)
	GetByTitle(ctx context.Context, title string) (*entity.Book, error)
	// List returns one page of non-deleted books matching the filter,
	// newest first, and the total count of matches.
	List(ctx context.Context, filter BookFilter) ([]entity.Book, int, error)
	CountActiveByGenre(ctx context.Context, genreID string) (int, error)
	Update(ctx context.Context, book *entity.Book) error
	UpdateStock(ctx context.Context, id string, stock int) error
}

// OrderRepository persists orders and their items
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	CreateItem(ctx context.Context, item *entity.OrderItem) error
	SetTotal(ctx context.Context, orderID string, total decimal.Decimal) error
	// GetByID returns the order with its user summary and items.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// List returns every order newest first, composed like GetByID.
	List(ctx context.Context) ([]entity.Order, error)
	Statistics(ctx context.Context) (*entity.TransactionStatistics, error)
}

// Queries groups the repositories bound to one connection or transaction.
type Queries interface {
	Users() UserRepository
	Genres() GenreRepository
	Books() BookRepository
	Orders() OrderRepository
}

// Tx is an open all-or-nothing unit of work.
type Tx interface {
	Queries
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the persistence handle opened at startup and closed on shutdown.
type Store interface {
	Queries
	BeginTx(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// WithinTx runs fn inside a transaction. The transaction commits when fn
// returns nil and is rolled back when fn fails or panics.
func WithinTx(ctx context.Context, store Store, fn func(tx Tx) error) (err error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	rollback := func() {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.GetLogger(ctx).WithError(rbErr).Error("failed to rollback transaction")
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		rollback()
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
