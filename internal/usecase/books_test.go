package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository/memory"
)

func floatPtr(v float64) *float64 { return &v }

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validBookRequest(genreID string) BookRequest {
	return BookRequest{
		Title:           strPtr("Dune"),
		Writer:          strPtr("Frank Herbert"),
		Publisher:       strPtr("Chilton"),
		PublicationYear: floatPtr(1965),
		Price:           decimalPtr("19.90"),
		StockQuantity:   floatPtr(5),
		GenreID:         strPtr(genreID),
	}
}

func TestCreateBook(t *testing.T) {
	f := newFixture(t)
	uc := NewBookUseCase(f.store)

	book, err := uc.Create(f.ctx, validBookRequest(f.genre.ID))

	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 1965, book.PublicationYear)
	assert.Equal(t, 5, book.StockQuantity)
	require.NotNil(t, book.Genre)
	assert.Equal(t, "Science Fiction", book.Genre.Name)

	_, err = uc.Create(f.ctx, validBookRequest(f.genre.ID))
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.EqualError(t, err, "Book title already exists")
}

func TestCreateBookValidation(t *testing.T) {
	f := newFixture(t)
	uc := NewBookUseCase(f.store)

	tests := []struct {
		name    string
		mutate  func(r *BookRequest)
		kind    apperror.Kind
		message string
	}{
		{"missing title", func(r *BookRequest) { r.Title = nil }, apperror.KindValidation, "Title is required"},
		{"blank writer", func(r *BookRequest) { r.Writer = strPtr(" ") }, apperror.KindValidation, "Writer is required"},
		{"missing price", func(r *BookRequest) { r.Price = nil }, apperror.KindValidation, "Price is required"},
		{"negative price", func(r *BookRequest) { r.Price = decimalPtr("-1") }, apperror.KindValidation, "Price must be a positive number"},
		{"negative stock", func(r *BookRequest) { r.StockQuantity = floatPtr(-1) }, apperror.KindValidation, "Stock quantity must be a positive number"},
		{"fractional stock", func(r *BookRequest) { r.StockQuantity = floatPtr(1.5) }, apperror.KindValidation, "Stock quantity must be an integer, not a decimal number"},
		{"stock out of range", func(r *BookRequest) { r.StockQuantity = floatPtr(1e10) }, apperror.KindValidation, "Stock quantity must not exceed 2147483647"},
		{"fractional year", func(r *BookRequest) { r.PublicationYear = floatPtr(1965.5) }, apperror.KindValidation, "Publication year must be a number"},
		{"unknown genre", func(r *BookRequest) { r.GenreID = strPtr("missing") }, apperror.KindNotFound, "Genre with id missing not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBookRequest(f.genre.ID)
			tt.mutate(&req)

			_, err := uc.Create(f.ctx, req)

			assert.Equal(t, tt.kind, apperror.KindOf(err))
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestListBooks(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 12; i++ {
		f.book(t, fmt.Sprintf("Foundation %02d", i), 1, "10")
	}
	f.book(t, "Dune", 1, "10")
	uc := NewBookUseCase(f.store)

	page, err := uc.List(f.ctx, BookQuery{Q: "foundation", Page: "2", Limit: "5"})

	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Books, 5)
	assert.Equal(t, "Foundation 07", page.Books[0].Title)

	page, err = uc.List(f.ctx, BookQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Books, 10)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		page, limit string
		message     string
	}{
		{"0", "", "Page must be at least 1"},
		{"abc", "", "Page must be at least 1"},
		{"", "0", "Limit must be between 1 and 100"},
		{"", "101", "Limit must be between 1 and 100"},
	}
	for _, tt := range tests {
		_, _, err := ParsePagination(tt.page, tt.limit)
		assert.EqualError(t, err, tt.message)
	}

	page, limit, err := ParsePagination("3", "100")
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)
}

func TestListBooksByGenre(t *testing.T) {
	f := newFixture(t)
	f.book(t, "Dune", 1, "10")
	uc := NewBookUseCase(f.store)

	other, err := NewGenreUseCase(f.store).Create(f.ctx, GenreRequest{Name: strPtr("Poetry")})
	require.NoError(t, err)
	_, err = uc.Create(f.ctx, BookRequest{
		Title: strPtr("Odes"), Writer: strPtr("Keats"), Publisher: strPtr("Pub"),
		PublicationYear: floatPtr(1819), Price: decimalPtr("5"), StockQuantity: floatPtr(3), GenreID: strPtr(other.ID),
	})
	require.NoError(t, err)

	page, err := uc.ListByGenre(f.ctx, other.ID, BookQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Odes", page.Books[0].Title)
	assert.Equal(t, "Poetry", page.Genre.Name)

	_, err = uc.ListByGenre(f.ctx, "missing", BookQuery{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUpdateBook(t *testing.T) {
	f := newFixture(t)
	dune := f.book(t, "Dune", 1, "10")
	f.book(t, "Hyperion", 1, "10")
	uc := NewBookUseCase(f.store)

	updated, err := uc.Update(f.ctx, dune.ID, BookRequest{Price: decimalPtr("12.5"), StockQuantity: floatPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 7, updated.StockQuantity)

	_, err = uc.Update(f.ctx, dune.ID, BookRequest{Title: strPtr("Hyperion")})
	assert.EqualError(t, err, "Book title already exists")

	_, err = uc.Update(f.ctx, dune.ID, BookRequest{Title: strPtr("")})
	assert.EqualError(t, err, "Title cannot be empty")

	_, err = uc.Update(f.ctx, dune.ID, BookRequest{GenreID: strPtr("missing")})
	assert.EqualError(t, err, "Genre with id missing not found")

	_, err = uc.Update(f.ctx, "missing", BookRequest{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteBook(t *testing.T) {
	f := newFixture(t)
	dune := f.book(t, "Dune", 1, "10")
	uc := NewBookUseCase(f.store)

	deleted, err := uc.Delete(f.ctx, dune.ID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	_, err = uc.Get(f.ctx, dune.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = uc.Delete(f.ctx, dune.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.EqualError(t, err, fmt.Sprintf("Book with id %s has already been deleted", dune.ID))

	page, err := uc.List(f.ctx, BookQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

// lockHookStore runs onLock right after a transaction locks a book row
type lockHookStore struct {
	*memory.Store
	onLock func()
}

func (s lockHookStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return lockHookTx{Tx: tx, onLock: s.onLock}, nil
}

type lockHookTx struct {
	repository.Tx
	onLock func()
}

func (t lockHookTx) Books() repository.BookRepository {
	return lockHookBooks{BookRepository: t.Tx.Books(), onLock: t.onLock}
}

type lockHookBooks struct {
	repository.BookRepository
	onLock func()
}

func (b lockHookBooks) GetForUpdate(ctx context.Context, id string) (*entity.Book, error) {
	book, err := b.BookRepository.GetForUpdate(ctx, id)
	b.onLock()
	return book, err
}

func TestBookWritesKeepConcurrentCheckoutDecrement(t *testing.T) {
	tests := []struct {
		name  string
		write func(uc *BookUseCase, f *fixture, id string) error
	}{
		{"title edit", func(uc *BookUseCase, f *fixture, id string) error {
			_, err := uc.Update(f.ctx, id, BookRequest{Title: strPtr("Dune Messiah")})
			return err
		}},
		{"price edit", func(uc *BookUseCase, f *fixture, id string) error {
			_, err := uc.Update(f.ctx, id, BookRequest{Price: decimalPtr("15")})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			dune := f.book(t, "Dune", 1, "10")
			transactions := f.transactions(t, nil)

			var (
				once        sync.Once
				checkoutErr = make(chan error, 1)
			)
			// A buyer takes the only unit while the edit holds the row.
			books := NewBookUseCase(lockHookStore{Store: f.store, onLock: func() {
				once.Do(func() {
					go func() {
						_, err := transactions.CreateTransaction(f.ctx, f.user.ID, items(dune.ID, 1))
						checkoutErr <- err
					}()
				})
			}})

			// Act
			err := tt.write(books, f, dune.ID)

			// Assert
			require.NoError(t, err)
			require.NoError(t, <-checkoutErr)
			assert.Equal(t, 0, f.stockOf(t, dune.ID))

			_, err = transactions.CreateTransaction(f.ctx, f.user.ID, items(dune.ID, 1))
			assert.Equal(t, apperror.KindBusinessLogic, apperror.KindOf(err))
			assert.Equal(t, 1, f.orderCount(t))
		})
	}
}

func TestDeleteBookWaitsForCheckoutLock(t *testing.T) {
	// Arrange
	f := newFixture(t)
	dune := f.book(t, "Dune", 2, "10")
	transactions := f.transactions(t, nil)
	books := NewBookUseCase(f.store)

	tx, err := f.store.BeginTx(f.ctx)
	require.NoError(t, err)
	_, err = tx.Books().GetForUpdate(f.ctx, dune.ID)
	require.NoError(t, err)

	deleted := make(chan error, 1)
	go func() {
		_, err := books.Delete(f.ctx, dune.ID)
		deleted <- err
	}()

	// Act
	require.NoError(t, tx.Books().UpdateStock(f.ctx, dune.ID, 1))
	require.NoError(t, tx.Commit(f.ctx))

	// Assert
	require.NoError(t, <-deleted)
	book, err := f.store.Books().GetByID(f.ctx, dune.ID)
	require.NoError(t, err)
	assert.True(t, book.IsDeleted())
	assert.Equal(t, 1, book.StockQuantity)

	_, err = transactions.CreateTransaction(f.ctx, f.user.ID, items(dune.ID, 1))
	assert.EqualError(t, err, `Book "Dune" has been deleted and cannot be purchased`)
}
