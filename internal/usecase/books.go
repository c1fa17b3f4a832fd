package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

// BookRequest is the body of both create and partial update. Absent fields
// are nil.
type BookRequest struct {
	Title           *string          `json:"title"`
	Writer          *string          `json:"writer"`
	Publisher       *string          `json:"publisher"`
	PublicationYear *float64         `json:"publication_year"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	StockQuantity   *float64         `json:"stock_quantity"`
	GenreID         *string          `json:"genre_id"`
}

// BookQuery holds the raw listing parameters taken from the query string.
type BookQuery struct {
	Page  string
	Limit string
	Q     string
}

// BookPage is one page of a listing
type BookPage struct {
	Books []entity.Book
	Total int
	Page  int
	Limit int
	Pages int
	Genre *entity.Genre
}

type BookUseCase struct {
	store repository.Store
}

func NewBookUseCase(store repository.Store) *BookUseCase {
	return &BookUseCase{store: store}
}

func (uc *BookUseCase) Create(ctx context.Context, req BookRequest) (*entity.Book, error) {
	required := []struct {
		missing bool
		field   string
		message string
	}{
		{blank(req.Title), "title", "Title is required"},
		{blank(req.Writer), "writer", "Writer is required"},
		{blank(req.Publisher), "publisher", "Publisher is required"},
		{req.PublicationYear == nil, "publication_year", "Publication year is required"},
		{req.Price == nil, "price", "Price is required"},
		{req.StockQuantity == nil, "stock_quantity", "Stock quantity is required"},
		{blank(req.GenreID), "genre_id", "Genre ID is required"},
	}
	for _, r := range required {
		if r.missing {
			return nil, apperror.Validation(r.field, r.message)
		}
	}

	year, err := publicationYear(*req.PublicationYear)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}
	stock, err := stockQuantity(*req.StockQuantity)
	if err != nil {
		return nil, err
	}

	genreID := strings.TrimSpace(*req.GenreID)
	if _, err := activeGenre(ctx, uc.store, genreID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(*req.Title)
	if err := ensureTitleAvailable(ctx, uc.store, title, ""); err != nil {
		return nil, err
	}

	var description string
	if req.Description != nil {
		description = *req.Description
	}

	book := entity.NewBook(
		title,
		strings.TrimSpace(*req.Writer),
		strings.TrimSpace(*req.Publisher),
		year,
		description,
		*req.Price,
		stock,
		genreID,
	)
	if err := uc.store.Books().Create(ctx, book); err != nil {
		return nil, bookWriteError("failed to create book", err, genreID)
	}

	logger.GetLogger(ctx).WithField("book_id", book.ID).Info("book created")
	return uc.reload(ctx, book.ID)
}

func publicationYear(v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, apperror.Validation("publication_year", "Publication year must be a number")
	}
	return int(v), nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.Validation("price", "Price must be a positive number")
	}
	return nil
}

func stockQuantity(v float64) (int, error) {
	if v < 0 {
		return 0, apperror.Validation("stock_quantity", "Stock quantity must be a positive number")
	}
	if v != math.Trunc(v) {
		return 0, apperror.Validation("stock_quantity", "Stock quantity must be an integer, not a decimal number")
	}
	if v > math.MaxInt32 {
		return 0, apperror.Validation("stock_quantity", fmt.Sprintf("Stock quantity must not exceed %d", math.MaxInt32))
	}
	return int(v), nil
}

func ensureTitleAvailable(ctx context.Context, q repository.Queries, title, exceptID string) error {
	existing, err := q.Books().GetByTitle(ctx, title)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return internalError("failed to look up book", err)
	}
	if existing.ID != exceptID {
		return apperror.Conflict("Book title already exists")
	}
	return nil
}

func bookWriteError(message string, err error, genreID string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict("Book title already exists")
	case errors.Is(err, repository.ErrInvalidReference):
		return apperror.NotFound("Genre", genreID)
	default:
		return internalError(message, err)
	}
}

func (uc *BookUseCase) reload(ctx context.Context, id string) (*entity.Book, error) {
	book, err := uc.store.Books().GetByID(ctx, id)
	if err != nil {
		return nil, internalError("failed to load book", err)
	}
	return book, nil
}

// ParsePagination applies the listing defaults and bounds.
func ParsePagination(pageRaw, limitRaw string) (int, int, error) {
	page, limit := defaultPage, defaultLimit
	if pageRaw != "" {
		p, err := strconv.Atoi(pageRaw)
		if err != nil || p < 1 {
			return 0, 0, apperror.Validation("page", "Page must be at least 1")
		}
		page = p
	}
	if limitRaw != "" {
		l, err := strconv.Atoi(limitRaw)
		if err != nil || l < 1 || l > maxLimit {
			return 0, 0, apperror.Validation("limit", "Limit must be between 1 and 100")
		}
		limit = l
	}
	return page, limit, nil
}

func (uc *BookUseCase) List(ctx context.Context, query BookQuery) (*BookPage, error) {
	return uc.list(ctx, query, nil)
}

// ListByGenre lists the active books of an active genre.
func (uc *BookUseCase) ListByGenre(ctx context.Context, genreID string, query BookQuery) (*BookPage, error) {
	if strings.TrimSpace(genreID) == "" {
		return nil, apperror.Validation("genre_id", "Genre ID is required")
	}
	if _, _, err := ParsePagination(query.Page, query.Limit); err != nil {
		return nil, err
	}
	genre, err := activeGenre(ctx, uc.store, genreID)
	if err != nil {
		return nil, err
	}
	return uc.list(ctx, query, genre)
}

func (uc *BookUseCase) list(ctx context.Context, query BookQuery, genre *entity.Genre) (*BookPage, error) {
	page, limit, err := ParsePagination(query.Page, query.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.BookFilter{
		Query: strings.TrimSpace(query.Q),
		Page:  page,
		Limit: limit,
	}
	if genre != nil {
		filter.GenreID = genre.ID
	}

	books, total, err := uc.store.Books().List(ctx, filter)
	if err != nil {
		return nil, internalError("failed to list books", err)
	}

	return &BookPage{
		Books: books,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
		Genre: genre,
	}, nil
}

// Get returns an active book with its genre.
func (uc *BookUseCase) Get(ctx context.Context, id string) (*entity.Book, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.Validation("book_id", "Book ID is required")
	}
	book, err := uc.store.Books().GetByID(ctx, id)
	if isNotFound(err) || (err == nil && book.IsDeleted()) {
		return nil, apperror.NotFound("Book", id)
	}
	if err != nil {
		return nil, internalError("failed to look up book", err)
	}
	return book, nil
}

// Update applies the fields present in req to an active book. The row is
// locked for the whole read-modify-write so a concurrent checkout's stock
// decrement is never overwritten.
func (uc *BookUseCase) Update(ctx context.Context, id string, req BookRequest) (*entity.Book, error) {
	present := []struct {
		value   *string
		field   string
		message string
	}{
		{req.Title, "title", "Title cannot be empty"},
		{req.Writer, "writer", "Writer cannot be empty"},
		{req.Publisher, "publisher", "Publisher cannot be empty"},
		{req.GenreID, "genre_id", "Genre ID cannot be empty"},
	}
	for _, p := range present {
		if p.value != nil && blank(p.value) {
			return nil, apperror.Validation(p.field, p.message)
		}
	}

	var genreID string
	err := repository.WithinTx(ctx, uc.store, func(tx repository.Tx) error {
		book, err := lockActiveBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyBookChanges(ctx, tx, book, req); err != nil {
			return err
		}
		genreID = book.GenreID

		book.UpdatedAt = now()
		return tx.Books().Update(ctx, book)
	})
	if err != nil {
		return nil, bookWriteError("failed to update book", err, genreID)
	}
	return uc.reload(ctx, id)
}

func lockActiveBook(ctx context.Context, tx repository.Tx, id string) (*entity.Book, error) {
	book, err := tx.Books().GetForUpdate(ctx, id)
	if isNotFound(err) || (err == nil && book.IsDeleted()) {
		return nil, apperror.NotFound("Book", id)
	}
	if err != nil {
		return nil, internalError("failed to look up book", err)
	}
	return book, nil
}

func applyBookChanges(ctx context.Context, q repository.Queries, book *entity.Book, req BookRequest) error {
	var err error
	if req.PublicationYear != nil {
		if book.PublicationYear, err = publicationYear(*req.PublicationYear); err != nil {
			return err
		}
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return err
		}
		book.Price = *req.Price
	}
	if req.StockQuantity != nil {
		if book.StockQuantity, err = stockQuantity(*req.StockQuantity); err != nil {
			return err
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != book.Title {
			if err := ensureTitleAvailable(ctx, q, title, book.ID); err != nil {
				return err
			}
		}
		book.Title = title
	}
	if req.GenreID != nil {
		genreID := strings.TrimSpace(*req.GenreID)
		if genreID != book.GenreID {
			if _, err := activeGenre(ctx, q, genreID); err != nil {
				return err
			}
		}
		book.GenreID = genreID
	}
	if req.Writer != nil {
		book.Writer = strings.TrimSpace(*req.Writer)
	}
	if req.Publisher != nil {
		book.Publisher = strings.TrimSpace(*req.Publisher)
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	return nil
}

// Delete soft deletes a book. Its order items keep referencing it.
func (uc *BookUseCase) Delete(ctx context.Context, id string) (*entity.Book, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.Validation("book_id", "Book ID is required")
	}

	var book *entity.Book
	err := repository.WithinTx(ctx, uc.store, func(tx repository.Tx) error {
		locked, err := tx.Books().GetForUpdate(ctx, id)
		if isNotFound(err) {
			return apperror.NotFound("Book", id)
		}
		if err != nil {
			return internalError("failed to look up book", err)
		}
		if locked.IsDeleted() {
			return apperror.Validation("book_id", fmt.Sprintf("Book with id %s has already been deleted", id))
		}

		deletedAt := now()
		locked.DeletedAt = &deletedAt
		locked.UpdatedAt = deletedAt
		if err := tx.Books().Update(ctx, locked); err != nil {
			return err
		}
		book = locked
		return nil
	})
	if err != nil {
		return nil, internalError("failed to delete book", err)
	}

	logger.GetLogger(ctx).WithField("book_id", book.ID).Info("book deleted")
	return book, nil
}
